// Package poll implements inline-button polls with one vote per user.
package poll

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/transport"
	"github.com/kabozek1/tgbot-final02/internal/utils"
)

const CallbackPrefix = "poll:"

var (
	ErrDisabled          = errors.New("polls disabled")
	ErrUsage             = errors.New("poll needs a question and at least two options")
	ErrTooManyOptions    = errors.New("too many poll options")
	ErrMalformedCallback = errors.New("malformed poll callback")
	ErrInvalidOption     = errors.New("invalid poll option")
)

var voteForms = utils.Forms{One: messages.MsgVotesOne, Few: messages.MsgVotesFew, Many: messages.MsgVotesMany}

type Source interface {
	Poll() settings.Poll
}

type Service struct {
	repo      repository.PollRepository
	messenger transport.Messenger
	cfg       Source
	log       *slog.Logger
	newID     func() string
	now       func() time.Time
}

func NewService(repo repository.PollRepository, messenger transport.Messenger, cfg Source, log *slog.Logger) *Service {
	return &Service{repo: repo, messenger: messenger, cfg: cfg, log: log, newID: uuid.NewString, now: time.Now}
}

// Parse splits "question;option1;option2" and checks the option count.
func Parse(args string, maxOptions int) (string, []string, error) {
	parts := strings.Split(args, ";")
	question := strings.TrimSpace(parts[0])
	var options []string
	for _, p := range parts[1:] {
		if p = strings.TrimSpace(p); p != "" {
			options = append(options, p)
		}
	}
	if question == "" || len(options) < 2 {
		return "", nil, ErrUsage
	}
	if len(options) > maxOptions {
		return "", nil, ErrTooManyOptions
	}
	return question, options, nil
}

// Create posts a new poll to chatID and stores it.
func (s *Service) Create(ctx context.Context, chatID int64, threadID int, creator int64, args string) (*repository.Poll, error) {
	cfg := s.cfg.Poll()
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	question, options, err := Parse(args, cfg.MaxOptions)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("failed to encode poll options: %w", err)
	}
	p := &repository.Poll{
		ID:        s.newID(),
		ChatID:    chatID,
		Question:  question,
		Options:   raw,
		CreatedBy: creator,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	text, buttons := Render(p.ID, question, options, nil)
	msgID, err := s.messenger.Send(ctx, transport.OutgoingMessage{ChatID: chatID, ThreadID: threadID, Text: text, Buttons: buttons})
	if err != nil {
		return nil, fmt.Errorf("failed to send poll: %w", err)
	}
	p.MessageID = msgID
	if err := s.repo.SetMessageID(ctx, p.ID, msgID); err != nil {
		s.log.Error("Failed to save poll message id", "poll_id", p.ID, "error", err)
	}
	s.log.Info("Poll created", "poll_id", p.ID, "chat_id", chatID, "options", len(options))
	return p, nil
}

// Vote records the press and refreshes the poll message. It returns the
// text to answer the callback with.
func (s *Service) Vote(ctx context.Context, press event.CallbackPress) (string, error) {
	pollID, option, err := parseCallback(press.Data)
	if err != nil {
		return "", err
	}
	p, err := s.repo.Get(ctx, pollID)
	if err != nil {
		if errors.Is(err, repository.ErrPollNotFound) {
			return messages.MsgPollNotFound, nil
		}
		return "", err
	}
	options, err := decodeOptions(p.Options)
	if err != nil {
		return "", err
	}
	if option >= len(options) {
		return messages.MsgPollBadOption, nil
	}

	first, err := s.repo.Vote(ctx, p.ID, press.From.ID, option)
	if err != nil {
		return "", err
	}
	if !first {
		return messages.MsgPollAlreadyVoted, nil
	}

	counts, err := s.repo.Counts(ctx, p.ID)
	if err != nil {
		return "", err
	}
	msgID := p.MessageID
	if msgID == 0 {
		msgID = press.MessageID
	}
	text, buttons := Render(p.ID, p.Question, options, counts)
	if err := s.messenger.EditText(ctx, press.ChatID, msgID, text, buttons); err != nil {
		s.log.Warn("Failed to update poll message", "poll_id", p.ID, "error", err)
	}
	return messages.MsgPollVoted, nil
}

// Render builds the poll text and one button per option. With counts set
// the text lists the results.
func Render(pollID, question string, options []string, counts map[int]int) (string, [][]transport.Button) {
	var b strings.Builder
	fmt.Fprintf(&b, messages.MsgPollHeader, question)
	buttons := make([][]transport.Button, 0, len(options))
	for i, opt := range options {
		label := opt
		if counts != nil {
			b.WriteString("\n")
			fmt.Fprintf(&b, messages.MsgPollOptionLine, opt, utils.Plural(counts[i], voteForms))
			label = fmt.Sprintf("%s (%d)", opt, counts[i])
		}
		buttons = append(buttons, []transport.Button{{Text: label, Data: fmt.Sprintf("%s%s:%d", CallbackPrefix, pollID, i)}})
	}
	return b.String(), buttons
}

func parseCallback(data string) (string, int, error) {
	rest, ok := strings.CutPrefix(data, CallbackPrefix)
	if !ok {
		return "", 0, ErrMalformedCallback
	}
	id, idx, ok := strings.Cut(rest, ":")
	if !ok || id == "" {
		return "", 0, ErrMalformedCallback
	}
	option, err := strconv.Atoi(idx)
	if err != nil || option < 0 {
		return "", 0, ErrMalformedCallback
	}
	return id, option, nil
}

func decodeOptions(raw []byte) ([]string, error) {
	var options []string
	if err := json.Unmarshal(raw, &options); err != nil {
		return nil, fmt.Errorf("failed to decode poll options: %w", err)
	}
	return options, nil
}
