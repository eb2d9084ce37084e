// Package stats records chat activity and membership history.
package stats

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/repository"
)

// Window is the period /stats reports on.
const Window = 7 * 24 * time.Hour

type Repositories struct {
	Users      repository.UserRepository
	Messages   repository.MessageLogRepository
	Membership repository.MembershipRepository
	Invites    repository.InviteRepository
	Topics     repository.ChatTopicRepository
	Polls      repository.PollRepository
	ChatStats  repository.ChatStatsRepository
}

type Logger struct {
	repos Repositories
	log   *slog.Logger
	now   func() time.Time
}

func NewLogger(repos Repositories, log *slog.Logger) *Logger {
	return &Logger{repos: repos, log: log, now: time.Now}
}

// RecordMessage logs a group message. Blocked messages are stored as moderated.
func (l *Logger) RecordMessage(ctx context.Context, p pipeline.Payload) error {
	if p.ChatID >= 0 {
		return nil
	}
	at := p.Date
	if at.IsZero() {
		at = l.now()
	}
	if err := l.repos.Users.Upsert(ctx, &repository.User{TelegramID: p.SenderID, Username: p.Username, FirstName: p.FirstName}); err != nil {
		l.log.Error("Failed to save user", "user_id", p.SenderID, "error", err)
	}

	entry := &repository.MessageLog{
		ChatID:      p.ChatID,
		MessageID:   p.MessageID,
		UserID:      p.SenderID,
		Date:        at,
		Text:        p.Text,
		ContentType: p.ContentType,
		Moderated:   p.Blocked,
	}
	if p.ThreadID != 0 {
		topic := p.ThreadID
		entry.TopicID = &topic
		if err := l.repos.Topics.Touch(ctx, p.ChatID, p.ThreadID); err != nil {
			l.log.Warn("Failed to register topic", "chat_id", p.ChatID, "topic_id", p.ThreadID, "error", err)
		}
	}
	if p.ReplyToMessageID != 0 {
		reply := p.ReplyToMessageID
		entry.ReplyToMessageID = &reply
	}
	if err := l.repos.Messages.Log(ctx, entry); err != nil {
		return err
	}
	if !p.Blocked {
		if err := l.repos.Invites.MarkFirstMessage(ctx, p.ChatID, p.SenderID, at); err != nil {
			l.log.Warn("Failed to mark first message", "chat_id", p.ChatID, "user_id", p.SenderID, "error", err)
		}
	}
	return nil
}

// ClassifyTransition maps a status change to a membership event type.
// An empty result means the change is not tracked.
func ClassifyTransition(oldStatus, newStatus string) string {
	switch {
	case newStatus == event.StatusMember && oldStatus != event.StatusMember &&
		oldStatus != event.StatusAdministrator && oldStatus != event.StatusCreator &&
		oldStatus != event.StatusKicked && oldStatus != event.StatusRestricted:
		return repository.MemberJoin
	case newStatus == event.StatusLeft && (oldStatus == event.StatusMember || oldStatus == event.StatusAdministrator):
		return repository.MemberLeave
	case newStatus == event.StatusKicked && oldStatus != event.StatusKicked:
		return repository.MemberBan
	case newStatus == event.StatusMember && oldStatus == event.StatusKicked:
		return repository.MemberUnban
	case newStatus == event.StatusRestricted && oldStatus != event.StatusRestricted && oldStatus != event.StatusKicked:
		return repository.MemberMute
	case newStatus == event.StatusMember && oldStatus == event.StatusRestricted:
		return repository.MemberUnmute
	}
	return ""
}

// RecordMembership logs a status change and keeps invite statistics current.
func (l *Logger) RecordMembership(ctx context.Context, ev event.MembershipChange) error {
	kind := ClassifyTransition(ev.OldStatus, ev.NewStatus)
	if kind == "" {
		return nil
	}
	at := ev.Date
	if at.IsZero() {
		at = l.now()
	}
	rec := &repository.MembershipEvent{
		ChatID:    ev.ChatID,
		UserID:    ev.Member.ID,
		EventType: kind,
		OldStatus: ev.OldStatus,
		NewStatus: ev.NewStatus,
		Date:      at,
	}
	if ev.Invite != nil {
		rec.InviteLink = ev.Invite.URL
	}
	if err := l.repos.Membership.LogEvent(ctx, rec); err != nil {
		return err
	}

	switch kind {
	case repository.MemberJoin:
		if err := l.repos.Users.Upsert(ctx, &repository.User{TelegramID: ev.Member.ID, Username: ev.Member.Username, FirstName: ev.Member.FirstName, IsBot: ev.Member.IsBot}); err != nil {
			l.log.Error("Failed to save user", "user_id", ev.Member.ID, "error", err)
		}
		link, ok := inviteFor(ev)
		if !ok {
			return nil
		}
		return l.repos.Invites.RecordJoin(ctx, link, ev.Member.ID, at)
	case repository.MemberLeave, repository.MemberBan:
		return l.repos.Invites.RecordLeave(ctx, ev.ChatID, ev.Member.ID, at)
	}
	return nil
}

// RecordVerifiedJoin attributes a join confirmed through the challenge.
func (l *Logger) RecordVerifiedJoin(ctx context.Context, chatID int64, user event.User, at time.Time) error {
	link := repository.InviteLink{
		ChatID:  chatID,
		LinkURL: fmt.Sprintf("virtual://captcha_join_%d", chatID),
		Name:    "captcha",
		Source:  repository.SourceCaptcha,
	}
	return l.repos.Invites.RecordJoin(ctx, link, user.ID, at)
}

func (l *Logger) RecordPollVote(ctx context.Context, ev event.PollVote) error {
	ids := make([]string, 0, len(ev.OptionIDs))
	for _, id := range ev.OptionIDs {
		ids = append(ids, fmt.Sprint(id))
	}
	at := ev.Date
	if at.IsZero() {
		at = l.now()
	}
	return l.repos.Polls.LogAnswer(ctx, &repository.PollAnswer{
		PollID:    ev.PollID,
		UserID:    ev.From.ID,
		OptionIDs: strings.Join(ids, ","),
		Date:      at,
	})
}

func inviteFor(ev event.MembershipChange) (repository.InviteLink, bool) {
	if ev.Invite != nil && ev.Invite.URL != "" {
		link := repository.InviteLink{ChatID: ev.ChatID, LinkURL: ev.Invite.URL, Name: ev.Invite.Name, Source: repository.SourceInvite}
		if ev.Invite.CreatorID != 0 {
			creator := ev.Invite.CreatorID
			link.CreatorID = &creator
		}
		return link, true
	}
	if ev.ChatUsername != "" {
		return repository.InviteLink{
			ChatID:  ev.ChatID,
			LinkURL: "virtual_link:" + ev.ChatUsername,
			Name:    "@" + ev.ChatUsername,
			Source:  repository.SourceVirtual,
		}, true
	}
	return repository.InviteLink{}, false
}
