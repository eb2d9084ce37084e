// Package verification challenges new members and removes those who do not
// answer in time.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

// CallbackPrefix starts the data of every challenge button.
const CallbackPrefix = "captcha:"

var ErrMalformedCallback = errors.New("malformed captcha callback")

type CaptchaSource interface {
	Captcha() settings.Captcha
}

type UserStore interface {
	Upsert(ctx context.Context, user *repository.User) error
}

type JoinRecorder interface {
	RecordVerifiedJoin(ctx context.Context, chatID int64, user event.User, at time.Time) error
}

type Notifier interface {
	Transient(ctx context.Context, msg transport.OutgoingMessage, ttl time.Duration) (int, error)
}

type key struct {
	chatID int64
	userID int64
}

// Pending is an issued, unanswered challenge.
type Pending struct {
	ChatID    int64
	User      event.User
	MessageID int
	IssuedAt  time.Time
	Token     string
	timer     *time.Timer
}

type Verifier struct {
	messenger transport.Messenger
	notifier  Notifier
	cfg       CaptchaSource
	users     UserStore
	joins     JoinRecorder
	log       *slog.Logger
	noticeTTL time.Duration

	pending  *xsync.MapOf[key, *Pending]
	newToken func() string
}

func NewVerifier(
	messenger transport.Messenger,
	notifier Notifier,
	cfg CaptchaSource,
	users UserStore,
	joins JoinRecorder,
	log *slog.Logger,
	noticeTTL time.Duration,
) *Verifier {
	return &Verifier{
		messenger: messenger,
		notifier:  notifier,
		cfg:       cfg,
		users:     users,
		joins:     joins,
		log:       log,
		noticeTTL: noticeTTL,
		pending:   xsync.NewMapOf[key, *Pending](),
		newToken:  func() string { return uuid.NewString()[:8] },
	}
}

// Enabled reports whether new members are challenged at all.
func (v *Verifier) Enabled() bool {
	return v.cfg.Captcha().Enabled
}

func (v *Verifier) PendingCount() int {
	return v.pending.Size()
}

// HandleJoin restricts the member and posts a challenge. Bots and members
// with a live challenge are ignored.
func (v *Verifier) HandleJoin(ctx context.Context, chatID int64, threadID int, user event.User) error {
	cfg := v.cfg.Captcha()
	if !cfg.Enabled || user.IsBot {
		return nil
	}
	k := key{chatID: chatID, userID: user.ID}
	if _, ok := v.pending.Load(k); ok {
		return nil
	}

	restricted := true
	if err := v.messenger.Restrict(ctx, chatID, user.ID, transport.NoPermissions, time.Time{}); err != nil {
		v.log.Warn("Failed to restrict new member", "chat_id", chatID, "user_id", user.ID, "error", err)
		restricted = false
	}

	token := v.newToken()
	msgID, err := v.messenger.Send(ctx, transport.OutgoingMessage{
		ChatID:   chatID,
		ThreadID: threadID,
		Text:     fmt.Sprintf(messages.MsgCaptchaChallenge, user.DisplayName(), cfg.TimeoutSeconds),
		Buttons: [][]transport.Button{{{
			Text: messages.MsgCaptchaButton,
			Data: fmt.Sprintf("%s%d:%d:%s", CallbackPrefix, chatID, user.ID, token),
		}}},
	})
	if err != nil {
		// Without a challenge nothing would ever lift the restriction.
		if restricted {
			if liftErr := v.messenger.Restrict(ctx, chatID, user.ID, transport.FullPermissions, time.Time{}); liftErr != nil {
				v.log.Error("Failed to lift restriction after failed challenge", "chat_id", chatID, "user_id", user.ID, "error", liftErr)
			}
		}
		return fmt.Errorf("failed to send challenge: %w", err)
	}

	entry := &Pending{ChatID: chatID, User: user, MessageID: msgID, IssuedAt: time.Now(), Token: token}
	entry.timer = time.AfterFunc(cfg.Timeout(), func() { v.expire(k, entry) })
	if _, loaded := v.pending.LoadOrStore(k, entry); loaded {
		entry.timer.Stop()
		_ = v.messenger.Delete(ctx, chatID, msgID)
		return nil
	}
	metrics.SetPendingVerifications(v.pending.Size())
	v.log.Info("Verification issued", "chat_id", chatID, "user_id", user.ID)
	return nil
}

// Confirm handles a press on a challenge button. Only the first valid
// press has effects; replays are answered as expired.
func (v *Verifier) Confirm(ctx context.Context, press event.CallbackPress) error {
	chatID, userID, token, err := parseCallback(press.Data)
	if err != nil {
		_ = v.messenger.AnswerCallback(ctx, press.QueryID, "", false)
		return err
	}
	if press.From.ID != userID {
		return v.messenger.AnswerCallback(ctx, press.QueryID, messages.MsgCaptchaNotYours, true)
	}

	entry := v.take(key{chatID: chatID, userID: userID}, func(p *Pending) bool { return p.Token == token })
	if entry == nil {
		return v.messenger.AnswerCallback(ctx, press.QueryID, messages.MsgCaptchaExpired, true)
	}
	entry.timer.Stop()
	metrics.SetPendingVerifications(v.pending.Size())
	metrics.IncVerification("passed")

	if err := v.messenger.Restrict(ctx, chatID, userID, transport.FullPermissions, time.Time{}); err != nil {
		v.log.Error("Failed to restore permissions", "chat_id", chatID, "user_id", userID, "error", err)
	}
	if err := v.messenger.Delete(ctx, chatID, entry.MessageID); err != nil && !transport.IsBenign(err) {
		v.log.Warn("Failed to delete challenge", "chat_id", chatID, "msg_id", entry.MessageID, "error", err)
	}
	user := press.From
	if err := v.users.Upsert(ctx, &repository.User{TelegramID: user.ID, Username: user.Username, FirstName: user.FirstName, IsBot: user.IsBot}); err != nil {
		v.log.Error("Failed to save user", "user_id", user.ID, "error", err)
	}
	if err := v.joins.RecordVerifiedJoin(ctx, chatID, user, time.Now()); err != nil {
		v.log.Error("Failed to record verified join", "chat_id", chatID, "user_id", user.ID, "error", err)
	}
	if err := v.messenger.AnswerCallback(ctx, press.QueryID, messages.MsgCaptchaPassed, false); err != nil {
		v.log.Warn("Failed to answer callback", "error", err)
	}
	_, err = v.notifier.Transient(ctx, transport.OutgoingMessage{
		ChatID: chatID,
		Text:   fmt.Sprintf(messages.MsgCaptchaWelcome, user.DisplayName()),
	}, v.noticeTTL)
	if err != nil {
		v.log.Warn("Failed to send welcome", "chat_id", chatID, "error", err)
	}
	return nil
}

// Forget drops a live challenge without side effects, e.g. when the member left.
func (v *Verifier) Forget(chatID, userID int64) {
	if entry := v.take(key{chatID: chatID, userID: userID}, nil); entry != nil {
		entry.timer.Stop()
		metrics.SetPendingVerifications(v.pending.Size())
	}
}

func (v *Verifier) expire(k key, entry *Pending) {
	if v.take(k, func(p *Pending) bool { return p == entry }) == nil {
		return
	}
	metrics.SetPendingVerifications(v.pending.Size())
	metrics.IncVerification("expired")

	ctx := context.Background()
	log := v.log.With("chat_id", k.chatID, "user_id", k.userID)
	if err := v.messenger.Ban(ctx, k.chatID, k.userID); err != nil {
		log.Error("Failed to remove unverified member", "error", err)
	} else if err := v.messenger.Unban(ctx, k.chatID, k.userID); err != nil {
		log.Error("Failed to unban unverified member", "error", err)
	}
	if err := v.messenger.Delete(ctx, k.chatID, entry.MessageID); err != nil && !transport.IsBenign(err) {
		log.Warn("Failed to delete challenge", "error", err)
	}
	_, err := v.notifier.Transient(ctx, transport.OutgoingMessage{
		ChatID: k.chatID,
		Text:   fmt.Sprintf(messages.MsgCaptchaKicked, entry.User.DisplayName()),
	}, v.noticeTTL)
	if err != nil {
		log.Warn("Failed to send removal notice", "error", err)
	}
	log.Info("Verification expired")
}

// take removes and returns the entry for k when match accepts it.
func (v *Verifier) take(k key, match func(*Pending) bool) *Pending {
	var taken *Pending
	v.pending.Compute(k, func(old *Pending, loaded bool) (*Pending, bool) {
		if !loaded {
			return old, true
		}
		if match != nil && !match(old) {
			return old, false
		}
		taken = old
		return nil, true
	})
	return taken
}

func parseCallback(data string) (chatID, userID int64, token string, err error) {
	parts := strings.Split(strings.TrimPrefix(data, CallbackPrefix), ":")
	if !strings.HasPrefix(data, CallbackPrefix) || len(parts) != 3 || parts[2] == "" {
		return 0, 0, "", ErrMalformedCallback
	}
	if chatID, err = strconv.ParseInt(parts[0], 10, 64); err != nil {
		return 0, 0, "", ErrMalformedCallback
	}
	if userID, err = strconv.ParseInt(parts[1], 10, 64); err != nil {
		return 0, 0, "", ErrMalformedCallback
	}
	return chatID, userID, parts[2], nil
}
