// Package moderation carries out admin actions against chat members.
package moderation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/state"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

var (
	ErrNotAdmin        = errors.New("actor is not an admin")
	ErrTargetProtected = errors.New("target is an admin")
	ErrTargetNotFound  = errors.New("target user not found")
	ErrNoTarget        = errors.New("no target given")
	ErrInvalidDuration = errors.New("invalid mute duration")
	ErrNothingToDelete = errors.New("no message to delete")
)

const DefaultMuteDuration = 10 * time.Minute

type UserDirectory interface {
	FindByUsername(ctx context.Context, username string) (*repository.User, error)
}

type WarningStore interface {
	AddWarning(ctx context.Context, w *repository.Warning, since time.Time) (int, error)
	ClearWarnings(ctx context.Context, chatID, userID int64) error
}

type MuteStore interface {
	MuteUser(ctx context.Context, chatID, userID int64, userName string, until time.Time) error
	UnmuteUser(ctx context.Context, chatID, userID int64) error
	GetExpired(ctx context.Context, now time.Time, limit int) ([]repository.Mute, error)
}

type StatCounter interface {
	IncrementChatStat(ctx context.Context, chatID int64, field string) error
}

type WarnSource interface {
	Warn() settings.Warn
}

// Request names who acts on whom, and where.
type Request struct {
	ChatID int64
	Actor  event.User
	Target event.User
}

type WarnOutcome struct {
	Count  int
	Max    int
	Banned bool
}

type key struct {
	chatID int64
	userID int64
}

type muteTimer struct {
	t *time.Timer
}

type Executor struct {
	messenger transport.Messenger
	admins    *AdminResolver
	users     UserDirectory
	warnings  WarningStore
	mutes     MuteStore
	stats     StatCounter
	cfg       WarnSource
	log       *slog.Logger

	muteTimers   *xsync.MapOf[key, *muteTimer]
	warnLocks    *xsync.MapOf[key, *sync.Mutex]
	lastMessages state.Store[int]
	now          func() time.Time
}

func NewExecutor(
	messenger transport.Messenger,
	admins *AdminResolver,
	users UserDirectory,
	warnings WarningStore,
	mutes MuteStore,
	stats StatCounter,
	cfg WarnSource,
	lastMessages state.Store[int],
	log *slog.Logger,
) *Executor {
	return &Executor{
		messenger:    messenger,
		admins:       admins,
		users:        users,
		warnings:     warnings,
		mutes:        mutes,
		stats:        stats,
		cfg:          cfg,
		log:          log,
		muteTimers:   xsync.NewMapOf[key, *muteTimer](),
		warnLocks:    xsync.NewMapOf[key, *sync.Mutex](),
		lastMessages: lastMessages,
		now:          time.Now,
	}
}

func (e *Executor) Admins() *AdminResolver {
	return e.admins
}

// ResolveTarget picks the member a command is aimed at. An @username
// argument wins over the replied-to author.
func (e *Executor) ResolveTarget(ctx context.Context, msg event.Message, args []string) (event.User, error) {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "@") {
			continue
		}
		u, err := e.users.FindByUsername(ctx, arg)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return event.User{}, ErrTargetNotFound
			}
			return event.User{}, err
		}
		return event.User{ID: u.TelegramID, Username: u.Username, FirstName: u.FirstName, IsBot: u.IsBot}, nil
	}
	if msg.ReplyTo != nil && msg.ReplyTo.From.ID != 0 {
		return msg.ReplyTo.From, nil
	}
	return event.User{}, ErrNoTarget
}

func (e *Executor) authorize(ctx context.Context, req Request) error {
	if !e.admins.IsAdmin(ctx, req.ChatID, req.Actor.ID) {
		return ErrNotAdmin
	}
	if e.admins.IsAdmin(ctx, req.ChatID, req.Target.ID) {
		return ErrTargetProtected
	}
	return nil
}

// Warn stores a warning and bans the target once the limit is reached.
// Warnings are reset on escalation even when the ban fails.
func (e *Executor) Warn(ctx context.Context, req Request, reason string) (WarnOutcome, error) {
	if err := e.authorize(ctx, req); err != nil {
		return WarnOutcome{}, err
	}
	k := key{chatID: req.ChatID, userID: req.Target.ID}
	mu, _ := e.warnLocks.LoadOrCompute(k, func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	defer mu.Unlock()

	cfg := e.cfg.Warn()
	now := e.now()
	count, err := e.warnings.AddWarning(ctx, &repository.Warning{
		ChatID:    req.ChatID,
		UserID:    req.Target.ID,
		AdminID:   req.Actor.ID,
		Reason:    reason,
		CreatedAt: now,
	}, now.Add(-cfg.Expiry()))
	if err != nil {
		return WarnOutcome{}, err
	}
	e.bumpStat(ctx, req.ChatID, repository.StatWarnCount)
	metrics.IncBotAction("warn")

	out := WarnOutcome{Count: count, Max: cfg.MaxWarnings}
	if count < cfg.MaxWarnings {
		return out, nil
	}

	banErr := e.messenger.Ban(ctx, req.ChatID, req.Target.ID)
	if err := e.warnings.ClearWarnings(ctx, req.ChatID, req.Target.ID); err != nil {
		e.log.Error("Failed to clear warnings", "chat_id", req.ChatID, "user_id", req.Target.ID, "error", err)
	}
	if banErr != nil {
		return out, fmt.Errorf("failed to ban after warnings: %w", banErr)
	}
	out.Banned = true
	e.bumpStat(ctx, req.ChatID, repository.StatBanCount)
	metrics.IncBotAction("ban")
	e.log.Info("Banned after warnings", "chat_id", req.ChatID, "user_id", req.Target.ID, "warnings", count)
	return out, nil
}

// ParseMuteDuration reads an optional argument in minutes.
func ParseMuteDuration(args []string, def time.Duration) (time.Duration, error) {
	for _, arg := range args {
		if strings.HasPrefix(arg, "@") {
			continue
		}
		minutes, err := strconv.Atoi(arg)
		if err != nil || minutes <= 0 {
			return 0, ErrInvalidDuration
		}
		return time.Duration(minutes) * time.Minute, nil
	}
	if def <= 0 {
		def = DefaultMuteDuration
	}
	return def, nil
}

// Mute restricts the target until now+d and arms an automatic unmute.
func (e *Executor) Mute(ctx context.Context, req Request, d time.Duration) (time.Time, error) {
	if d <= 0 {
		return time.Time{}, ErrInvalidDuration
	}
	if err := e.authorize(ctx, req); err != nil {
		return time.Time{}, err
	}
	until := e.now().Add(d)
	if err := e.messenger.Restrict(ctx, req.ChatID, req.Target.ID, transport.NoPermissions, until); err != nil {
		return time.Time{}, fmt.Errorf("failed to restrict: %w", err)
	}
	if err := e.mutes.MuteUser(ctx, req.ChatID, req.Target.ID, req.Target.DisplayName(), until); err != nil {
		e.log.Error("Failed to store mute", "chat_id", req.ChatID, "user_id", req.Target.ID, "error", err)
	}
	e.armUnmute(key{chatID: req.ChatID, userID: req.Target.ID}, d)
	e.bumpStat(ctx, req.ChatID, repository.StatMuteCount)
	metrics.IncBotAction("mute")
	return until, nil
}

// Unmute lifts a mute. Unmuting a member who is not muted succeeds.
func (e *Executor) Unmute(ctx context.Context, req Request) error {
	if err := e.authorize(ctx, req); err != nil {
		return err
	}
	if mt, ok := e.muteTimers.LoadAndDelete(key{chatID: req.ChatID, userID: req.Target.ID}); ok {
		mt.t.Stop()
	}
	if err := e.lift(ctx, req.ChatID, req.Target.ID); err != nil {
		return err
	}
	metrics.IncBotAction("unmute")
	return nil
}

func (e *Executor) Kick(ctx context.Context, req Request) error {
	if err := e.authorize(ctx, req); err != nil {
		return err
	}
	if err := e.messenger.Ban(ctx, req.ChatID, req.Target.ID); err != nil {
		return fmt.Errorf("failed to kick: %w", err)
	}
	if err := e.messenger.Unban(ctx, req.ChatID, req.Target.ID); err != nil {
		e.log.Warn("Failed to unban kicked user", "chat_id", req.ChatID, "user_id", req.Target.ID, "error", err)
	}
	e.bumpStat(ctx, req.ChatID, repository.StatKickCount)
	metrics.IncBotAction("kick")
	return nil
}

func (e *Executor) Ban(ctx context.Context, req Request) error {
	if err := e.authorize(ctx, req); err != nil {
		return err
	}
	if err := e.messenger.Ban(ctx, req.ChatID, req.Target.ID); err != nil {
		return fmt.Errorf("failed to ban: %w", err)
	}
	e.bumpStat(ctx, req.ChatID, repository.StatBanCount)
	metrics.IncBotAction("ban")
	return nil
}

// RememberMessage caches the latest ordinary message of a chat for /delete.
func (e *Executor) RememberMessage(chatID int64, messageID int) {
	e.lastMessages.Set(strconv.FormatInt(chatID, 10), messageID)
}

// DeletionTarget picks the message /delete removes: the replied-to one,
// then a numeric argument, then the last remembered message.
func (e *Executor) DeletionTarget(msg event.Message, args []string) (int, error) {
	if msg.ReplyTo != nil && msg.ReplyTo.MessageID != 0 {
		return msg.ReplyTo.MessageID, nil
	}
	for _, arg := range args {
		if id, err := strconv.Atoi(arg); err == nil && id > 0 {
			return id, nil
		}
	}
	if id, ok := e.lastMessages.Get(strconv.FormatInt(msg.ChatID, 10)); ok && id > 0 {
		return id, nil
	}
	return 0, ErrNothingToDelete
}

func (e *Executor) DeleteMessage(ctx context.Context, chatID int64, actor event.User, messageID int) error {
	if !e.admins.IsAdmin(ctx, chatID, actor.ID) {
		return ErrNotAdmin
	}
	if err := e.messenger.Delete(ctx, chatID, messageID); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	chatKey := strconv.FormatInt(chatID, 10)
	if id, ok := e.lastMessages.Get(chatKey); ok && id == messageID {
		e.lastMessages.Delete(chatKey)
	}
	metrics.IncDeletedMessages("command")
	return nil
}

// ExpireMutes lifts stored mutes whose time has passed. It covers mutes
// whose timers were lost on restart.
func (e *Executor) ExpireMutes(ctx context.Context) {
	expired, err := e.mutes.GetExpired(ctx, e.now(), 100)
	if err != nil {
		e.log.Error("Failed to get expired mutes", "error", err)
		return
	}
	for _, m := range expired {
		if err := e.lift(ctx, m.ChatID, m.UserID); err != nil {
			e.log.Warn("Failed to lift expired mute", "chat_id", m.ChatID, "user_id", m.UserID, "error", err)
		}
	}
}

func (e *Executor) armUnmute(k key, d time.Duration) {
	entry := &muteTimer{}
	entry.t = time.AfterFunc(d, func() {
		removed := false
		e.muteTimers.Compute(k, func(old *muteTimer, loaded bool) (*muteTimer, bool) {
			if loaded && old == entry {
				removed = true
				return nil, true
			}
			return old, !loaded
		})
		if !removed {
			return
		}
		if err := e.lift(context.Background(), k.chatID, k.userID); err != nil {
			e.log.Warn("Failed to auto-unmute", "chat_id", k.chatID, "user_id", k.userID, "error", err)
		}
	})
	if prev, loaded := e.muteTimers.LoadAndStore(k, entry); loaded {
		prev.t.Stop()
	}
}

func (e *Executor) lift(ctx context.Context, chatID, userID int64) error {
	if err := e.messenger.Restrict(ctx, chatID, userID, transport.FullPermissions, time.Time{}); err != nil {
		return fmt.Errorf("failed to restore permissions: %w", err)
	}
	if err := e.mutes.UnmuteUser(ctx, chatID, userID); err != nil {
		e.log.Error("Failed to remove mute", "chat_id", chatID, "user_id", userID, "error", err)
	}
	return nil
}

func (e *Executor) bumpStat(ctx context.Context, chatID int64, field string) {
	if err := e.stats.IncrementChatStat(ctx, chatID, field); err != nil {
		e.log.Error("Failed to increment chat stat", "chat_id", chatID, "field", field, "error", err)
	}
}
