package handler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kabozek1/tgbot-final02/internal/config"
	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/handler/callbacks"
	"github.com/kabozek1/tgbot-final02/internal/moderation"
	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/service"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

type Pipeline interface {
	Process(ctx context.Context, payload pipeline.Payload) (*pipeline.Result, error)
}

type Verifier interface {
	HandleJoin(ctx context.Context, chatID int64, threadID int, user event.User) error
	Confirm(ctx context.Context, press event.CallbackPress) error
	Forget(chatID, userID int64)
}

type Moderator interface {
	ResolveTarget(ctx context.Context, msg event.Message, args []string) (event.User, error)
	Warn(ctx context.Context, req moderation.Request, reason string) (moderation.WarnOutcome, error)
	Mute(ctx context.Context, req moderation.Request, d time.Duration) (time.Time, error)
	Unmute(ctx context.Context, req moderation.Request) error
	Kick(ctx context.Context, req moderation.Request) error
	Ban(ctx context.Context, req moderation.Request) error
	RememberMessage(chatID int64, messageID int)
	DeletionTarget(msg event.Message, args []string) (int, error)
	DeleteMessage(ctx context.Context, chatID int64, actor event.User, messageID int) error
}

type AdminChecker interface {
	IsBotAdmin(ctx context.Context, userID int64) bool
	IsConfigured(userID int64) bool
	IsAdmin(ctx context.Context, chatID, userID int64) bool
}

type Reputation interface {
	Enabled() bool
	Apply(ctx context.Context, chatID int64, actor, target event.User, delta int) (int, error)
	Score(ctx context.Context, chatID, userID int64) (int, error)
	TopReport(ctx context.Context, chatID int64) (string, error)
}

type Polls interface {
	Create(ctx context.Context, chatID int64, threadID int, creator int64, args string) (*repository.Poll, error)
	Vote(ctx context.Context, press event.CallbackPress) (string, error)
}

type Stats interface {
	RecordMembership(ctx context.Context, ev event.MembershipChange) error
	RecordPollVote(ctx context.Context, ev event.PollVote) error
	ChatReport(ctx context.Context, chatID int64) (string, error)
	InviteReport(ctx context.Context, chatID int64) (string, error)
}

type Notifier interface {
	Transient(ctx context.Context, msg transport.OutgoingMessage, ttl time.Duration) (int, error)
}

type StatCounter interface {
	IncrementChatStat(ctx context.Context, chatID int64, field string) error
}

type TopicNamer interface {
	SetName(ctx context.Context, chatID int64, topicID int, name string) error
}

// Deps lists the collaborators of a Handler.
type Deps struct {
	Service     service.Service
	Settings    callbacks.SettingsView
	Messenger   transport.Messenger
	Notifier    Notifier
	Pipeline    Pipeline
	Verifier    Verifier
	Moderator   Moderator
	Admins      AdminChecker
	Reputation  Reputation
	Polls       Polls
	Stats       Stats
	ChatStats   StatCounter
	Topics      TopicNamer
	UserStates  repository.UserStateRepository
	BotUsername string
}

type Handler struct {
	logger          *slog.Logger
	config          *config.Config
	deps            Deps
	tracer          trace.Tracer
	callbackHandler *callbacks.CallbackHandler
}

func NewHandler(logger *slog.Logger, cfg *config.Config, deps Deps) *Handler {
	return &Handler{
		logger: logger,
		config: cfg,
		deps:   deps,
		tracer: otel.Tracer("handler"),
		callbackHandler: callbacks.NewCallbackHandler(
			logger, deps.Service, deps.Settings, deps.Messenger, deps.UserStates, deps.Admins, otel.Tracer("callbacks"),
		),
	}
}

// HandleEvent routes one inbound event. Failures are logged and never returned.
func (h *Handler) HandleEvent(ctx context.Context, ev event.Event) {
	ctx, span := h.tracer.Start(ctx, "HandleEvent")
	defer span.End()

	span.SetAttributes(
		attribute.Int64("chat_id", ev.Chat()),
		attribute.Int64("user_id", ev.Sender().ID),
	)

	switch e := ev.(type) {
	case event.Message:
		span.SetAttributes(attribute.String("update_type", "message"))
		h.handleMessage(ctx, e)
	case event.CallbackPress:
		span.SetAttributes(attribute.String("update_type", "callback_query"))
		h.handleCallback(ctx, e)
	case event.MembershipChange:
		span.SetAttributes(attribute.String("update_type", "chat_member"))
		h.handleMembership(ctx, e)
	case event.PollVote:
		span.SetAttributes(attribute.String("update_type", "poll_answer"))
		h.handlePollVote(ctx, e)
	default:
		h.logger.Debug("Received unhandled update type", "type", fmt.Sprintf("%T", ev))
	}
}
