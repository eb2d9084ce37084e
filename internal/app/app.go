package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/kabozek1/tgbot-final02/internal/config"
	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/handler"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/moderation"
	"github.com/kabozek1/tgbot-final02/internal/notify"
	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/pipeline/filters"
	"github.com/kabozek1/tgbot-final02/internal/poll"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/reputation"
	"github.com/kabozek1/tgbot-final02/internal/scheduler"
	"github.com/kabozek1/tgbot-final02/internal/service"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/state"
	"github.com/kabozek1/tgbot-final02/internal/stats"
	"github.com/kabozek1/tgbot-final02/internal/transport/polling"
	"github.com/kabozek1/tgbot-final02/internal/transport/telegram"
	"github.com/kabozek1/tgbot-final02/internal/transport/webhook"
	"github.com/kabozek1/tgbot-final02/internal/verification"
)

const (
	floodStateTTL    = 10 * time.Minute
	cooldownStateTTL = 24 * time.Hour
	lastMessageTTL   = 24 * time.Hour
	muteSweepEvery   = time.Minute
	dispatchWorkers  = 32
	chatQueueSize    = 64
	shutdownTimeout  = 5 * time.Second
)

type App struct {
	cfg    *config.Config
	logger *slog.Logger
	client *telegram.Client
	tracer trace.Tracer
}

func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	client, err := telegram.NewClient(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot client: %w", err)
	}

	return &App{
		cfg:    cfg,
		logger: logger,
		client: client,
		tracer: otel.Tracer("tgbot"),
	}, nil
}

// components holds everything Run wires together.
type components struct {
	handler  *handler.Handler
	service  *service.AdminService
	executor *moderation.Executor
	posts    repository.ScheduledPostRepository
}

func (a *App) build(ctx context.Context, db *gorm.DB) (*components, error) {
	ctx, span := a.tracer.Start(ctx, "build")
	defer span.End()

	userRepo := repository.NewUserRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	warningRepo := repository.NewWarningRepository(db)
	muteRepo := repository.NewMuteRepository(db)
	chatStatsRepo := repository.NewChatStatsRepository(db)
	triggerRepo := repository.NewTriggerRepository(db)
	postRepo := repository.NewScheduledPostRepository(db)
	pollRepo := repository.NewPollRepository(db)
	repRepo := repository.NewReputationRepository(db)
	topicRepo := repository.NewChatTopicRepository(db)
	userStateRepo := repository.NewUserStateRepository(db)
	tempMessageRepo := repository.NewTemporaryMessageRepository(db)

	store := settings.NewStore(repository.NewPluginSettingsRepository(db), a.logger)
	if err := store.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	size := a.cfg.StateCacheSize
	floodStore := state.NewMemoryStore[[]time.Time](size, floodStateTTL)
	cooldownStore := state.NewMemoryStore[time.Time](size, cooldownStateTTL)
	lastMessageStore := state.NewMemoryStore[int](size, lastMessageTTL)

	messenger := a.client
	notifier := notify.New(messenger, tempMessageRepo, a.logger)

	statsLogger := stats.NewLogger(stats.Repositories{
		Users:      userRepo,
		Messages:   repository.NewMessageLogRepository(db),
		Membership: repository.NewMembershipRepository(db),
		Invites:    repository.NewInviteRepository(db),
		Topics:     topicRepo,
		Polls:      pollRepo,
		ChatStats:  chatStatsRepo,
	}, a.logger)

	verifier := verification.NewVerifier(messenger, notifier, store, userRepo, statsLogger, a.logger, a.cfg.Delays.Captcha)
	admins := moderation.NewAdminResolver(a.cfg.AdminUserIDs, adminRepo, messenger, a.logger)
	executor := moderation.NewExecutor(messenger, admins, userRepo, warningRepo, muteRepo, chatStatsRepo, store, lastMessageStore, a.logger)

	matcher := filters.NewTriggerMatcher(triggerRepo, a.logger)
	manager := pipeline.NewManager(
		filters.NewAntifloodFilter(filters.NewFloodDetector(store, floodStore), a.cfg.Delays.Antiflood),
		filters.NewContentFilter(store, a.cfg.Delays.Antimat),
		filters.NewStatsStage(statsLogger),
		matcher,
	)

	svc := service.NewAdminService(a.logger, store, triggerRepo, matcher, postRepo, adminRepo, muteRepo, tempMessageRepo, messenger)
	if err := svc.ApplySeed(ctx, a.loadSeed()); err != nil {
		return nil, fmt.Errorf("failed to apply seed: %w", err)
	}
	if err := matcher.Reload(ctx); err != nil {
		return nil, fmt.Errorf("failed to load triggers: %w", err)
	}

	h := handler.NewHandler(a.logger, a.cfg, handler.Deps{
		Service:     svc,
		Settings:    store,
		Messenger:   messenger,
		Notifier:    notifier,
		Pipeline:    manager,
		Verifier:    verifier,
		Moderator:   executor,
		Admins:      admins,
		Reputation:  reputation.NewService(repRepo, userRepo, store, cooldownStore, a.logger),
		Polls:       poll.NewService(pollRepo, messenger, store, a.logger),
		Stats:       statsLogger,
		ChatStats:   chatStatsRepo,
		Topics:      topicRepo,
		UserStates:  userStateRepo,
		BotUsername: a.client.Username(),
	})

	return &components{handler: h, service: svc, executor: executor, posts: postRepo}, nil
}

// loadSeed reads SEED_FILE, falling back to the built-in defaults.
func (a *App) loadSeed() *config.Seed {
	if a.cfg.SeedFile == "" {
		return config.DefaultSeed()
	}
	seed, err := config.LoadSeed(a.cfg.SeedFile)
	if err != nil {
		a.logger.Error("Failed to load seed file, using defaults", "path", a.cfg.SeedFile, "error", err)
		return config.DefaultSeed()
	}
	return seed
}

func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a.logger.Info("Starting moderation bot")
	a.logger.Info("Bot connected", "username", a.client.Username(), "id", a.client.BotID())

	db, err := repository.NewPostgresDB(a.cfg.GetDSN(), a.logger)
	if err != nil {
		return fmt.Errorf("failed to init db: %w", err)
	}

	c, err := a.build(ctx, db)
	if err != nil {
		return err
	}

	c.service.StartMetricsUpdater(ctx)
	c.service.StartCleanupTask(ctx, a.cfg.CleanupInterval)
	c.service.StartMuteSweeper(ctx, c.executor, muteSweepEvery)
	scheduler.NewEngine(c.posts, a.client, a.logger, a.cfg.SchedulerInterval).Start(ctx)

	metricsSrv := metrics.NewServer(a.logger, a.cfg.MetricsAddr)
	go func() {
		if err := metricsSrv.Listen(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Metrics server failed", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Failed to stop metrics server", "error", err)
		}
	}()

	var events <-chan event.Event
	if a.cfg.WebhookHost != "" {
		a.logger.Info("Starting in Webhook mode", "host", a.cfg.WebhookHost)
		srv := webhook.NewServer(a.logger, a.client.API(), a.cfg.WebhookHost, a.cfg.Port)

		var cleanup func() error
		events, cleanup, err = srv.Start(ctx)
		if err != nil {
			return fmt.Errorf("failed to start webhook server: %w", err)
		}
		if cleanup != nil {
			defer func() {
				if err := cleanup(); err != nil {
					a.logger.Error("Cleanup failed", "error", err)
				}
			}()
		}
	} else {
		a.logger.Info("Starting in Long Polling mode")
		events = polling.NewPoller(a.logger, a.client.API()).Start(ctx)
	}

	NewDispatcher(dispatchWorkers, chatQueueSize, c.handler.HandleEvent, a.logger).Run(ctx, events)

	a.logger.Info("Shutting down...")
	return nil
}
