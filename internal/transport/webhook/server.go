package webhook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/transport/telegram"
)

const maxBodySize = 1 << 20

type Server struct {
	logger *slog.Logger
	bot    *tgbotapi.BotAPI
	host   string
	port   string
}

func NewServer(logger *slog.Logger, bot *tgbotapi.BotAPI, host, port string) *Server {
	return &Server{
		logger: logger,
		bot:    bot,
		host:   host,
		port:   port,
	}
}

func (s *Server) Start(ctx context.Context) (<-chan event.Event, func() error, error) {
	events := make(chan event.Event, 100)

	webhookURL := fmt.Sprintf("%s/webhook", s.host)
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build webhook config: %w", err)
	}
	wh.AllowedUpdates = telegram.AllowedUpdates
	if _, err := s.bot.Request(wh); err != nil {
		return nil, nil, fmt.Errorf("failed to subscribe webhook: %w", err)
	}
	s.logger.Info("Subscribed to webhook", "url", webhookURL)

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handler(ctx, events))

	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		s.logger.Info("Webhook server listening", "port", s.port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Webhook server failed", "error", err)
		}
	}()

	cleanup := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := s.bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
			s.logger.Warn("Failed to remove webhook", "error", err)
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	}

	return events, cleanup, nil
}

func (s *Server) handler(ctx context.Context, events chan<- event.Event) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			s.logger.Error("Failed to read webhook body", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, ev, err := telegram.Decode(json.RawMessage(body))
		if err != nil {
			s.logger.Error("Failed to decode webhook update", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if ev != nil {
			select {
			case events <- ev:
			case <-ctx.Done():
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
