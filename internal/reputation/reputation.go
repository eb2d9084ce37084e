// Package reputation tracks per-chat user scores changed by reply reactions.
package reputation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/state"
)

const TopSize = 5

var (
	ErrDisabled = errors.New("reputation disabled")
	ErrSelf     = errors.New("cannot change own reputation")
	ErrBot      = errors.New("cannot change reputation of a bot")
	ErrCooldown = errors.New("reputation cooldown")
)

type Source interface {
	Reputation() settings.Reputation
}

type UserDirectory interface {
	Get(ctx context.Context, telegramID int64) (*repository.User, error)
}

type Service struct {
	repo      repository.ReputationRepository
	users     UserDirectory
	cfg       Source
	cooldowns state.Store[time.Time]
	log       *slog.Logger
	now       func() time.Time
}

func NewService(repo repository.ReputationRepository, users UserDirectory, cfg Source, cooldowns state.Store[time.Time], log *slog.Logger) *Service {
	return &Service{repo: repo, users: users, cfg: cfg, cooldowns: cooldowns, log: log, now: time.Now}
}

// Delta maps a reaction text to a score change.
func Delta(text string) (int, bool) {
	switch strings.TrimSpace(text) {
	case "+", "👍":
		return 1, true
	case "-", "👎":
		return -1, true
	}
	return 0, false
}

// Enabled reports whether reactions are currently processed.
func (s *Service) Enabled() bool {
	return s.cfg.Reputation().Enabled
}

// Apply changes target's score by delta and returns the new score.
func (s *Service) Apply(ctx context.Context, chatID int64, actor, target event.User, delta int) (int, error) {
	cfg := s.cfg.Reputation()
	if !cfg.Enabled {
		return 0, ErrDisabled
	}
	if actor.ID == target.ID {
		return 0, ErrSelf
	}
	if target.IsBot {
		return 0, ErrBot
	}

	key := fmt.Sprintf("%d:%d:%d", chatID, actor.ID, target.ID)
	now := s.now()
	blocked := false
	s.cooldowns.Update(key, func(last time.Time, ok bool) time.Time {
		if ok && now.Sub(last) < cfg.Cooldown() {
			blocked = true
			return last
		}
		return now
	})
	if blocked {
		return 0, ErrCooldown
	}

	score, err := s.repo.Change(ctx, chatID, actor.ID, target.ID, delta)
	if err != nil {
		s.cooldowns.Delete(key)
		return 0, err
	}
	s.log.Info("Reputation changed", "chat_id", chatID, "actor_id", actor.ID, "target_id", target.ID, "delta", delta, "score", score)
	return score, nil
}

func (s *Service) Score(ctx context.Context, chatID, userID int64) (int, error) {
	return s.repo.Score(ctx, chatID, userID)
}

// TopReport renders the /top answer.
func (s *Service) TopReport(ctx context.Context, chatID int64) (string, error) {
	top, err := s.repo.Top(ctx, chatID, TopSize)
	if err != nil {
		return "", err
	}
	if len(top) == 0 {
		return messages.MsgRepTopEmpty, nil
	}
	var b strings.Builder
	b.WriteString(messages.MsgRepTopHeader)
	for i, r := range top {
		b.WriteString("\n")
		fmt.Fprintf(&b, messages.MsgRepTopLine, i+1, s.DisplayName(ctx, r.UserID), r.Score)
	}
	return b.String(), nil
}

// DisplayName resolves a stored profile name for userID.
func (s *Service) DisplayName(ctx context.Context, userID int64) string {
	u, err := s.users.Get(ctx, userID)
	if err != nil {
		return fmt.Sprintf("id%d", userID)
	}
	return event.User{ID: u.TelegramID, Username: u.Username, FirstName: u.FirstName}.DisplayName()
}
