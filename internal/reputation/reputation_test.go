package reputation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	ChangeFunc func(chatID, actorID, targetID int64, delta int) (int, error)
	scores     map[int64]int
	top        []repository.Reputation
}

func (m *mockRepo) Change(_ context.Context, chatID, actorID, targetID int64, delta int) (int, error) {
	if m.ChangeFunc != nil {
		return m.ChangeFunc(chatID, actorID, targetID, delta)
	}
	if m.scores == nil {
		m.scores = map[int64]int{}
	}
	m.scores[targetID] += delta
	return m.scores[targetID], nil
}

func (m *mockRepo) Score(_ context.Context, _, userID int64) (int, error) {
	return m.scores[userID], nil
}

func (m *mockRepo) Top(_ context.Context, _ int64, limit int) ([]repository.Reputation, error) {
	if len(m.top) > limit {
		return m.top[:limit], nil
	}
	return m.top, nil
}

type mockUsers struct{}

func (mockUsers) Get(_ context.Context, id int64) (*repository.User, error) {
	if id == 7 {
		return &repository.User{TelegramID: 7, Username: "seven"}, nil
	}
	return nil, repository.ErrUserNotFound
}

type staticConfig struct{ cfg settings.Reputation }

func (s staticConfig) Reputation() settings.Reputation { return s.cfg }

func newService(cfg settings.Reputation) (*Service, *mockRepo) {
	repo := &mockRepo{}
	cooldowns := state.NewMemoryStore[time.Time](100, time.Hour)
	s := NewService(repo, mockUsers{}, staticConfig{cfg}, cooldowns, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return s, repo
}

func TestDelta(t *testing.T) {
	tests := []struct {
		text string
		want int
		ok   bool
	}{
		{"+", 1, true},
		{" 👍 ", 1, true},
		{"-", -1, true},
		{"👎", -1, true},
		{"+1", 0, false},
		{"спасибо", 0, false},
	}
	for _, tt := range tests {
		got, ok := Delta(tt.text)
		assert.Equal(t, tt.want, got, tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
	}
}

func TestService_Apply(t *testing.T) {
	actor := event.User{ID: 1}
	target := event.User{ID: 2}

	t.Run("self and bots are rejected", func(t *testing.T) {
		s, _ := newService(settings.DefaultReputation())
		_, err := s.Apply(context.Background(), -1, actor, actor, 1)
		assert.ErrorIs(t, err, ErrSelf)
		_, err = s.Apply(context.Background(), -1, actor, event.User{ID: 3, IsBot: true}, 1)
		assert.ErrorIs(t, err, ErrBot)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := settings.DefaultReputation()
		cfg.Enabled = false
		s, _ := newService(cfg)
		_, err := s.Apply(context.Background(), -1, actor, target, 1)
		assert.ErrorIs(t, err, ErrDisabled)
	})

	t.Run("cooldown per actor and target", func(t *testing.T) {
		s, _ := newService(settings.DefaultReputation())
		now := time.Unix(1000, 0)
		s.now = func() time.Time { return now }

		score, err := s.Apply(context.Background(), -1, actor, target, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, score)

		_, err = s.Apply(context.Background(), -1, actor, target, 1)
		assert.ErrorIs(t, err, ErrCooldown)

		score, err = s.Apply(context.Background(), -1, event.User{ID: 5}, target, -1)
		require.NoError(t, err)
		assert.Equal(t, 0, score)

		now = now.Add(31 * time.Second)
		score, err = s.Apply(context.Background(), -1, actor, target, 1)
		require.NoError(t, err)
		assert.Equal(t, 1, score)
	})

	t.Run("failed change does not start cooldown", func(t *testing.T) {
		s, repo := newService(settings.DefaultReputation())
		repo.ChangeFunc = func(int64, int64, int64, int) (int, error) { return 0, errors.New("db down") }
		_, err := s.Apply(context.Background(), -1, actor, target, 1)
		require.Error(t, err)

		repo.ChangeFunc = nil
		_, err = s.Apply(context.Background(), -1, actor, target, 1)
		assert.NoError(t, err)
	})
}

func TestService_TopReport(t *testing.T) {
	s, repo := newService(settings.DefaultReputation())

	report, err := s.TopReport(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, "Пока никто не получил репутацию.", report)

	repo.top = []repository.Reputation{{UserID: 7, Score: 4}, {UserID: 8, Score: 1}}
	report, err = s.TopReport(context.Background(), -1)
	require.NoError(t, err)
	assert.Contains(t, report, "1. @seven — 4")
	assert.Contains(t, report, "2. id8 — 1")
}
