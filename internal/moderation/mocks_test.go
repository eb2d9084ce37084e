package moderation

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/state"
	"github.com/kabozek1/tgbot-final02/internal/transport/transporttest"
)

type mockAdminStore struct {
	admins      map[int64]bool
	IsAdminFunc func(ctx context.Context, userID int64) (bool, error)
}

func (m *mockAdminStore) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	if m.IsAdminFunc != nil {
		return m.IsAdminFunc(ctx, userID)
	}
	return m.admins[userID], nil
}

type mockUsers struct {
	users map[string]repository.User
}

func (m *mockUsers) FindByUsername(_ context.Context, name string) (*repository.User, error) {
	u, ok := m.users[strings.ToLower(strings.TrimPrefix(name, "@"))]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

// mockWarnings keeps warnings in memory the way the table does.
type mockWarnings struct {
	mu      sync.Mutex
	active  map[key]int
	cleared int
}

func (m *mockWarnings) AddWarning(_ context.Context, w *repository.Warning, _ time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active == nil {
		m.active = map[key]int{}
	}
	k := key{chatID: w.ChatID, userID: w.UserID}
	m.active[k]++
	return m.active[k], nil
}

func (m *mockWarnings) ClearWarnings(_ context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.active, key{chatID: chatID, userID: userID})
	m.cleared++
	return nil
}

type mockMutes struct {
	mu      sync.Mutex
	muted   map[key]time.Time
	unmuted int
	expired []repository.Mute
}

func (m *mockMutes) MuteUser(_ context.Context, chatID, userID int64, _ string, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.muted == nil {
		m.muted = map[key]time.Time{}
	}
	m.muted[key{chatID: chatID, userID: userID}] = until
	return nil
}

func (m *mockMutes) UnmuteUser(_ context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.muted, key{chatID: chatID, userID: userID})
	m.unmuted++
	return nil
}

func (m *mockMutes) GetExpired(_ context.Context, _ time.Time, _ int) ([]repository.Mute, error) {
	return m.expired, nil
}

func (m *mockMutes) Unmuted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unmuted
}

type mockStats struct {
	mu     sync.Mutex
	fields []string
}

func (m *mockStats) IncrementChatStat(_ context.Context, _ int64, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fields = append(m.fields, field)
	return nil
}

type mockWarnCfg struct{ cfg settings.Warn }

func (m *mockWarnCfg) Warn() settings.Warn { return m.cfg }

type fixture struct {
	exec     *Executor
	msg      *transporttest.Messenger
	store    *mockAdminStore
	warnings *mockWarnings
	mutes    *mockMutes
	stats    *mockStats
}

const (
	chatID      = int64(-100)
	configAdmin = int64(1)
	storedAdmin = int64(2)
	chatOwner   = int64(3)
	member      = int64(50)
)

func newFixture() *fixture {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	msg := &transporttest.Messenger{
		MemberStatusFunc: func(_, userID int64) (string, error) {
			if userID == chatOwner {
				return "creator", nil
			}
			return "member", nil
		},
	}
	f := &fixture{
		msg:      msg,
		store:    &mockAdminStore{admins: map[int64]bool{storedAdmin: true}},
		warnings: &mockWarnings{},
		mutes:    &mockMutes{},
		stats:    &mockStats{},
	}
	users := &mockUsers{users: map[string]repository.User{
		"target": {TelegramID: member, Username: "target"},
	}}
	admins := NewAdminResolver([]int64{configAdmin}, f.store, msg, log)
	f.exec = NewExecutor(msg, admins, users, f.warnings, f.mutes, f.stats,
		&mockWarnCfg{cfg: settings.DefaultWarn()}, state.NewMemoryStore[int](10, time.Hour), log)
	return f
}
