package service

import (
	"context"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/repository"
)

type MockSettingsBackend struct {
	rows    map[string]*repository.PluginSettings
	SaveErr error
}

func (m *MockSettingsBackend) Get(_ context.Context, plugin string) (*repository.PluginSettings, error) {
	return m.rows[plugin], nil
}

func (m *MockSettingsBackend) Save(_ context.Context, plugin string, version int, blob []byte) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	if m.rows == nil {
		m.rows = map[string]*repository.PluginSettings{}
	}
	m.rows[plugin] = &repository.PluginSettings{PluginName: plugin, Version: version, Settings: blob}
	return nil
}

type MockTriggerRepository struct {
	CreateFunc func(ctx context.Context, phrases, response string) (*repository.Trigger, error)
	DeleteFunc func(ctx context.Context, id uint) error
	CountFunc  func(ctx context.Context) (int64, error)
	created    []string
}

func (m *MockTriggerRepository) ListActive(context.Context) ([]repository.Trigger, error) {
	return nil, nil
}

func (m *MockTriggerRepository) List(context.Context) ([]repository.Trigger, error) {
	return nil, nil
}

func (m *MockTriggerRepository) Create(ctx context.Context, phrases, response string) (*repository.Trigger, error) {
	m.created = append(m.created, phrases)
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, phrases, response)
	}
	return &repository.Trigger{ID: uint(len(m.created)), TriggerText: phrases, ResponseText: response}, nil
}

func (m *MockTriggerRepository) Delete(ctx context.Context, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *MockTriggerRepository) RecordHit(context.Context, uint, time.Time) error { return nil }

func (m *MockTriggerRepository) Count(ctx context.Context) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx)
	}
	return int64(len(m.created)), nil
}

type MockReloader struct {
	reloads int
}

func (m *MockReloader) Reload(context.Context) error {
	m.reloads++
	return nil
}

type MockPostRepository struct {
	CreateFunc      func(ctx context.Context, post *repository.ScheduledPost) error
	EditPendingFunc func(ctx context.Context, id uint, edit func(*repository.ScheduledPost)) error
	post            repository.ScheduledPost
	created         []*repository.ScheduledPost
}

func (m *MockPostRepository) Create(ctx context.Context, post *repository.ScheduledPost) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, post)
	}
	post.ID = uint(len(m.created) + 1)
	m.created = append(m.created, post)
	return nil
}

func (m *MockPostRepository) Get(context.Context, uint) (*repository.ScheduledPost, error) {
	p := m.post
	return &p, nil
}

func (m *MockPostRepository) ListPending(context.Context, int) ([]repository.ScheduledPost, error) {
	return []repository.ScheduledPost{m.post}, nil
}

func (m *MockPostRepository) EditPending(ctx context.Context, id uint, edit func(*repository.ScheduledPost)) error {
	if m.EditPendingFunc != nil {
		return m.EditPendingFunc(ctx, id, edit)
	}
	edit(&m.post)
	return nil
}

func (m *MockPostRepository) MarkDeleted(context.Context, uint) error {
	m.post.Status = repository.PostDeleted
	return nil
}

func (m *MockPostRepository) ProcessDue(context.Context, time.Time, repository.DeliverFunc) (int, int, error) {
	return 0, 0, nil
}

type MockAdminRepository struct {
	admins map[int64]string
}

func (m *MockAdminRepository) IsAdmin(_ context.Context, userID int64) (bool, error) {
	_, ok := m.admins[userID]
	return ok, nil
}

func (m *MockAdminRepository) AddAdmin(_ context.Context, userID int64, role string) error {
	if m.admins == nil {
		m.admins = map[int64]string{}
	}
	if _, ok := m.admins[userID]; !ok {
		m.admins[userID] = role
	}
	return nil
}

func (m *MockAdminRepository) RemoveAdmin(_ context.Context, userID int64) error {
	delete(m.admins, userID)
	return nil
}

func (m *MockAdminRepository) ListAdmins(context.Context) ([]repository.Admin, error) {
	var out []repository.Admin
	for id, role := range m.admins {
		out = append(out, repository.Admin{TelegramID: id, Role: role})
	}
	return out, nil
}

type MockTempMessageRepository struct {
	expired []repository.TemporaryMessage
	deleted []int64
}

func (m *MockTempMessageRepository) Add(context.Context, int64, int, time.Duration) error {
	return nil
}

func (m *MockTempMessageRepository) GetExpired(context.Context, int) ([]repository.TemporaryMessage, error) {
	return m.expired, nil
}

func (m *MockTempMessageRepository) Delete(_ context.Context, ids []int64) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

type MockMuteExpirer struct {
	calls chan struct{}
}

func (m *MockMuteExpirer) ExpireMutes(context.Context) {
	select {
	case m.calls <- struct{}{}:
	default:
	}
}
