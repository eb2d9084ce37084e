package filters

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMatcher(t *testing.T, store *mockTriggerStore) *TriggerMatcher {
	t.Helper()
	m := NewTriggerMatcher(store, discardLogger())
	require.NoError(t, m.Reload(context.Background()))
	return m
}

func TestTriggerMatcher_Match(t *testing.T) {
	store := &mockTriggerStore{triggers: []repository.Trigger{
		{ID: 1, Variants: pq.StringArray{"цена?"}, ResponseText: "Прайс в закрепе."},
		{ID: 2, TriggerText: " Контакт? | связь ", ResponseText: "Пишите в ЛС @manager"},
		{ID: 3, Variants: pq.StringArray{"цена"}, ResponseText: "second"},
	}}
	m := newMatcher(t, store)

	tests := []struct {
		text   string
		wantID uint
		wantOK bool
	}{
		{"Какая ЦЕНА?", 1, true},
		{"нужна связь", 2, true},
		{"цена", 3, true},
		{"/stats цена?", 0, false},
		{"привет", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := m.Match(tt.text)
		assert.Equal(t, tt.wantOK, ok, tt.text)
		assert.Equal(t, tt.wantID, got.ID, tt.text)
	}
}

func TestTriggerMatcher_Process(t *testing.T) {
	store := &mockTriggerStore{triggers: []repository.Trigger{
		{ID: 5, Variants: pq.StringArray{"расписание?"}, ResponseText: "Смотри pinned сообщение"},
	}}
	m := newMatcher(t, store)

	res, err := m.Process(context.Background(), pipeline.Payload{Text: "где расписание?"})
	require.NoError(t, err)
	assert.False(t, res.IsAllowed)
	assert.False(t, res.ShouldDelete)
	assert.Equal(t, "Смотри pinned сообщение", res.Reply)
	assert.Equal(t, []uint{5}, store.hits)

	store.RecordHitFunc = func(context.Context, uint, time.Time) error { return errors.New("db down") }
	res, err = m.Process(context.Background(), pipeline.Payload{Text: "расписание?"})
	require.NoError(t, err)
	assert.Equal(t, "Смотри pinned сообщение", res.Reply)

	res, err = m.Process(context.Background(), pipeline.Payload{Text: "ничего"})
	require.NoError(t, err)
	assert.True(t, res.IsAllowed)
}

func TestTriggerMatcher_ReloadError(t *testing.T) {
	store := &mockTriggerStore{ListErr: errors.New("boom")}
	m := NewTriggerMatcher(store, discardLogger())
	assert.Error(t, m.Reload(context.Background()))
	_, ok := m.Match("anything")
	assert.False(t, ok)
}
