package settings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type MockBackend struct {
	rows    map[string]*repository.PluginSettings
	SaveErr error
	saves   int
}

func newMockBackend() *MockBackend {
	return &MockBackend{rows: map[string]*repository.PluginSettings{}}
}

func (m *MockBackend) Get(_ context.Context, plugin string) (*repository.PluginSettings, error) {
	return m.rows[plugin], nil
}

func (m *MockBackend) Save(_ context.Context, plugin string, version int, blob []byte) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.saves++
	m.rows[plugin] = &repository.PluginSettings{PluginName: plugin, Version: version, Settings: blob}
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestStore_LoadDefaultsWhenEmpty(t *testing.T) {
	backend := newMockBackend()
	s := NewStore(backend, testLogger())
	require.NoError(t, s.Load(context.Background()))

	assert.Equal(t, DefaultAntiflood(), s.Antiflood())
	assert.Equal(t, DefaultAntimat(), s.Antimat())
	assert.Equal(t, 3, s.Warn().MaxWarnings)
	assert.Equal(t, 120, s.Captcha().TimeoutSeconds)

	assert.Equal(t, 6, backend.saves)
	for _, plugin := range []string{PluginAntiflood, PluginAntimat, PluginWarn, PluginCaptcha, PluginReputation, PluginPoll} {
		row := backend.rows[plugin]
		require.NotNil(t, row, plugin)
		assert.Equal(t, CurrentVersion, row.Version)
	}

	// A second load reads the seeded rows back without saving again.
	again := NewStore(backend, testLogger())
	require.NoError(t, again.Load(context.Background()))
	assert.Equal(t, 6, backend.saves)
	assert.Equal(t, DefaultAntimat(), again.Antimat())
}

func TestStore_LoadSeedFailure(t *testing.T) {
	backend := newMockBackend()
	backend.SaveErr = errors.New("db down")
	s := NewStore(backend, testLogger())

	err := s.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, backend.SaveErr)
}

func TestStore_LoadStoredAndFallback(t *testing.T) {
	backend := newMockBackend()
	backend.rows[PluginAntiflood] = &repository.PluginSettings{Version: 0, Settings: []byte(`{"enabled":false,"max_messages":8}`)}
	backend.rows[PluginWarn] = &repository.PluginSettings{Version: 1, Settings: []byte(`{"max_warnings":0}`)}
	backend.rows[PluginCaptcha] = &repository.PluginSettings{Version: 1, Settings: []byte(`not json`)}

	s := NewStore(backend, testLogger())
	require.NoError(t, s.Load(context.Background()))

	af := s.Antiflood()
	assert.False(t, af.Enabled)
	assert.Equal(t, 8, af.MaxMessages)
	assert.Equal(t, 10, af.WindowSeconds, "missing fields keep defaults")
	assert.Equal(t, CurrentVersion, af.Version)

	assert.Equal(t, DefaultWarn(), s.Warn())
	assert.Equal(t, DefaultCaptcha(), s.Captcha())
}

func TestStore_UpdatePersistsAndRefreshesCache(t *testing.T) {
	backend := newMockBackend()
	s := NewStore(backend, testLogger())

	got, err := s.UpdateAntimat(context.Background(), func(a *Antimat) {
		a.BlacklistWords = append(a.BlacklistWords, "спам")
	})
	require.NoError(t, err)
	assert.Contains(t, got.BlacklistWords, "спам")
	assert.Contains(t, s.Antimat().BlacklistWords, "спам")
	assert.Equal(t, 1, backend.saves)
	assert.Contains(t, string(backend.rows[PluginAntimat].Settings), "спам")

	// Mutating a returned copy does not leak into the cache.
	got.BlacklistWords[0] = "changed"
	assert.Equal(t, "дурак", s.Antimat().BlacklistWords[0])
}

func TestStore_UpdateRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		run  func(s *Store) error
	}{
		{"antiflood zero window", func(s *Store) error {
			_, err := s.UpdateAntiflood(context.Background(), func(a *Antiflood) { a.WindowSeconds = 0 })
			return err
		}},
		{"antimat empty word", func(s *Store) error {
			_, err := s.UpdateAntimat(context.Background(), func(a *Antimat) { a.BlacklistWords = []string{" "} })
			return err
		}},
		{"poll too many options", func(s *Store) error {
			_, err := s.UpdatePoll(context.Background(), func(p *Poll) { p.MaxOptions = 11 })
			return err
		}},
		{"negative cooldown", func(s *Store) error {
			_, err := s.UpdateReputation(context.Background(), func(r *Reputation) { r.CooldownSeconds = -1 })
			return err
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMockBackend()
			s := NewStore(backend, testLogger())
			err := tt.run(s)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Zero(t, backend.saves)
		})
	}
}

func TestStore_UpdateKeepsCacheOnSaveError(t *testing.T) {
	backend := newMockBackend()
	backend.SaveErr = errors.New("db down")
	s := NewStore(backend, testLogger())

	_, err := s.UpdateCaptcha(context.Background(), func(c *Captcha) { c.Enabled = false })
	require.Error(t, err)
	assert.True(t, s.Captcha().Enabled)
}
