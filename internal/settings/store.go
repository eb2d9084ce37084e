package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kabozek1/tgbot-final02/internal/repository"
)

// Backend persists one JSON blob per plugin.
type Backend interface {
	Get(ctx context.Context, plugin string) (*repository.PluginSettings, error)
	Save(ctx context.Context, plugin string, version int, blob []byte) error
}

// Store caches every plugin configuration. Reads never touch the backend;
// updates persist first and then replace the cached value.
type Store struct {
	backend Backend
	log     *slog.Logger

	mu         sync.RWMutex
	antiflood  Antiflood
	antimat    Antimat
	warn       Warn
	captcha    Captcha
	reputation Reputation
	poll       Poll
}

func NewStore(backend Backend, log *slog.Logger) *Store {
	return &Store{
		backend:    backend,
		log:        log,
		antiflood:  DefaultAntiflood(),
		antimat:    DefaultAntimat(),
		warn:       DefaultWarn(),
		captcha:    DefaultCaptcha(),
		reputation: DefaultReputation(),
		poll:       DefaultPoll(),
	}
}

// Load fills the cache from the backend. Missing entries are seeded with
// defaults; invalid ones fall back to defaults. Only backend failures are returned.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := load(ctx, s, &s.antiflood, DefaultAntiflood()); err != nil {
		return err
	}
	if err := load(ctx, s, &s.antimat, DefaultAntimat()); err != nil {
		return err
	}
	if err := load(ctx, s, &s.warn, DefaultWarn()); err != nil {
		return err
	}
	if err := load(ctx, s, &s.captcha, DefaultCaptcha()); err != nil {
		return err
	}
	if err := load(ctx, s, &s.reputation, DefaultReputation()); err != nil {
		return err
	}
	return load(ctx, s, &s.poll, DefaultPoll())
}

func (s *Store) Antiflood() Antiflood {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.antiflood.clone()
}

func (s *Store) Antimat() Antimat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.antimat.clone()
}

func (s *Store) Warn() Warn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.warn.clone()
}

func (s *Store) Captcha() Captcha {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.captcha.clone()
}

func (s *Store) Reputation() Reputation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reputation.clone()
}

func (s *Store) Poll() Poll {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.poll.clone()
}

func (s *Store) UpdateAntiflood(ctx context.Context, fn func(*Antiflood)) (Antiflood, error) {
	return update(ctx, s, &s.antiflood, fn)
}

func (s *Store) UpdateAntimat(ctx context.Context, fn func(*Antimat)) (Antimat, error) {
	return update(ctx, s, &s.antimat, fn)
}

func (s *Store) UpdateWarn(ctx context.Context, fn func(*Warn)) (Warn, error) {
	return update(ctx, s, &s.warn, fn)
}

func (s *Store) UpdateCaptcha(ctx context.Context, fn func(*Captcha)) (Captcha, error) {
	return update(ctx, s, &s.captcha, fn)
}

func (s *Store) UpdateReputation(ctx context.Context, fn func(*Reputation)) (Reputation, error) {
	return update(ctx, s, &s.reputation, fn)
}

func (s *Store) UpdatePoll(ctx context.Context, fn func(*Poll)) (Poll, error) {
	return update(ctx, s, &s.poll, fn)
}

// load expects s.mu to be held.
func load[T config[T]](ctx context.Context, s *Store, dst *T, def T) error {
	plugin := def.Plugin()
	row, err := s.backend.Get(ctx, plugin)
	if err != nil {
		return fmt.Errorf("failed to load %s settings: %w", plugin, err)
	}
	if row == nil {
		blob, err := json.Marshal(def)
		if err != nil {
			return fmt.Errorf("failed to encode %s settings: %w", plugin, err)
		}
		if err := s.backend.Save(ctx, plugin, CurrentVersion, blob); err != nil {
			return fmt.Errorf("failed to seed %s settings: %w", plugin, err)
		}
		s.log.Info("Seeded default settings", "plugin", plugin)
		*dst = def
		return nil
	}
	// Decoding over the defaults fills fields added by newer versions.
	cfg := def.clone()
	if err := json.Unmarshal(row.Settings, &cfg); err != nil {
		s.log.Warn("Failed to decode settings, using defaults", "plugin", plugin, "error", err)
		*dst = def
		return nil
	}
	if err := cfg.Validate(); err != nil {
		s.log.Warn("Stored settings are invalid, using defaults", "plugin", plugin, "error", err)
		*dst = def
		return nil
	}
	if row.Version < CurrentVersion {
		s.log.Info("Upgrading settings", "plugin", plugin, "from", row.Version, "to", CurrentVersion)
	}
	setVersion(&cfg)
	*dst = cfg
	return nil
}

func update[T config[T]](ctx context.Context, s *Store, cur *T, fn func(*T)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := (*cur).clone()
	fn(&next)
	setVersion(&next)
	if err := next.Validate(); err != nil {
		var zero T
		return zero, err
	}
	blob, err := json.Marshal(next)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("failed to encode %s settings: %w", next.Plugin(), err)
	}
	if err := s.backend.Save(ctx, next.Plugin(), CurrentVersion, blob); err != nil {
		var zero T
		return zero, fmt.Errorf("failed to save %s settings: %w", next.Plugin(), err)
	}
	*cur = next
	return next.clone(), nil
}

func setVersion(cfg any) {
	switch c := cfg.(type) {
	case *Antiflood:
		c.Version = CurrentVersion
	case *Antimat:
		c.Version = CurrentVersion
	case *Warn:
		c.Version = CurrentVersion
	case *Captcha:
		c.Version = CurrentVersion
	case *Reputation:
		c.Version = CurrentVersion
	case *Poll:
		c.Version = CurrentVersion
	}
}
