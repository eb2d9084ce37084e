// Package settings holds the typed, versioned plugin configurations and the
// in-memory cache that policy checks read from.
package settings

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// CurrentVersion is the schema version written by this build.
const CurrentVersion = 1

// Plugin names used as keys in the settings store.
const (
	PluginAntiflood  = "antiflood"
	PluginAntimat    = "antimat"
	PluginWarn       = "warn"
	PluginCaptcha    = "captcha"
	PluginReputation = "reputation"
	PluginPoll       = "poll"
)

var ErrInvalid = errors.New("invalid settings")

type config[T any] interface {
	Plugin() string
	Validate() error
	clone() T
}

type Antiflood struct {
	Version       int  `json:"version"`
	Enabled       bool `json:"enabled"`
	MaxMessages   int  `json:"max_messages"`
	WindowSeconds int  `json:"window_seconds"`
}

func DefaultAntiflood() Antiflood {
	return Antiflood{Version: CurrentVersion, Enabled: true, MaxMessages: 5, WindowSeconds: 10}
}

func (Antiflood) Plugin() string { return PluginAntiflood }

func (a Antiflood) Window() time.Duration { return time.Duration(a.WindowSeconds) * time.Second }

func (a Antiflood) Validate() error {
	if a.MaxMessages < 1 {
		return fmt.Errorf("%w: max_messages must be positive", ErrInvalid)
	}
	if a.WindowSeconds < 1 {
		return fmt.Errorf("%w: window_seconds must be positive", ErrInvalid)
	}
	return nil
}

func (a Antiflood) clone() Antiflood { return a }

type Antimat struct {
	Version         int      `json:"version"`
	Enabled         bool     `json:"enabled"`
	WarningsEnabled bool     `json:"warnings_enabled"`
	BlacklistWords  []string `json:"blacklist_words"`
	BlacklistLinks  []string `json:"blacklist_links"`
}

func DefaultAntimat() Antimat {
	return Antimat{
		Version:         CurrentVersion,
		Enabled:         true,
		WarningsEnabled: true,
		BlacklistWords:  []string{"дурак", "лох"},
		BlacklistLinks:  []string{"t.me/", "http://", "https://"},
	}
}

func (Antimat) Plugin() string { return PluginAntimat }

func (a Antimat) Validate() error {
	for _, list := range [][]string{a.BlacklistWords, a.BlacklistLinks} {
		for _, term := range list {
			if strings.TrimSpace(term) == "" {
				return fmt.Errorf("%w: blacklist term must not be empty", ErrInvalid)
			}
		}
	}
	return nil
}

func (a Antimat) clone() Antimat {
	a.BlacklistWords = slices.Clone(a.BlacklistWords)
	a.BlacklistLinks = slices.Clone(a.BlacklistLinks)
	return a
}

type Warn struct {
	Version           int `json:"version"`
	MaxWarnings       int `json:"max_warnings"`
	WarningExpiryDays int `json:"warning_expiry_days"`
}

func DefaultWarn() Warn {
	return Warn{Version: CurrentVersion, MaxWarnings: 3, WarningExpiryDays: 30}
}

func (Warn) Plugin() string { return PluginWarn }

func (w Warn) Expiry() time.Duration { return time.Duration(w.WarningExpiryDays) * 24 * time.Hour }

func (w Warn) Validate() error {
	if w.MaxWarnings < 1 {
		return fmt.Errorf("%w: max_warnings must be positive", ErrInvalid)
	}
	if w.WarningExpiryDays < 1 {
		return fmt.Errorf("%w: warning_expiry_days must be positive", ErrInvalid)
	}
	return nil
}

func (w Warn) clone() Warn { return w }

type Captcha struct {
	Version        int  `json:"version"`
	Enabled        bool `json:"enabled"`
	TimeoutSeconds int  `json:"timeout_seconds"`
}

func DefaultCaptcha() Captcha {
	return Captcha{Version: CurrentVersion, Enabled: true, TimeoutSeconds: 120}
}

func (Captcha) Plugin() string { return PluginCaptcha }

func (c Captcha) Timeout() time.Duration { return time.Duration(c.TimeoutSeconds) * time.Second }

func (c Captcha) Validate() error {
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("%w: timeout_seconds must be positive", ErrInvalid)
	}
	return nil
}

func (c Captcha) clone() Captcha { return c }

type Reputation struct {
	Version         int  `json:"version"`
	Enabled         bool `json:"enabled"`
	CooldownSeconds int  `json:"cooldown_seconds"`
}

func DefaultReputation() Reputation {
	return Reputation{Version: CurrentVersion, Enabled: true, CooldownSeconds: 30}
}

func (Reputation) Plugin() string { return PluginReputation }

func (r Reputation) Cooldown() time.Duration { return time.Duration(r.CooldownSeconds) * time.Second }

func (r Reputation) Validate() error {
	if r.CooldownSeconds < 0 {
		return fmt.Errorf("%w: cooldown_seconds must not be negative", ErrInvalid)
	}
	return nil
}

func (r Reputation) clone() Reputation { return r }

type Poll struct {
	Version    int  `json:"version"`
	Enabled    bool `json:"enabled"`
	MaxOptions int  `json:"max_options"`
}

func DefaultPoll() Poll {
	return Poll{Version: CurrentVersion, Enabled: true, MaxOptions: 10}
}

func (Poll) Plugin() string { return PluginPoll }

func (p Poll) Validate() error {
	if p.MaxOptions < 2 || p.MaxOptions > 10 {
		return fmt.Errorf("%w: max_options must be between 2 and 10", ErrInvalid)
	}
	return nil
}

func (p Poll) clone() Poll { return p }
