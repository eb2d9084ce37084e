package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seed is the initial content applied to an empty store on first start.
type Seed struct {
	Admins    []SeedAdmin   `yaml:"admins"`
	Triggers  []SeedTrigger `yaml:"triggers"`
	Blacklist struct {
		Words []string `yaml:"words"`
		Links []string `yaml:"links"`
	} `yaml:"blacklist"`
}

type SeedAdmin struct {
	TelegramID int64  `yaml:"telegram_id"`
	Role       string `yaml:"role"`
}

type SeedTrigger struct {
	Phrases  string `yaml:"phrases"`
	Response string `yaml:"response"`
}

// DefaultSeed mirrors the triggers shipped with the bot when no seed file is configured.
func DefaultSeed() *Seed {
	return &Seed{
		Triggers: []SeedTrigger{
			{Phrases: "цена?", Response: "Прайс в закрепе."},
			{Phrases: "расписание?", Response: "Смотри pinned сообщение"},
			{Phrases: "контакт?", Response: "Пишите в ЛС @manager"},
		},
	}
}

func LoadSeed(path string) (*Seed, error) {
	if path == "" {
		return DefaultSeed(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	return ParseSeed(data)
}

func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, t := range seed.Triggers {
		if strings.TrimSpace(t.Phrases) == "" || strings.TrimSpace(t.Response) == "" {
			return nil, fmt.Errorf("failed to parse seed file: trigger #%d needs phrases and response", i+1)
		}
	}
	for i, a := range seed.Admins {
		if a.TelegramID == 0 {
			return nil, fmt.Errorf("failed to parse seed file: admin #%d has no telegram_id", i+1)
		}
		if a.Role == "" {
			seed.Admins[i].Role = "admin"
		}
	}
	return &seed, nil
}
