package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "postgres://bot@localhost/bot")
	t.Setenv("ADMIN_USER_IDS", "10,20")
	t.Setenv("ANTIFLOOD_MESSAGE_DELETE_DELAY", "7s")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "postgres://bot@localhost/bot", cfg.GetDSN())
	assert.Equal(t, []int64{10, 20}, cfg.AdminUserIDs)
	assert.True(t, cfg.IsConfigAdmin(20))
	assert.False(t, cfg.IsConfigAdmin(30))
	assert.Equal(t, 7*time.Second, cfg.Delays.Antiflood)
	assert.Equal(t, 3*time.Second, cfg.Delays.Warn)
	assert.Equal(t, 60*time.Second, cfg.SchedulerInterval)
	assert.Equal(t, 10*time.Minute, cfg.DefaultMuteDuration)
}

func TestLoadConfig_MissingDatabase(t *testing.T) {
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_PASSWORD", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestGetDSN_FromParts(t *testing.T) {
	cfg := &Config{DBHost: "db", DBPort: "5433", DBUser: "u", DBPassword: "p", DBName: "n"}
	assert.Equal(t, "host=db port=5433 user=u password=p dbname=n sslmode=disable", cfg.GetDSN())
}

func TestParseSeed(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		check   func(t *testing.T, s *Seed)
	}{
		{
			name: "Full seed",
			input: `
admins:
  - telegram_id: 42
triggers:
  - phrases: "цена?|прайс"
    response: "Прайс в закрепе."
blacklist:
  words: ["дурак"]
  links: ["t.me/"]
`,
			check: func(t *testing.T, s *Seed) {
				require.Len(t, s.Admins, 1)
				assert.Equal(t, "admin", s.Admins[0].Role)
				require.Len(t, s.Triggers, 1)
				assert.Equal(t, "цена?|прайс", s.Triggers[0].Phrases)
				assert.Equal(t, []string{"дурак"}, s.Blacklist.Words)
				assert.Equal(t, []string{"t.me/"}, s.Blacklist.Links)
			},
		},
		{
			name:    "Trigger without response",
			input:   "triggers:\n  - phrases: a\n",
			wantErr: true,
		},
		{
			name:    "Admin without id",
			input:   "admins:\n  - role: owner\n",
			wantErr: true,
		},
		{
			name:    "Broken yaml",
			input:   "admins: [",
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := ParseSeed([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, seed)
		})
	}
}

func TestLoadSeed_Default(t *testing.T) {
	seed, err := LoadSeed("")
	require.NoError(t, err)
	assert.Len(t, seed.Triggers, 3)
}
