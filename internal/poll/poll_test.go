package poll

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/transport/transporttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	polls map[string]*repository.Poll
	votes map[string]map[int64]int
}

func newMockRepo() *mockRepo {
	return &mockRepo{polls: map[string]*repository.Poll{}, votes: map[string]map[int64]int{}}
}

func (m *mockRepo) Create(_ context.Context, p *repository.Poll) error {
	cp := *p
	m.polls[p.ID] = &cp
	return nil
}

func (m *mockRepo) SetMessageID(_ context.Context, id string, msgID int) error {
	m.polls[id].MessageID = msgID
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (*repository.Poll, error) {
	p, ok := m.polls[id]
	if !ok {
		return nil, repository.ErrPollNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) Vote(_ context.Context, id string, userID int64, option int) (bool, error) {
	if m.votes[id] == nil {
		m.votes[id] = map[int64]int{}
	}
	if _, ok := m.votes[id][userID]; ok {
		return false, nil
	}
	m.votes[id][userID] = option
	return true, nil
}

func (m *mockRepo) Counts(_ context.Context, id string) (map[int]int, error) {
	counts := map[int]int{}
	for _, opt := range m.votes[id] {
		counts[opt]++
	}
	return counts, nil
}

func (m *mockRepo) LogAnswer(context.Context, *repository.PollAnswer) error { return nil }

type staticConfig struct{ cfg settings.Poll }

func (s staticConfig) Poll() settings.Poll { return s.cfg }

func newService(cfg settings.Poll) (*Service, *mockRepo, *transporttest.Messenger) {
	repo := newMockRepo()
	messenger := &transporttest.Messenger{}
	s := NewService(repo, messenger, staticConfig{cfg}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.newID = func() string { return "p1" }
	return s, repo, messenger
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		max     int
		want    []string
		wantErr error
	}{
		{name: "valid", args: "Куда идём? ; Кино;Парк", max: 10, want: []string{"Кино", "Парк"}},
		{name: "blank options skipped", args: "Q;A;;B;", max: 10, want: []string{"A", "B"}},
		{name: "one option", args: "Q;A", max: 10, wantErr: ErrUsage},
		{name: "no question", args: ";A;B", max: 10, wantErr: ErrUsage},
		{name: "empty", args: "", max: 10, wantErr: ErrUsage},
		{name: "too many", args: "Q;A;B;C", max: 2, wantErr: ErrTooManyOptions},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, options, err := Parse(tt.args, tt.max)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, options)
		})
	}
}

func TestService_CreateAndVote(t *testing.T) {
	s, repo, messenger := newService(settings.DefaultPoll())
	ctx := context.Background()

	p, err := s.Create(ctx, -10, 4, 1, "Куда идём?;Кино;Парк")
	require.NoError(t, err)
	require.Len(t, messenger.Sent, 1)
	sent := messenger.Sent[0]
	assert.Equal(t, 4, sent.ThreadID)
	assert.Equal(t, "📊 Куда идём?", sent.Text)
	require.Len(t, sent.Buttons, 2)
	assert.Equal(t, "poll:p1:1", sent.Buttons[1][0].Data)
	assert.Equal(t, 1001, repo.polls[p.ID].MessageID)

	press := event.CallbackPress{Base: event.Base{ChatID: -10, From: event.User{ID: 20}}, Data: "poll:p1:1", MessageID: 1001}
	answer, err := s.Vote(ctx, press)
	require.NoError(t, err)
	assert.Equal(t, "Голос учтён!", answer)
	require.Len(t, messenger.Edits, 1)
	assert.Contains(t, messenger.Edits[0].Text, "Парк — 1 голос")
	assert.Contains(t, messenger.Edits[0].Text, "Кино — 0 голосов")
	assert.Equal(t, "Парк (1)", messenger.Edits[0].Buttons[1][0].Text)

	press.Data = "poll:p1:0"
	answer, err = s.Vote(ctx, press)
	require.NoError(t, err)
	assert.Equal(t, "Вы уже голосовали.", answer)
	assert.Len(t, messenger.Edits, 1)
}

func TestService_VoteEdgeCases(t *testing.T) {
	s, _, messenger := newService(settings.DefaultPoll())
	ctx := context.Background()
	_, err := s.Create(ctx, -10, 0, 1, "Q;A;B")
	require.NoError(t, err)

	base := event.Base{ChatID: -10, From: event.User{ID: 20}}

	answer, err := s.Vote(ctx, event.CallbackPress{Base: base, Data: "poll:missing:0"})
	require.NoError(t, err)
	assert.Equal(t, "Опрос не найден.", answer)

	answer, err = s.Vote(ctx, event.CallbackPress{Base: base, Data: "poll:p1:5"})
	require.NoError(t, err)
	assert.Equal(t, "Неверный вариант.", answer)

	for _, data := range []string{"poll:", "poll:p1", "poll:p1:x", "poll:p1:-1", "captcha:1"} {
		_, err = s.Vote(ctx, event.CallbackPress{Base: base, Data: data})
		assert.ErrorIs(t, err, ErrMalformedCallback, data)
	}
	assert.Empty(t, messenger.Edits)
}

func TestService_CreateDisabled(t *testing.T) {
	cfg := settings.DefaultPoll()
	cfg.Enabled = false
	s, _, messenger := newService(cfg)
	_, err := s.Create(context.Background(), -10, 0, 1, "Q;A;B")
	assert.ErrorIs(t, err, ErrDisabled)
	assert.Empty(t, messenger.Sent)
}
