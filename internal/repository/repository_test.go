package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWarningRepository_CountsAndClears(t *testing.T) {
	ctx := context.Background()
	repo := NewWarningRepository(newTestDB(t, &Warning{}))
	now := time.Now()
	since := now.Add(-30 * 24 * time.Hour)

	old := &Warning{ChatID: -1, UserID: 7, CreatedAt: now.Add(-40 * 24 * time.Hour)}
	_, err := repo.AddWarning(ctx, old, since)
	require.NoError(t, err)

	for want := 1; want <= 3; want++ {
		got, err := repo.AddWarning(ctx, &Warning{ChatID: -1, UserID: 7, AdminID: 1}, since)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	other, err := repo.AddWarning(ctx, &Warning{ChatID: -2, UserID: 7}, since)
	require.NoError(t, err)
	assert.Equal(t, 1, other)

	require.NoError(t, repo.ClearWarnings(ctx, -1, 7))
	count, err := repo.CountActive(ctx, -1, 7, since)
	require.NoError(t, err)
	assert.Zero(t, count)

	got, err := repo.AddWarning(ctx, &Warning{ChatID: -1, UserID: 7}, since)
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestMessageLogRepository_RepliesAndSummary(t *testing.T) {
	ctx := context.Background()
	repo := NewMessageLogRepository(newTestDB(t, &MessageLog{}))
	now := time.Now()
	root := 10

	require.NoError(t, repo.Log(ctx, &MessageLog{ChatID: -1, MessageID: 10, UserID: 1, Date: now}))
	require.NoError(t, repo.Log(ctx, &MessageLog{ChatID: -1, MessageID: 11, UserID: 2, Date: now, ReplyToMessageID: &root}))
	require.NoError(t, repo.Log(ctx, &MessageLog{ChatID: -1, MessageID: 12, UserID: 2, Date: now, ReplyToMessageID: &root}))
	require.NoError(t, repo.Log(ctx, &MessageLog{ChatID: -9, MessageID: 10, UserID: 3, Date: now}))

	pg := repo.(*PostgresMessageLogRepository)
	var target MessageLog
	require.NoError(t, pg.db.Where("chat_id = ? AND message_id = ?", -1, 10).First(&target).Error)
	assert.Equal(t, 2, target.RepliesCount)

	summary, err := repo.Summary(ctx, -1, now.Add(-time.Hour), 5)
	require.NoError(t, err)
	assert.EqualValues(t, 3, summary.Messages)
	assert.EqualValues(t, 2, summary.ActiveUsers)
	require.Len(t, summary.TopPosters, 2)
	assert.Equal(t, PosterCount{UserID: 2, Messages: 2}, summary.TopPosters[0])
}

func TestScheduledPostRepository_ProcessDue(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledPostRepository(newTestDB(t, &ScheduledPost{}))
	now := time.Now()

	due := &ScheduledPost{ChatID: -1, Text: "hello", PublishTime: now.Add(-time.Minute)}
	broken := &ScheduledPost{ChatID: -2, Text: "boom", PublishTime: now.Add(-time.Second)}
	future := &ScheduledPost{ChatID: -1, Text: "later", PublishTime: now.Add(time.Hour)}
	for _, p := range []*ScheduledPost{due, broken, future} {
		require.NoError(t, repo.Create(ctx, p))
	}

	var delivered []uint
	deliver := func(_ context.Context, p *ScheduledPost) (int, error) {
		delivered = append(delivered, p.ID)
		if p.ChatID == -2 {
			return 0, errors.New("chat not found")
		}
		return 555, nil
	}

	published, failed, err := repo.ProcessDue(ctx, now, deliver)
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, 1, failed)
	assert.Equal(t, []uint{due.ID, broken.ID}, delivered)

	got, err := repo.Get(ctx, due.ID)
	require.NoError(t, err)
	assert.Equal(t, PostPublished, got.Status)
	require.NotNil(t, got.TelegramMessageID)
	assert.Equal(t, 555, *got.TelegramMessageID)
	require.NotNil(t, got.PublishedAt)

	got, err = repo.Get(ctx, broken.ID)
	require.NoError(t, err)
	assert.Equal(t, PostFailed, got.Status)
	assert.Equal(t, "chat not found", got.LastError)

	// A second sweep never touches posts that already left pending.
	delivered = nil
	published, failed, err = repo.ProcessDue(ctx, now, deliver)
	require.NoError(t, err)
	assert.Zero(t, published+failed)
	assert.Empty(t, delivered)

	pending, err := repo.ListPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, future.ID, pending[0].ID)
}

func TestScheduledPostRepository_EditAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledPostRepository(newTestDB(t, &ScheduledPost{}))

	post := &ScheduledPost{ChatID: -1, Text: "draft", PublishTime: time.Now().Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, post))

	require.NoError(t, repo.EditPending(ctx, post.ID, func(p *ScheduledPost) { p.Text = "final" }))
	got, err := repo.Get(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)

	require.NoError(t, repo.MarkDeleted(ctx, post.ID))
	err = repo.EditPending(ctx, post.ID, func(p *ScheduledPost) { p.Text = "x" })
	assert.ErrorIs(t, err, ErrPostNotPending)

	assert.ErrorIs(t, repo.MarkDeleted(ctx, 999), ErrPostNotFound)
	_, err = repo.Get(ctx, 999)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestMuteRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMuteRepository(newTestDB(t, &Mute{}))
	now := time.Now()

	require.NoError(t, repo.MuteUser(ctx, -1, 5, "bob", now.Add(10*time.Minute)))
	require.NoError(t, repo.MuteUser(ctx, -1, 6, "eve", now.Add(-time.Second)))

	muted, until, err := repo.IsMuted(ctx, -1, 5)
	require.NoError(t, err)
	assert.True(t, muted)
	assert.WithinDuration(t, now.Add(10*time.Minute), until, time.Second)

	expired, err := repo.GetExpired(ctx, now, 10)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.EqualValues(t, 6, expired[0].UserID)

	count, err := repo.CountActiveMutes(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	require.NoError(t, repo.UnmuteUser(ctx, -1, 5))
	require.NoError(t, repo.UnmuteUser(ctx, -1, 5))
	muted, _, err = repo.IsMuted(ctx, -1, 5)
	require.NoError(t, err)
	assert.False(t, muted)
}

func TestUserAndAdminRepositories(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &User{}, &Admin{})
	users := NewUserRepository(db)
	admins := NewAdminRepository(db)

	require.NoError(t, users.Upsert(ctx, &User{TelegramID: 42, Username: "Alice"}))
	require.NoError(t, users.Upsert(ctx, &User{TelegramID: 42, Username: "alice_new", FirstName: "Alice"}))

	u, err := users.FindByUsername(ctx, "@ALICE_NEW")
	require.NoError(t, err)
	assert.EqualValues(t, 42, u.TelegramID)
	assert.Equal(t, "Alice", u.FirstName)

	_, err = users.FindByUsername(ctx, "@alice")
	assert.ErrorIs(t, err, ErrUserNotFound)

	require.NoError(t, admins.AddAdmin(ctx, 42, ""))
	require.NoError(t, admins.AddAdmin(ctx, 42, "owner"))
	ok, err := admins.IsAdmin(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	list, err := admins.ListAdmins(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "admin", list[0].Role)

	require.NoError(t, admins.RemoveAdmin(ctx, 42))
	ok, err = admins.IsAdmin(ctx, 42)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestInviteRepository_JoinLeaveFirstMessage(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t, &InviteLink{}, &InviteClick{})
	repo := NewInviteRepository(db)
	now := time.Now()
	link := InviteLink{ChatID: -1, LinkURL: "https://t.me/+abc", Name: "promo", Source: SourceInvite}

	require.NoError(t, repo.RecordJoin(ctx, link, 1, now))
	require.NoError(t, repo.RecordJoin(ctx, link, 2, now.Add(time.Minute)))
	require.NoError(t, repo.MarkFirstMessage(ctx, -1, 1, now.Add(2*time.Minute)))
	require.NoError(t, repo.RecordLeave(ctx, -1, 2, now.Add(3*time.Minute)))
	require.NoError(t, repo.RecordLeave(ctx, -1, 99, now))

	top, err := repo.TopLinks(ctx, -1, 5)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, 2, top[0].TotalClicks)
	assert.Equal(t, 1, top[0].LeftCount)

	var click InviteClick
	require.NoError(t, db.Where("user_id = ?", 1).First(&click).Error)
	assert.NotNil(t, click.FirstMessageDate)
	assert.Nil(t, click.LeftDate)
}

func TestReputationRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewReputationRepository(newTestDB(t, &Reputation{}, &ReputationLog{}))

	score, err := repo.Change(ctx, -1, 1, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, score)
	score, err = repo.Change(ctx, -1, 3, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, score)
	score, err = repo.Change(ctx, -1, 2, 3, -1)
	require.NoError(t, err)
	assert.Equal(t, -1, score)

	got, err := repo.Score(ctx, -1, 404)
	require.NoError(t, err)
	assert.Zero(t, got)

	top, err := repo.Top(ctx, -1, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.EqualValues(t, 2, top[0].UserID)
}

func TestPollRepository_OneVotePerUser(t *testing.T) {
	ctx := context.Background()
	repo := NewPollRepository(newTestDB(t, &Poll{}, &PollVote{}))
	require.NoError(t, repo.Create(ctx, &Poll{ID: "p1", ChatID: -1, Question: "q"}))

	first, err := repo.Vote(ctx, "p1", 7, 0)
	require.NoError(t, err)
	assert.True(t, first)
	again, err := repo.Vote(ctx, "p1", 7, 1)
	require.NoError(t, err)
	assert.False(t, again)
	_, err = repo.Vote(ctx, "p1", 8, 1)
	require.NoError(t, err)

	counts, err := repo.Counts(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, map[int]int{0: 1, 1: 1}, counts)

	_, err = repo.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestPluginSettingsRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewPluginSettingsRepository(newTestDB(t, &PluginSettings{}))

	row, err := repo.Get(ctx, "antiflood")
	require.NoError(t, err)
	assert.Nil(t, row)

	require.NoError(t, repo.Save(ctx, "antiflood", 1, []byte(`{"enabled":true}`)))
	require.NoError(t, repo.Save(ctx, "antiflood", 2, []byte(`{"enabled":false}`)))

	row, err = repo.Get(ctx, "antiflood")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, 2, row.Version)
	assert.JSONEq(t, `{"enabled":false}`, string(row.Settings))
}

func TestChatTopicRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewChatTopicRepository(newTestDB(t, &ChatTopic{}))

	require.NoError(t, repo.Touch(ctx, -1, 3))
	require.NoError(t, repo.SetName(ctx, -1, 3, "News"))
	require.NoError(t, repo.Touch(ctx, -1, 3))

	name, err := repo.Name(ctx, -1, 3)
	require.NoError(t, err)
	assert.Equal(t, "News", name)
}

func TestUserStateRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserStateRepository(newTestDB(t, &UserState{}))

	require.NoError(t, repo.SetState(ctx, 1, "add_word", ""))
	require.NoError(t, repo.SetState(ctx, 1, "add_link", "x"))
	st, err := repo.GetState(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, "add_link", st.Action)

	require.NoError(t, repo.ClearState(ctx, 1))
	st, err = repo.GetState(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestSplitVariants(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"Цена?| price |", []string{"цена?", "price"}},
		{"  ", nil},
		{"один", []string{"один"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitVariants(tt.in), tt.in)
	}
}
