package handler

import (
	"context"
	"sync"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/config"
	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/moderation"
	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/service"
	"github.com/kabozek1/tgbot-final02/internal/settings"
)

type MockPipeline struct {
	ProcessFunc func(payload pipeline.Payload) (*pipeline.Result, error)
	Payloads    []pipeline.Payload
}

func (m *MockPipeline) Process(_ context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	m.Payloads = append(m.Payloads, payload)
	if m.ProcessFunc != nil {
		return m.ProcessFunc(payload)
	}
	return pipeline.Allow(), nil
}

type MockVerifier struct {
	Joins     []event.User
	Forgotten []int64
	Confirmed []event.CallbackPress
}

func (m *MockVerifier) HandleJoin(_ context.Context, _ int64, _ int, user event.User) error {
	m.Joins = append(m.Joins, user)
	return nil
}

func (m *MockVerifier) Confirm(_ context.Context, press event.CallbackPress) error {
	m.Confirmed = append(m.Confirmed, press)
	return nil
}

func (m *MockVerifier) Forget(_, userID int64) {
	m.Forgotten = append(m.Forgotten, userID)
}

type MockModerator struct {
	ResolveTargetFunc func(msg event.Message, args []string) (event.User, error)
	WarnFunc          func(req moderation.Request, reason string) (moderation.WarnOutcome, error)
	MuteFunc          func(req moderation.Request, d time.Duration) (time.Time, error)
	ActionErr         error

	Remembered []int
	Actions    []string
	Deleted    []int
}

func (m *MockModerator) ResolveTarget(_ context.Context, msg event.Message, args []string) (event.User, error) {
	if m.ResolveTargetFunc != nil {
		return m.ResolveTargetFunc(msg, args)
	}
	if msg.ReplyTo != nil {
		return msg.ReplyTo.From, nil
	}
	return event.User{}, moderation.ErrNoTarget
}

func (m *MockModerator) Warn(_ context.Context, req moderation.Request, reason string) (moderation.WarnOutcome, error) {
	m.Actions = append(m.Actions, "warn")
	if m.WarnFunc != nil {
		return m.WarnFunc(req, reason)
	}
	return moderation.WarnOutcome{Count: 1, Max: 3}, nil
}

func (m *MockModerator) Mute(_ context.Context, req moderation.Request, d time.Duration) (time.Time, error) {
	m.Actions = append(m.Actions, "mute")
	if m.MuteFunc != nil {
		return m.MuteFunc(req, d)
	}
	return time.Now().Add(d), nil
}

func (m *MockModerator) Unmute(context.Context, moderation.Request) error {
	m.Actions = append(m.Actions, "unmute")
	return m.ActionErr
}

func (m *MockModerator) Kick(context.Context, moderation.Request) error {
	m.Actions = append(m.Actions, "kick")
	return m.ActionErr
}

func (m *MockModerator) Ban(context.Context, moderation.Request) error {
	m.Actions = append(m.Actions, "ban")
	return m.ActionErr
}

func (m *MockModerator) RememberMessage(_ int64, messageID int) {
	m.Remembered = append(m.Remembered, messageID)
}

func (m *MockModerator) DeletionTarget(msg event.Message, _ []string) (int, error) {
	if msg.ReplyTo != nil {
		return msg.ReplyTo.MessageID, nil
	}
	return 0, moderation.ErrNothingToDelete
}

func (m *MockModerator) DeleteMessage(_ context.Context, _ int64, _ event.User, messageID int) error {
	if m.ActionErr != nil {
		return m.ActionErr
	}
	m.Deleted = append(m.Deleted, messageID)
	return nil
}

type MockAdmins struct {
	BotAdmins  map[int64]bool
	Configured map[int64]bool
	ChatAdmins map[int64]bool
}

func (m *MockAdmins) IsBotAdmin(_ context.Context, userID int64) bool {
	return m.BotAdmins[userID] || m.Configured[userID]
}

func (m *MockAdmins) IsConfigured(userID int64) bool {
	return m.Configured[userID]
}

func (m *MockAdmins) IsAdmin(ctx context.Context, _ int64, userID int64) bool {
	return m.ChatAdmins[userID] || m.IsBotAdmin(ctx, userID)
}

type MockReputation struct {
	Disabled  bool
	ApplyFunc func(actor, target event.User, delta int) (int, error)
	Deltas    []int
}

func (m *MockReputation) Enabled() bool { return !m.Disabled }

func (m *MockReputation) Apply(_ context.Context, _ int64, actor, target event.User, delta int) (int, error) {
	m.Deltas = append(m.Deltas, delta)
	if m.ApplyFunc != nil {
		return m.ApplyFunc(actor, target, delta)
	}
	return delta, nil
}

func (m *MockReputation) Score(context.Context, int64, int64) (int, error) { return 4, nil }

func (m *MockReputation) TopReport(context.Context, int64) (string, error) { return "top", nil }

type MockPolls struct {
	CreateErr error
	VoteText  string
	Created   []string
}

func (m *MockPolls) Create(_ context.Context, chatID int64, _ int, _ int64, args string) (*repository.Poll, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	m.Created = append(m.Created, args)
	return &repository.Poll{ID: "p1", ChatID: chatID}, nil
}

func (m *MockPolls) Vote(context.Context, event.CallbackPress) (string, error) {
	return m.VoteText, nil
}

type MockStats struct {
	Memberships []event.MembershipChange
	Votes       []event.PollVote
}

func (m *MockStats) RecordMembership(_ context.Context, ev event.MembershipChange) error {
	m.Memberships = append(m.Memberships, ev)
	return nil
}

func (m *MockStats) RecordPollVote(_ context.Context, ev event.PollVote) error {
	m.Votes = append(m.Votes, ev)
	return nil
}

func (m *MockStats) ChatReport(context.Context, int64) (string, error) { return "report", nil }

func (m *MockStats) InviteReport(context.Context, int64) (string, error) { return "invites", nil }

type MockStatCounter struct {
	Fields []string
}

func (m *MockStatCounter) IncrementChatStat(_ context.Context, _ int64, field string) error {
	m.Fields = append(m.Fields, field)
	return nil
}

type MockTopics struct {
	Names map[int]string
}

func (m *MockTopics) SetName(_ context.Context, _ int64, topicID int, name string) error {
	if m.Names == nil {
		m.Names = map[int]string{}
	}
	m.Names[topicID] = name
	return nil
}

type MockUserStates struct {
	mu     sync.Mutex
	states map[int64]*repository.UserState
}

func (m *MockUserStates) SetState(_ context.Context, userID int64, action, data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.states == nil {
		m.states = map[int64]*repository.UserState{}
	}
	m.states[userID] = &repository.UserState{UserID: userID, Action: action, Data: data}
	return nil
}

func (m *MockUserStates) GetState(_ context.Context, userID int64) (*repository.UserState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.states[userID], nil
}

func (m *MockUserStates) ClearState(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
	return nil
}

// MockService implements service.Service. Unset funcs succeed.
type MockService struct {
	AddBlacklistWordsFunc func(words []string) (int, error)
	AddTriggerFunc        func(input string) (*repository.Trigger, error)
	SchedulePostFunc      func(publisherID int64, args string) (*repository.ScheduledPost, error)
	ToggleSettingFunc     func(setting string) (bool, error)

	AddedAdmins []int64
}

func (m *MockService) ToggleSetting(_ context.Context, setting string) (bool, error) {
	if m.ToggleSettingFunc != nil {
		return m.ToggleSettingFunc(setting)
	}
	return true, nil
}

func (m *MockService) SetFloodLimits(context.Context, int, int) error { return nil }

func (m *MockService) AddBlacklistWords(_ context.Context, words []string) (int, error) {
	if m.AddBlacklistWordsFunc != nil {
		return m.AddBlacklistWordsFunc(words)
	}
	return len(words), nil
}

func (m *MockService) RemoveBlacklistWord(context.Context, string) error { return nil }

func (m *MockService) AddBlacklistLinks(_ context.Context, links []string) (int, error) {
	return len(links), nil
}

func (m *MockService) RemoveBlacklistLink(context.Context, string) error { return nil }

func (m *MockService) ListTriggers(context.Context) ([]repository.Trigger, error) { return nil, nil }

func (m *MockService) AddTrigger(_ context.Context, input string) (*repository.Trigger, error) {
	if m.AddTriggerFunc != nil {
		return m.AddTriggerFunc(input)
	}
	return &repository.Trigger{ID: 1}, nil
}

func (m *MockService) DeleteTrigger(context.Context, uint) error { return nil }

func (m *MockService) ListPendingPosts(context.Context) ([]repository.ScheduledPost, error) {
	return nil, nil
}

func (m *MockService) GetPost(_ context.Context, id uint) (*repository.ScheduledPost, error) {
	return &repository.ScheduledPost{ID: id, Status: repository.PostPending}, nil
}

func (m *MockService) SchedulePost(_ context.Context, publisherID int64, args string) (*repository.ScheduledPost, error) {
	if m.SchedulePostFunc != nil {
		return m.SchedulePostFunc(publisherID, args)
	}
	return &repository.ScheduledPost{ID: 1, PublishTime: time.Now().Add(time.Hour)}, nil
}

func (m *MockService) EditPostText(context.Context, uint, string) error { return nil }

func (m *MockService) ReschedulePost(context.Context, uint, string) (time.Time, error) {
	return time.Now().Add(time.Hour), nil
}

func (m *MockService) SetPostButtons(context.Context, uint, string) error { return nil }

func (m *MockService) DeletePost(context.Context, uint) error { return nil }

func (m *MockService) AddAdmin(_ context.Context, userID int64) error {
	m.AddedAdmins = append(m.AddedAdmins, userID)
	return nil
}

func (m *MockService) RemoveAdmin(context.Context, int64) error { return nil }

func (m *MockService) ApplySeed(context.Context, *config.Seed) error { return nil }

func (m *MockService) StartMetricsUpdater(context.Context) {}

func (m *MockService) StartCleanupTask(context.Context, time.Duration) {}

func (m *MockService) StartMuteSweeper(context.Context, service.MuteExpirer, time.Duration) {}

type staticSettings struct{}

func (staticSettings) Antiflood() settings.Antiflood   { return settings.DefaultAntiflood() }
func (staticSettings) Antimat() settings.Antimat       { return settings.DefaultAntimat() }
func (staticSettings) Captcha() settings.Captcha       { return settings.DefaultCaptcha() }
func (staticSettings) Reputation() settings.Reputation { return settings.DefaultReputation() }
func (staticSettings) Poll() settings.Poll             { return settings.DefaultPoll() }
