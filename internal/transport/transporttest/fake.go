// Package transporttest provides a recording transport.Messenger for tests.
package transporttest

import (
	"context"
	"sync"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/transport"
)

type Restriction struct {
	ChatID, UserID int64
	Perms          transport.Permissions
	Until          time.Time
}

type Deleted struct {
	ChatID    int64
	MessageID int
}

type Answer struct {
	QueryID string
	Text    string
	Alert   bool
}

type Edit struct {
	ChatID    int64
	MessageID int
	Text      string
	Buttons   [][]transport.Button
}

// Messenger records every call. Func fields override the default behaviour.
type Messenger struct {
	mu sync.Mutex

	SendFunc         func(msg transport.OutgoingMessage) (int, error)
	DeleteFunc       func(chatID int64, messageID int) error
	RestrictFunc     func(chatID, userID int64) error
	BanFunc          func(chatID, userID int64) error
	MemberStatusFunc func(chatID, userID int64) (string, error)

	nextID       int
	Sent         []transport.OutgoingMessage
	Edits        []Edit
	Deletes      []Deleted
	Restrictions []Restriction
	Bans         []int64
	Unbans       []int64
	Answers      []Answer
}

func (m *Messenger) Send(_ context.Context, msg transport.OutgoingMessage) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendFunc != nil {
		id, err := m.SendFunc(msg)
		if err == nil {
			m.Sent = append(m.Sent, msg)
		}
		return id, err
	}
	m.nextID++
	m.Sent = append(m.Sent, msg)
	return 1000 + m.nextID, nil
}

func (m *Messenger) EditText(_ context.Context, chatID int64, messageID int, text string, buttons [][]transport.Button) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Edits = append(m.Edits, Edit{ChatID: chatID, MessageID: messageID, Text: text, Buttons: buttons})
	return nil
}

func (m *Messenger) Delete(_ context.Context, chatID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DeleteFunc != nil {
		if err := m.DeleteFunc(chatID, messageID); err != nil {
			return err
		}
	}
	m.Deletes = append(m.Deletes, Deleted{ChatID: chatID, MessageID: messageID})
	return nil
}

func (m *Messenger) Restrict(_ context.Context, chatID, userID int64, perms transport.Permissions, until time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RestrictFunc != nil {
		if err := m.RestrictFunc(chatID, userID); err != nil {
			return err
		}
	}
	m.Restrictions = append(m.Restrictions, Restriction{ChatID: chatID, UserID: userID, Perms: perms, Until: until})
	return nil
}

func (m *Messenger) Ban(_ context.Context, chatID, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.BanFunc != nil {
		if err := m.BanFunc(chatID, userID); err != nil {
			return err
		}
	}
	m.Bans = append(m.Bans, userID)
	return nil
}

func (m *Messenger) Unban(_ context.Context, _, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Unbans = append(m.Unbans, userID)
	return nil
}

func (m *Messenger) AnswerCallback(_ context.Context, queryID, text string, alert bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Answers = append(m.Answers, Answer{QueryID: queryID, Text: text, Alert: alert})
	return nil
}

func (m *Messenger) MemberStatus(_ context.Context, chatID, userID int64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MemberStatusFunc != nil {
		return m.MemberStatusFunc(chatID, userID)
	}
	return "member", nil
}

// Snapshot helpers guard against races with timer goroutines.

func (m *Messenger) SentTexts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Sent))
	for _, s := range m.Sent {
		out = append(out, s.Text)
	}
	return out
}

func (m *Messenger) BanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Bans)
}

func (m *Messenger) DeleteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Deletes)
}

// Queue is an in-memory notify.DeletionQueue.
type Queue struct {
	mu    sync.Mutex
	Items []Deleted
}

func (q *Queue) Add(_ context.Context, chatID int64, messageID int, _ time.Duration) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Items = append(q.Items, Deleted{ChatID: chatID, MessageID: messageID})
	return nil
}
