// Package event defines the platform-neutral chat events consumed by the dispatcher.
package event

import "time"

type Event interface {
	Chat() int64
	Sender() User
	isEvent()
}

type User struct {
	ID        int64
	Username  string
	FirstName string
	IsBot     bool
}

// DisplayName prefers @username and falls back to the first name.
func (u User) DisplayName() string {
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return "Пользователь"
}

type Base struct {
	ChatID   int64
	ChatType string
	From     User
	Date     time.Time
}

func (b Base) Chat() int64  { return b.ChatID }
func (b Base) Sender() User { return b.From }

// IsGroup reports whether the event comes from a group or supergroup.
func (b Base) IsGroup() bool { return b.ChatID < 0 }

// Content kinds of a message.
const (
	ContentText      = "text"
	ContentPhoto     = "photo"
	ContentVideo     = "video"
	ContentDocument  = "document"
	ContentVoice     = "voice"
	ContentVideoNote = "video_note"
	ContentSticker   = "sticker"
	ContentOther     = "other"
)

type Message struct {
	Base
	MessageID   int
	ThreadID    int
	Text        string
	ContentType string
	// ReplyTo is set when the message answers another message.
	ReplyTo *Reply
	// NewMembers is filled for service messages announcing joins.
	NewMembers []User
}

type Reply struct {
	MessageID int
	From      User
}

func (Message) isEvent() {}

// Member statuses as reported by the transport.
const (
	StatusCreator       = "creator"
	StatusAdministrator = "administrator"
	StatusMember        = "member"
	StatusRestricted    = "restricted"
	StatusLeft          = "left"
	StatusKicked        = "kicked"
)

type InviteLink struct {
	URL       string
	Name      string
	CreatorID int64
}

type MembershipChange struct {
	Base
	Member    User
	OldStatus string
	NewStatus string
	Invite    *InviteLink
	ChatTitle string
	// ChatUsername is the public username of the chat, empty for private groups.
	ChatUsername string
}

func (MembershipChange) isEvent() {}

type CallbackPress struct {
	Base
	QueryID   string
	Data      string
	MessageID int
}

func (CallbackPress) isEvent() {}

type PollVote struct {
	Base
	PollID    string
	OptionIDs []int
}

func (PollVote) isEvent() {}
