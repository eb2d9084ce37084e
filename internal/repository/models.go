package repository

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type User struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	Username   string `gorm:"size:255;index"`
	FirstName  string `gorm:"size:255"`
	IsBot      bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Admin struct {
	ID         uint   `gorm:"primaryKey"`
	TelegramID int64  `gorm:"uniqueIndex;not null"`
	Role       string `gorm:"size:32;not null"`
	CreatedAt  time.Time
}

type MessageLog struct {
	ID               uint  `gorm:"primaryKey"`
	ChatID           int64 `gorm:"not null;index:idx_message_logs_chat_message,priority:1"`
	MessageID        int   `gorm:"not null;index:idx_message_logs_chat_message,priority:2"`
	UserID           int64 `gorm:"not null;index"`
	TopicID          *int
	Date             time.Time `gorm:"not null;index"`
	Text             string
	ContentType      string `gorm:"size:32"`
	ReplyToMessageID *int
	RepliesCount     int
	Moderated        bool
}

type MembershipEvent struct {
	ID         uint   `gorm:"primaryKey"`
	ChatID     int64  `gorm:"not null;index"`
	UserID     int64  `gorm:"not null;index"`
	EventType  string `gorm:"size:16;not null"`
	OldStatus  string `gorm:"size:16"`
	NewStatus  string `gorm:"size:16"`
	InviteLink string `gorm:"size:512"`
	Date       time.Time
}

const (
	PostPending   = "pending"
	PostPublished = "published"
	PostFailed    = "failed"
	PostDeleted   = "deleted"
)

type ScheduledPost struct {
	ID                uint  `gorm:"primaryKey"`
	ChatID            int64 `gorm:"not null;index"`
	TopicID           *int
	PublishTime       time.Time `gorm:"not null;index:idx_scheduled_posts_due,priority:2"`
	Text              string
	MediaFileID       string `gorm:"size:255"`
	MediaType         string `gorm:"size:16"`
	Status            string `gorm:"size:16;not null;index:idx_scheduled_posts_due,priority:1"`
	PublisherID       int64
	TelegramMessageID *int
	// Buttons is a JSON list of {"text": ..., "url": ...}.
	Buttons     datatypes.JSON
	LastError   string
	CreatedAt   time.Time
	PublishedAt *time.Time
}

type PostButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type PluginSettings struct {
	PluginName string         `gorm:"primaryKey;size:64"`
	Version    int            `gorm:"not null"`
	Settings   datatypes.JSON `gorm:"not null"`
	UpdatedAt  time.Time
}

type Trigger struct {
	ID            uint           `gorm:"primaryKey"`
	TriggerText   string         `gorm:"not null"`
	Variants      pq.StringArray `gorm:"type:text[]"`
	ResponseText  string         `gorm:"not null"`
	IsActive      bool
	Position      int
	TriggerCount  int
	LastTriggered *time.Time
	CreatedAt     time.Time
}

type Warning struct {
	ID        uint  `gorm:"primaryKey"`
	ChatID    int64 `gorm:"not null;index:idx_warnings_chat_user,priority:1"`
	UserID    int64 `gorm:"not null;index:idx_warnings_chat_user,priority:2"`
	AdminID   int64
	Reason    string
	CreatedAt time.Time `gorm:"not null"`
	ClearedAt *time.Time
}

type Mute struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    int64     `gorm:"index:idx_mutes_chat_user,unique"`
	UserID    int64     `gorm:"index:idx_mutes_chat_user,unique"`
	UserName  string    `gorm:"size:255"`
	ExpiresAt time.Time `gorm:"index"`
}

type InviteLink struct {
	ID          uint   `gorm:"primaryKey"`
	ChatID      int64  `gorm:"index"`
	LinkURL     string `gorm:"uniqueIndex;size:512;not null"`
	Name        string `gorm:"size:255"`
	CreatorID   *int64
	Source      string `gorm:"size:32"`
	FirstClick  *time.Time
	LastClick   *time.Time
	TotalClicks int
	LeftCount   int
	IsArchived  bool
	CreatedAt   time.Time
}

type InviteClick struct {
	ID               uint   `gorm:"primaryKey"`
	ChatID           int64  `gorm:"index:idx_invite_clicks_chat_user,priority:1"`
	UserID           int64  `gorm:"index:idx_invite_clicks_chat_user,priority:2"`
	LinkURL          string `gorm:"size:512;index"`
	JoinDate         time.Time
	LeftDate         *time.Time
	FirstMessageDate *time.Time
}

type Reputation struct {
	ChatID    int64 `gorm:"primaryKey;autoIncrement:false"`
	UserID    int64 `gorm:"primaryKey;autoIncrement:false"`
	Score     int
	UpdatedAt time.Time
}

type ReputationLog struct {
	ID        uint  `gorm:"primaryKey"`
	ChatID    int64 `gorm:"index"`
	ActorID   int64 `gorm:"index"`
	TargetID  int64 `gorm:"index"`
	Delta     int
	CreatedAt time.Time
}

type ChatTopic struct {
	ChatID    int64  `gorm:"primaryKey;autoIncrement:false"`
	TopicID   int    `gorm:"primaryKey;autoIncrement:false"`
	TopicName string `gorm:"size:100"`
	UpdatedAt time.Time
}

type Poll struct {
	ID        string `gorm:"primaryKey;size:36"`
	ChatID    int64  `gorm:"index"`
	MessageID int
	Question  string
	// Options is a JSON list of option labels.
	Options   datatypes.JSON
	CreatedBy int64
	CreatedAt time.Time
	ClosesAt  time.Time
}

type PollVote struct {
	PollID      string `gorm:"primaryKey;size:36"`
	UserID      int64  `gorm:"primaryKey;autoIncrement:false"`
	OptionIndex int
	CreatedAt   time.Time
}

// PollAnswer records answers to native polls.
type PollAnswer struct {
	ID        uint   `gorm:"primaryKey"`
	PollID    string `gorm:"size:64;index"`
	UserID    int64  `gorm:"index"`
	OptionIDs string `gorm:"size:255"`
	Date      time.Time
}

type ChatStats struct {
	ChatID             int64     `gorm:"primaryKey;autoIncrement:false"`
	Date               time.Time `gorm:"primaryKey;type:date"`
	FloodDeletions     int64
	BlacklistDeletions int64
	WarnCount          int64
	MuteCount          int64
	KickCount          int64
	BanCount           int64
}

type TemporaryMessage struct {
	ID        int64     `gorm:"primaryKey"`
	ChatID    int64     `gorm:"not null"`
	MessageID int       `gorm:"not null"`
	DeleteAt  time.Time `gorm:"not null;index"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

type UserState struct {
	UserID    int64  `gorm:"primaryKey;autoIncrement:false"`
	Action    string `gorm:"not null"`
	Data      string
	CreatedAt time.Time
}

func allModels() []interface{} {
	return []interface{}{
		&User{}, &Admin{}, &MessageLog{}, &MembershipEvent{}, &ScheduledPost{},
		&PluginSettings{}, &Trigger{}, &Warning{}, &Mute{}, &InviteLink{},
		&InviteClick{}, &Reputation{}, &ReputationLog{}, &ChatTopic{},
		&Poll{}, &PollVote{}, &PollAnswer{}, &ChatStats{}, &TemporaryMessage{},
		&UserState{},
	}
}
