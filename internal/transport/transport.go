// Package transport describes what the bot needs from a chat platform.
package transport

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("message or user not found")
	ErrForbidden = errors.New("not enough rights")
)

// IsBenign reports whether err only means the target is already gone or
// the bot lacks rights, which callers treat as non-fatal.
func IsBenign(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}

type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
)

func ParseMediaKind(s string) (MediaKind, bool) {
	switch MediaKind(s) {
	case MediaPhoto, MediaVideo, MediaDocument:
		return MediaKind(s), true
	}
	return "", false
}

type Media struct {
	Kind   MediaKind
	FileID string
}

// Button is an inline control. Exactly one of URL and Data is set.
type Button struct {
	Text string
	URL  string
	Data string
}

type OutgoingMessage struct {
	ChatID   int64
	ThreadID int
	Text     string
	Media    *Media
	Buttons  [][]Button
	ReplyTo  int
	Markdown bool
}

// Permissions is the set of messaging rights of a chat member.
type Permissions struct {
	SendMessages bool
	SendMedia    bool
	SendPolls    bool
	SendOther    bool
	WebPreviews  bool
}

var (
	NoPermissions   = Permissions{}
	FullPermissions = Permissions{SendMessages: true, SendMedia: true, SendPolls: true, SendOther: true, WebPreviews: true}
)

type Messenger interface {
	Send(ctx context.Context, msg OutgoingMessage) (int, error)
	EditText(ctx context.Context, chatID int64, messageID int, text string, buttons [][]Button) error
	Delete(ctx context.Context, chatID int64, messageID int) error
	Restrict(ctx context.Context, chatID, userID int64, perms Permissions, until time.Time) error
	Ban(ctx context.Context, chatID, userID int64) error
	Unban(ctx context.Context, chatID, userID int64) error
	AnswerCallback(ctx context.Context, queryID, text string, alert bool) error
	MemberStatus(ctx context.Context, chatID, userID int64) (string, error)
}
