package pipeline

import (
	"fmt"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/event"
)

type Payload struct {
	ChatID      int64
	SenderID    int64
	Username    string
	FirstName   string
	MessageID   int
	ThreadID    int
	Text        string
	ContentType string
	// ReplyToMessageID is zero when the message is not a reply.
	ReplyToMessageID int
	Date             time.Time
	// Blocked is set for observers when an earlier stage stopped the message.
	Blocked bool
}

func (p Payload) SenderIDUserKey(chatID int64) string {
	return fmt.Sprintf("%d:%d", chatID, p.SenderID)
}

func (p Payload) Sender() event.User {
	return event.User{ID: p.SenderID, Username: p.Username, FirstName: p.FirstName}
}
