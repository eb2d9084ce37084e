package telegram

import (
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kabozek1/tgbot-final02/internal/event"
)

// AllowedUpdates lists the update kinds the bot subscribes to.
var AllowedUpdates = []string{"message", "callback_query", "chat_member", "poll_answer"}

// threadProbe reads the forum topic id, which the v5 client types do not carry.
type threadProbe struct {
	Message *struct {
		MessageThreadID int  `json:"message_thread_id"`
		IsTopicMessage  bool `json:"is_topic_message"`
	} `json:"message"`
}

// Decode turns one raw update into a chat event. It returns a nil event for
// update kinds the bot ignores.
func Decode(raw json.RawMessage) (int, event.Event, error) {
	var upd tgbotapi.Update
	if err := json.Unmarshal(raw, &upd); err != nil {
		return 0, nil, fmt.Errorf("failed to decode update: %w", err)
	}
	var probe threadProbe
	if err := json.Unmarshal(raw, &probe); err != nil {
		return upd.UpdateID, nil, fmt.Errorf("failed to decode thread id: %w", err)
	}
	threadID := 0
	if probe.Message != nil && probe.Message.IsTopicMessage {
		threadID = probe.Message.MessageThreadID
	}
	return upd.UpdateID, Convert(upd, threadID), nil
}

func Convert(upd tgbotapi.Update, threadID int) event.Event {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		return convertMessage(upd.Message, threadID)
	case upd.CallbackQuery != nil:
		return convertCallback(upd.CallbackQuery)
	case upd.ChatMember != nil:
		return convertMember(upd.ChatMember)
	case upd.PollAnswer != nil:
		return event.PollVote{
			Base: event.Base{
				From: convertUser(&upd.PollAnswer.User),
				Date: time.Now(),
			},
			PollID:    upd.PollAnswer.PollID,
			OptionIDs: upd.PollAnswer.OptionIDs,
		}
	}
	return nil
}

func convertUser(u *tgbotapi.User) event.User {
	if u == nil {
		return event.User{}
	}
	return event.User{ID: u.ID, Username: u.UserName, FirstName: u.FirstName, IsBot: u.IsBot}
}

func convertMessage(m *tgbotapi.Message, threadID int) event.Message {
	msg := event.Message{
		Base: event.Base{
			ChatID:   m.Chat.ID,
			ChatType: m.Chat.Type,
			From:     convertUser(m.From),
			Date:     m.Time(),
		},
		MessageID:   m.MessageID,
		ThreadID:    threadID,
		Text:        m.Text,
		ContentType: contentType(m),
	}
	if msg.Text == "" {
		msg.Text = m.Caption
	}
	if m.ReplyToMessage != nil && !isTopicRoot(m.ReplyToMessage, threadID) {
		msg.ReplyTo = &event.Reply{
			MessageID: m.ReplyToMessage.MessageID,
			From:      convertUser(m.ReplyToMessage.From),
		}
	}
	for i := range m.NewChatMembers {
		msg.NewMembers = append(msg.NewMembers, convertUser(&m.NewChatMembers[i]))
	}
	return msg
}

// In forum topics every message replies to the topic creation message.
func isTopicRoot(reply *tgbotapi.Message, threadID int) bool {
	return threadID != 0 && reply.MessageID == threadID
}

func contentType(m *tgbotapi.Message) string {
	switch {
	case m.Text != "":
		return event.ContentText
	case len(m.Photo) > 0:
		return event.ContentPhoto
	case m.Video != nil:
		return event.ContentVideo
	case m.Document != nil:
		return event.ContentDocument
	case m.Voice != nil:
		return event.ContentVoice
	case m.VideoNote != nil:
		return event.ContentVideoNote
	case m.Sticker != nil:
		return event.ContentSticker
	}
	return event.ContentOther
}

func convertCallback(q *tgbotapi.CallbackQuery) event.CallbackPress {
	press := event.CallbackPress{
		Base: event.Base{
			From: convertUser(q.From),
			Date: time.Now(),
		},
		QueryID: q.ID,
		Data:    q.Data,
	}
	if q.Message != nil && q.Message.Chat != nil {
		press.ChatID = q.Message.Chat.ID
		press.ChatType = q.Message.Chat.Type
		press.MessageID = q.Message.MessageID
	}
	return press
}

func convertMember(u *tgbotapi.ChatMemberUpdated) event.MembershipChange {
	change := event.MembershipChange{
		Base: event.Base{
			ChatID:   u.Chat.ID,
			ChatType: u.Chat.Type,
			From:     convertUser(&u.From),
			Date:     time.Unix(int64(u.Date), 0),
		},
		Member:       convertUser(u.NewChatMember.User),
		OldStatus:    u.OldChatMember.Status,
		NewStatus:    u.NewChatMember.Status,
		ChatTitle:    u.Chat.Title,
		ChatUsername: u.Chat.UserName,
	}
	if u.InviteLink != nil {
		link := &event.InviteLink{URL: u.InviteLink.InviteLink, Name: u.InviteLink.Name}
		link.CreatorID = u.InviteLink.Creator.ID
		change.Invite = link
	}
	return change
}
