package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/kabozek1/tgbot-final02/internal/transport"
)

// Client implements transport.Messenger on top of the Bot API.
type Client struct {
	api *tgbotapi.BotAPI
}

func NewClient(token string) (*Client, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	return &Client{api: api}, nil
}

func (c *Client) API() *tgbotapi.BotAPI {
	return c.api
}

func (c *Client) Username() string {
	return c.api.Self.UserName
}

func (c *Client) BotID() int64 {
	return c.api.Self.ID
}

// Send uses raw requests so that message_thread_id reaches the API.
func (c *Client) Send(ctx context.Context, msg transport.OutgoingMessage) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	endpoint := "sendMessage"
	params := tgbotapi.Params{}
	params.AddNonZero64("chat_id", msg.ChatID)
	params.AddNonZero("message_thread_id", msg.ThreadID)
	params.AddNonZero("reply_to_message_id", msg.ReplyTo)
	if msg.Markdown {
		params.AddNonEmpty("parse_mode", tgbotapi.ModeMarkdown)
	}

	if msg.Media != nil && msg.Media.FileID != "" {
		endpoint = "send" + strings.ToUpper(string(msg.Media.Kind[:1])) + string(msg.Media.Kind[1:])
		params.AddNonEmpty(string(msg.Media.Kind), msg.Media.FileID)
		params.AddNonEmpty("caption", msg.Text)
	} else {
		params.AddNonEmpty("text", msg.Text)
	}

	if len(msg.Buttons) > 0 {
		if err := params.AddInterface("reply_markup", keyboard(msg.Buttons)); err != nil {
			return 0, fmt.Errorf("failed to encode keyboard: %w", err)
		}
	}

	resp, err := c.api.MakeRequest(endpoint, params)
	if err != nil {
		return 0, wrapErr(endpoint, err)
	}
	var sent tgbotapi.Message
	if err := json.Unmarshal(resp.Result, &sent); err != nil {
		return 0, fmt.Errorf("failed to decode sent message: %w", err)
	}
	return sent.MessageID, nil
}

func (c *Client) EditText(ctx context.Context, chatID int64, messageID int, text string, buttons [][]transport.Button) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var cfg tgbotapi.EditMessageTextConfig
	if len(buttons) > 0 {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard(buttons))
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, text)
	}
	if _, err := c.api.Request(cfg); err != nil {
		return wrapErr("editMessageText", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, chatID int64, messageID int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		return wrapErr("deleteMessage", err)
	}
	return nil
}

func (c *Client) Restrict(ctx context.Context, chatID, userID int64, perms transport.Permissions, until time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.RestrictChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		Permissions: &tgbotapi.ChatPermissions{
			CanSendMessages:       perms.SendMessages,
			CanSendMediaMessages:  perms.SendMedia,
			CanSendPolls:          perms.SendPolls,
			CanSendOtherMessages:  perms.SendOther,
			CanAddWebPagePreviews: perms.WebPreviews,
		},
	}
	if !until.IsZero() {
		cfg.UntilDate = until.Unix()
	}
	if _, err := c.api.Request(cfg); err != nil {
		return wrapErr("restrictChatMember", err)
	}
	return nil
}

func (c *Client) Ban(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
	}
	if _, err := c.api.Request(cfg); err != nil {
		return wrapErr("banChatMember", err)
	}
	return nil
}

func (c *Client) Unban(ctx context.Context, chatID, userID int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{ChatID: chatID, UserID: userID},
		OnlyIfBanned:     true,
	}
	if _, err := c.api.Request(cfg); err != nil {
		return wrapErr("unbanChatMember", err)
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, queryID, text string, alert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := tgbotapi.NewCallback(queryID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(queryID, text)
	}
	if _, err := c.api.Request(cfg); err != nil {
		return wrapErr("answerCallbackQuery", err)
	}
	return nil
}

func (c *Client) MemberStatus(ctx context.Context, chatID, userID int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	member, err := c.api.GetChatMember(tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{ChatID: chatID, UserID: userID},
	})
	if err != nil {
		return "", wrapErr("getChatMember", err)
	}
	return member.Status, nil
}

func keyboard(rows [][]transport.Button) tgbotapi.InlineKeyboardMarkup {
	markup := tgbotapi.InlineKeyboardMarkup{}
	for _, row := range rows {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			if b.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		if len(buttons) > 0 {
			markup.InlineKeyboard = append(markup.InlineKeyboard, buttons)
		}
	}
	return markup
}

func wrapErr(method string, err error) error {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		msg := strings.ToLower(apiErr.Message)
		switch {
		case apiErr.Code == 403,
			strings.Contains(msg, "not enough rights"),
			strings.Contains(msg, "can't be deleted"),
			strings.Contains(msg, "can't remove chat owner"),
			strings.Contains(msg, "user is an administrator"):
			return fmt.Errorf("%s: %w: %s", method, transport.ErrForbidden, apiErr.Message)
		case strings.Contains(msg, "not found"):
			return fmt.Errorf("%s: %w: %s", method, transport.ErrNotFound, apiErr.Message)
		}
	}
	return fmt.Errorf("failed to call %s: %w", method, err)
}
