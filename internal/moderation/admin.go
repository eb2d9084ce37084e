package moderation

import (
	"context"
	"log/slog"

	"github.com/kabozek1/tgbot-final02/internal/event"
	"github.com/kabozek1/tgbot-final02/internal/transport"
)

type AdminStore interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AdminResolver decides who may moderate. Sources are checked in order:
// configured ids, stored admins, then the member's status in the chat.
type AdminResolver struct {
	configured map[int64]struct{}
	store      AdminStore
	messenger  transport.Messenger
	log        *slog.Logger
}

func NewAdminResolver(configured []int64, store AdminStore, messenger transport.Messenger, log *slog.Logger) *AdminResolver {
	ids := make(map[int64]struct{}, len(configured))
	for _, id := range configured {
		ids[id] = struct{}{}
	}
	return &AdminResolver{configured: ids, store: store, messenger: messenger, log: log}
}

// IsBotAdmin reports whether userID may use the private admin panel.
// Chat-native roles do not count here.
func (r *AdminResolver) IsBotAdmin(ctx context.Context, userID int64) bool {
	if _, ok := r.configured[userID]; ok {
		return true
	}
	ok, err := r.store.IsAdmin(ctx, userID)
	if err != nil {
		r.log.Error("Failed to check stored admin", "user_id", userID, "error", err)
		return false
	}
	return ok
}

func (r *AdminResolver) IsConfigured(userID int64) bool {
	_, ok := r.configured[userID]
	return ok
}

// IsAdmin reports whether userID moderates chatID. Lookup errors count as no.
func (r *AdminResolver) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	if r.IsBotAdmin(ctx, userID) {
		return true
	}
	status, err := r.messenger.MemberStatus(ctx, chatID, userID)
	if err != nil {
		r.log.Warn("Failed to get member status", "chat_id", chatID, "user_id", userID, "error", err)
		return false
	}
	return status == event.StatusCreator || status == event.StatusAdministrator
}
