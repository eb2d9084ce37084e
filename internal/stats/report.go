package stats

import (
	"context"
	"fmt"
	"strings"

	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/repository"
)

const topPosters = 5

// ChatReport renders the /stats answer for chatID.
func (l *Logger) ChatReport(ctx context.Context, chatID int64) (string, error) {
	since := l.now().Add(-Window)
	summary, err := l.repos.Messages.Summary(ctx, chatID, since, topPosters)
	if err != nil {
		return "", err
	}
	mod, err := l.repos.ChatStats.GetChatTotalStats(ctx, chatID, since)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, messages.MsgStatsHeader, summary.Messages, summary.ActiveUsers)
	b.WriteString("\n")
	fmt.Fprintf(&b, messages.MsgStatsModeration, mod.FloodDeletions, mod.BlacklistDeletions,
		mod.WarnCount, mod.MuteCount, mod.KickCount, mod.BanCount)
	if len(summary.TopPosters) > 0 {
		b.WriteString("\n\n")
		b.WriteString(messages.MsgStatsTopHeader)
		for i, p := range summary.TopPosters {
			b.WriteString("\n")
			fmt.Fprintf(&b, messages.MsgStatsTopLine, i+1, l.displayName(ctx, p.UserID), p.Messages)
		}
	}
	return b.String(), nil
}

// InviteReport renders the /invites answer for chatID.
func (l *Logger) InviteReport(ctx context.Context, chatID int64) (string, error) {
	links, err := l.repos.Invites.TopLinks(ctx, chatID, 10)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		return messages.MsgInvitesEmpty, nil
	}
	var b strings.Builder
	b.WriteString(messages.MsgInvitesHeader)
	for _, link := range links {
		name := link.Name
		if name == "" {
			name = link.LinkURL
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, messages.MsgInvitesLine, name, link.TotalClicks, link.LeftCount, Retention(link))
	}
	return b.String(), nil
}

// Retention is the share of invited members who stayed, in percent.
func Retention(link repository.InviteLink) int {
	if link.TotalClicks <= 0 {
		return 0
	}
	stayed := link.TotalClicks - link.LeftCount
	if stayed < 0 {
		stayed = 0
	}
	return stayed * 100 / link.TotalClicks
}

func (l *Logger) displayName(ctx context.Context, userID int64) string {
	u, err := l.repos.Users.Get(ctx, userID)
	if err != nil {
		return fmt.Sprintf("id%d", userID)
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	if u.FirstName != "" {
		return u.FirstName
	}
	return fmt.Sprintf("id%d", userID)
}
