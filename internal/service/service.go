package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kabozek1/tgbot-final02/internal/config"
	"github.com/kabozek1/tgbot-final02/internal/metrics"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/scheduler"
	"github.com/kabozek1/tgbot-final02/internal/settings"
	"github.com/kabozek1/tgbot-final02/internal/utils"
)

// Toggleable settings.
const (
	SettingAntiflood       = "antiflood"
	SettingAntimat         = "antimat"
	SettingAntimatWarnings = "antimat_warnings"
	SettingCaptcha         = "captcha"
	SettingReputation      = "reputation"
	SettingPoll            = "poll"
)

// ScheduleLayout is the time format accepted by /schedule.
const ScheduleLayout = "2006-01-02 15:04"

const pendingPostsLimit = 20

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPastTime     = errors.New("publish time is in the past")
)

type Service interface {
	ToggleSetting(ctx context.Context, setting string) (bool, error)
	SetFloodLimits(ctx context.Context, maxMessages, windowSeconds int) error
	AddBlacklistWords(ctx context.Context, words []string) (int, error)
	RemoveBlacklistWord(ctx context.Context, word string) error
	AddBlacklistLinks(ctx context.Context, links []string) (int, error)
	RemoveBlacklistLink(ctx context.Context, link string) error
	ListTriggers(ctx context.Context) ([]repository.Trigger, error)
	AddTrigger(ctx context.Context, input string) (*repository.Trigger, error)
	DeleteTrigger(ctx context.Context, id uint) error
	ListPendingPosts(ctx context.Context) ([]repository.ScheduledPost, error)
	GetPost(ctx context.Context, id uint) (*repository.ScheduledPost, error)
	SchedulePost(ctx context.Context, publisherID int64, args string) (*repository.ScheduledPost, error)
	EditPostText(ctx context.Context, id uint, text string) error
	ReschedulePost(ctx context.Context, id uint, input string) (time.Time, error)
	SetPostButtons(ctx context.Context, id uint, input string) error
	DeletePost(ctx context.Context, id uint) error
	AddAdmin(ctx context.Context, userID int64) error
	RemoveAdmin(ctx context.Context, userID int64) error
	ApplySeed(ctx context.Context, seed *config.Seed) error
	StartMetricsUpdater(ctx context.Context)
	StartCleanupTask(ctx context.Context, interval time.Duration)
	StartMuteSweeper(ctx context.Context, expirer MuteExpirer, interval time.Duration)
}

type TriggerReloader interface {
	Reload(ctx context.Context) error
}

type AdminService struct {
	logger          *slog.Logger
	settings        *settings.Store
	triggerRepo     repository.TriggerRepository
	matcher         TriggerReloader
	postRepo        repository.ScheduledPostRepository
	adminRepo       repository.AdminRepository
	muteRepo        repository.MuteRepository
	tempMessageRepo repository.TemporaryMessageRepository
	messenger       Deleter
	tracer          trace.Tracer
	now             func() time.Time
	location        *time.Location
}

func NewAdminService(
	logger *slog.Logger,
	store *settings.Store,
	triggerRepo repository.TriggerRepository,
	matcher TriggerReloader,
	postRepo repository.ScheduledPostRepository,
	adminRepo repository.AdminRepository,
	muteRepo repository.MuteRepository,
	tempMessageRepo repository.TemporaryMessageRepository,
	messenger Deleter,
) *AdminService {
	return &AdminService{
		logger:          logger,
		settings:        store,
		triggerRepo:     triggerRepo,
		matcher:         matcher,
		postRepo:        postRepo,
		adminRepo:       adminRepo,
		muteRepo:        muteRepo,
		tempMessageRepo: tempMessageRepo,
		messenger:       messenger,
		tracer:          otel.Tracer("service"),
		now:             time.Now,
		location:        time.Local,
	}
}

func (s *AdminService) StartMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)

	update := func() {
		count, err := s.muteRepo.CountActiveMutes(ctx)
		if err != nil {
			s.logger.Error("Failed to count active mutes", "error", err)
			return
		}
		metrics.SetActiveMutes(float64(count))
	}

	go update()

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				update()
			}
		}
	}()
}

func (s *AdminService) ToggleSetting(ctx context.Context, setting string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "ToggleSetting")
	defer span.End()

	var (
		newValue bool
		err      error
	)
	switch setting {
	case SettingAntiflood:
		_, err = s.settings.UpdateAntiflood(ctx, func(a *settings.Antiflood) {
			a.Enabled = !a.Enabled
			newValue = a.Enabled
		})
	case SettingAntimat:
		_, err = s.settings.UpdateAntimat(ctx, func(a *settings.Antimat) {
			a.Enabled = !a.Enabled
			newValue = a.Enabled
		})
	case SettingAntimatWarnings:
		_, err = s.settings.UpdateAntimat(ctx, func(a *settings.Antimat) {
			a.WarningsEnabled = !a.WarningsEnabled
			newValue = a.WarningsEnabled
		})
	case SettingCaptcha:
		_, err = s.settings.UpdateCaptcha(ctx, func(c *settings.Captcha) {
			c.Enabled = !c.Enabled
			newValue = c.Enabled
		})
	case SettingReputation:
		_, err = s.settings.UpdateReputation(ctx, func(r *settings.Reputation) {
			r.Enabled = !r.Enabled
			newValue = r.Enabled
		})
	case SettingPoll:
		_, err = s.settings.UpdatePoll(ctx, func(p *settings.Poll) {
			p.Enabled = !p.Enabled
			newValue = p.Enabled
		})
	default:
		return false, fmt.Errorf("unknown setting: %s", setting)
	}
	if err != nil {
		return false, err
	}
	s.logger.Info("Setting toggled", "setting", setting, "enabled", newValue)
	return newValue, nil
}

// ParseFloodLimits reads "<messages> <seconds>".
func ParseFloodLimits(input string) (int, int, error) {
	fields := strings.Fields(input)
	if len(fields) != 2 {
		return 0, 0, ErrInvalidInput
	}
	maxMessages, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, ErrInvalidInput
	}
	window, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, ErrInvalidInput
	}
	return maxMessages, window, nil
}

func (s *AdminService) SetFloodLimits(ctx context.Context, maxMessages, windowSeconds int) error {
	ctx, span := s.tracer.Start(ctx, "SetFloodLimits")
	defer span.End()

	_, err := s.settings.UpdateAntiflood(ctx, func(a *settings.Antiflood) {
		a.MaxMessages = maxMessages
		a.WindowSeconds = windowSeconds
	})
	return err
}

func (s *AdminService) AddBlacklistWords(ctx context.Context, words []string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "AddBlacklistWords")
	defer span.End()

	var added int
	_, err := s.settings.UpdateAntimat(ctx, func(a *settings.Antimat) {
		a.BlacklistWords, added = merge(a.BlacklistWords, words, func(w string) string {
			return strings.ToLower(strings.TrimSpace(w))
		})
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *AdminService) RemoveBlacklistWord(ctx context.Context, word string) error {
	ctx, span := s.tracer.Start(ctx, "RemoveBlacklistWord")
	defer span.End()

	word = strings.ToLower(strings.TrimSpace(word))
	_, err := s.settings.UpdateAntimat(ctx, func(a *settings.Antimat) {
		a.BlacklistWords = slices.DeleteFunc(a.BlacklistWords, func(w string) bool { return w == word })
	})
	return err
}

func (s *AdminService) AddBlacklistLinks(ctx context.Context, links []string) (int, error) {
	ctx, span := s.tracer.Start(ctx, "AddBlacklistLinks")
	defer span.End()

	var added int
	_, err := s.settings.UpdateAntimat(ctx, func(a *settings.Antimat) {
		a.BlacklistLinks, added = merge(a.BlacklistLinks, links, normalizeLink)
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func (s *AdminService) RemoveBlacklistLink(ctx context.Context, link string) error {
	ctx, span := s.tracer.Start(ctx, "RemoveBlacklistLink")
	defer span.End()

	raw := strings.ToLower(strings.TrimSpace(link))
	norm := normalizeLink(link)
	_, err := s.settings.UpdateAntimat(ctx, func(a *settings.Antimat) {
		a.BlacklistLinks = slices.DeleteFunc(a.BlacklistLinks, func(l string) bool { return l == raw || l == norm })
	})
	return err
}

func (s *AdminService) ListTriggers(ctx context.Context) ([]repository.Trigger, error) {
	ctx, span := s.tracer.Start(ctx, "ListTriggers")
	defer span.End()
	return s.triggerRepo.List(ctx)
}

// ParseTrigger reads "phrase1|phrase2 => response".
func ParseTrigger(input string) (string, string, error) {
	phrases, response, ok := strings.Cut(input, "=>")
	if !ok {
		return "", "", ErrInvalidInput
	}
	phrases = strings.TrimSpace(phrases)
	response = strings.TrimSpace(response)
	if len(repository.SplitVariants(phrases)) == 0 || response == "" {
		return "", "", ErrInvalidInput
	}
	return phrases, response, nil
}

func (s *AdminService) AddTrigger(ctx context.Context, input string) (*repository.Trigger, error) {
	ctx, span := s.tracer.Start(ctx, "AddTrigger")
	defer span.End()

	phrases, response, err := ParseTrigger(input)
	if err != nil {
		return nil, err
	}
	t, err := s.triggerRepo.Create(ctx, phrases, response)
	if err != nil {
		return nil, err
	}
	s.reloadTriggers(ctx)
	return t, nil
}

func (s *AdminService) DeleteTrigger(ctx context.Context, id uint) error {
	ctx, span := s.tracer.Start(ctx, "DeleteTrigger")
	defer span.End()

	if err := s.triggerRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.reloadTriggers(ctx)
	return nil
}

func (s *AdminService) reloadTriggers(ctx context.Context) {
	if err := s.matcher.Reload(ctx); err != nil {
		s.logger.Error("Failed to reload triggers", "error", err)
	}
}

func (s *AdminService) ListPendingPosts(ctx context.Context) ([]repository.ScheduledPost, error) {
	ctx, span := s.tracer.Start(ctx, "ListPendingPosts")
	defer span.End()
	return s.postRepo.ListPending(ctx, pendingPostsLimit)
}

func (s *AdminService) GetPost(ctx context.Context, id uint) (*repository.ScheduledPost, error) {
	ctx, span := s.tracer.Start(ctx, "GetPost")
	defer span.End()
	return s.postRepo.Get(ctx, id)
}

// SchedulePost creates a pending post from "<YYYY-MM-DD HH:MM> <chat_id>[:<topic_id>] <text>".
func (s *AdminService) SchedulePost(ctx context.Context, publisherID int64, args string) (*repository.ScheduledPost, error) {
	ctx, span := s.tracer.Start(ctx, "SchedulePost")
	defer span.End()

	head, text := cutFields(args, 3)
	if len(head) < 3 || text == "" {
		return nil, ErrInvalidInput
	}
	at, err := s.parseTime(head[0] + " " + head[1])
	if err != nil {
		return nil, err
	}
	chatPart, topicPart, hasTopic := strings.Cut(head[2], ":")
	chatID, err := strconv.ParseInt(chatPart, 10, 64)
	if err != nil || chatID == 0 {
		return nil, ErrInvalidInput
	}
	post := &repository.ScheduledPost{
		ChatID:      chatID,
		PublishTime: at,
		Text:        text,
		Status:      repository.PostPending,
		PublisherID: publisherID,
		CreatedAt:   s.now(),
	}
	if hasTopic {
		topic, err := strconv.Atoi(topicPart)
		if err != nil || topic <= 0 {
			return nil, ErrInvalidInput
		}
		post.TopicID = &topic
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	s.logger.Info("Post scheduled", "post_id", post.ID, "chat_id", chatID, "publish_time", at, "publisher_id", publisherID)
	return post, nil
}

func (s *AdminService) EditPostText(ctx context.Context, id uint, text string) error {
	ctx, span := s.tracer.Start(ctx, "EditPostText")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return ErrInvalidInput
	}
	return s.postRepo.EditPending(ctx, id, func(p *repository.ScheduledPost) { p.Text = text })
}

func (s *AdminService) ReschedulePost(ctx context.Context, id uint, input string) (time.Time, error) {
	ctx, span := s.tracer.Start(ctx, "ReschedulePost")
	defer span.End()

	at, err := s.parseTime(input)
	if err != nil {
		return time.Time{}, err
	}
	if err := s.postRepo.EditPending(ctx, id, func(p *repository.ScheduledPost) { p.PublishTime = at }); err != nil {
		return time.Time{}, err
	}
	return at, nil
}

// ParseButtons reads one "text | url" button per line. An input of "-" clears the buttons.
func ParseButtons(input string) ([]repository.PostButton, error) {
	input = strings.TrimSpace(input)
	if input == "-" {
		return nil, nil
	}
	var buttons []repository.PostButton
	for _, line := range strings.Split(input, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		text, url, ok := strings.Cut(line, "|")
		text, url = strings.TrimSpace(text), strings.TrimSpace(url)
		if !ok || text == "" || !(strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") || strings.HasPrefix(url, "tg://")) {
			return nil, ErrInvalidInput
		}
		buttons = append(buttons, repository.PostButton{Text: text, URL: url})
	}
	if len(buttons) == 0 {
		return nil, ErrInvalidInput
	}
	return buttons, nil
}

func (s *AdminService) SetPostButtons(ctx context.Context, id uint, input string) error {
	ctx, span := s.tracer.Start(ctx, "SetPostButtons")
	defer span.End()

	buttons, err := ParseButtons(input)
	if err != nil {
		return err
	}
	raw, err := scheduler.EncodeButtons(buttons)
	if err != nil {
		return err
	}
	return s.postRepo.EditPending(ctx, id, func(p *repository.ScheduledPost) { p.Buttons = raw })
}

func (s *AdminService) DeletePost(ctx context.Context, id uint) error {
	ctx, span := s.tracer.Start(ctx, "DeletePost")
	defer span.End()
	return s.postRepo.MarkDeleted(ctx, id)
}

func (s *AdminService) AddAdmin(ctx context.Context, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "AddAdmin")
	defer span.End()
	if userID == 0 {
		return ErrInvalidInput
	}
	return s.adminRepo.AddAdmin(ctx, userID, "admin")
}

func (s *AdminService) RemoveAdmin(ctx context.Context, userID int64) error {
	ctx, span := s.tracer.Start(ctx, "RemoveAdmin")
	defer span.End()
	if userID == 0 {
		return ErrInvalidInput
	}
	return s.adminRepo.RemoveAdmin(ctx, userID)
}

// ApplySeed stores seed admins and blacklist terms and, when no trigger
// exists yet, the seed triggers. Applying the same seed twice changes nothing.
func (s *AdminService) ApplySeed(ctx context.Context, seed *config.Seed) error {
	ctx, span := s.tracer.Start(ctx, "ApplySeed")
	defer span.End()

	for _, a := range seed.Admins {
		if err := s.adminRepo.AddAdmin(ctx, a.TelegramID, a.Role); err != nil {
			return err
		}
	}
	if len(seed.Blacklist.Words) > 0 {
		if _, err := s.AddBlacklistWords(ctx, seed.Blacklist.Words); err != nil {
			return err
		}
	}
	if len(seed.Blacklist.Links) > 0 {
		if _, err := s.AddBlacklistLinks(ctx, seed.Blacklist.Links); err != nil {
			return err
		}
	}

	count, err := s.triggerRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 || len(seed.Triggers) == 0 {
		return nil
	}
	for _, t := range seed.Triggers {
		if _, err := s.triggerRepo.Create(ctx, t.Phrases, t.Response); err != nil {
			return err
		}
	}
	s.logger.Info("Seed triggers created", "count", len(seed.Triggers))
	s.reloadTriggers(ctx)
	return nil
}

func (s *AdminService) parseTime(input string) (time.Time, error) {
	at, err := time.ParseInLocation(ScheduleLayout, strings.TrimSpace(input), s.location)
	if err != nil {
		return time.Time{}, ErrInvalidInput
	}
	if !at.After(s.now()) {
		return time.Time{}, ErrPastTime
	}
	return at, nil
}

// normalizeLink keeps the raw lower-cased term when it does not look like a link.
func normalizeLink(l string) string {
	if norm := utils.NormalizeLink(l); norm != "" {
		return norm
	}
	return strings.ToLower(strings.TrimSpace(l))
}

// merge appends the normalised items missing from list and reports how many were added.
func merge(list, items []string, norm func(string) string) ([]string, int) {
	added := 0
	for _, item := range items {
		item = norm(item)
		if item == "" || slices.Contains(list, item) {
			continue
		}
		list = append(list, item)
		added++
	}
	return list, added
}

// cutFields returns the first n whitespace-separated fields of s and the
// remainder with its inner line breaks intact.
func cutFields(s string, n int) ([]string, string) {
	var fields []string
	rest := strings.TrimSpace(s)
	for len(fields) < n && rest != "" {
		i := strings.IndexFunc(rest, func(r rune) bool { return r == ' ' || r == '\t' || r == '\n' })
		if i < 0 {
			fields = append(fields, rest)
			rest = ""
			break
		}
		fields = append(fields, rest[:i])
		rest = strings.TrimSpace(rest[i:])
	}
	return fields, rest
}
