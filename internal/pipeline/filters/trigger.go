package filters

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/messages"
	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/repository"
)

type TriggerStore interface {
	ListActive(ctx context.Context) ([]repository.Trigger, error)
	RecordHit(ctx context.Context, id uint, at time.Time) error
}

// TriggerMatcher answers messages containing a configured phrase.
// Active triggers are cached; call Reload after changing them.
type TriggerMatcher struct {
	store TriggerStore
	log   *slog.Logger

	mu       sync.RWMutex
	triggers []repository.Trigger
}

func NewTriggerMatcher(store TriggerStore, log *slog.Logger) *TriggerMatcher {
	return &TriggerMatcher{store: store, log: log}
}

func (m *TriggerMatcher) Name() string {
	return "trigger_matcher"
}

func (m *TriggerMatcher) Reload(ctx context.Context) error {
	triggers, err := m.store.ListActive(ctx)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.triggers = triggers
	m.mu.Unlock()
	return nil
}

// Match returns the first trigger, by position, with a variant contained in text.
func (m *TriggerMatcher) Match(text string) (repository.Trigger, bool) {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" || strings.HasPrefix(lower, "/") {
		return repository.Trigger{}, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.triggers {
		variants := []string(t.Variants)
		if len(variants) == 0 {
			variants = repository.SplitVariants(t.TriggerText)
		}
		for _, v := range variants {
			v = strings.ToLower(strings.TrimSpace(v))
			if v != "" && strings.Contains(lower, v) {
				return t, true
			}
		}
	}
	return repository.Trigger{}, false
}

func (m *TriggerMatcher) Process(ctx context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	t, ok := m.Match(payload.Text)
	if !ok {
		return pipeline.Allow(), nil
	}
	if err := m.store.RecordHit(ctx, t.ID, time.Now()); err != nil {
		m.log.Error("Failed to record trigger hit", "trigger_id", t.ID, "error", err)
	}
	return &pipeline.Result{
		IsAllowed:  false,
		Reason:     messages.MsgReasonTrigger,
		FilterName: m.Name(),
		Reply:      t.ResponseText,
	}, nil
}
