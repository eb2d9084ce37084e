package filters

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/kabozek1/tgbot-final02/internal/pipeline"
	"github.com/kabozek1/tgbot-final02/internal/repository"
	"github.com/kabozek1/tgbot-final02/internal/settings"
)

type mockSettings struct {
	antiflood settings.Antiflood
	antimat   settings.Antimat
}

func (m *mockSettings) Antiflood() settings.Antiflood { return m.antiflood }
func (m *mockSettings) Antimat() settings.Antimat     { return m.antimat }

type mockTriggerStore struct {
	triggers      []repository.Trigger
	hits          []uint
	ListErr       error
	RecordHitFunc func(ctx context.Context, id uint, at time.Time) error
}

func (m *mockTriggerStore) ListActive(_ context.Context) ([]repository.Trigger, error) {
	return m.triggers, m.ListErr
}

func (m *mockTriggerStore) RecordHit(ctx context.Context, id uint, at time.Time) error {
	m.hits = append(m.hits, id)
	if m.RecordHitFunc != nil {
		return m.RecordHitFunc(ctx, id, at)
	}
	return nil
}

type mockRecorder struct {
	RecordMessageFunc func(ctx context.Context, p pipeline.Payload) error
	recorded          []pipeline.Payload
}

func (m *mockRecorder) RecordMessage(ctx context.Context, p pipeline.Payload) error {
	m.recorded = append(m.recorded, p)
	if m.RecordMessageFunc != nil {
		return m.RecordMessageFunc(ctx, p)
	}
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
