package filters

import (
	"context"

	"github.com/kabozek1/tgbot-final02/internal/pipeline"
)

type MessageRecorder interface {
	RecordMessage(ctx context.Context, payload pipeline.Payload) error
}

// StatsStage logs every group message, including ones an earlier stage blocked.
type StatsStage struct {
	recorder MessageRecorder
}

func NewStatsStage(recorder MessageRecorder) *StatsStage {
	return &StatsStage{recorder: recorder}
}

func (s *StatsStage) Name() string {
	return "stats"
}

func (s *StatsStage) ObservesBlocked() bool {
	return true
}

func (s *StatsStage) Process(ctx context.Context, payload pipeline.Payload) (*pipeline.Result, error) {
	if err := s.recorder.RecordMessage(ctx, payload); err != nil {
		return nil, err
	}
	return pipeline.Allow(), nil
}
