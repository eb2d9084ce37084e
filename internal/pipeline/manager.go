package pipeline

import (
	"context"
	"errors"
	"fmt"
)

type Manager struct {
	filters []Filter
}

func NewManager(filters ...Filter) *Manager {
	return &Manager{filters: filters}
}

// Process runs the stages in order and stops at the first one that blocks
// the message. Observers after the blocking stage still receive the payload
// with Blocked set. A failing stage is skipped, and its error is returned
// next to the verdict so the caller can log it.
func (m *Manager) Process(ctx context.Context, payload Payload) (*Result, error) {
	var (
		verdict *Result
		errs    []error
	)
	for _, f := range m.filters {
		if verdict != nil {
			o, ok := f.(Observer)
			if !ok || !o.ObservesBlocked() {
				continue
			}
		}
		res, err := f.Process(ctx, payload)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", f.Name(), err))
			continue
		}
		if verdict == nil && res != nil && !res.IsAllowed {
			verdict = res
			payload.Blocked = true
		}
	}
	if verdict == nil {
		verdict = Allow()
	}
	return verdict, errors.Join(errs...)
}
