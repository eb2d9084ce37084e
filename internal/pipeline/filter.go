package pipeline

import (
	"context"
	"time"
)

type Result struct {
	IsAllowed    bool
	Reason       string
	FilterName   string
	ShouldDelete bool
	// Notice is posted after a successful delete and removed after NoticeTTL.
	Notice    string
	NoticeTTL time.Duration
	// FallbackNotice replaces Notice when the delete fails.
	FallbackNotice string
	// Reply is sent as an answer to the message, which is kept.
	Reply string
}

type Filter interface {
	Name() string
	Process(ctx context.Context, payload Payload) (*Result, error)
}

// Observer marks stages that still see messages blocked by an earlier stage.
type Observer interface {
	Filter
	ObservesBlocked() bool
}

// Allow is the result of a stage that lets the message through.
func Allow() *Result {
	return &Result{IsAllowed: true}
}
