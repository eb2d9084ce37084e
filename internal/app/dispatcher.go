package app

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/kabozek1/tgbot-final02/internal/event"
)

// Dispatcher spreads events over a fixed pool of workers. A chat always maps
// to the same worker, so its events are handled in arrival order while
// other chats proceed in parallel.
type Dispatcher struct {
	shards []chan event.Event
	handle func(context.Context, event.Event)
	log    *slog.Logger
}

func NewDispatcher(workers, queueSize int, handle func(context.Context, event.Event), log *slog.Logger) *Dispatcher {
	if workers < 1 {
		workers = 1
	}
	shards := make([]chan event.Event, workers)
	for i := range shards {
		shards[i] = make(chan event.Event, queueSize)
	}
	return &Dispatcher{shards: shards, handle: handle, log: log}
}

func (d *Dispatcher) Workers() int {
	return len(d.shards)
}

func (d *Dispatcher) shardFor(chatID int64) chan event.Event {
	return d.shards[uint64(chatID)%uint64(len(d.shards))]
}

// Run consumes events until the channel closes or ctx is cancelled, then
// waits for queued events to finish.
func (d *Dispatcher) Run(ctx context.Context, events <-chan event.Event) {
	var wg sync.WaitGroup
	for _, ch := range d.shards {
		wg.Add(1)
		go func(ch <-chan event.Event) {
			defer wg.Done()
			for ev := range ch {
				d.safeHandle(ctx, ev)
			}
		}(ch)
	}
	defer func() {
		for _, ch := range d.shards {
			close(ch)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			select {
			case d.shardFor(ev.Chat()) <- ev:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (d *Dispatcher) safeHandle(ctx context.Context, ev event.Event) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("Panic while handling event", "chat_id", ev.Chat(), "panic", r, "stack", string(debug.Stack()))
		}
	}()
	d.handle(ctx, ev)
}
