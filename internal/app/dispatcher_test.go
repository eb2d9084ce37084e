package app

import (
	"context"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kabozek1/tgbot-final02/internal/event"
)

type recorder struct {
	mu   sync.Mutex
	seen map[int64][]int
}

func (r *recorder) handle(_ context.Context, ev event.Event) {
	msg := ev.(event.Message)
	if msg.Text == "panic" {
		panic("boom")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen[msg.ChatID] = append(r.seen[msg.ChatID], msg.MessageID)
}

func newTestDispatcher(workers int, r *recorder) *Dispatcher {
	return NewDispatcher(workers, 8, r.handle, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestDispatcher_KeepsPerChatOrder(t *testing.T) {
	const chats, perChat = 200, 5
	r := &recorder{seen: map[int64][]int{}}
	d := newTestDispatcher(4, r)

	events := make(chan event.Event)
	go func() {
		defer close(events)
		for i := 0; i < perChat; i++ {
			for c := int64(1); c <= chats; c++ {
				id := c
				if c%2 == 0 {
					id = -c
				}
				events <- event.Message{Base: event.Base{ChatID: id}, MessageID: i}
			}
		}
	}()
	d.Run(context.Background(), events)

	require.Len(t, r.seen, chats)
	for chatID, ids := range r.seen {
		assert.Equal(t, []int{0, 1, 2, 3, 4}, ids, "chat %d", chatID)
	}
}

func TestDispatcher_FixedPool(t *testing.T) {
	r := &recorder{seen: map[int64][]int{}}
	d := newTestDispatcher(4, r)
	assert.Equal(t, 4, d.Workers())

	before := runtime.NumGoroutine()
	events := make(chan event.Event)
	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), events)
		close(done)
	}()
	for c := int64(1); c <= 1000; c++ {
		events <- event.Message{Base: event.Base{ChatID: c}, MessageID: 1}
	}
	// Runner plus four workers, however many chats were seen.
	assert.LessOrEqual(t, runtime.NumGoroutine(), before+5)
	close(events)
	<-done

	assert.Len(t, r.seen, 1000)
}

func TestDispatcher_RecoversFromPanic(t *testing.T) {
	r := &recorder{seen: map[int64][]int{}}
	d := newTestDispatcher(1, r)

	events := make(chan event.Event, 3)
	events <- event.Message{Base: event.Base{ChatID: -1}, MessageID: 1}
	events <- event.Message{Base: event.Base{ChatID: -1}, MessageID: 2, Text: "panic"}
	events <- event.Message{Base: event.Base{ChatID: -1}, MessageID: 3}
	close(events)
	d.Run(context.Background(), events)

	assert.Equal(t, []int{1, 3}, r.seen[-1])
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	r := &recorder{seen: map[int64][]int{}}
	d := newTestDispatcher(2, r)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d.Run(ctx, make(chan event.Event))
	assert.Empty(t, r.seen)
}
