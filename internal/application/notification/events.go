package notification

import (
	"context"
	"sync"

	"github.com/edumon-sync/internal/domain"
)

// eventBuffer is how many notifications a subscriber may lag behind before
// new ones are dropped for it.
const eventBuffer = 16

// Events fans displayed notifications out to in-process observers such as
// the SSE endpoint. Publishing never blocks.
type Events struct {
	mu   sync.Mutex
	subs map[chan domain.LocalNotification]struct{}
}

func NewEvents() *Events {
	return &Events{subs: make(map[chan domain.LocalNotification]struct{})}
}

// Subscribe returns a channel of notifications published after the call.
// It is closed once ctx is done.
func (e *Events) Subscribe(ctx context.Context) <-chan domain.LocalNotification {
	ch := make(chan domain.LocalNotification, eventBuffer)
	e.mu.Lock()
	e.subs[ch] = struct{}{}
	e.mu.Unlock()

	go func() {
		<-ctx.Done()
		e.mu.Lock()
		delete(e.subs, ch)
		close(ch)
		e.mu.Unlock()
	}()
	return ch
}

func (e *Events) Publish(n domain.LocalNotification) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for ch := range e.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

func (e *Events) Subscribers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.subs)
}
