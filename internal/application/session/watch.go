package session

import "context"

// subscriber is woken after every record change. notify has room for one
// pending signal, so a slow watcher sees the latest value instead of each one.
type subscriber struct {
	notify chan struct{}
}

func (s *Store) subscribe() *subscriber {
	sub := &subscriber{notify: make(chan struct{}, 1)}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	return sub
}

func (s *Store) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	delete(s.subs, sub)
	s.mu.Unlock()
}

func (s *Store) notify() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.notify <- struct{}{}:
		default:
		}
	}
}

// Subscribers returns the number of active watch streams.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// watch starts a stream of project(record): the current value first, then one
// value per change. The channel is closed once ctx is done.
func watch[T any](ctx context.Context, s *Store, project func(record) T) (<-chan T, error) {
	sub := s.subscribe()
	initial, err := s.read(ctx, "watch session")
	if err != nil {
		s.unsubscribe(sub)
		return nil, err
	}
	// A change during the read has signalled this subscriber already; start
	// from the newest record so the signal is not lost.
	select {
	case <-sub.notify:
		initial = s.current()
	default:
	}

	out := make(chan T)
	go func() {
		defer close(out)
		defer s.unsubscribe(sub)
		cur := initial
		for {
			select {
			case out <- project(cur):
			case <-ctx.Done():
				return
			}
			select {
			case <-sub.notify:
				cur = s.current()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
