// Package observable provides small concurrency-safe primitives for
// publishing state to UI-facing observers: Value holds a current value and
// replays it to new subscribers, Stream fans out events without replay.
//
// Slice-valued state must be published as a fresh slice instance on every
// mutation. The holders never copy what they are given, so an in-place
// mutation of a previously published slice would be visible to subscribers
// without a notification and break identity-based change detection.
package observable

import "sync"

// subscriber buffer size. Slow subscribers are conflated (Value) or lose the
// oldest event (Stream) rather than blocking the publisher.
const subBuffer = 1

// Value is a last-value-wins observable holder. Subscribers receive the
// current value immediately and every subsequent Set. A subscriber that
// falls behind sees only the latest value, never a stale intermediate.
type Value[T any] struct {
	mu   sync.Mutex
	cur  T
	subs map[uint64]chan T
	next uint64
}

// NewValue creates a Value seeded with initial.
func NewValue[T any](initial T) *Value[T] {
	return &Value[T]{
		cur:  initial,
		subs: make(map[uint64]chan T),
	}
}

// Get returns the current value.
func (v *Value[T]) Get() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cur
}

// Set replaces the current value and notifies all subscribers.
func (v *Value[T]) Set(val T) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cur = val
	for _, ch := range v.subs {
		conflate(ch, val)
	}
}

// Subscribe registers an observer. The returned channel immediately carries
// the current value. cancel removes the subscription and closes the channel;
// it is safe to call more than once.
func (v *Value[T]) Subscribe() (<-chan T, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	id := v.next
	v.next++

	ch := make(chan T, subBuffer)
	ch <- v.cur
	v.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			v.mu.Lock()
			defer v.mu.Unlock()
			delete(v.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

// conflate delivers val, evicting the undelivered previous value if the
// subscriber has not drained its channel yet.
func conflate[T any](ch chan T, val T) {
	for {
		select {
		case ch <- val:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// Stream is a fan-out event broadcaster without replay: subscribers only see
// events published after they subscribe.
type Stream[T any] struct {
	mu   sync.Mutex
	subs map[uint64]chan T
	next uint64
}

// NewStream creates an empty Stream.
func NewStream[T any]() *Stream[T] {
	return &Stream[T]{subs: make(map[uint64]chan T)}
}

// Publish delivers ev to all current subscribers. A subscriber whose buffer
// is full loses its oldest pending event.
func (s *Stream[T]) Publish(ev T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		for {
			select {
			case ch <- ev:
			default:
				select {
				case <-ch:
				default:
				}
				continue
			}
			break
		}
	}
}

// Subscribe registers an event observer with the given buffer size (minimum
// 1). cancel removes the subscription and closes the channel.
func (s *Stream[T]) Subscribe(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++

	ch := make(chan T, buffer)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}
