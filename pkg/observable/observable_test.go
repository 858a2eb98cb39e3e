package observable

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recv[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for value")
		panic("unreachable")
	}
}

func TestValue_SubscribeReceivesCurrentValue(t *testing.T) {
	v := NewValue(42)

	ch, cancel := v.Subscribe()
	defer cancel()

	assert.Equal(t, 42, recv(t, ch))
}

func TestValue_SetNotifiesSubscribers(t *testing.T) {
	v := NewValue("a")

	ch, cancel := v.Subscribe()
	defer cancel()
	require.Equal(t, "a", recv(t, ch))

	v.Set("b")
	assert.Equal(t, "b", recv(t, ch))
	assert.Equal(t, "b", v.Get())
}

func TestValue_SlowSubscriberSeesLatestValue(t *testing.T) {
	v := NewValue(0)

	ch, cancel := v.Subscribe()
	defer cancel()

	// Subscriber never drained the initial value; publish a burst.
	for i := 1; i <= 100; i++ {
		v.Set(i)
	}

	assert.Equal(t, 100, recv(t, ch))
}

func TestValue_CancelClosesChannel(t *testing.T) {
	v := NewValue(1)

	ch, cancel := v.Subscribe()
	recv(t, ch)
	cancel()
	cancel() // idempotent

	_, ok := <-ch
	assert.False(t, ok)

	// Set after cancel must not panic or deliver.
	v.Set(2)
}

func TestValue_IndependentSubscribers(t *testing.T) {
	v := NewValue(1)

	ch1, cancel1 := v.Subscribe()
	ch2, cancel2 := v.Subscribe()
	defer cancel2()

	require.Equal(t, 1, recv(t, ch1))
	require.Equal(t, 1, recv(t, ch2))

	cancel1()
	v.Set(2)

	assert.Equal(t, 2, recv(t, ch2))
}

func TestStream_NoReplay(t *testing.T) {
	s := NewStream[string]()
	s.Publish("before")

	ch, cancel := s.Subscribe(4)
	defer cancel()

	s.Publish("after")
	assert.Equal(t, "after", recv(t, ch))

	select {
	case ev := <-ch:
		t.Fatalf("unexpected extra event %q", ev)
	default:
	}
}

func TestStream_FullBufferDropsOldest(t *testing.T) {
	s := NewStream[int]()

	ch, cancel := s.Subscribe(2)
	defer cancel()

	s.Publish(1)
	s.Publish(2)
	s.Publish(3)

	assert.Equal(t, 2, recv(t, ch))
	assert.Equal(t, 3, recv(t, ch))
}

func TestStream_CancelStopsDelivery(t *testing.T) {
	s := NewStream[int]()

	ch, cancel := s.Subscribe(1)
	cancel()

	s.Publish(1)
	_, ok := <-ch
	assert.False(t, ok)
}
