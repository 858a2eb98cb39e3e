package worker

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startQueue(t *testing.T) *Serial {
	t.Helper()
	q := NewSerial("test", 16, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = q.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return q
}

func TestSerial_DoReturnsJobError(t *testing.T) {
	q := startQueue(t)

	sentinel := errors.New("boom")
	err := q.Do(context.Background(), func(context.Context) error { return sentinel })
	require.ErrorIs(t, err, sentinel)

	err = q.Do(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
}

func TestSerial_JobsNeverInterleave(t *testing.T) {
	q := startQueue(t)

	var (
		mu      sync.Mutex
		running int
		maxSeen int
		done    int
	)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = q.Do(context.Background(), func(context.Context) error {
				mu.Lock()
				running++
				if running > maxSeen {
					maxSeen = running
				}
				mu.Unlock()

				mu.Lock()
				running--
				done++
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "jobs must run one at a time")
	assert.Equal(t, 50, done)
}

func TestSerial_DoHonorsCancelledContext(t *testing.T) {
	// Queue is never drained: Run was not started.
	q := NewSerial("stuck", 0, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := q.Do(ctx, func(context.Context) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}

func TestSerial_JobReceivesSubmitterContext(t *testing.T) {
	q := startQueue(t)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "tx")

	var got any
	err := q.Do(ctx, func(jctx context.Context) error {
		got = jctx.Value(key{})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "tx", got)
}
