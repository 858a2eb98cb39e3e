// Package worker serializes persistence writes. Each store-facing
// collaborator gets one Serial queue: a single goroutine executing submitted
// jobs in FIFO order, so writes against the same table never interleave.
package worker

import (
	"context"

	"go.uber.org/zap"
)

type job struct {
	ctx  context.Context
	fn   func(ctx context.Context) error
	done chan error
}

// Serial executes submitted jobs one at a time on a single goroutine.
type Serial struct {
	name string
	jobs chan job
	lg   *zap.Logger
}

// NewSerial creates a queue. buffer bounds how many jobs may wait; a full
// queue back-pressures Do.
func NewSerial(name string, buffer int, lg *zap.Logger) *Serial {
	return &Serial{
		name: name,
		jobs: make(chan job, buffer),
		lg:   lg,
	}
}

// Run drains the queue until ctx is cancelled. Intended to be launched once
// per queue, typically in an errgroup.
func (s *Serial) Run(ctx context.Context) error {
	s.lg.Info("write queue started", zap.String("queue", s.name))
	for {
		select {
		case <-ctx.Done():
			s.lg.Info("write queue stopped", zap.String("queue", s.name))
			return nil
		case j := <-s.jobs:
			j.done <- j.fn(j.ctx)
		}
	}
}

// Do submits fn and waits for its result. The job runs with the submitter's
// context, so a transaction carried by ctx stays in effect on the worker
// goroutine.
func (s *Serial) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	j := job{ctx: ctx, fn: fn, done: make(chan error, 1)}
	select {
	case s.jobs <- j:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
