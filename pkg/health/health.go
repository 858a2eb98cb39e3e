// Package health exposes liveness and readiness endpoints for the process
// supervisor. Registered checks run periodically on one background
// goroutine; the HTTP handlers only read the latest recorded results.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Service tracks check results and answers probe requests.
type Service struct {
	mu        sync.RWMutex
	ready     bool
	liveness  []check
	readiness []check
	results   map[string]error

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a Service in the not-ready state. Call SetReady(true) once
// initialization finishes.
func New() *Service {
	return &Service{results: make(map[string]error)}
}

// AddLivenessCheck registers a process-liveness check. Register checks
// before Start.
func (s *Service) AddLivenessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.liveness = append(s.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadinessCheck registers a dependency-readiness check. Register checks
// before Start.
func (s *Service) AddReadinessCheck(name string, timeout time.Duration, fn CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readiness = append(s.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the overall readiness gate; readiness checks only matter
// once it is true.
func (s *Service) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = ready
}

// Start runs every check once synchronously, then launches the periodic
// check loop.
func (s *Service) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.runAll(ctx)

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runAll(ctx)
			}
		}
	}()
}

// Stop halts the check loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.mu.RLock()
	checks := make([]check, 0, len(s.liveness)+len(s.readiness))
	checks = append(checks, s.liveness...)
	checks = append(checks, s.readiness...)
	s.mu.RUnlock()

	for _, c := range checks {
		cctx, cancel := context.WithTimeout(ctx, c.timeout)
		err := c.fn(cctx)
		cancel()

		s.mu.Lock()
		s.results[c.name] = err
		s.mu.Unlock()
	}
}

// LiveEndpoint answers liveness probes: 200 while every liveness check
// passes, 503 otherwise.
func (s *Service) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.respond(w, s.liveness, true)
}

// ReadyEndpoint answers readiness probes: 200 once SetReady(true) was called
// and every readiness check passes.
func (s *Service) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	s.respond(w, s.readiness, s.ready)
}

// respond must be called with mu held (read lock suffices).
func (s *Service) respond(w http.ResponseWriter, checks []check, gate bool) {
	type entry struct {
		Name  string `json:"name"`
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}

	healthy := gate
	entries := make([]entry, 0, len(checks))
	for _, c := range checks {
		err := s.results[c.name]
		e := entry{Name: c.name, OK: err == nil}
		if err != nil {
			e.Error = err.Error()
			healthy = false
		}
		entries = append(entries, e)
	}

	w.Header().Set("Content-Type", "application/json")
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"healthy": healthy,
		"checks":  entries,
	})
}
