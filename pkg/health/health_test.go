package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probe(t *testing.T, h http.HandlerFunc) (int, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestReadyEndpoint_NotReadyByDefault(t *testing.T) {
	s := New()

	code, body := probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["healthy"])
}

func TestReadyEndpoint_ReadyWithPassingChecks(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, func(context.Context) error { return nil })
	s.Start(context.Background(), time.Hour)
	defer s.Stop()
	s.SetReady(true)

	code, body := probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["healthy"])
}

func TestReadyEndpoint_FailingCheck(t *testing.T) {
	s := New()
	s.AddReadinessCheck("db", time.Second, func(context.Context) error {
		return errors.New("connection refused")
	})
	s.Start(context.Background(), time.Hour)
	defer s.Stop()
	s.SetReady(true)

	code, body := probe(t, s.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, false, body["healthy"])

	checks := body["checks"].([]any)
	require.Len(t, checks, 1)
	entry := checks[0].(map[string]any)
	assert.Equal(t, "db", entry["name"])
	assert.Contains(t, entry["error"], "connection refused")
}

func TestLiveEndpoint_IndependentOfReadyGate(t *testing.T) {
	s := New()
	s.AddLivenessCheck("goroutines", time.Second, GoroutineCountCheck(100000))
	s.Start(context.Background(), time.Hour)
	defer s.Stop()

	// Never SetReady: liveness must still pass.
	code, body := probe(t, s.LiveEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["healthy"])
}

func TestGoroutineCountCheck(t *testing.T) {
	assert.NoError(t, GoroutineCountCheck(1_000_000)(context.Background()))
	assert.Error(t, GoroutineCountCheck(0)(context.Background()))
}

func TestStop_Idempotent(t *testing.T) {
	s := New()
	s.Start(context.Background(), time.Hour)
	s.Stop()
	s.Stop()
}
