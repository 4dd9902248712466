package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counterKey struct {
	key   string
	start time.Time
}

type mockRateLimitRepo struct {
	counts map[counterKey]int
	err    error
}

func (m *mockRateLimitRepo) Increment(ctx context.Context, key string, windowStart, expiresAt time.Time) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.counts == nil {
		m.counts = map[counterKey]int{}
	}
	k := counterKey{key, windowStart}
	m.counts[k]++
	return m.counts[k], nil
}

func (m *mockRateLimitRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

func newTestStore(repo *mockRateLimitRepo, now time.Time) *CounterStore {
	store := NewCounterStore(repo, 15*time.Minute, 2)
	store.now = func() time.Time { return now }
	return store
}

func TestCounterStore_Allow(t *testing.T) {
	now := time.Date(2026, 1, 5, 10, 5, 0, 0, time.UTC)
	repo := &mockRateLimitRepo{}
	store := newTestStore(repo, now)

	for i := 0; i < 2; i++ {
		ok, err := store.Allow("ip:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, ok)
	}
	ok, err := store.Allow("ip:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, ok)

	// other clients have their own budget
	ok, _ = store.Allow("ip:5.6.7.8")
	assert.True(t, ok)

	// the next window starts fresh
	store.now = func() time.Time { return now.Add(15 * time.Minute) }
	ok, _ = store.Allow("ip:1.2.3.4")
	assert.True(t, ok)
}

func TestCounterStore_RetryAfter(t *testing.T) {
	store := newTestStore(&mockRateLimitRepo{}, time.Date(2026, 1, 5, 10, 5, 0, 0, time.UTC))
	// window 10:00-10:15
	assert.Equal(t, 600, store.RetryAfter())
}

func TestCounterStore_FailsOpen(t *testing.T) {
	store := newTestStore(&mockRateLimitRepo{err: errors.New("db down")}, time.Now())
	ok, err := store.Allow("ip:1.2.3.4")
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestRateLimiter(t *testing.T) {
	store := newTestStore(&mockRateLimitRepo{}, time.Date(2026, 1, 5, 10, 14, 30, 0, time.UTC))

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler
	e.Use(RateLimiter(store))
	e.GET("/api/v1/classes", okHandler)
	e.GET("/health", okHandler)

	do := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, do("/api/v1/classes").Code)
	assert.Equal(t, http.StatusNoContent, do("/api/v1/classes").Code)

	rec := do("/api/v1/classes")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), CodeRateLimited)

	// health checks are never limited
	assert.Equal(t, http.StatusNoContent, do("/health").Code)
}
