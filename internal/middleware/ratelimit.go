package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/shanegiles-web/gymnastics-platform/internal/dto"
	"github.com/shanegiles-web/gymnastics-platform/internal/repository"
)

const storeTimeout = 2 * time.Second

// CounterStore is a fixed-window limiter whose counters live in Postgres,
// so every process behind the load balancer shares one budget per client.
type CounterStore struct {
	repo   repository.RateLimitRepository
	window time.Duration
	limit  int
	now    func() time.Time
}

func NewCounterStore(repo repository.RateLimitRepository, window time.Duration, limit int) *CounterStore {
	return &CounterStore{repo: repo, window: window, limit: limit, now: time.Now}
}

// Allow counts one request for identifier. Storage failures let the request through.
func (s *CounterStore) Allow(identifier string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	start := s.windowStart()
	count, err := s.repo.Increment(ctx, identifier, start, start.Add(s.window))
	if err != nil {
		log.Warnf("[RateLimit] counter store unavailable, allowing %s: %v", identifier, err)
		return true, err
	}
	return count <= s.limit, nil
}

// RetryAfter is the number of whole seconds until the current window resets.
func (s *CounterStore) RetryAfter() int {
	remaining := s.windowStart().Add(s.window).Sub(s.now())
	return int(math.Ceil(remaining.Seconds()))
}

func (s *CounterStore) windowStart() time.Time {
	return s.now().UTC().Truncate(s.window)
}

// RateLimiter limits each client IP through store.
func RateLimiter(store *CounterStore) echo.MiddlewareFunc {
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/health"
		},
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return "ip:" + c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "unable to identify client").SetInternal(err)
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			c.Response().Header().Set("Retry-After", strconv.Itoa(store.RetryAfter()))
			return c.JSON(http.StatusTooManyRequests, dto.Fail(CodeRateLimited, "too many requests, please try again later", nil))
		},
	})
}
