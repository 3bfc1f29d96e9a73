package ratelimit

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

type countingLimiter struct {
	counts map[string]int
	err    error
}

func (l *countingLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) (Result, error) {
	if l.err != nil {
		return Result{}, l.err
	}
	l.counts[key]++
	n := l.counts[key]
	rem := limit - n
	if rem < 0 {
		rem = 0
	}
	return Result{Allowed: n <= limit, Limit: limit, Remaining: rem, ResetAt: time.Now().Add(window)}, nil
}

func serve(t *testing.T, mw echo.MiddlewareFunc) func() (int, http.Header) {
	t.Helper()
	e := echo.New()
	e.POST("/login", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) }, mw)
	return func() (int, http.Header) {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec.Code, rec.Header()
	}
}

func TestMiddlewareBlocksAfterLimit(t *testing.T) {
	do := serve(t, Middleware(&countingLimiter{counts: map[string]int{}}, 2, time.Minute))

	code, h := do()
	assert.Equal(t, http.StatusNoContent, code)
	assert.Equal(t, "1", h.Get("X-RateLimit-Remaining"))
	code, _ = do()
	assert.Equal(t, http.StatusNoContent, code)

	code, h = do()
	assert.Equal(t, http.StatusTooManyRequests, code)
	assert.NotEmpty(t, h.Get("Retry-After"))
}

func TestMiddlewareFailsOpen(t *testing.T) {
	do := serve(t, Middleware(&countingLimiter{err: errors.New("redis down")}, 1, time.Minute))
	for i := 0; i < 3; i++ {
		code, _ := do()
		assert.Equal(t, http.StatusNoContent, code)
	}
}

func TestNopLimiter(t *testing.T) {
	res, err := NopLimiter{}.Allow(context.Background(), "k", 5, time.Second)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 5, res.Remaining)
}
