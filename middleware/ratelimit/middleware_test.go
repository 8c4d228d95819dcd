package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}

func doRequest(e *echo.Echo, middleware echo.MiddlewareFunc, ip string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = ip + ":1234"
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	err := middleware(okHandler)(c)
	return rec, err
}

func TestMiddleware_AllowsWithinLimit(t *testing.T) {
	e := echo.New()
	middleware := Middleware(&Config{Rate: 3, Period: time.Minute})

	for i := 0; i < 3; i++ {
		rec, err := doRequest(e, middleware, "10.0.0.1")
		require.NoError(t, err)
		assert.Equal(t, "3", rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestMiddleware_RejectsOverLimit(t *testing.T) {
	e := echo.New()
	middleware := Middleware(&Config{Rate: 2, Period: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := doRequest(e, middleware, "10.0.0.1")
		require.NoError(t, err)
	}

	rec, err := doRequest(e, middleware, "10.0.0.1")
	require.Error(t, err)
	httpError, ok := err.(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusTooManyRequests, httpError.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestMiddleware_KeysAreIndependent(t *testing.T) {
	e := echo.New()
	middleware := Middleware(&Config{Rate: 1, Period: time.Minute})

	_, err := doRequest(e, middleware, "10.0.0.1")
	require.NoError(t, err)

	_, err = doRequest(e, middleware, "10.0.0.2")
	assert.NoError(t, err)
}

func TestMiddleware_WindowExpiry(t *testing.T) {
	e := echo.New()
	middleware := Middleware(&Config{Rate: 1, Period: 30 * time.Millisecond})

	_, err := doRequest(e, middleware, "10.0.0.1")
	require.NoError(t, err)

	_, err = doRequest(e, middleware, "10.0.0.1")
	require.Error(t, err)

	time.Sleep(50 * time.Millisecond)

	_, err = doRequest(e, middleware, "10.0.0.1")
	assert.NoError(t, err)
}

func TestMemoryStore_Hit(t *testing.T) {
	store := NewMemoryStore()

	count, resetAt := store.Hit("key", time.Minute)
	assert.Equal(t, 1, count)
	assert.WithinDuration(t, time.Now().Add(time.Minute), resetAt, time.Second)

	count, second := store.Hit("key", time.Minute)
	assert.Equal(t, 2, count)
	assert.Equal(t, resetAt, second)
}

func TestMemoryStore_Reset(t *testing.T) {
	store := NewMemoryStore()

	store.Hit("key", time.Minute)
	store.Hit("key", time.Minute)
	store.Reset("key")

	count, _ := store.Hit("key", time.Minute)
	assert.Equal(t, 1, count)
}
