package app

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chain(stack []func(http.Handler) http.Handler, h http.Handler) http.Handler {
	for i := len(stack) - 1; i >= 0; i-- {
		h = stack[i](h)
	}
	return h
}

func TestMiddlewareRateLimitAnswersProblem(t *testing.T) {
	stack := MiddlewareStack(MiddlewareConfig{
		Logger: slog.New(slog.DiscardHandler),
		Config: &Config{RateLimitPerMinute: 1},
	})
	h := chain(stack, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusNoContent, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "application/problem+json", second.Header().Get("Content-Type"))
	assert.Contains(t, second.Body.String(), "Too many requests")
}

func TestSessionlessPaths(t *testing.T) {
	assert.True(t, sessionless("/static/css/app.css"))
	assert.True(t, sessionless("/healthz"))
	assert.True(t, sessionless("/metrics"))
	assert.False(t, sessionless("/orders"))
	assert.False(t, sessionless("/api/customers"))
}
