package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "saree_session", "secret", time.Hour, false), mr
}

func TestFlashSurvivesRedirect(t *testing.T) {
	ctx := context.Background()
	sm, mr := newTestManager(t)

	first := httptest.NewRequest(http.MethodPost, "/orders/add", nil)
	sess, err := sm.Load(ctx, first)
	require.NoError(t, err)
	sess.AddFlash(FlashMessage{Kind: FlashSuccess, Message: "Order created."})
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, first, sess))
	assert.True(t, mr.Exists("saree:session:"+sess.ID))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	second := httptest.NewRequest(http.MethodGet, "/orders", nil)
	second.AddCookie(cookies[0])
	loaded, err := sm.Load(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, loaded.ID)
	assert.Equal(t, []FlashMessage{{Kind: FlashSuccess, Message: "Order created."}}, loaded.PopFlashes())
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), second, loaded))

	third := httptest.NewRequest(http.MethodGet, "/orders", nil)
	third.AddCookie(cookies[0])
	again, err := sm.Load(ctx, third)
	require.NoError(t, err)
	assert.Nil(t, again.PopFlash())
}

func TestCSRFTokenRoundTrip(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t)
	csrf := NewCSRFManager("secret")

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	token, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	same, err := csrf.EnsureToken(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, token, same)

	assert.NoError(t, csrf.VerifyToken(ctx, sess, token))
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, "forged"), ErrCSRFTokenMismatch)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, sess, ""), ErrCSRFTokenMissing)
	assert.ErrorIs(t, csrf.VerifyToken(ctx, nil, token), ErrCSRFTokenMissing)
}

func TestLoadIgnoresTamperedCookie(t *testing.T) {
	ctx := context.Background()
	sm, _ := newTestManager(t)

	first := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, first)
	require.NoError(t, err)
	sess.Set("owner", "shop")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, first, sess))

	for _, value := range []string{sess.ID, sess.ID + ".forged", "other-id." + "AAAA"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "saree_session", Value: value})
		loaded, err := sm.Load(ctx, req)
		require.NoError(t, err)
		assert.NotEqual(t, sess.ID, loaded.ID, value)
		assert.Empty(t, loaded.Get("owner"), value)
	}
}
