package app

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saree-crm/saree-crm/internal/observability"
	"github.com/saree-crm/saree-crm/internal/platform/db"
	"github.com/saree-crm/saree-crm/internal/platform/schema"
	"github.com/saree-crm/saree-crm/internal/sales"
	"github.com/saree-crm/saree-crm/internal/shared"
	"github.com/saree-crm/saree-crm/internal/view"
	"github.com/saree-crm/saree-crm/jobs"
	_ "github.com/saree-crm/saree-crm/testing"
)

var csrfField = regexp.MustCompile(`name="csrf_token" value="([^"]+)"`)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	conn, dialect, err := db.New(ctx, "sqlite3", filepath.Join(t.TempDir(), "saree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	report := schema.NewReconciler(schema.NewSQLCatalog(conn, dialect), logger).Reconcile(ctx, sales.Tables()...)
	require.NoError(t, report.Err())

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	templates, err := view.NewEngine()
	require.NoError(t, err)

	cfg := &Config{AppRequestTimeout: 5 * time.Second, RateLimitPerMinute: 1000, SecretKey: "test-secret"}
	csrf := shared.NewCSRFManager(cfg.SecretKey)
	svc := sales.NewService(sales.NewRepository(conn, dialect))

	return NewRouter(RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: shared.NewSessionManager(client, "saree_session", cfg.SecretKey, time.Hour, false),
		CSRFManager:    csrf,
		SalesHandler:   sales.NewHandler(logger, svc, templates, csrf),
		JobHandler:     jobs.NewHandler(nil, logger),
		Metrics:        observability.NewMetrics(),
	})
}

func serve(router http.Handler, req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestRouterRejectsPostWithoutCSRFToken(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/customers/add", strings.NewReader("name=Asha"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(router, req, nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRouterFlashSurvivesRedirect(t *testing.T) {
	router := newTestRouter(t)

	page := serve(router, httptest.NewRequest(http.MethodGet, "/customers", nil), nil)
	require.Equal(t, http.StatusOK, page.Code)
	cookies := page.Result().Cookies()
	require.NotEmpty(t, cookies)
	match := csrfField.FindStringSubmatch(page.Body.String())
	require.Len(t, match, 2)

	form := url.Values{"name": {"Asha"}, shared.CSRFFormField: {match[1]}}
	req := httptest.NewRequest(http.MethodPost, "/customers/add", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := serve(router, req, cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/customers", rec.Header().Get("Location"))

	next := serve(router, httptest.NewRequest(http.MethodGet, "/customers", nil), cookies)
	require.Equal(t, http.StatusOK, next.Code)
	assert.Contains(t, next.Body.String(), "Customer added.")
	assert.Contains(t, next.Body.String(), "Asha")

	again := serve(router, httptest.NewRequest(http.MethodGet, "/customers", nil), cookies)
	assert.NotContains(t, again.Body.String(), "Customer added.")
}

func TestRouterExposesMetricsAndJobHealth(t *testing.T) {
	router := newTestRouter(t)

	serve(router, httptest.NewRequest(http.MethodGet, "/api/customers", nil), nil)

	health := serve(router, httptest.NewRequest(http.MethodGet, "/jobs/health", nil), nil)
	assert.Equal(t, http.StatusOK, health.Code)
	assert.Contains(t, health.Body.String(), `"queue":"default"`)

	metrics := serve(router, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), `saree_http_requests_total{code="200",route="/api/customers"}`)
}

func TestRouterServesStaticAssets(t *testing.T) {
	router := newTestRouter(t)

	rec := serve(router, httptest.NewRequest(http.MethodGet, "/static/css/app.css", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
}
