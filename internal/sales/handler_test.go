package sales

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saree-crm/saree-crm/internal/shared"
	"github.com/saree-crm/saree-crm/internal/view"
	_ "github.com/saree-crm/saree-crm/testing"
)

type handlerFixture struct {
	router   http.Handler
	repo     *Repository
	conn     *sql.DB
	sessions *shared.SessionManager
	sess     *shared.Session
}

func newHandlerFixture(t *testing.T) *handlerFixture {
	t.Helper()
	repo, conn := newTestRepository(t)
	svc := NewService(repo)

	templates, err := view.NewEngine()
	require.NoError(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	sessions := shared.NewSessionManager(client, "saree_session", "test-secret", time.Hour, false)

	sess, err := sessions.Load(context.Background(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	h := NewHandler(slog.New(slog.DiscardHandler), svc, templates, shared.NewCSRFManager("test-secret"))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	})
	h.MountRoutes(r)

	return &handlerFixture{router: r, repo: repo, conn: conn, sessions: sessions, sess: sess}
}

func (f *handlerFixture) post(t *testing.T, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func (f *handlerFixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHandlerAddOrderFlashesEveryValidationError(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.post(t, "/orders/add", url.Values{})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/orders", rec.Header().Get("Location"))
	assert.Equal(t, []shared.FlashMessage{
		{Kind: shared.FlashDanger, Message: "customer_id: Customer is required."},
		{Kind: shared.FlashDanger, Message: "saree_name: Saree name is required."},
	}, f.sess.PopFlashes())

	orders, err := f.repo.ListOrders(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestHandlerPaymentSettlesOrder(t *testing.T) {
	f := newHandlerFixture(t)
	ctx := context.Background()

	rec := f.post(t, "/orders/add", url.Values{"customer_id": {"1"}, "saree_name": {"Bandhani"}, "amount": {"500"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []shared.FlashMessage{{Kind: shared.FlashSuccess, Message: "Order created."}}, f.sess.PopFlashes())

	rec = f.post(t, "/payments/add", url.Values{"customer_id": {"1"}, "amount": {"500"}, "mode": {"Cash"}, "order_id": {"1"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/payments", rec.Header().Get("Location"))
	assert.Equal(t, []shared.FlashMessage{{Kind: shared.FlashSuccess, Message: "Payment recorded."}}, f.sess.PopFlashes())

	order, err := f.repo.GetOrder(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Paid", order.PaymentStatus)
}

func TestHandlerPaymentIncomplete(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.post(t, "/payments/add", url.Values{"customer_id": {"1"}, "amount": {"0"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []shared.FlashMessage{
		{Kind: shared.FlashDanger, Message: "Customer, amount (>0) and mode are required."},
	}, f.sess.PopFlashes())
}

func TestHandlerEditUnknownOrder(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.post(t, "/orders/999/edit", url.Values{"customer_id": {"1"}, "saree_name": {"Ikat"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []shared.FlashMessage{{Kind: shared.FlashDanger, Message: "Order not found."}}, f.sess.PopFlashes())

	rec = f.post(t, "/orders/abc/edit", url.Values{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerPersistenceFailureIsGeneric(t *testing.T) {
	f := newHandlerFixture(t)
	require.NoError(t, f.conn.Close())

	rec := f.post(t, "/customers/add", url.Values{"name": {"Meera"}})

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/customers", rec.Header().Get("Location"))
	assert.Equal(t, []shared.FlashMessage{{Kind: shared.FlashDanger, Message: "Failed to add customer."}}, f.sess.PopFlashes())
}

func TestHandlerFollowUpFlow(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.post(t, "/followups/add", url.Values{"customer_id": {"1"}, "follow_date": {"2024-07-01T10:00"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []shared.FlashMessage{{Kind: shared.FlashSuccess, Message: "Follow-up scheduled."}}, f.sess.PopFlashes())

	rec = f.post(t, "/followups/add", url.Values{"customer_id": {"1"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, []shared.FlashMessage{{Kind: shared.FlashDanger, Message: "Customer and follow date are required."}}, f.sess.PopFlashes())

	rec = f.get(t, "/followups")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "01 Jul 2024 10:00")
	assert.Contains(t, rec.Body.String(), "#1")
}

func TestHandlerAPICustomers(t *testing.T) {
	f := newHandlerFixture(t)

	rec := f.get(t, "/api/customers")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for i := 0; i < RecentCustomersLimit+5; i++ {
		resp := f.post(t, "/customers/add", url.Values{"name": {fmt.Sprintf("Customer %03d", i)}})
		require.Equal(t, http.StatusSeeOther, resp.Code)
	}
	f.post(t, "/customers/add", url.Values{"name": {"Latest"}, "phone": {"9000"}, "address": {"Mylapore"}})

	rec = f.get(t, "/api/customers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body, RecentCustomersLimit)
	assert.Equal(t, map[string]any{
		"id":      float64(RecentCustomersLimit + 6),
		"name":    "Latest",
		"phone":   "9000",
		"email":   nil,
		"address": "Mylapore",
	}, body[0])
	assert.Equal(t, "Customer 104", body[1]["name"])
}

func TestHandlerPagesRender(t *testing.T) {
	f := newHandlerFixture(t)
	f.post(t, "/customers/add", url.Values{"name": {"Asha"}})
	f.post(t, "/orders/add", url.Values{"customer_id": {"1"}, "saree_name": {"Mysore Silk"}, "amount": {"12,500"}})
	f.post(t, "/orders/add", url.Values{"customer_id": {"8"}, "saree_name": {"Gadwal"}})
	f.sess.PopFlashes()

	rec := f.get(t, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "12,500.00")

	rec = f.get(t, "/orders")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Asha")
	assert.Contains(t, body, "#8")
	assert.Contains(t, body, f.sess.Get(shared.CSRFSessionKey))

	for _, path := range []string{"/customers", "/payments", "/followups", "/reports"} {
		rec := f.get(t, path)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}
}
