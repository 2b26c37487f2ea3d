package sales

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saree-crm/saree-crm/internal/platform/httpx"
	"github.com/saree-crm/saree-crm/internal/shared"
	"github.com/saree-crm/saree-crm/internal/view"
)

// Handler manages the record-keeping endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
	}
}

// MountRoutes registers the page, form and API routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.dashboard)

	r.Get("/customers", h.listCustomers)
	r.Post("/customers/add", h.addCustomer)

	r.Get("/orders", h.listOrders)
	r.Post("/orders/add", h.addOrder)
	r.Post("/orders/{id}/edit", h.editOrder)

	r.Get("/payments", h.listPayments)
	r.Post("/payments/add", h.addPayment)

	r.Get("/followups", h.listFollowUps)
	r.Post("/followups/add", h.addFollowUp)

	r.Get("/reports", h.reports)

	r.Get("/api/customers", h.apiCustomers)
}

// ============================================================================
// PAGES
// ============================================================================

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("load dashboard failed", slog.Any("error", err))
		http.Error(w, "Failed to load dashboard", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/dashboard.html", "Dashboard", map[string]any{
		"CustomerCount": d.CustomerCount,
		"OrderCount":    d.OrderCount,
		"DueAmount":     d.DueAmount,
		"RecentOrders":  d.RecentOrders,
	})
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.logger.Error("list customers failed", slog.Any("error", err))
		http.Error(w, "Failed to load customers", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/customers.html", "Customers", map[string]any{
		"Customers": customers,
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		http.Error(w, "Failed to load orders", http.StatusInternalServerError)
		return
	}
	customers, names, ok := h.customerLookup(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/orders.html", "Orders", map[string]any{
		"Orders":        orders,
		"Customers":     customers,
		"CustomerNames": names,
	})
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context())
	if err != nil {
		h.logger.Error("list payments failed", slog.Any("error", err))
		http.Error(w, "Failed to load payments", http.StatusInternalServerError)
		return
	}
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		http.Error(w, "Failed to load payments", http.StatusInternalServerError)
		return
	}
	customers, names, ok := h.customerLookup(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/payments.html", "Payments", map[string]any{
		"Payments":      payments,
		"Orders":        orders,
		"Customers":     customers,
		"CustomerNames": names,
	})
}

func (h *Handler) listFollowUps(w http.ResponseWriter, r *http.Request) {
	followUps, err := h.service.ListFollowUps(r.Context())
	if err != nil {
		h.logger.Error("list follow-ups failed", slog.Any("error", err))
		http.Error(w, "Failed to load follow-ups", http.StatusInternalServerError)
		return
	}
	orders, err := h.service.ListOrders(r.Context())
	if err != nil {
		h.logger.Error("list orders failed", slog.Any("error", err))
		http.Error(w, "Failed to load follow-ups", http.StatusInternalServerError)
		return
	}
	customers, names, ok := h.customerLookup(w, r)
	if !ok {
		return
	}
	h.render(w, r, "pages/followups.html", "Follow-ups", map[string]any{
		"FollowUps":     followUps,
		"Orders":        orders,
		"Customers":     customers,
		"CustomerNames": names,
	})
}

func (h *Handler) reports(w http.ResponseWriter, r *http.Request) {
	s, err := h.service.Summary(r.Context())
	if err != nil {
		h.logger.Error("load reports failed", slog.Any("error", err))
		http.Error(w, "Failed to load reports", http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/reports.html", "Reports", map[string]any{
		"TotalCustomers": s.TotalCustomers,
		"TotalOrders":    s.TotalOrders,
		"TotalPaid":      s.TotalPaid,
		"TotalDue":       s.TotalDue,
	})
}

// ============================================================================
// FORMS
// ============================================================================

func (h *Handler) addCustomer(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateCustomer(r.Context(), CustomerRequestFromPayload(r.PostForm)); err != nil {
		h.fail(w, r, "/customers", "add customer", err)
		return
	}
	h.redirectWithFlash(w, r, "/customers", shared.FlashSuccess, "Customer added.")
}

func (h *Handler) addOrder(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if _, err := h.service.CreateOrder(r.Context(), r.PostForm); err != nil {
		h.fail(w, r, "/orders", "create order", err)
		return
	}
	h.redirectWithFlash(w, r, "/orders", shared.FlashSuccess, "Order created.")
}

func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if _, err := h.service.EditOrder(r.Context(), id, r.PostForm); err != nil {
		h.fail(w, r, "/orders", "update order", err)
		return
	}
	h.redirectWithFlash(w, r, "/orders", shared.FlashSuccess, "Order updated.")
}

func (h *Handler) addPayment(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if _, err := h.service.RecordPayment(r.Context(), r.PostForm); err != nil {
		h.fail(w, r, "/payments", "record payment", err)
		return
	}
	h.redirectWithFlash(w, r, "/payments", shared.FlashSuccess, "Payment recorded.")
}

func (h *Handler) addFollowUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	if _, err := h.service.ScheduleFollowUp(r.Context(), r.PostForm); err != nil {
		h.fail(w, r, "/followups", "schedule follow-up", err)
		return
	}
	h.redirectWithFlash(w, r, "/followups", shared.FlashSuccess, "Follow-up scheduled.")
}

// ============================================================================
// API
// ============================================================================

func (h *Handler) apiCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.RecentCustomers(r.Context(), RecentCustomersLimit)
	if err != nil {
		h.logger.Error("api customers failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, customers)
}

// ============================================================================
// HELPERS
// ============================================================================

func (h *Handler) customerLookup(w http.ResponseWriter, r *http.Request) ([]Customer, map[int64]string, bool) {
	customers, err := h.service.ListCustomers(r.Context())
	if err != nil {
		h.logger.Error("list customers failed", slog.Any("error", err))
		http.Error(w, "Failed to load customers", http.StatusInternalServerError)
		return nil, nil, false
	}
	return customers, nameIndex(customers), true
}

// fail redirects back to the list view. Validation and not-found errors are
// shown to the user; anything else is logged and reported generically.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, target, action string, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		h.logger.Debug(action+" rejected", slog.Any("error", err))
		h.redirectWithFlash(w, r, target, shared.FlashDanger, UserMessages(err)...)
	case errors.Is(err, ErrNotFound):
		h.redirectWithFlash(w, r, target, shared.FlashDanger, "Order not found.")
	default:
		h.logger.Error(action+" failed", slog.Any("error", err))
		h.redirectWithFlash(w, r, target, shared.FlashDanger, "Failed to "+action+".")
	}
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, tmpl, title string, data map[string]any) {
	sess := shared.SessionFromContext(r.Context())
	csrfToken, _ := h.csrf.EnsureToken(r.Context(), sess)

	var flashes []shared.FlashMessage
	if sess != nil {
		flashes = sess.PopFlashes()
	}

	viewData := view.TemplateData{
		Title:       title,
		CSRFToken:   csrfToken,
		Flashes:     flashes,
		CurrentPath: r.URL.Path,
		Data:        data,
	}

	if err := h.templates.Render(w, tmpl, viewData); err != nil {
		h.logger.Error("template render failed", slog.Any("error", err), slog.String("template", tmpl))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) redirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind string, messages ...string) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		for _, msg := range messages {
			sess.AddFlash(shared.FlashMessage{Kind: kind, Message: msg})
		}
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}
