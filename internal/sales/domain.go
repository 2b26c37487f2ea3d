package sales

import (
	"strings"
	"time"
)

// Declared defaults for order state columns.
const (
	DefaultOrderStatus    = "New"
	DefaultDeliveryStatus = "Pending"
	DefaultPaymentStatus  = "Pending"
	// PaymentStatusPaid is the status written by payment reconciliation and
	// excluded from the due balance.
	PaymentStatusPaid = "Paid"
)

// RecentCustomersLimit bounds the customers JSON endpoint.
const RecentCustomersLimit = 100

// ============================================================================
// CUSTOMER
// ============================================================================

type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone"`
	Email     *string   `json:"email"`
	Address   *string   `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateCustomerRequest carries the raw customer form.
type CreateCustomerRequest struct {
	Name    string `form:"name" validate:"required,max=200"`
	Phone   string `form:"phone" validate:"max=40"`
	Email   string `form:"email" validate:"omitempty,max=200"`
	Address string `form:"address"`
}

// CustomerSummary is the public JSON shape of a customer.
type CustomerSummary struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	Phone   *string `json:"phone"`
	Email   *string `json:"email"`
	Address *string `json:"address"`
}

// Summary projects the customer onto its public JSON shape.
func (c Customer) Summary() CustomerSummary {
	return CustomerSummary{ID: c.ID, Name: c.Name, Phone: c.Phone, Email: c.Email, Address: c.Address}
}

// ============================================================================
// ORDER
// ============================================================================

type Order struct {
	ID             int64     `json:"id"`
	CustomerID     int64     `json:"customer_id"`
	SareeName      string    `json:"saree_name"`
	Amount         float64   `json:"amount"`
	OrderStatus    string    `json:"order_status"`
	DeliveryStatus string    `json:"delivery_status"`
	PaymentStatus  string    `json:"payment_status"`
	PaymentMode    *string   `json:"payment_mode,omitempty"`
	Notes          *string   `json:"notes,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// OrderPatch is a validated set of order fields. It names every field an
// order create or edit may set.
type OrderPatch struct {
	CustomerID     int64
	SareeName      string
	Amount         float64
	OrderStatus    string
	DeliveryStatus string
	PaymentStatus  string
	PaymentMode    *string
	Notes          *string
}

// NewOrder builds an unsaved order from a validated patch.
func NewOrder(p OrderPatch, now time.Time) Order {
	o := Order{CreatedAt: now}
	o.Apply(p, now)
	return o
}

// Apply overwrites the settable fields with the patch and refreshes UpdatedAt.
func (o *Order) Apply(p OrderPatch, now time.Time) {
	o.CustomerID = p.CustomerID
	o.SareeName = p.SareeName
	o.Amount = p.Amount
	o.OrderStatus = p.OrderStatus
	o.DeliveryStatus = p.DeliveryStatus
	o.PaymentStatus = p.PaymentStatus
	o.PaymentMode = p.PaymentMode
	o.Notes = p.Notes
	o.UpdatedAt = now
}

// MarkPaid records that a payment settled the order.
func (o *Order) MarkPaid(mode string, now time.Time) {
	o.PaymentStatus = PaymentStatusPaid
	o.PaymentMode = &mode
	o.UpdatedAt = now
}

// IsPaid reports whether the status reads as paid in any casing.
func (o Order) IsPaid() bool {
	return strings.EqualFold(o.PaymentStatus, PaymentStatusPaid)
}

// ============================================================================
// PAYMENT
// ============================================================================

type Payment struct {
	ID         int64     `json:"id"`
	OrderID    *int64    `json:"order_id,omitempty"`
	CustomerID int64     `json:"customer_id"`
	Amount     float64   `json:"amount"`
	Mode       string    `json:"mode"`
	ReceivedAt time.Time `json:"received_at"`
	Notes      *string   `json:"notes,omitempty"`
}

// PaymentInput is a validated payment submission.
type PaymentInput struct {
	OrderID    *int64
	CustomerID int64
	Amount     float64
	Mode       string
	Notes      *string
}

// ============================================================================
// FOLLOW-UP
// ============================================================================

type FollowUp struct {
	ID         int64     `json:"id"`
	CustomerID int64     `json:"customer_id"`
	OrderID    *int64    `json:"order_id,omitempty"`
	FollowDate time.Time `json:"follow_date"`
	Done       bool      `json:"done"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// FollowUpInput is a validated follow-up submission.
type FollowUpInput struct {
	CustomerID int64
	OrderID    *int64
	FollowDate time.Time
	Notes      *string
}

// ============================================================================
// AGGREGATES
// ============================================================================

// Dashboard holds the landing page figures.
type Dashboard struct {
	CustomerCount int64
	OrderCount    int64
	DueAmount     float64
	RecentOrders  []Order
}

// Summary holds the report page totals.
type Summary struct {
	TotalCustomers int64
	TotalOrders    int64
	TotalPaid      float64
	TotalDue       float64
}
