package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/saree-crm/saree-crm/internal/platform/db"
)

// TxRepository exposes transactional operations.
type TxRepository interface {
	CreateCustomer(ctx context.Context, customer Customer) (int64, error)
	CreateOrder(ctx context.Context, order Order) (int64, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	UpdateOrder(ctx context.Context, order Order) error
	CreatePayment(ctx context.Context, payment Payment) (int64, error)
	CreateFollowUp(ctx context.Context, followUp FollowUp) (int64, error)
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Repository provides database/sql backed persistence for sales records.
type Repository struct {
	conn *sql.DB
	q    queries
}

// NewRepository constructs a repository over an open store handle.
func NewRepository(conn *sql.DB, dialect db.Dialect) *Repository {
	return &Repository{conn: conn, q: queries{db: conn, dialect: dialect}}
}

type txRepo struct {
	q queries
}

// WithTx runs fn in one transaction. Any error from fn rolls back every write it made.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.conn, func(tx *sql.Tx) error {
		return fn(ctx, &txRepo{q: queries{db: tx, dialect: r.q.dialect}})
	})
}

// ============================================================================
// READS
// ============================================================================

func (r *Repository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	row := r.q.queryRow(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id)
	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns customers newest first. A limit of 0 returns all.
func (r *Repository) ListCustomers(ctx context.Context, limit int) ([]Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (r *Repository) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return r.q.getOrder(ctx, id)
}

// ListOrders returns orders newest first. A limit of 0 returns all.
func (r *Repository) ListOrders(ctx context.Context, limit int) ([]Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// ListPayments returns payments, most recently received first.
func (r *Repository) ListPayments(ctx context.Context) ([]Payment, error) {
	rows, err := r.q.query(ctx, `SELECT `+paymentColumns+` FROM payments ORDER BY received_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// ListFollowUps returns follow-ups, earliest follow date first.
func (r *Repository) ListFollowUps(ctx context.Context) ([]FollowUp, error) {
	return r.q.listFollowUps(ctx, `SELECT `+followUpColumns+` FROM followups ORDER BY follow_date ASC, id ASC`)
}

// ListDueFollowUps returns open follow-ups dated at or before the cutoff.
func (r *Repository) ListDueFollowUps(ctx context.Context, before time.Time) ([]FollowUp, error) {
	return r.q.listFollowUps(ctx, `SELECT `+followUpColumns+` FROM followups
		WHERE COALESCE(done, FALSE) = FALSE AND follow_date <= ?
		ORDER BY follow_date ASC, id ASC`, before.UTC())
}

func (r *Repository) CountCustomers(ctx context.Context) (int64, error) {
	return r.q.count(ctx, `SELECT COUNT(*) FROM customers`)
}

func (r *Repository) CountOrders(ctx context.Context) (int64, error) {
	return r.q.count(ctx, `SELECT COUNT(*) FROM orders`)
}

// SumDue totals order amounts whose payment status is not exactly "Paid".
// The comparison is case-sensitive.
func (r *Repository) SumDue(ctx context.Context) (float64, error) {
	return r.q.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM orders
		WHERE COALESCE(payment_status, 'Pending') <> 'Paid'`)
}

// SumPaid totals every recorded payment.
func (r *Repository) SumPaid(ctx context.Context) (float64, error) {
	return r.q.sum(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments`)
}

// ============================================================================
// TRANSACTIONAL WRITES
// ============================================================================

func (t *txRepo) CreateCustomer(ctx context.Context, c Customer) (int64, error) {
	return t.q.insert(ctx, `INSERT INTO customers (name, phone, email, address, created_at)
		VALUES (?, ?, ?, ?, ?) RETURNING id`,
		c.Name, c.Phone, c.Email, c.Address, c.CreatedAt.UTC())
}

func (t *txRepo) CreateOrder(ctx context.Context, o Order) (int64, error) {
	return t.q.insert(ctx, `INSERT INTO orders (customer_id, saree_name, amount, order_status, delivery_status,
		payment_status, payment_mode, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`,
		o.CustomerID, o.SareeName, o.Amount, o.OrderStatus, o.DeliveryStatus,
		o.PaymentStatus, o.PaymentMode, o.Notes, o.CreatedAt.UTC(), o.UpdatedAt.UTC())
}

func (t *txRepo) GetOrder(ctx context.Context, id int64) (*Order, error) {
	return t.q.getOrder(ctx, id)
}

func (t *txRepo) UpdateOrder(ctx context.Context, o Order) error {
	res, err := t.q.exec(ctx, `UPDATE orders SET customer_id = ?, saree_name = ?, amount = ?, order_status = ?,
		delivery_status = ?, payment_status = ?, payment_mode = ?, notes = ?, updated_at = ?
		WHERE id = ?`,
		o.CustomerID, o.SareeName, o.Amount, o.OrderStatus,
		o.DeliveryStatus, o.PaymentStatus, o.PaymentMode, o.Notes, o.UpdatedAt.UTC(),
		o.ID)
	if err != nil {
		return fmt.Errorf("update order %d: %w", o.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (t *txRepo) CreatePayment(ctx context.Context, p Payment) (int64, error) {
	return t.q.insert(ctx, `INSERT INTO payments (order_id, customer_id, amount, mode, received_at, notes)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		p.OrderID, p.CustomerID, p.Amount, p.Mode, p.ReceivedAt.UTC(), p.Notes)
}

func (t *txRepo) CreateFollowUp(ctx context.Context, f FollowUp) (int64, error) {
	return t.q.insert(ctx, `INSERT INTO followups (customer_id, order_id, follow_date, done, notes, created_at)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`,
		f.CustomerID, f.OrderID, f.FollowDate.UTC(), f.Done, f.Notes, f.CreatedAt.UTC())
}

// ============================================================================
// QUERY HELPERS
// ============================================================================

type queries struct {
	db      dbtx
	dialect db.Dialect
}

func (q queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.db.ExecContext(ctx, q.dialect.Rebind(query), args...)
}

func (q queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.db.QueryContext(ctx, q.dialect.Rebind(query), args...)
}

func (q queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.db.QueryRowContext(ctx, q.dialect.Rebind(query), args...)
}

func (q queries) insert(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	if err := q.queryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (q queries) count(ctx context.Context, query string) (int64, error) {
	var n int64
	if err := q.queryRow(ctx, query).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (q queries) sum(ctx context.Context, query string) (float64, error) {
	var total sql.NullFloat64
	if err := q.queryRow(ctx, query).Scan(&total); err != nil {
		return 0, err
	}
	return total.Float64, nil
}

func (q queries) getOrder(ctx context.Context, id int64) (*Order, error) {
	o, err := scanOrder(q.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &o, nil
}

func (q queries) listFollowUps(ctx context.Context, query string, args ...any) ([]FollowUp, error) {
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var followUps []FollowUp
	for rows.Next() {
		f, err := scanFollowUp(rows)
		if err != nil {
			return nil, err
		}
		followUps = append(followUps, f)
	}
	return followUps, rows.Err()
}

// ============================================================================
// ROW MAPPING
// ============================================================================

// Columns added by the reconciler read NULL for older rows, so every column
// is scanned nullable and mapped to its declared default.

const (
	customerColumns = `id, name, phone, email, address, created_at`
	orderColumns    = `id, customer_id, saree_name, amount, order_status, delivery_status,
		payment_status, payment_mode, notes, created_at, updated_at`
	paymentColumns  = `id, order_id, customer_id, amount, mode, received_at, notes`
	followUpColumns = `id, customer_id, order_id, follow_date, done, notes, created_at`
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCustomer(row rowScanner) (Customer, error) {
	var (
		c                     Customer
		name                  sql.NullString
		phone, email, address sql.NullString
		createdAt             sql.NullTime
	)
	if err := row.Scan(&c.ID, &name, &phone, &email, &address, &createdAt); err != nil {
		return Customer{}, err
	}
	c.Name = name.String
	c.Phone = stringPtr(phone)
	c.Email = stringPtr(email)
	c.Address = stringPtr(address)
	c.CreatedAt = timeValue(createdAt)
	return c, nil
}

func scanOrder(row rowScanner) (Order, error) {
	var (
		o                                          Order
		customerID                                 sql.NullInt64
		sareeName                                  sql.NullString
		amount                                     sql.NullFloat64
		orderStatus, deliveryStatus, paymentStatus sql.NullString
		paymentMode, notes                         sql.NullString
		createdAt, updatedAt                       sql.NullTime
	)
	if err := row.Scan(&o.ID, &customerID, &sareeName, &amount, &orderStatus, &deliveryStatus,
		&paymentStatus, &paymentMode, &notes, &createdAt, &updatedAt); err != nil {
		return Order{}, err
	}
	o.CustomerID = customerID.Int64
	o.SareeName = sareeName.String
	o.Amount = amount.Float64
	o.OrderStatus = stringOr(orderStatus, DefaultOrderStatus)
	o.DeliveryStatus = stringOr(deliveryStatus, DefaultDeliveryStatus)
	o.PaymentStatus = stringOr(paymentStatus, DefaultPaymentStatus)
	o.PaymentMode = stringPtr(paymentMode)
	o.Notes = stringPtr(notes)
	o.CreatedAt = timeValue(createdAt)
	o.UpdatedAt = timeValue(updatedAt)
	return o, nil
}

func scanPayment(row rowScanner) (Payment, error) {
	var (
		p          Payment
		orderID    sql.NullInt64
		customerID sql.NullInt64
		amount     sql.NullFloat64
		mode       sql.NullString
		receivedAt sql.NullTime
		notes      sql.NullString
	)
	if err := row.Scan(&p.ID, &orderID, &customerID, &amount, &mode, &receivedAt, &notes); err != nil {
		return Payment{}, err
	}
	p.OrderID = int64Ptr(orderID)
	p.CustomerID = customerID.Int64
	p.Amount = amount.Float64
	p.Mode = mode.String
	p.ReceivedAt = timeValue(receivedAt)
	p.Notes = stringPtr(notes)
	return p, nil
}

func scanFollowUp(row rowScanner) (FollowUp, error) {
	var (
		f          FollowUp
		customerID sql.NullInt64
		orderID    sql.NullInt64
		followDate sql.NullTime
		done       sql.NullBool
		notes      sql.NullString
		createdAt  sql.NullTime
	)
	if err := row.Scan(&f.ID, &customerID, &orderID, &followDate, &done, &notes, &createdAt); err != nil {
		return FollowUp{}, err
	}
	f.CustomerID = customerID.Int64
	f.OrderID = int64Ptr(orderID)
	f.FollowDate = timeValue(followDate)
	f.Done = done.Bool
	f.Notes = stringPtr(notes)
	f.CreatedAt = timeValue(createdAt)
	return f, nil
}

func stringOr(ns sql.NullString, def string) string {
	if !ns.Valid {
		return def
	}
	return ns.String
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	v := ni.Int64
	return &v
}

func timeValue(nt sql.NullTime) time.Time {
	if !nt.Valid {
		return time.Time{}
	}
	return nt.Time.UTC()
}
