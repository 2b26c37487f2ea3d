package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"
)

// Store is the persistence surface the service needs. *Repository implements it.
type Store interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	ListCustomers(ctx context.Context, limit int) ([]Customer, error)
	GetOrder(ctx context.Context, id int64) (*Order, error)
	ListOrders(ctx context.Context, limit int) ([]Order, error)
	ListPayments(ctx context.Context) ([]Payment, error)
	ListFollowUps(ctx context.Context) ([]FollowUp, error)
	ListDueFollowUps(ctx context.Context, before time.Time) ([]FollowUp, error)
	CountCustomers(ctx context.Context) (int64, error)
	CountOrders(ctx context.Context) (int64, error)
	SumDue(ctx context.Context) (float64, error)
	SumPaid(ctx context.Context) (float64, error)
}

// Service provides business logic for the sales records.
type Service struct {
	repo  Store
	now   func() time.Time
	group singleflight.Group
}

// NewService constructs a sales service.
func NewService(repo Store) *Service {
	return &Service{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the clock used for timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// ============================================================================
// CUSTOMER OPERATIONS
// ============================================================================

// CreateCustomer validates and stores a new customer.
func (s *Service) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*Customer, error) {
	customer, err := ValidateCustomerRequest(req)
	if err != nil {
		return nil, err
	}
	customer.CreatedAt = s.now()

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateCustomer(ctx, customer)
		if err != nil {
			return err
		}
		customer.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}
	return &customer, nil
}

// ListCustomers returns every customer, newest first.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.repo.ListCustomers(ctx, 0)
}

// RecentCustomers returns the public shape of the n newest customers.
func (s *Service) RecentCustomers(ctx context.Context, n int) ([]CustomerSummary, error) {
	customers, err := s.repo.ListCustomers(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("recent customers: %w", err)
	}
	return lo.Map(customers, func(c Customer, _ int) CustomerSummary {
		return c.Summary()
	}), nil
}

// CustomerNames maps every customer id to its name for list views.
func (s *Service) CustomerNames(ctx context.Context) (map[int64]string, error) {
	customers, err := s.repo.ListCustomers(ctx, 0)
	if err != nil {
		return nil, err
	}
	return nameIndex(customers), nil
}

func nameIndex(customers []Customer) map[int64]string {
	return lo.SliceToMap(customers, func(c Customer) (int64, string) {
		return c.ID, c.Name
	})
}

// ============================================================================
// ORDER OPERATIONS
// ============================================================================

// CreateOrder validates an order submission and stores it.
func (s *Service) CreateOrder(ctx context.Context, p Payload) (*Order, error) {
	patch, err := ValidateOrderPayload(p)
	if err != nil {
		return nil, err
	}
	order := NewOrder(patch, s.now())

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return &order, nil
}

// EditOrder validates a submission and applies it to an existing order.
func (s *Service) EditOrder(ctx context.Context, id int64, p Payload) (*Order, error) {
	patch, err := ValidateOrderPayload(p)
	if err != nil {
		return nil, err
	}

	var updated Order
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		order, err := tx.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		order.Apply(patch, s.now())
		if err := tx.UpdateOrder(ctx, *order); err != nil {
			return err
		}
		updated = *order
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("edit order %d: %w", id, err)
	}
	return &updated, nil
}

// ListOrders returns every order, newest first.
func (s *Service) ListOrders(ctx context.Context) ([]Order, error) {
	return s.repo.ListOrders(ctx, 0)
}

// ============================================================================
// PAYMENT OPERATIONS
// ============================================================================

// RecordPayment validates a payment and stores it. When it references an
// order, that order is marked paid in the same transaction.
func (s *Service) RecordPayment(ctx context.Context, p Payload) (*Payment, error) {
	in, err := ValidatePaymentPayload(p)
	if err != nil {
		return nil, err
	}
	now := s.now()
	payment := Payment{
		OrderID:    in.OrderID,
		CustomerID: in.CustomerID,
		Amount:     in.Amount,
		Mode:       in.Mode,
		ReceivedAt: now,
		Notes:      in.Notes,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreatePayment(ctx, payment)
		if err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		payment.ID = id
		if payment.OrderID == nil {
			return nil
		}
		return settleOrder(ctx, tx, *payment.OrderID, payment.Mode, now)
	})
	if err != nil {
		return nil, fmt.Errorf("record payment: %w", err)
	}
	return &payment, nil
}

// settleOrder marks the referenced order paid. A reference to a missing
// order is tolerated and leaves every order untouched.
func settleOrder(ctx context.Context, tx TxRepository, orderID int64, mode string, now time.Time) error {
	order, err := tx.GetOrder(ctx, orderID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load order %d: %w", orderID, err)
	}
	order.MarkPaid(mode, now)
	if err := tx.UpdateOrder(ctx, *order); err != nil {
		return fmt.Errorf("mark order %d paid: %w", orderID, err)
	}
	return nil
}

// ListPayments returns every payment, most recent first.
func (s *Service) ListPayments(ctx context.Context) ([]Payment, error) {
	return s.repo.ListPayments(ctx)
}

// ============================================================================
// FOLLOW-UP OPERATIONS
// ============================================================================

// ScheduleFollowUp validates and stores a follow-up reminder.
func (s *Service) ScheduleFollowUp(ctx context.Context, p Payload) (*FollowUp, error) {
	in, err := ValidateFollowUpPayload(p)
	if err != nil {
		return nil, err
	}
	followUp := FollowUp{
		CustomerID: in.CustomerID,
		OrderID:    in.OrderID,
		FollowDate: in.FollowDate,
		Notes:      in.Notes,
		CreatedAt:  s.now(),
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.CreateFollowUp(ctx, followUp)
		if err != nil {
			return err
		}
		followUp.ID = id
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("schedule follow-up: %w", err)
	}
	return &followUp, nil
}

// ListFollowUps returns every follow-up, earliest first.
func (s *Service) ListFollowUps(ctx context.Context) ([]FollowUp, error) {
	return s.repo.ListFollowUps(ctx)
}

// DueFollowUps returns open follow-ups dated at or before the cutoff.
func (s *Service) DueFollowUps(ctx context.Context, before time.Time) ([]FollowUp, error) {
	return s.repo.ListDueFollowUps(ctx, before)
}
