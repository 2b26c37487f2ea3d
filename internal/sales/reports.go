package sales

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const dashboardRecentOrders = 6

// Dashboard loads the landing page figures. Concurrent callers share one load.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	v, err := s.shared(ctx, "dashboard", func(ctx context.Context) (any, error) {
		return s.loadDashboard(ctx)
	})
	if err != nil {
		return Dashboard{}, err
	}
	return v.(Dashboard), nil
}

// Summary loads the report page totals. Concurrent callers share one load.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	v, err := s.shared(ctx, "summary", func(ctx context.Context) (any, error) {
		return s.loadSummary(ctx)
	})
	if err != nil {
		return Summary{}, err
	}
	return v.(Summary), nil
}

func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	resultChan := s.group.DoChan(key, func() (any, error) {
		return fn(ctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}

func (s *Service) loadDashboard(ctx context.Context) (Dashboard, error) {
	var d Dashboard
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountCustomers(ctx)
		if err != nil {
			return fmt.Errorf("count customers: %w", err)
		}
		d.CustomerCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountOrders(ctx)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		d.OrderCount = n
		return nil
	})
	g.Go(func() error {
		due, err := s.repo.SumDue(ctx)
		if err != nil {
			return fmt.Errorf("sum due: %w", err)
		}
		d.DueAmount = due
		return nil
	})
	g.Go(func() error {
		orders, err := s.repo.ListOrders(ctx, dashboardRecentOrders)
		if err != nil {
			return fmt.Errorf("recent orders: %w", err)
		}
		d.RecentOrders = orders
		return nil
	})

	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

func (s *Service) loadSummary(ctx context.Context) (Summary, error) {
	var sum Summary
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := s.repo.CountCustomers(ctx)
		if err != nil {
			return fmt.Errorf("count customers: %w", err)
		}
		sum.TotalCustomers = n
		return nil
	})
	g.Go(func() error {
		n, err := s.repo.CountOrders(ctx)
		if err != nil {
			return fmt.Errorf("count orders: %w", err)
		}
		sum.TotalOrders = n
		return nil
	})
	g.Go(func() error {
		paid, err := s.repo.SumPaid(ctx)
		if err != nil {
			return fmt.Errorf("sum paid: %w", err)
		}
		sum.TotalPaid = paid
		return nil
	})
	g.Go(func() error {
		due, err := s.repo.SumDue(ctx)
		if err != nil {
			return fmt.Errorf("sum due: %w", err)
		}
		sum.TotalDue = due
		return nil
	})

	if err := g.Wait(); err != nil {
		return Summary{}, err
	}
	return sum, nil
}
