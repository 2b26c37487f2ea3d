package schema

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// Failure records one reconciliation step that did not succeed.
type Failure struct {
	Table  string
	Column string
	Err    error
}

func (f Failure) Error() string {
	if f.Column == "" {
		return fmt.Sprintf("schema: %s: %v", f.Table, f.Err)
	}
	return fmt.Sprintf("schema: %s.%s: %v", f.Table, f.Column, f.Err)
}

func (f Failure) Unwrap() error { return f.Err }

// Report summarises a reconciliation or plan run.
type Report struct {
	Created  []string
	Added    map[string][]string
	Failures []Failure
}

// Changed reports whether any table or column was created.
func (r Report) Changed() bool {
	return len(r.Created) > 0 || len(r.Added) > 0
}

// Err joins every recorded failure, or returns nil.
func (r Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f)
	}
	return errors.Join(errs...)
}

func (r *Report) added(table, column string) {
	if r.Added == nil {
		r.Added = make(map[string][]string)
	}
	r.Added[table] = append(r.Added[table], column)
}

// Reconciler brings persisted tables up to their declared shape.
type Reconciler struct {
	catalog Catalog
	logger  *slog.Logger
}

// NewReconciler constructs a Reconciler. A nil logger discards output.
func NewReconciler(catalog Catalog, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Reconciler{catalog: catalog, logger: logger}
}

// Plan reports what Reconcile would change without touching the store.
func (r *Reconciler) Plan(ctx context.Context, tables ...Table) (Report, error) {
	var report Report
	existing, err := r.catalog.Tables(ctx)
	if err != nil {
		return report, fmt.Errorf("schema: list tables: %w", err)
	}
	present := nameSet(existing)
	for _, t := range tables {
		if !present[strings.ToLower(t.Name)] {
			report.Created = append(report.Created, t.Name)
			continue
		}
		missing, err := r.missingColumns(ctx, t)
		if err != nil {
			return report, err
		}
		for _, c := range missing {
			report.added(t.Name, c.Name)
		}
	}
	return report, nil
}

// Reconcile creates missing tables and adds missing columns. Failures are
// logged and collected in the report; the remaining work still runs.
func (r *Reconciler) Reconcile(ctx context.Context, tables ...Table) Report {
	var report Report
	existing, err := r.catalog.Tables(ctx)
	if err != nil {
		r.logger.Error("schema inspection failed", slog.Any("error", err))
		report.Failures = append(report.Failures, Failure{Table: "*", Err: err})
		return report
	}
	present := nameSet(existing)

	for _, t := range tables {
		if !present[strings.ToLower(t.Name)] {
			if err := r.catalog.CreateTable(ctx, t); err != nil {
				r.logger.Error("schema create table failed", slog.String("table", t.Name), slog.Any("error", err))
				report.Failures = append(report.Failures, Failure{Table: t.Name, Err: err})
				continue
			}
			r.logger.Info("created table", slog.String("table", t.Name))
			report.Created = append(report.Created, t.Name)
			continue
		}

		missing, err := r.missingColumns(ctx, t)
		if err != nil {
			r.logger.Error("schema inspection failed", slog.String("table", t.Name), slog.Any("error", err))
			report.Failures = append(report.Failures, Failure{Table: t.Name, Err: err})
			continue
		}
		for _, c := range missing {
			if err := r.catalog.AddColumn(ctx, t.Name, c); err != nil {
				if isDuplicateColumn(err) {
					continue
				}
				r.logger.Error("error adding column", slog.String("table", t.Name), slog.String("column", c.Name), slog.Any("error", err))
				report.Failures = append(report.Failures, Failure{Table: t.Name, Column: c.Name, Err: err})
				continue
			}
			r.logger.Info("added column", slog.String("table", t.Name), slog.String("column", c.Name))
			report.added(t.Name, c.Name)
		}
	}
	return report
}

func (r *Reconciler) missingColumns(ctx context.Context, t Table) ([]Column, error) {
	cols, err := r.catalog.Columns(ctx, t.Name)
	if err != nil {
		return nil, fmt.Errorf("schema: list columns of %s: %w", t.Name, err)
	}
	have := nameSet(cols)
	var missing []Column
	for _, c := range t.Columns {
		if !have[strings.ToLower(c.Name)] {
			missing = append(missing, c)
		}
	}
	return missing, nil
}

func nameSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[strings.ToLower(n)] = true
	}
	return set
}
