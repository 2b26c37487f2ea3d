package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/saree-crm/saree-crm/internal/platform/db"
)

// Catalog is the store surface the reconciler needs.
type Catalog interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]string, error)
	CreateTable(ctx context.Context, t Table) error
	AddColumn(ctx context.Context, table string, c Column) error
}

// SQLCatalog implements Catalog on a database/sql handle.
type SQLCatalog struct {
	conn    *sql.DB
	dialect db.Dialect
}

// NewSQLCatalog constructs a catalog for the given store handle.
func NewSQLCatalog(conn *sql.DB, dialect db.Dialect) *SQLCatalog {
	return &SQLCatalog{conn: conn, dialect: dialect}
}

// Tables lists user tables.
func (c *SQLCatalog) Tables(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`
	if c.dialect == db.Postgres {
		query = `SELECT table_name FROM information_schema.tables
			WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`
	}
	return c.names(ctx, query)
}

// Columns lists the column names of a table in declaration order.
func (c *SQLCatalog) Columns(ctx context.Context, table string) ([]string, error) {
	query := `SELECT name FROM pragma_table_info(?) ORDER BY cid`
	if c.dialect == db.Postgres {
		query = `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?
			ORDER BY ordinal_position`
	}
	return c.names(ctx, query, table)
}

// CreateTable creates the table with its full declared shape and indexes.
func (c *SQLCatalog) CreateTable(ctx context.Context, t Table) error {
	return db.WithTx(ctx, c.conn, func(tx *sql.Tx) error {
		for _, stmt := range t.createStatements(c.dialect) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create table %s: %w", t.Name, err)
			}
		}
		return nil
	})
}

// AddColumn appends a nullable column. Rows that predate it read NULL.
func (c *SQLCatalog) AddColumn(ctx context.Context, table string, col Column) error {
	stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", quote(table), quote(col.Name), col.SQLType(c.dialect))
	if _, err := c.conn.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("add column %s.%s: %w", table, col.Name, err)
	}
	if col.Indexed {
		if _, err := c.conn.ExecContext(ctx, indexStatement(table, col.Name)); err != nil {
			return fmt.Errorf("index column %s.%s: %w", table, col.Name, err)
		}
	}
	return nil
}

func (c *SQLCatalog) names(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := c.conn.QueryContext(ctx, c.dialect.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// isDuplicateColumn reports whether err means another process added the column first.
func isDuplicateColumn(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42701"
	}
	return err != nil && strings.Contains(err.Error(), "duplicate column name")
}
