package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
)

// New opens the store for the given driver and verifies the connection.
func New(ctx context.Context, driver, dsn string) (*sql.DB, Dialect, error) {
	dialect, err := ParseDialect(driver)
	if err != nil {
		return nil, "", err
	}

	source := dsn
	if dialect == SQLite {
		source = sqliteDSN(dsn)
	}

	conn, err := sql.Open(string(dialect), source)
	if err != nil {
		return nil, "", fmt.Errorf("platform/db: open: %w", err)
	}

	if dialect == SQLite {
		// SQLite allows a single writer; one connection keeps writes serialized.
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, "", fmt.Errorf("platform/db: ping: %w", err)
	}

	return conn, dialect, nil
}

func sqliteDSN(path string) string {
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}
