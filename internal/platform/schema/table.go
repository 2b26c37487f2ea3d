// Package schema keeps persisted tables in step with the declared record
// shapes. Evolution is additive only: missing tables are created and missing
// columns are added, nothing is dropped, renamed or retyped.
package schema

import (
	"fmt"
	"strings"

	"github.com/saree-crm/saree-crm/internal/platform/db"
)

// Type is a logical column type rendered per dialect.
type Type int

const (
	Integer Type = iota
	String
	Text
	Float
	DateTime
	Boolean
)

// Column declares one field of a table.
type Column struct {
	Name       string
	Type       Type
	Size       int
	PrimaryKey bool
	NotNull    bool
	Indexed    bool
}

// Table is the declared shape of one entity table.
type Table struct {
	Name    string
	Columns []Column
}

// SQLType renders the column type for the dialect.
func (c Column) SQLType(d db.Dialect) string {
	switch c.Type {
	case Integer:
		return "INTEGER"
	case String:
		if c.Size > 0 {
			return fmt.Sprintf("VARCHAR(%d)", c.Size)
		}
		return "VARCHAR"
	case Text:
		return "TEXT"
	case Float:
		if d == db.Postgres {
			return "DOUBLE PRECISION"
		}
		return "FLOAT"
	case DateTime:
		if d == db.Postgres {
			return "TIMESTAMP"
		}
		return "DATETIME"
	case Boolean:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}

func (c Column) definition(d db.Dialect) string {
	if c.PrimaryKey {
		if d == db.Postgres {
			return quote(c.Name) + " BIGSERIAL PRIMARY KEY"
		}
		return quote(c.Name) + " INTEGER PRIMARY KEY"
	}
	def := quote(c.Name) + " " + c.SQLType(d)
	if c.NotNull {
		def += " NOT NULL"
	}
	return def
}

// createStatements returns the DDL creating the table and its indexes.
func (t Table) createStatements(d db.Dialect) []string {
	defs := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		defs = append(defs, c.definition(d))
	}
	stmts := []string{
		fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n\t%s\n)", quote(t.Name), strings.Join(defs, ",\n\t")),
	}
	for _, c := range t.Columns {
		if c.Indexed {
			stmts = append(stmts, indexStatement(t.Name, c.Name))
		}
	}
	return stmts
}

func indexStatement(table, column string) string {
	name := "ix_" + table + "_" + column
	return fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)", quote(name), quote(table), quote(column))
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
