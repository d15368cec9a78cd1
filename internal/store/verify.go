// Package store reads seeded data back to check what landed in the database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/johnwards/bdexemplos/internal/schema"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TableRows is the row count of one table.
type TableRows struct {
	Table string
	Rows  int
}

// Dangling counts the rows of Table whose foreign key Constraint points at a
// row that does not exist.
type Dangling struct {
	Table      string
	Constraint string
	Rows       int
}

// Summary is the result of Check.
type Summary struct {
	Tables   []TableRows
	Dangling []Dangling
}

// Rows returns the row count recorded for table, or -1 if it was not checked.
func (s *Summary) Rows(table string) int {
	for _, t := range s.Tables {
		if t.Table == table {
			return t.Rows
		}
	}
	return -1
}

// DanglingTotal returns the number of broken references across all foreign
// keys.
func (s *Summary) DanglingTotal() int {
	n := 0
	for _, d := range s.Dangling {
		n += d.Rows
	}
	return n
}

// Check counts the rows of every table and, for every foreign key, the rows
// whose non-NULL key has no parent. Tables are reported in the order given.
func Check(ctx context.Context, q Querier, d schema.Dialect, tables []schema.Table) (*Summary, error) {
	sum := &Summary{}
	for _, t := range tables {
		var n int
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+d.Quote(t.Name)).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", t.Name, err)
		}
		sum.Tables = append(sum.Tables, TableRows{Table: t.Name, Rows: n})
	}

	for _, t := range tables {
		for _, fk := range t.ForeignKeys {
			var n int
			if err := q.QueryRowContext(ctx, danglingQuery(d, t.Name, fk)).Scan(&n); err != nil {
				return nil, fmt.Errorf("check %s.%s: %w", t.Name, fk.Name, err)
			}
			sum.Dangling = append(sum.Dangling, Dangling{Table: t.Name, Constraint: fk.Name, Rows: n})
		}
	}
	return sum, nil
}

func danglingQuery(d schema.Dialect, table string, fk schema.ForeignKey) string {
	on := make([]string, len(fk.Columns))
	where := make([]string, 0, len(fk.Columns)+1)
	for i, col := range fk.Columns {
		on[i] = fmt.Sprintf("c.%s = p.%s", d.Quote(col), d.Quote(fk.RefColumns[i]))
		where = append(where, fmt.Sprintf("c.%s IS NOT NULL", d.Quote(col)))
	}
	where = append(where, fmt.Sprintf("p.%s IS NULL", d.Quote(fk.RefColumns[0])))

	return fmt.Sprintf("SELECT COUNT(*) FROM %s c LEFT JOIN %s p ON %s WHERE %s",
		d.Quote(table), d.Quote(fk.RefTable), strings.Join(on, " AND "), strings.Join(where, " AND "))
}
