package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/johnwards/bdexemplos/internal/schema"
)

// InsertError reports a failed batch insert. First and Last are the 1-based
// positions of the rows in the failing chunk.
type InsertError struct {
	Table string
	First int
	Last  int
	Err   error
}

func (e *InsertError) Error() string {
	if e.First == e.Last {
		return fmt.Sprintf("insert into %s row %d: %v", e.Table, e.First, e.Err)
	}
	return fmt.Sprintf("insert into %s rows %d-%d: %v", e.Table, e.First, e.Last, e.Err)
}

func (e *InsertError) Unwrap() error { return e.Err }

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) ([][]T, error) {
	if size <= 0 {
		return nil, errors.New("chunk size must be > 0")
	}
	var chunks [][]T
	for i := 0; i < len(items); i += size {
		end := min(i+size, len(items))
		chunks = append(chunks, items[i:end])
	}
	return chunks, nil
}

// InsertRows inserts rows into table using one multi-row INSERT per chunk of
// at most batch rows. The chunk is shrunk further when needed to keep the
// placeholder count within the dialect limit. It returns the number of rows
// inserted.
func InsertRows(ctx context.Context, e Execer, d schema.Dialect, table string, columns []string, rows [][]any, batch int) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("insert into %s: no columns", table)
	}
	if limit := d.MaxParams() / len(columns); batch > limit {
		batch = limit
	}

	chunks, err := Chunk(rows, batch)
	if err != nil {
		return 0, err
	}

	prefix := insertPrefix(d, table, columns)
	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ") + ")"

	total := 0
	for _, chunk := range chunks {
		var b strings.Builder
		b.WriteString(prefix)
		args := make([]any, 0, len(chunk)*len(columns))
		for i, row := range chunk {
			if len(row) != len(columns) {
				return total, &InsertError{
					Table: table, First: total + i + 1, Last: total + i + 1,
					Err: fmt.Errorf("row has %d values, want %d", len(row), len(columns)),
				}
			}
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(tuple)
			args = append(args, row...)
		}

		if _, err := e.ExecContext(ctx, b.String(), args...); err != nil {
			return total, &InsertError{Table: table, First: total + 1, Last: total + len(chunk), Err: err}
		}
		total += len(chunk)
	}
	return total, nil
}

func insertPrefix(d schema.Dialect, table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.Quote(c)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES ", d.Quote(table), strings.Join(quoted, ", "))
}
