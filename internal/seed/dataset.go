package seed

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"
	"strings"

	"github.com/johnwards/bdexemplos/internal/schema"
)

// Batch holds the rows destined for one table. Rows are positional and
// follow Columns.
type Batch struct {
	Table   string
	Columns []string
	Rows    [][]any
}

// Dataset is everything needed to seed one sample database: its table
// definitions and one batch per table.
type Dataset struct {
	Name    string
	Tables  []schema.Table
	Batches []Batch
}

// Domain describes a seedable sample database.
type Domain struct {
	Name    string
	Aliases []string
	Short   string
	// Seed is the default seed for Build's random source.
	Seed   uint64
	Tables func() []schema.Table
	Build  func(r *rand.Rand) (*Dataset, error)
}

// RowError identifies an invalid row. Row is 1-based.
type RowError struct {
	Table string
	Row   int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s row %d: %v", e.Table, e.Row, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// ErrUnresolvedReference is wrapped by RowError when a foreign key value has
// no matching row in the referenced batch.
var ErrUnresolvedReference = errors.New("unresolved foreign key")

// Batch returns the batch for table.
func (d *Dataset) Batch(table string) (Batch, bool) {
	for _, b := range d.Batches {
		if b.Table == table {
			return b, true
		}
	}
	return Batch{}, false
}

// Table returns the definition of table.
func (d *Dataset) Table(name string) (schema.Table, bool) {
	for _, t := range d.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return schema.Table{}, false
}

// Validate checks that every batch targets a declared table with known
// columns, that rows have one value per column and that every foreign key
// value resolves to a row of the referenced batch.
func (d *Dataset) Validate() error {
	seen := map[string]bool{}
	for _, b := range d.Batches {
		t, ok := d.Table(b.Table)
		if !ok {
			return fmt.Errorf("batch for undeclared table %s", b.Table)
		}
		if seen[b.Table] {
			return fmt.Errorf("duplicate batch for table %s", b.Table)
		}
		seen[b.Table] = true

		known := t.ColumnNames()
		for _, c := range b.Columns {
			if !slices.Contains(known, c) {
				return fmt.Errorf("batch %s: unknown column %s", b.Table, c)
			}
		}
		for i, row := range b.Rows {
			if len(row) != len(b.Columns) {
				return &RowError{Table: b.Table, Row: i + 1, Err: fmt.Errorf("%d values for %d columns", len(row), len(b.Columns))}
			}
		}
	}

	for _, t := range d.Tables {
		child, ok := d.Batch(t.Name)
		if !ok {
			continue
		}
		for _, fk := range t.ForeignKeys {
			if err := d.checkReference(child, fk); err != nil {
				return err
			}
		}
	}
	return nil
}

func (d *Dataset) checkReference(child Batch, fk schema.ForeignKey) error {
	childCols, err := columnIndexes(child, fk.Columns)
	if err != nil {
		return err
	}

	keys := map[string]bool{}
	if parent, ok := d.Batch(fk.RefTable); ok {
		parentCols, err := columnIndexes(parent, fk.RefColumns)
		if err != nil {
			return err
		}
		for _, row := range parent.Rows {
			if k, ok := rowKey(row, parentCols); ok {
				keys[k] = true
			}
		}
	}

	for i, row := range child.Rows {
		k, ok := rowKey(row, childCols)
		if !ok {
			// NULL foreign keys reference nothing.
			continue
		}
		if !keys[k] {
			return &RowError{
				Table: child.Table,
				Row:   i + 1,
				Err:   fmt.Errorf("%w: %s (%s) not found in %s", ErrUnresolvedReference, strings.Join(fk.Columns, ", "), k, fk.RefTable),
			}
		}
	}
	return nil
}

func columnIndexes(b Batch, cols []string) ([]int, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		j := slices.Index(b.Columns, c)
		if j < 0 {
			return nil, fmt.Errorf("batch %s: missing key column %s", b.Table, c)
		}
		idx[i] = j
	}
	return idx, nil
}

func rowKey(row []any, cols []int) (string, bool) {
	parts := make([]string, len(cols))
	for i, c := range cols {
		if row[c] == nil {
			return "", false
		}
		parts[i] = fmt.Sprint(row[c])
	}
	return strings.Join(parts, "\x1f"), true
}
