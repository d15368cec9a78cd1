// Package schema describes the tables of the sample databases and renders
// them as DDL for MySQL or SQLite.
package schema

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownTable is returned when a foreign key references a table that
	// is not part of the set being ordered.
	ErrUnknownTable = errors.New("unknown referenced table")
	// ErrCycle is returned when foreign keys form a cycle.
	ErrCycle = errors.New("foreign key cycle")
)

// Dialect selects the SQL flavour used when rendering statements.
type Dialect int

const (
	MySQL Dialect = iota
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case MySQL:
		return "mysql"
	case SQLite:
		return "sqlite"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// Quote returns ident as a quoted identifier.
func (d Dialect) Quote(ident string) string {
	if d == MySQL {
		return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
	}
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// MaxParams is the number of bound parameters a single statement may carry.
func (d Dialect) MaxParams() int {
	if d == MySQL {
		return 65535
	}
	return 32766
}

// Column is a single column definition. Type is passed through verbatim;
// both dialects accept the MySQL type names used here.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// Index is a secondary index. Unique indexes are rendered as constraints.
type Index struct {
	Name    string
	Columns []string
	Unique  bool
}

// ForeignKey references another table. Updates always cascade; OnDelete is
// RESTRICT unless set.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
}

// Table is the definition of one table.
type Table struct {
	Name        string
	Columns     []Column
	PrimaryKey  []string
	Indexes     []Index
	ForeignKeys []ForeignKey
}

// References returns the distinct tables this table points at, in
// declaration order. Self references are omitted.
func (t Table) References() []string {
	var refs []string
	seen := map[string]bool{}
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == t.Name || seen[fk.RefTable] {
			continue
		}
		seen[fk.RefTable] = true
		refs = append(refs, fk.RefTable)
	}
	return refs
}

// ColumnNames returns the column names in declaration order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Order sorts tables so that every table comes after the tables it
// references. Among tables whose dependencies are satisfied the declaration
// order is kept, so the result is deterministic.
func Order(tables []Table) ([]Table, error) {
	index := make(map[string]int, len(tables))
	for i, t := range tables {
		index[t.Name] = i
	}

	pending := make([]int, len(tables))
	dependents := make([][]int, len(tables))
	for i, t := range tables {
		for _, ref := range t.References() {
			j, ok := index[ref]
			if !ok {
				return nil, fmt.Errorf("%w: %s references %s", ErrUnknownTable, t.Name, ref)
			}
			pending[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	ordered := make([]Table, 0, len(tables))
	done := make([]bool, len(tables))
	for len(ordered) < len(tables) {
		next := -1
		for i := range tables {
			if !done[i] && pending[i] == 0 {
				next = i
				break
			}
		}
		if next < 0 {
			var stuck []string
			for i, t := range tables {
				if !done[i] {
					stuck = append(stuck, t.Name)
				}
			}
			return nil, fmt.Errorf("%w: %s", ErrCycle, strings.Join(stuck, ", "))
		}
		done[next] = true
		ordered = append(ordered, tables[next])
		for _, d := range dependents[next] {
			pending[d]--
		}
	}
	return ordered, nil
}

// Statements returns the DDL that creates database and tables, in the order
// they must run. For MySQL the list starts with CREATE DATABASE and USE.
// Tables are emitted in foreign key order.
func Statements(d Dialect, database string, tables []Table) ([]string, error) {
	stmts, err := databaseStatements(d, database)
	if err != nil {
		return nil, err
	}
	ordered, err := Order(tables)
	if err != nil {
		return nil, err
	}
	for _, t := range ordered {
		stmts = append(stmts, t.CreateStatements(d)...)
	}
	return stmts, nil
}

// UseStatement returns the statements needed to select an existing database.
// SQLite has no equivalent and gets none.
func UseStatement(d Dialect, database string) ([]string, error) {
	if d != MySQL {
		return nil, nil
	}
	db := strings.TrimSpace(database)
	if db == "" {
		return nil, errors.New("database must be non-empty")
	}
	return []string{"USE " + d.Quote(db)}, nil
}

func databaseStatements(d Dialect, database string) ([]string, error) {
	if d != MySQL {
		return nil, nil
	}
	db := strings.TrimSpace(database)
	if db == "" {
		return nil, errors.New("database must be non-empty")
	}
	return []string{
		"CREATE DATABASE IF NOT EXISTS " + d.Quote(db) +
			" DEFAULT CHARACTER SET utf8mb4 DEFAULT COLLATE utf8mb4_0900_ai_ci",
		"USE " + d.Quote(db),
	}, nil
}

// CreateStatements renders CREATE TABLE for t. SQLite has no inline KEY
// clause, so plain indexes become separate CREATE INDEX statements.
func (t Table) CreateStatements(d Dialect) []string {
	var defs []string
	for _, c := range t.Columns {
		null := "NOT NULL"
		if c.Nullable {
			null = "NULL"
		}
		defs = append(defs, fmt.Sprintf("%s %s %s", d.Quote(c.Name), c.Type, null))
	}
	if len(t.PrimaryKey) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteList(d, t.PrimaryKey)))
	}

	var extra []string
	for _, idx := range t.Indexes {
		switch {
		case idx.Unique:
			defs = append(defs, fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", d.Quote(idx.Name), quoteList(d, idx.Columns)))
		case d == MySQL:
			defs = append(defs, fmt.Sprintf("KEY %s (%s)", d.Quote(idx.Name), quoteList(d, idx.Columns)))
		default:
			extra = append(extra, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				d.Quote(idx.Name), d.Quote(t.Name), quoteList(d, idx.Columns)))
		}
	}

	for _, fk := range t.ForeignKeys {
		onDelete := fk.OnDelete
		if onDelete == "" {
			onDelete = "RESTRICT"
		}
		defs = append(defs, fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s) ON UPDATE CASCADE ON DELETE %s",
			d.Quote(fk.Name), quoteList(d, fk.Columns), d.Quote(fk.RefTable), quoteList(d, fk.RefColumns), onDelete))
	}

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(d.Quote(t.Name))
	b.WriteString(" (\n  ")
	b.WriteString(strings.Join(defs, ",\n  "))
	b.WriteString("\n)")
	if d == MySQL {
		b.WriteString(" ENGINE=InnoDB")
	}

	return append([]string{b.String()}, extra...)
}

func quoteList(d Dialect, idents []string) string {
	quoted := make([]string, len(idents))
	for i, id := range idents {
		quoted[i] = d.Quote(id)
	}
	return strings.Join(quoted, ", ")
}
