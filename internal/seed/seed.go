package seed

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/johnwards/bdexemplos/internal/database"
	"github.com/johnwards/bdexemplos/internal/schema"
)

// DefaultBatchSize is the number of rows per INSERT statement.
const DefaultBatchSize = 5000

// Options controls a single Run.
type Options struct {
	// Database is created (MySQL) and selected before seeding.
	Database  string
	BatchSize int
	// SkipSchema assumes database and tables already exist.
	SkipSchema bool
	// KeepExisting leaves current rows in place instead of clearing the
	// dataset's tables first.
	KeepExisting bool
}

// TableCount is the number of rows inserted into one table.
type TableCount struct {
	Table string
	Rows  int
}

// Report summarises a successful Run. Tables are listed in insertion order.
type Report struct {
	Dataset  string
	Database string
	Tables   []TableCount
}

// Total returns the number of rows inserted across all tables.
func (r *Report) Total() int {
	n := 0
	for _, t := range r.Tables {
		n += t.Rows
	}
	return n
}

// Runner seeds datasets through a single connection taken from db.
type Runner struct {
	db      *sql.DB
	dialect schema.Dialect
	logger  *zap.Logger
}

// NewRunner returns a Runner. A nil logger discards output.
func NewRunner(db *sql.DB, dialect schema.Dialect, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{db: db, dialect: dialect, logger: logger}
}

// Run validates ds, prepares the schema and inserts every batch in foreign
// key order inside one transaction: a table's rows are only inserted once
// every table it references has been filled. Any error rolls the
// transaction back and is returned unchanged.
func (r *Runner) Run(ctx context.Context, ds *Dataset, opts Options) (*Report, error) {
	if err := ds.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", ds.Name, err)
	}
	ordered, err := schema.Order(ds.Tables)
	if err != nil {
		return nil, fmt.Errorf("order %s tables: %w", ds.Name, err)
	}
	batch := opts.BatchSize
	if batch == 0 {
		batch = DefaultBatchSize
	}

	var prepare []string
	if opts.SkipSchema {
		prepare, err = schema.UseStatement(r.dialect, opts.Database)
	} else {
		prepare, err = schema.Statements(r.dialect, opts.Database, ds.Tables)
	}
	if err != nil {
		return nil, fmt.Errorf("schema for %s: %w", ds.Name, err)
	}

	log := r.logger.With(zap.String("dataset", ds.Name), zap.Stringer("dialect", r.dialect))

	conn, err := r.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := database.ExecAll(ctx, conn, prepare); err != nil {
		return nil, fmt.Errorf("prepare schema: %w", err)
	}
	log.Debug("schema ready", zap.Int("statements", len(prepare)), zap.Bool("skip_schema", opts.SkipSchema))

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}

	if !opts.KeepExisting {
		for i := len(ordered) - 1; i >= 0; i-- {
			table := ordered[i].Name
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+r.dialect.Quote(table)); err != nil {
				_ = tx.Rollback()
				return nil, fmt.Errorf("clear %s: %w", table, err)
			}
		}
	}

	report := &Report{Dataset: ds.Name, Database: opts.Database}
	for _, t := range ordered {
		b, ok := ds.Batch(t.Name)
		if !ok {
			continue
		}
		n, err := database.InsertRows(ctx, tx, r.dialect, t.Name, b.Columns, b.Rows, batch)
		if err != nil {
			_ = tx.Rollback()
			return nil, err
		}
		log.Info("inserted", zap.String("table", t.Name), zap.Int("rows", n))
		report.Tables = append(report.Tables, TableCount{Table: t.Name, Rows: n})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit %s: %w", ds.Name, err)
	}
	log.Info("seeded", zap.Int("tables", len(report.Tables)), zap.Int("rows", report.Total()))
	return report, nil
}

// Find returns the domain whose name or alias matches name.
func Find(domains []Domain, name string) (Domain, bool) {
	for _, d := range domains {
		if d.Name == name {
			return d, true
		}
		for _, a := range d.Aliases {
			if a == name {
				return d, true
			}
		}
	}
	return Domain{}, false
}
