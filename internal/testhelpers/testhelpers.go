package testhelpers

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/johnwards/bdexemplos/internal/database"
)

// NewTestDB returns an in-memory SQLite database configured the same way as
// production. The database is automatically closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

// CountRows returns the number of rows in table.
func CountRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()

	var n int
	if err := db.QueryRow(fmt.Sprintf(`SELECT COUNT(*) FROM "%s"`, table)).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

// Call is one statement seen by a RecordingExecer.
type Call struct {
	Query string
	Args  []any
}

// RecordingExecer records every ExecContext call. When FailOn is n > 0 the
// n-th call returns Err instead of succeeding.
type RecordingExecer struct {
	Calls  []Call
	FailOn int
	Err    error
}

// ExecContext implements database.Execer.
func (r *RecordingExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.Calls = append(r.Calls, Call{Query: query, Args: args})
	if r.FailOn > 0 && len(r.Calls) == r.FailOn {
		return nil, r.Err
	}
	return driverResult(len(args)), nil
}

type driverResult int64

func (r driverResult) LastInsertId() (int64, error) { return 0, nil }
func (r driverResult) RowsAffected() (int64, error) { return int64(r), nil }

var _ database.Execer = (*RecordingExecer)(nil)
