package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/johnwards/bdexemplos/internal/config"
)

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Open opens a SQLite database at the given DSN and configures it for
// production use: WAL mode, foreign keys enabled, busy timeout of 5s.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection for SQLite to avoid locking issues.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("exec %q: %w", p, err)
		}
	}

	return db, nil
}

// MySQLDSN builds the driver DSN for cfg. No database is selected; callers
// issue USE once the database is known to exist.
func MySQLDSN(cfg config.MySQL) (string, error) {
	if cfg.Host == "" {
		return "", errors.New("host must be non-empty")
	}
	if cfg.Port <= 0 {
		return "", errors.New("port must be > 0")
	}

	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = cfg.Addr()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	return mc.FormatDSN(), nil
}

// OpenMySQL connects to the server described by cfg and verifies the
// connection with a ping, so bad credentials or an unreachable host fail
// here rather than on the first statement. Errors never include the
// password.
func OpenMySQL(ctx context.Context, cfg config.MySQL) (*sql.DB, error) {
	dsn, err := MySQLDSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql %s: %w", cfg.Addr(), err)
	}

	// Seeding is serial; one connection keeps USE and the transaction on
	// the same session.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect mysql %s as %s: %w", cfg.Addr(), cfg.User, err)
	}
	return db, nil
}

// ExecAll runs stmts in order and stops at the first failure.
func ExecAll(ctx context.Context, e Execer, stmts []string) error {
	for i, stmt := range stmts {
		if _, err := e.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("statement %d of %d: %w", i+1, len(stmts), err)
		}
	}
	return nil
}
