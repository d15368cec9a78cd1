package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/johnwards/bdexemplos/internal/database"
)

type harness struct {
	app    *app
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	logs   *observer.ObservedLogs
}

func newHarness() *harness {
	core, logs := observer.New(zapcore.DebugLevel)
	h := &harness{stdout: &bytes.Buffer{}, stderr: &bytes.Buffer{}, logs: logs}
	h.app = &app{stdout: h.stdout, stderr: h.stderr, logger: zap.New(core)}
	return h
}

func (h *harness) run(args ...string) int {
	return run(context.Background(), args, h.app)
}

func TestSeedDomainIntoSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loja.db")
	h := newHarness()

	require.Equal(t, 0, h.run("--sqlite", path, "shop"), "stderr: %s", h.stderr)

	out := h.stdout.String()
	assert.Contains(t, out, "loja: ")
	assert.Contains(t, out, "fornecedores")
	assert.Contains(t, out, "detalhes_venda")

	seeded := h.logs.FilterMessage("seeded").All()
	require.Len(t, seeded, 1)
	assert.NotEmpty(t, seeded[0].ContextMap()["run_id"])

	db, err := database.Open(path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM encomendas`).Scan(&n))
	assert.Equal(t, 1000, n)
}

func TestSeedAllThenVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "all.db")

	h := newHarness()
	require.Equal(t, 0, h.run("--sqlite", path, "all"), "stderr: %s", h.stderr)
	for _, name := range []string{"loja:", "biblioteca:", "cinema:", "clinica:"} {
		assert.Contains(t, h.stdout.String(), name)
	}

	for _, name := range []string{"loja", "library", "cinema", "clinic"} {
		v := newHarness()
		assert.Equal(t, 0, v.run("--sqlite", path, "verify", name), "verify %s: %s", name, v.stderr)
		assert.NotContains(t, v.stdout.String(), "dangling")
	}
}

func TestSQLiteSkipsConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cinema.db")
	h := newHarness()

	code := h.run("--sqlite", path, "--config", filepath.Join(t.TempDir(), "missing.toml"), "cinema")
	require.Equal(t, 0, code, "stderr: %s", h.stderr)

	skipped := h.logs.FilterMessage("config skipped, seeding sqlite").All()
	require.Len(t, skipped, 1)
	assert.Contains(t, skipped[0].ContextMap()["config"], "missing.toml")
}

func TestSeedFlagHelpMentionsDate(t *testing.T) {
	cmd := newRootCmd(&app{}, domains())
	f := cmd.PersistentFlags().Lookup("seed")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "today's date")
}

func TestSeedOverrideIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	counts := make([]int, 2)
	for i := range counts {
		path := filepath.Join(dir, fmt.Sprintf("cinema%d.db", i))
		h := newHarness()
		require.Equal(t, 0, h.run("--sqlite", path, "--seed", "7", "cinema"))

		db, err := database.Open(path)
		require.NoError(t, err)
		require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM bilhetes`).Scan(&counts[i]))
		_ = db.Close()
	}
	assert.Equal(t, counts[0], counts[1])
}

func TestVerifyEmptyDatabaseFails(t *testing.T) {
	h := newHarness()
	code := h.run("--sqlite", filepath.Join(t.TempDir(), "empty.db"), "verify", "cinema")

	assert.Equal(t, 1, code)
	failed := h.logs.FilterMessage("command failed").All()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].ContextMap()["error"], "count filmes")
}

func TestMissingConfigFails(t *testing.T) {
	h := newHarness()
	code := h.run("--config", filepath.Join(t.TempDir(), "nope.toml"), "cinema")

	assert.Equal(t, 1, code)
	require.Equal(t, 1, h.logs.FilterMessage("command failed").Len())
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[mysql]\nhost = \"localhost\"\nport = \"x\"\n"), 0o600))

	h := newHarness()
	assert.Equal(t, 1, h.run("--config", path, "clinic"))
	failed := h.logs.FilterMessage("command failed").All()
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0].ContextMap()["error"], `"port"`)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown command", []string{"zoo"}},
		{"unknown verify dataset", []string{"--sqlite", "x.db", "verify", "zoo"}},
		{"verify without dataset", []string{"verify"}},
		{"extra argument", []string{"cinema", "extra"}},
		{"bad batch size", []string{"--batch-size", "0", "cinema"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			assert.Equal(t, 1, h.run(tt.args...))
		})
	}
}

func TestHelpSucceeds(t *testing.T) {
	h := newHarness()
	assert.Equal(t, 0, h.run("--help"))
	assert.Contains(t, h.stdout.String(), "verify")
	assert.Contains(t, h.stdout.String(), "--batch-size")
}
