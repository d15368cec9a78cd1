package conformance_test

import (
	"bytes"
	"errors"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/johnwards/bdexemplos/internal/database"
)

// result is the outcome of one invocation of the seed binary.
type result struct {
	code   int
	stdout string
	stderr string
}

// runSeed runs the binary with args and extra environment entries. The
// working directory is a fresh temp dir so no stray config.toml is picked up.
func runSeed(t *testing.T, env []string, args ...string) result {
	t.Helper()

	cmd := exec.Command(binPath, args...)
	cmd.Dir = t.TempDir()
	cmd.Env = append(os.Environ(), env...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := result{stdout: stdout.String(), stderr: stderr.String()}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.code = exitErr.ExitCode()
	default:
		t.Fatalf("run %v: %v", args, err)
	}
	return res
}

// mustExit asserts the exit code of res.
func mustExit(t *testing.T, res result, expected int) {
	t.Helper()
	if res.code != expected {
		t.Fatalf("expected exit code %d, got %d\nstdout:\n%s\nstderr:\n%s", expected, res.code, res.stdout, res.stderr)
	}
}

// writeConfig writes a config.toml with the given content and returns its path.
func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// sqlitePath returns a fresh database file path.
func sqlitePath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name+".db")
}

// queryInt runs a single-value query against a SQLite file.
func queryInt(t *testing.T, path, query string) int {
	t.Helper()

	db, err := database.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer func() { _ = db.Close() }()

	var n int
	if err := db.QueryRow(query).Scan(&n); err != nil {
		t.Fatalf("%s: %v", query, err)
	}
	return n
}

// closedPort returns a local TCP port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	tcpAddr, ok := l.Addr().(*net.TCPAddr)
	_ = l.Close()
	if !ok {
		t.Fatalf("expected *net.TCPAddr, got %T", l.Addr())
	}
	return tcpAddr.Port
}

// mustContain asserts that s contains every one of subs.
func mustContain(t *testing.T, s string, subs ...string) {
	t.Helper()
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			t.Errorf("expected output to contain %q, got:\n%s", sub, s)
		}
	}
}
