package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap/zapcore"
)

// DefaultPort is the MySQL port used when the config omits one.
const DefaultPort = 3306

// PathEnv overrides the default config file location.
const PathEnv = "BD_EXEMPLOS_CONFIG"

// DefaultPath is the config file looked up when neither a flag nor PathEnv is set.
const DefaultPath = "config.toml"

var (
	// ErrNotFound is returned when the config file does not exist.
	ErrNotFound = errors.New("config file not found")
	// ErrMissingSection is returned when the file has no [mysql] table.
	ErrMissingSection = errors.New("missing [mysql] section in config")
)

// FieldError reports a missing, invalid or unknown key.
type FieldError struct {
	Key    string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("config: %q: %s", e.Key, e.Reason)
}

// ParseError wraps a TOML syntax or type error. Error reports only the
// position and key: the decoder's own message quotes the offending token,
// which may be the password.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	var pe toml.ParseError
	if errors.As(e.Err, &pe) {
		if pe.LastKey != "" {
			return fmt.Sprintf("config: parse %s: invalid TOML at line %d (last key %q)", e.Path, pe.Position.Line, pe.LastKey)
		}
		return fmt.Sprintf("config: parse %s: invalid TOML at line %d", e.Path, pe.Position.Line)
	}
	return fmt.Sprintf("config: parse %s: invalid TOML", e.Path)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MySQL holds the connection settings for the target server.
type MySQL struct {
	Host     string
	Port     int
	User     string
	Password string // may be empty for local servers
	Database string
}

// String returns a user@host:port/database form that never includes the password.
func (c MySQL) String() string {
	return fmt.Sprintf("%s@%s:%d/%s", c.User, c.Host, c.Port, c.Database)
}

// Addr returns the host:port network address.
func (c MySQL) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MarshalLogObject implements zapcore.ObjectMarshaler. The password is reduced
// to a boolean.
func (c MySQL) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("host", c.Host)
	enc.AddInt("port", c.Port)
	enc.AddString("user", c.User)
	enc.AddString("database", c.Database)
	enc.AddBool("password_set", c.Password != "")
	return nil
}

// file mirrors the TOML layout. Values are decoded untyped so that type
// errors can be reported against the key that caused them.
type file struct {
	MySQL *struct {
		Host     any `toml:"host"`
		Port     any `toml:"port"`
		User     any `toml:"user"`
		Password any `toml:"password"`
		Database any `toml:"database"`
	} `toml:"mysql"`
}

// Path resolves the config file location: the explicit value if set, then
// the PathEnv environment variable, then DefaultPath.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	return envOr(PathEnv, DefaultPath)
}

// Load reads and validates the [mysql] section of a TOML config file.
func Load(path string) (MySQL, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return MySQL{}, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return MySQL{}, fmt.Errorf("read config: %w", err)
	}
	return Parse(path, string(data))
}

// Parse validates TOML content. path is only used in error messages.
func Parse(path, content string) (MySQL, error) {
	var f file
	md, err := toml.Decode(content, &f)
	if err != nil {
		return MySQL{}, &ParseError{Path: path, Err: err}
	}
	if f.MySQL == nil {
		return MySQL{}, ErrMissingSection
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return MySQL{}, &FieldError{Key: undecoded[0].String(), Reason: "unknown key"}
	}

	raw := f.MySQL
	var cfg MySQL
	if cfg.Host, err = requireString("host", raw.Host); err != nil {
		return MySQL{}, err
	}
	if cfg.Port, err = optionalPort("port", raw.Port); err != nil {
		return MySQL{}, err
	}
	if cfg.User, err = requireString("user", raw.User); err != nil {
		return MySQL{}, err
	}
	if cfg.Password, err = optionalString("password", raw.Password); err != nil {
		return MySQL{}, err
	}
	if cfg.Database, err = requireString("database", raw.Database); err != nil {
		return MySQL{}, err
	}
	return cfg, nil
}

func requireString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", &FieldError{Key: key, Reason: "invalid or missing (expected non-empty string)"}
	}
	return strings.TrimSpace(s), nil
}

func optionalString(key string, v any) (string, error) {
	if v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &FieldError{Key: key, Reason: "invalid (expected string or missing)"}
	}
	return s, nil
}

func optionalPort(key string, v any) (int, error) {
	if v == nil {
		return DefaultPort, nil
	}
	n, ok := v.(int64)
	if !ok || n <= 0 || n > 65535 {
		return 0, &FieldError{Key: key, Reason: "invalid (expected positive int)"}
	}
	return int(n), nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
