package orm

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
)

// Driver names accepted by Open.
const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
	DriverPgx    = "pgx"
)

const pingTimeout = 5 * time.Second

// ConnConfig describes how to reach a database.
// User and Password override any credentials embedded in URL. SQLite has no
// authentication, so both are ignored for DriverSQLite.
type ConnConfig struct {
	Driver   string `toml:"driver"`
	URL      string `toml:"url"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// Open opens a database described by cfg, pings it and wraps it with the
// matching Dialect. SQLite connections enforce foreign keys. An in-memory
// SQLite database is pinned to a single connection so that every query
// sees the same schema.
func Open(ctx context.Context, cfg ConnConfig) (*DB, error) {
	d, err := DialectFor(cfg.Driver)
	if err != nil {
		return nil, err
	}

	raw, err := openRaw(cfg)
	if err != nil {
		return nil, fmt.Errorf("orm: open %s: %w", cfg.Driver, err)
	}
	if cfg.Driver == DriverSQLite && IsMemoryURL(cfg.URL) {
		raw.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := raw.PingContext(pingCtx); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("orm: ping %s: %w", cfg.Driver, err)
	}

	return New(raw, d), nil
}

func openRaw(cfg ConnConfig) (*sql.DB, error) {
	switch cfg.Driver {
	case DriverMySQL:
		mc, err := mysql.ParseDSN(cfg.URL)
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by Open
		}
		if cfg.User != "" {
			mc.User = cfg.User
		}
		if cfg.Password != "" {
			mc.Passwd = cfg.Password
		}
		mc.ParseTime = true
		connector, err := mysql.NewConnector(mc)
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by Open
		}
		return sql.OpenDB(connector), nil
	case DriverPgx:
		pc, err := pgx.ParseConfig(cfg.URL)
		if err != nil {
			return nil, err //nolint:wrapcheck // wrapped by Open
		}
		if cfg.User != "" {
			pc.User = cfg.User
		}
		if cfg.Password != "" {
			pc.Password = cfg.Password
		}
		return stdlib.OpenDB(*pc), nil
	default:
		return sql.Open(DriverSQLite, sqliteDSN(cfg.URL)) //nolint:wrapcheck // wrapped by Open
	}
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off per
// connection unless the DSN asks for it. An explicit setting in url wins.
func sqliteDSN(url string) string {
	if strings.Contains(url, "_foreign_keys=") || strings.Contains(url, "_fk=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_foreign_keys=on"
}

// IsMemoryURL reports whether a SQLite URL names an in-memory database.
func IsMemoryURL(url string) bool {
	return url == ":memory:" || strings.Contains(url, "mode=memory")
}

// MemoryURL returns a shared-cache in-memory SQLite URL. Each distinct name
// is a separate database that lives as long as one connection to it is open.
func MemoryURL(name string) string {
	return "file:" + name + "?mode=memory&cache=shared"
}
