// Package sink opens the relational store a load writes into.
//
// Postgres is reached through pgx on a single connection. SQLite and MySQL
// go through database/sql with the pool pinned to one connection, so a run
// always holds exactly one session.
package sink

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/cpdsstox/internal/core"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

// Sink is a core.Sink that can also run standalone statements and be closed.
type Sink interface {
	core.Sink

	// Exec runs a statement outside any load transaction (schema scripts).
	Exec(ctx context.Context, sql string, args ...any) error
	Driver() string
	Close(ctx context.Context) error
}

// DetectDriver infers the driver from a connection URL scheme.
// Anything without a recognized scheme is treated as a SQLite path.
func DetectDriver(url string) string {
	lower := strings.ToLower(url)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return DriverPostgres
	case strings.HasPrefix(lower, "mysql://"):
		return DriverMySQL
	default:
		return DriverSQLite
	}
}

// Open connects to the sink at url. An empty driver is inferred from url.
func Open(ctx context.Context, driver, url string) (Sink, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: database URL is empty", core.ErrInvalidConfig)
	}
	if driver == "" {
		driver = DetectDriver(url)
	}

	switch strings.ToLower(driver) {
	case DriverPostgres:
		return OpenPostgres(ctx, url)
	case DriverSQLite:
		return OpenSQLite(ctx, url)
	case DriverMySQL:
		return OpenMySQL(ctx, url)
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", core.ErrInvalidConfig, driver)
	}
}
