package sink

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/JonMunkholm/cpdsstox/internal/core"
)

// SQL is a sink over database/sql, used for SQLite and MySQL.
type SQL struct {
	db     *sql.DB
	driver string
}

// OpenSQLite opens a SQLite database file (or ":memory:") with foreign key
// enforcement on. A "sqlite://" or "file:" prefix is accepted.
func OpenSQLite(ctx context.Context, url string) (*SQL, error) {
	return openSQL(ctx, DriverSQLite, sqliteDSN(url))
}

// OpenMySQL opens a MySQL database. The URL is a go-sql-driver DSN, optionally
// prefixed with "mysql://".
func OpenMySQL(ctx context.Context, url string) (*SQL, error) {
	cfg, err := mysql.ParseDSN(strings.TrimPrefix(url, "mysql://"))
	if err != nil {
		return nil, fmt.Errorf("%w: parse mysql dsn: %v", core.ErrInvalidConfig, err)
	}
	return openSQL(ctx, DriverMySQL, cfg.FormatDSN())
}

func openSQL(ctx context.Context, driver, dsn string) (*SQL, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", core.ErrInvalidConfig, driver, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %v", core.ErrConnection, driver, err)
	}

	return &SQL{db: db, driver: driver}, nil
}

// sqliteDSN turns a sink URL into a modernc DSN with foreign keys enabled on
// every connection.
func sqliteDSN(url string) string {
	dsn := strings.TrimPrefix(url, "sqlite://")
	if strings.Contains(dsn, "foreign_keys") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)"
}

func (s *SQL) Driver() string { return s.driver }

func (s *SQL) Placeholder(int) string { return "?" }

func (s *SQL) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return sqlTx{tx: tx}, nil
}

func (s *SQL) Exec(ctx context.Context, query string, args ...any) error {
	vals, err := driverValues(args)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, query, vals...)
	return err
}

// DB exposes the underlying handle for read-back queries in tests and tools.
func (s *SQL) DB() *sql.DB { return s.db }

func (s *SQL) Close(context.Context) error {
	return s.db.Close()
}

type sqlTx struct {
	tx *sql.Tx
}

func (t sqlTx) Exec(ctx context.Context, query string, args ...any) error {
	vals, err := driverValues(args)
	if err != nil {
		return err
	}
	_, err = t.tx.ExecContext(ctx, query, vals...)
	return err
}

// driverValues resolves pgtype arguments to plain driver values. Not every
// driver's value checker falls back to driver.Valuer.
func driverValues(args []any) ([]any, error) {
	out := make([]any, len(args))
	for i, a := range args {
		v, ok := a.(driver.Valuer)
		if !ok {
			out[i] = a
			continue
		}
		dv, err := v.Value()
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i+1, err)
		}
		out[i] = dv
	}
	return out, nil
}

func (t sqlTx) Commit(context.Context) error   { return t.tx.Commit() }
func (t sqlTx) Rollback(context.Context) error { return t.tx.Rollback() }
