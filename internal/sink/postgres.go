package sink

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"github.com/JonMunkholm/cpdsstox/internal/core"
)

// Postgres is a sink backed by a single pgx connection.
type Postgres struct {
	conn *pgx.Conn
}

// OpenPostgres connects and pings the server.
func OpenPostgres(ctx context.Context, url string) (*Postgres, error) {
	cfg, err := pgx.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("%w: parse postgres url: %v", core.ErrInvalidConfig, err)
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrConnection, err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("%w: ping: %v", core.ErrConnection, err)
	}

	return &Postgres{conn: conn}, nil
}

func (p *Postgres) Driver() string { return DriverPostgres }

func (p *Postgres) Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}

func (p *Postgres) Begin(ctx context.Context) (core.Tx, error) {
	tx, err := p.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

func (p *Postgres) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := p.conn.Exec(ctx, sql, args...)
	return err
}

func (p *Postgres) Close(ctx context.Context) error {
	return p.conn.Close(ctx)
}

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Exec(ctx context.Context, sql string, args ...any) error {
	_, err := t.tx.Exec(ctx, sql, args...)
	return err
}

func (t pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }
