// Package admin provides administrative operations for the sink.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/cpdsstox/internal/core"
)

// ResetTimeout is the maximum duration for sink reset operations.
const ResetTimeout = 30 * time.Second

// ResetOrder returns every table in deletion order: children before parents,
// satellites before the table that feeds them.
func ResetOrder() []string {
	satellites := make(map[string][]string)
	for _, def := range core.All() {
		if def.Info.Parent != "" {
			satellites[def.Info.Parent] = append(satellites[def.Info.Parent], def.Info.Key)
		}
	}

	order := make([]string, 0, len(core.LoadOrder)+len(satellites))
	for i := len(core.LoadOrder) - 1; i >= 0; i-- {
		table := core.LoadOrder[i]
		order = append(order, satellites[table]...)
		order = append(order, table)
	}
	return order
}

// ResetAll deletes every row of every table in one transaction so that a
// full load can be re-run against the same sink. This is destructive.
func ResetAll(ctx context.Context, sink core.Sink) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, ResetTimeout)
	defer cancel()

	tx, err := sink.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}

	tables := ResetOrder()
	if err := runResets(ctx, tx, tables); err != nil {
		_ = tx.Rollback(context.WithoutCancel(ctx))
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return tables, nil
}

func runResets(ctx context.Context, tx core.Tx, tables []string) error {
	for _, table := range tables {
		if err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("reset %s: %w", table, err)
		}
	}
	return nil
}
