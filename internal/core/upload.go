package core

import (
	"context"
	"fmt"
	"strings"
)

// ContextCheckInterval is how often (in rows) to check for context cancellation.
var ContextCheckInterval = 100

// importResult counts what one record set contributed.
type importResult struct {
	Rows    int
	Derived int
}

// InsertSQL builds the parameterized insert statement for a table.
func InsertSQL(table string, columns []string, placeholder func(int) string) string {
	marks := make([]string, len(columns))
	for i := range columns {
		marks[i] = placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(marks, ", "))
}

// importRecordSet loads one record set in a single transaction: project,
// prepare, normalize nulls, then insert the rows and any derived satellite
// rows. Any failure rolls the whole record set back.
func importRecordSet(ctx context.Context, sink Sink, def TableDefinition, rs *RecordSet, lookup LookupFunc) (importResult, error) {
	var result importResult

	projected, err := Project(rs, def.Columns)
	if err != nil {
		return result, err
	}

	prepared, derived := projected, []Derived(nil)
	if def.Prepare != nil {
		prepared, derived, err = def.Prepare(projected)
		if err != nil {
			return result, fmt.Errorf("prepare: %w", err)
		}
	}

	type batch struct {
		def  TableDefinition
		rows *RecordSet
	}
	satellites := make([]batch, 0, len(derived))
	for _, d := range derived {
		sdef, ok := lookup(d.Table)
		if !ok {
			return result, fmt.Errorf("%w: %s", ErrUnknownTable, d.Table)
		}
		rows, err := Project(d.Rows, sdef.Columns)
		if err != nil {
			return result, fmt.Errorf("%s: %w", d.Table, err)
		}
		NormalizeNulls(rows)
		satellites = append(satellites, batch{def: sdef, rows: rows})
	}
	NormalizeNulls(prepared)

	tx, err := sink.Begin(ctx)
	if err != nil {
		return result, fmt.Errorf("begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback(context.WithoutCancel(ctx))
		}
	}()

	n, err := insertRows(ctx, tx, sink, def, prepared)
	if err != nil {
		return importResult{}, err
	}
	result.Rows = n

	for _, s := range satellites {
		n, err := insertRows(ctx, tx, sink, s.def, s.rows)
		if err != nil {
			return importResult{}, fmt.Errorf("%s: %w", s.def.Info.Key, err)
		}
		result.Derived += n
	}

	if err := tx.Commit(ctx); err != nil {
		return importResult{}, fmt.Errorf("commit: %w", err)
	}
	committed = true

	return result, nil
}

func insertRows(ctx context.Context, tx Tx, sink Sink, def TableDefinition, rs *RecordSet) (int, error) {
	query := InsertSQL(def.Info.Key, def.ColumnNames(), sink.Placeholder)

	for i, row := range rs.Rows {
		if i%ContextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return i, err
			}
		}

		args, err := BindRow(row, def.Columns, i+1)
		if err != nil {
			return i, err
		}
		if err := tx.Exec(ctx, query, args...); err != nil {
			return i, fmt.Errorf("row %d: insert: %w", i+1, err)
		}
	}

	return len(rs.Rows), nil
}
