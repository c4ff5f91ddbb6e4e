package core

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// Sink is the relational store a run loads into.
// Satisfied by the postgres and database/sql sinks in internal/sink.
type Sink interface {
	Begin(ctx context.Context) (Tx, error)

	// Placeholder returns the bind marker for the n-th (1-based) parameter.
	Placeholder(n int) string
}

// Tx is a single sink transaction.
type Tx interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// RecordSet is an in-memory table read from one source file.
// Every cell read from a file is Valid; NormalizeNulls marks the null markers.
type RecordSet struct {
	Source  string
	Columns []string
	Rows    [][]pgtype.Text
}

// Len returns the number of data rows.
func (rs *RecordSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.Rows)
}

// Column returns the position of the named column (case-insensitive), or -1.
func (rs *RecordSet) Column(name string) int {
	for i, c := range rs.Columns {
		if strings.EqualFold(strings.TrimSpace(c), name) {
			return i
		}
	}
	return -1
}

// ColumnType is the storage type of a destination column.
type ColumnType int

const (
	ColText ColumnType = iota
	ColInteger
	ColFloat
	ColDate    // free-form date, stored as canonical YYYY-MM-DD text
	ColPercent // "12%" or fraction, stored as float
)

// ColumnSpec describes one destination column in insert order.
type ColumnSpec struct {
	Name string
	Type ColumnType
}

// TableInfo identifies a destination table.
type TableInfo struct {
	Key   string // table name in the sink
	Label string

	// Parent is set on satellite tables, which are populated from the
	// parent's rows and never read from their own files.
	Parent string
}

// Derived is a record set produced from a parent table's rows, inserted into
// Table inside the parent's transaction.
type Derived struct {
	Table string
	Rows  *RecordSet
}

// PrepareFunc runs table-specific transforms on a projected record set before
// null normalization. It may split off derived rows for satellite tables.
type PrepareFunc func(rs *RecordSet) (*RecordSet, []Derived, error)

// TableDefinition contains everything needed to load one table.
type TableDefinition struct {
	Info    TableInfo
	Columns []ColumnSpec
	Prepare PrepareFunc
}

// ColumnNames returns the insert column list.
func (t TableDefinition) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HeaderIndex maps column names (lowercase) to their position in a row.
type HeaderIndex map[string]int

// Inputs maps a table key to the files that feed it, in load order.
type Inputs map[string][]string

// Extracted holds every record set read during extraction, keyed by table.
type Extracted map[string][]*RecordSet
