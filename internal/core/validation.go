package core

// validation.go resolves a source header against a table's column list and
// checks cell values before insertion.
//
// Columns are matched by header name, case-insensitively. When names do not
// match but the source has exactly as many columns as the table, columns are
// taken by position. Anything else is a table failure.

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// ValidationError represents a single cell that could not be converted.
type ValidationError struct {
	Row     int    // 1-based data row
	Field   string // Column name
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("row %d: %s: %s", e.Row, e.Field, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// ResolveColumns returns, for every spec, the position of its source column.
func ResolveColumns(header []string, specs []ColumnSpec) ([]int, error) {
	idx := MakeHeaderIndex(header)
	positions := make([]int, len(specs))
	var missing []string

	for i, spec := range specs {
		pos, ok := idx[strings.ToLower(spec.Name)]
		if !ok {
			missing = append(missing, spec.Name)
			continue
		}
		positions[i] = pos
	}

	if len(missing) == 0 {
		return positions, nil
	}
	if len(header) == len(specs) {
		for i := range positions {
			positions[i] = i
		}
		return positions, nil
	}

	return nil, fmt.Errorf("missing required column: %s (source has %d columns, table has %d)",
		strings.Join(missing, ", "), len(header), len(specs))
}

// Project reorders rs into the column list of specs.
func Project(rs *RecordSet, specs []ColumnSpec) (*RecordSet, error) {
	positions, err := ResolveColumns(rs.Columns, specs)
	if err != nil {
		return nil, err
	}

	out := &RecordSet{
		Source:  rs.Source,
		Columns: make([]string, len(specs)),
		Rows:    make([][]pgtype.Text, len(rs.Rows)),
	}
	for i, spec := range specs {
		out.Columns[i] = spec.Name
	}

	for r, row := range rs.Rows {
		projected := make([]pgtype.Text, len(specs))
		for i, pos := range positions {
			if pos < len(row) {
				projected[i] = row[pos]
			} else {
				projected[i] = pgtype.Text{String: "", Valid: true}
			}
		}
		out.Rows[r] = projected
	}

	return out, nil
}

// BindRow converts one normalized row into insert arguments.
func BindRow(row []pgtype.Text, specs []ColumnSpec, rowNum int) ([]any, error) {
	args := make([]any, len(specs))
	for i, spec := range specs {
		var cell pgtype.Text
		if i < len(row) {
			cell = row[i]
		}
		v, err := bindValue(cell, spec)
		if err != nil {
			return nil, ValidationError{Row: rowNum, Field: spec.Name, Value: cell.String, Message: err.Error()}
		}
		args[i] = v
	}
	return args, nil
}
