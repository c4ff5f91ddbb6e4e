package core

// convert.go provides the value normalizers applied between reading a file
// and inserting its rows:
//   - null markers ("" and "NA") become NULL
//   - free-form document dates become canonical YYYY-MM-DD text
//   - composition values written as "12%" become fractions
//   - integer and float columns are parsed into pgtype values
//
// All ToPg* functions return pgtype values with Valid=false for NULL, so the
// same arguments bind against pgx and database/sql drivers.

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// NullMarkers are the raw cell values stored as NULL.
var NullMarkers = []string{"", "NA"}

// dateLayouts are tried in order; the first that parses wins. Ambiguous
// inputs such as 03/04/2020 resolve to day-first because of this order.
var dateLayouts = []string{
	"2006-1-2",
	"2-1-2006",
	"2-Jan-06",
	"2-Jan-2006",
	"2-January-2006",
	"January-06",
	"Jan-06",
	"January 2, 2006",
	"January 2006",
	"2006",
	"2/1/2006",
	"1/2/2006",
	"2 January 2006",
	"1.2.2006",
}

// CanonicalDateLayout is the stored form of a parsed date.
const CanonicalDateLayout = "2006-01-02"

func isNullMarker(s string) bool {
	for _, m := range NullMarkers {
		if s == m {
			return true
		}
	}
	return false
}

// NormalizeNulls marks every null-marker cell of rs as NULL.
// Cells that are already NULL stay NULL, so applying it twice is a no-op.
func NormalizeNulls(rs *RecordSet) {
	if rs == nil {
		return
	}
	for _, row := range rs.Rows {
		for i, cell := range row {
			if cell.Valid {
				row[i] = ToPgText(cell.String)
			}
		}
	}
}

// ToPgText converts a raw cell to pgtype.Text.
// Null markers become invalid; everything else is kept verbatim.
func ToPgText(s string) pgtype.Text {
	if isNullMarker(s) {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// CanonicalDate parses a free-form date and returns it as YYYY-MM-DD text.
// Missing day or month default to 1. Unparseable input returns NULL.
func CanonicalDate(s string) pgtype.Text {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Text{Valid: false}
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return pgtype.Text{String: t.Format(CanonicalDateLayout), Valid: true}
		}
	}

	return pgtype.Text{Valid: false}
}

// ParsePercentFloat parses a composition value. A value containing "%" is
// read as a percentage and divided by 100; anything else is a plain decimal.
// Parse failures and non-finite results return NULL.
func ParsePercentFloat(s string) pgtype.Float8 {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Float8{Valid: false}
	}

	percent := strings.Contains(s, "%")
	if percent {
		s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	}

	f, err := parseDecimal(s)
	if err != nil {
		return pgtype.Float8{Valid: false}
	}
	if percent {
		f /= 100
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{Valid: false}
	}

	return pgtype.Float8{Float64: f, Valid: true}
}

// ToPgFloat converts a string to pgtype.Float8.
// Empty input is NULL; anything else must be a finite decimal.
func ToPgFloat(s string) (pgtype.Float8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Float8{Valid: false}, nil
	}

	f, err := parseDecimal(s)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return pgtype.Float8{}, fmt.Errorf("invalid number %q", s)
	}
	return pgtype.Float8{Float64: f, Valid: true}, nil
}

// ToPgInt8 converts a string to pgtype.Int8.
// Spreadsheet exports write whole numbers as "12.0", so integral floats are
// accepted too.
func ToPgInt8(s string) (pgtype.Int8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return pgtype.Int8{Valid: false}, nil
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return pgtype.Int8{Int64: i, Valid: true}, nil
	}

	// float64(math.MaxInt64) rounds up to 2^63, which does not fit.
	f, err := parseDecimal(s)
	if err != nil || f != math.Trunc(f) || math.Abs(f) >= math.MaxInt64 {
		return pgtype.Int8{}, fmt.Errorf("invalid integer %q", s)
	}
	return pgtype.Int8{Int64: int64(f), Valid: true}, nil
}

// parseDecimal is strconv.ParseFloat without the hexadecimal form.
func parseDecimal(s string) (float64, error) {
	digits := strings.TrimLeft(s, "+-")
	if len(digits) > 1 && digits[0] == '0' && (digits[1] == 'x' || digits[1] == 'X') {
		return 0, fmt.Errorf("hexadecimal number %q", s)
	}
	return strconv.ParseFloat(s, 64)
}

// MakeHeaderIndex creates a HeaderIndex from a header row.
// Keys are trimmed and lowercased for case-insensitive matching; the first
// occurrence of a duplicated header wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := idx[key]; !dup {
			idx[key] = i
		}
	}
	return idx
}

// bindValue converts a normalized cell to the argument bound for its column.
func bindValue(cell pgtype.Text, spec ColumnSpec) (any, error) {
	if !cell.Valid {
		switch spec.Type {
		case ColInteger:
			return pgtype.Int8{}, nil
		case ColFloat, ColPercent:
			return pgtype.Float8{}, nil
		default:
			return pgtype.Text{}, nil
		}
	}

	switch spec.Type {
	case ColInteger:
		return ToPgInt8(cell.String)
	case ColFloat:
		return ToPgFloat(cell.String)
	case ColPercent:
		return ParsePercentFloat(cell.String), nil
	case ColDate:
		return CanonicalDate(cell.String), nil
	default:
		return cell, nil
	}
}
