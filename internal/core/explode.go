package core

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// IdentifierDelimiter separates the tokens of a compound IDENTIFIER field.
const IdentifierDelimiter = "|"

// IdentifierColumns is the column list of the cross-reference relation.
var IdentifierColumns = []string{"IDENTIFIER", "CASRN", "ALTERNATIVE_IDENTIFIER"}

// ExplodeIdentifiers splits the compound identifier column of rs.
//
// The returned set is a copy of rs whose identifier cell holds only the
// trimmed first token. The cross-reference set has one row
// (primary, primary, alternative) for every token after the first. A NULL
// identifier is left alone and yields no rows.
func ExplodeIdentifiers(rs *RecordSet, column string) (*RecordSet, *RecordSet, error) {
	pos := rs.Column(column)
	if pos < 0 {
		return nil, nil, fmt.Errorf("column not found: %s", column)
	}

	primary := &RecordSet{
		Source:  rs.Source,
		Columns: append([]string(nil), rs.Columns...),
		Rows:    make([][]pgtype.Text, len(rs.Rows)),
	}
	xref := &RecordSet{
		Source:  rs.Source,
		Columns: append([]string(nil), IdentifierColumns...),
	}

	for i, row := range rs.Rows {
		out := append([]pgtype.Text(nil), row...)
		primary.Rows[i] = out

		if pos >= len(row) || !row[pos].Valid {
			continue
		}

		tokens := strings.Split(row[pos].String, IdentifierDelimiter)
		head := strings.TrimSpace(tokens[0])
		out[pos] = pgtype.Text{String: head, Valid: true}

		for _, alt := range tokens[1:] {
			xref.Rows = append(xref.Rows, []pgtype.Text{
				{String: head, Valid: true},
				{String: head, Valid: true},
				{String: strings.TrimSpace(alt), Valid: true},
			})
		}
	}

	return primary, xref, nil
}
