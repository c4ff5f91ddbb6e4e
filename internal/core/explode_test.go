package core

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
)

func TestExplodeIdentifiers(t *testing.T) {
	rs := &RecordSet{
		Source:  "DSSToxDump1.xlsx",
		Columns: []string{"DTXSID", "IDENTIFIER"},
		Rows: textRows(
			[]string{"DTXSID1", "7732-18-5| Aqua |Water"},
			[]string{"DTXSID2", "64-17-5"},
			[]string{"DTXSID3", " 50-00-0 "},
		),
	}
	rs.Rows = append(rs.Rows, []pgtype.Text{text("DTXSID4"), {}})

	primary, xref, err := ExplodeIdentifiers(rs, "identifier")
	if err != nil {
		t.Fatalf("ExplodeIdentifiers() error = %v", err)
	}

	wantPrimary := []pgtype.Text{text("7732-18-5"), text("64-17-5"), text("50-00-0"), {}}
	if primary.Len() != len(wantPrimary) {
		t.Fatalf("primary rows = %d, want %d", primary.Len(), len(wantPrimary))
	}
	for i, want := range wantPrimary {
		if got := primary.Rows[i][1]; got != want {
			t.Errorf("primary row %d identifier = %+v, want %+v", i, got, want)
		}
	}

	wantXref := [][]string{
		{"7732-18-5", "7732-18-5", "Aqua"},
		{"7732-18-5", "7732-18-5", "Water"},
	}
	if xref.Len() != len(wantXref) {
		t.Fatalf("xref rows = %d, want %d", xref.Len(), len(wantXref))
	}
	for i, want := range wantXref {
		for j, v := range want {
			if got := xref.Rows[i][j]; got != text(v) {
				t.Errorf("xref row %d col %d = %+v, want %q", i, j, got, v)
			}
		}
	}

	if got := rs.Rows[0][1].String; got != "7732-18-5| Aqua |Water" {
		t.Errorf("input was modified: %q", got)
	}
	if len(xref.Columns) != 3 || xref.Columns[2] != "ALTERNATIVE_IDENTIFIER" {
		t.Errorf("xref columns = %v", xref.Columns)
	}
}

func TestExplodeIdentifiers_MissingColumn(t *testing.T) {
	rs := &RecordSet{Columns: []string{"DTXSID"}, Rows: textRows([]string{"DTXSID1"})}

	if _, _, err := ExplodeIdentifiers(rs, "IDENTIFIER"); err == nil {
		t.Error("expected error for missing identifier column")
	}
}
