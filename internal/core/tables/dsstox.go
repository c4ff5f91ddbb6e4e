package tables

import "github.com/JonMunkholm/cpdsstox/internal/core"

// identifierColumn holds the compound "primary|alt|alt" identifier.
const identifierColumn = "IDENTIFIER"

func init() {
	registerDSSTox()
	registerIdentifier()
}

func registerDSSTox() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "DSSTox", Label: "DSSTox substances"},
		Columns: []core.ColumnSpec{
			{Name: "DTXSID", Type: core.ColText},
			{Name: "PREFERRED_NAME", Type: core.ColText},
			{Name: "CASRN", Type: core.ColText},
			{Name: "INCHIKEY", Type: core.ColText},
			{Name: "IUPAC_NAME", Type: core.ColText},
			{Name: "SMILES", Type: core.ColText},
			{Name: "MOLECULAR_FORMULA", Type: core.ColText},
			{Name: "AVERAGE_MASS", Type: core.ColFloat},
			{Name: "MONOISOTOPIC_MASS", Type: core.ColFloat},
			{Name: "QSAR_READY_SMILES", Type: core.ColText},
			{Name: "MS_READY_SMILES", Type: core.ColText},
			{Name: identifierColumn, Type: core.ColText},
		},
		Prepare: prepareDSSTox,
	})
}

func registerIdentifier() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "Identifier", Label: "Identifier cross-references", Parent: "DSSTox"},
		Columns: []core.ColumnSpec{
			{Name: "IDENTIFIER", Type: core.ColText},
			{Name: "CASRN", Type: core.ColText},
			{Name: "ALTERNATIVE_IDENTIFIER", Type: core.ColText},
		},
	})
}

// prepareDSSTox keeps only the primary identifier on each substance row and
// routes the alternatives to the Identifier table.
func prepareDSSTox(rs *core.RecordSet) (*core.RecordSet, []core.Derived, error) {
	primary, xref, err := core.ExplodeIdentifiers(rs, identifierColumn)
	if err != nil {
		return nil, nil, err
	}
	if xref.Len() == 0 {
		return primary, nil, nil
	}
	return primary, []core.Derived{{Table: "Identifier", Rows: xref}}, nil
}
