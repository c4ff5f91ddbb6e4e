package tables

import "github.com/JonMunkholm/cpdsstox/internal/core"

func init() {
	registerQSURData()
	registerFunctionalUseData()
	registerProductCompositionData()
	registerListPresenceData()
	registerHHEData()
}

func registerQSURData() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "QSUR_data", Label: "QSUR predictions"},
		Columns: []core.ColumnSpec{
			{Name: "DTXSID", Type: core.ColText},
			{Name: "preferred_name", Type: core.ColText},
			{Name: "preferred_casrn", Type: core.ColText},
			{Name: "harmonized_function", Type: core.ColText},
			{Name: "probability", Type: core.ColFloat},
		},
	})
}

func registerFunctionalUseData() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "functional_use_data", Label: "Functional use records"},
		Columns: []core.ColumnSpec{
			{Name: "document_id", Type: core.ColInteger},
			{Name: "chemical_id", Type: core.ColInteger},
			{Name: "functional_use_id", Type: core.ColInteger},
		},
	})
}

// Composition values arrive either as fractions or as "12%" strings; the
// raw_* columns are normalized to fractions, the clean_* ones are already
// weight fractions.
func registerProductCompositionData() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "product_composition_data", Label: "Product composition"},
		Columns: []core.ColumnSpec{
			{Name: "document_id", Type: core.ColInteger},
			{Name: "product_id", Type: core.ColInteger},
			{Name: "chemical_id", Type: core.ColInteger},
			{Name: "functional_use_id", Type: core.ColInteger},
			{Name: "puc_id", Type: core.ColInteger},
			{Name: "classification", Type: core.ColText},
			{Name: "prod_title", Type: core.ColText},
			{Name: "brand_name", Type: core.ColText},
			{Name: "raw_min_comp", Type: core.ColPercent},
			{Name: "raw_central_comp", Type: core.ColPercent},
			{Name: "raw_max_comp", Type: core.ColPercent},
			{Name: "clean_min_wf", Type: core.ColFloat},
			{Name: "clean_central_wf", Type: core.ColFloat},
			{Name: "clean_max_wf", Type: core.ColFloat},
		},
	})
}

func registerListPresenceData() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "list_presence_data", Label: "List presence records"},
		Columns: []core.ColumnSpec{
			{Name: "document_id", Type: core.ColInteger},
			{Name: "chemical_id", Type: core.ColInteger},
			{Name: "list_presence_id", Type: core.ColInteger},
		},
	})
}

func registerHHEData() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "HHE_data", Label: "Hazard data"},
		Columns: []core.ColumnSpec{
			{Name: "document_id", Type: core.ColInteger},
			{Name: "chemical_id", Type: core.ColInteger},
		},
	})
}
