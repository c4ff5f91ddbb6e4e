package tables

import "github.com/JonMunkholm/cpdsstox/internal/core"

func init() {
	registerDocumentDictionary()
	registerChemicalDictionary()
	registerListPresenceDictionary()
	registerPUCDictionary()
	registerFunctionalUseDictionary()
}

func registerDocumentDictionary() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "document_dictionary", Label: "Documents"},
		Columns: []core.ColumnSpec{
			{Name: "document_id", Type: core.ColInteger},
			{Name: "title", Type: core.ColText},
			{Name: "subtitle", Type: core.ColText},
			{Name: "doc_date", Type: core.ColDate},
		},
	})
}

func registerChemicalDictionary() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "chemical_dictionary", Label: "Chemicals"},
		Columns: []core.ColumnSpec{
			{Name: "chemical_id", Type: core.ColInteger},
			{Name: "raw_chem_name", Type: core.ColText},
			{Name: "raw_casrn", Type: core.ColText},
			{Name: "preferred_name", Type: core.ColText},
			{Name: "preferred_casrn", Type: core.ColText},
			{Name: "DTXSID", Type: core.ColText},
			{Name: "curation_level", Type: core.ColText},
		},
	})
}

func registerListPresenceDictionary() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "list_presence_dictionary", Label: "List presence keywords"},
		Columns: []core.ColumnSpec{
			{Name: "list_presence_id", Type: core.ColInteger},
			{Name: "name", Type: core.ColText},
			{Name: "definition", Type: core.ColText},
			{Name: "kind", Type: core.ColText},
		},
	})
}

func registerPUCDictionary() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "PUC_dictionary", Label: "Product use categories"},
		Columns: []core.ColumnSpec{
			{Name: "puc_id", Type: core.ColInteger},
			{Name: "gen_cat", Type: core.ColText},
			{Name: "prod_fam", Type: core.ColText},
			{Name: "prod_type", Type: core.ColText},
			{Name: "description", Type: core.ColText},
			{Name: "puc_code", Type: core.ColText},
			{Name: "kind", Type: core.ColText},
		},
	})
}

func registerFunctionalUseDictionary() {
	core.Register(core.TableDefinition{
		Info: core.TableInfo{Key: "functional_use_dictionary", Label: "Functional uses"},
		Columns: []core.ColumnSpec{
			{Name: "chemical_id", Type: core.ColInteger},
			{Name: "functional_use_id", Type: core.ColInteger},
			{Name: "report_funcuse", Type: core.ColText},
			{Name: "oecd_function", Type: core.ColText},
		},
	})
}
