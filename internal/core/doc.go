// Package core provides the transform-and-load logic of the CP/DSSTox loader.
//
// It has no knowledge of a particular database driver or of the command
// line; any [Sink] can receive the rows.
//
// # Table Registry
//
// Tables are registered at init time using [Register] (see package
// core/tables). Each [TableDefinition] lists its insert columns with their
// storage type and an optional [PrepareFunc] for table-specific transforms:
//
//	core.Register(core.TableDefinition{
//	    Info: core.TableInfo{Key: "HHE_data", Label: "Hazard data"},
//	    Columns: []core.ColumnSpec{
//	        {Name: "document_id", Type: core.ColInteger},
//	        {Name: "chemical_id", Type: core.ColInteger},
//	    },
//	})
//
// Insertion order is the literal [LoadOrder] slice, never inferred from the
// registry.
//
// # Run
//
// A [Pipeline] run has two phases:
//
//  1. Extract: every configured file is read with [ReadFile]. Any failure is
//     a [*FatalError] and nothing is loaded.
//  2. Load: for each table in order, each record set is projected onto the
//     table's columns, prepared, null-normalized and inserted in one
//     transaction. A failing table is rolled back, logged with a code from
//     [ClassifyFailure] and skipped.
//
// # Values
//
// Cells travel as pgtype.Text. "" and "NA" become NULL right before
// insertion. Dates are stored as canonical YYYY-MM-DD text and composition
// percentages as fractions.
package core
