// Package sheet implements the cell store and recalculation engine.
//
// # Overview
//
// A [Sheet] maps cell names to contents and computed values and keeps a
// [dag.Graph] of which cells refer to which. Every write goes through
// [Sheet.SetContentsOfCell], which:
//
//  1. validates the cell name against the cell-name grammar and the sheet's
//     validity pattern
//  2. classifies the content as a number, a formula ("=" prefix), or text
//  3. commits the contents and replaces the cell's incoming graph edges with
//     the formula's variables
//  4. computes the cell and its transitive dependents in dependency order,
//     rolling everything back if the walk finds a cycle
//  5. recomputes each of those cells from already-updated values
//
// The returned slice lists the cells in the order they were recomputed, so
// a caller can refresh a display incrementally.
//
//	s := sheet.New()
//	s.SetContentsOfCell("A1", "3")
//	s.SetContentsOfCell("B1", "=A1*A1")
//	s.SetContentsOfCell("C1", "=B1+A1")
//	s.SetContentsOfCell("A1", "4") // [A1 B1 C1]; B1 = 16, C1 = 20
//
// # Names
//
// Cell names are one or more letters followed by a row number without a
// leading zero (A1, b7, AZ100). Names are case-insensitive and stored
// upper-cased. A sheet can further restrict names with a validity pattern
// that the upper-cased name must match, such as "^[A-Z][1-9][0-9]?$" for a
// 26 by 99 grid.
//
// # Errors and Values
//
// Invalid names, invalid formulas, and circular dependencies are returned as
// *errors.Error with codes INVALID_NAME, INVALID_FORMULA, and
// CIRCULAR_DEPENDENCY. A rejected edit leaves the sheet unchanged.
//
// A formula that cannot be evaluated, because it divides by zero or refers
// to an empty, text, or erroneous cell, is not an error: its value is a
// cell.Error, and that error propagates to cells that refer to it.
//
// # Persistence
//
// [Sheet.Document], [Sheet.Save], and [Sheet.SaveFile] produce the record
// form defined by package io; [Load], [Read], and [Open] rebuild a sheet by
// replaying records. [Sheet.Changed] tracks unsaved modifications.
package sheet
