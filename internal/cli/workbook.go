package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/cell"
	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/formula"
	"github.com/matzehuels/cellgraph/pkg/sheet"
)

// =============================================================================
// eval
// =============================================================================

// evalCommand creates the eval command for evaluating a standalone formula.
func (c *CLI) evalCommand() *cobra.Command {
	var vars []string

	cmd := &cobra.Command{
		Use:   "eval <formula>",
		Short: "Evaluate a formula",
		Long: `Evaluate an infix formula of numbers, variables, + - * /, and parentheses.

Variables are bound with --var and are case-insensitive.`,
		Example: `  cellgraph eval "(2 + 3) * 4"
  cellgraph eval "x / y" --var x=1 --var y=8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := parseVars(vars)
			if err != nil {
				return err
			}
			v, err := evaluate(args[0], env)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cell.Number(v).String())
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&vars, "var", nil, "variable binding NAME=NUMBER (repeatable)")
	return cmd
}

// parseVars parses NAME=NUMBER bindings, upper-casing the names.
func parseVars(bindings []string) (map[string]float64, error) {
	env := make(map[string]float64, len(bindings))
	for _, b := range bindings {
		name, raw, ok := strings.Cut(b, "=")
		name, raw = strings.TrimSpace(name), strings.TrimSpace(raw)
		if !ok || !formula.IsVariable(name) {
			return nil, cgerrors.New(cgerrors.ErrCodeInvalidArgument, "invalid binding %q (want NAME=NUMBER)", b)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, cgerrors.New(cgerrors.ErrCodeInvalidArgument, "invalid number in binding %q", b)
		}
		env[strings.ToUpper(name)] = v
	}
	return env, nil
}

// evaluate parses expr with upper-cased variables and evaluates it over env.
func evaluate(expr string, env map[string]float64) (float64, error) {
	f, err := formula.New(expr, strings.ToUpper, nil)
	if err != nil {
		return 0, err
	}
	v, err := f.Evaluate(func(name string) (float64, error) {
		if v, ok := env[name]; ok {
			return v, nil
		}
		return 0, fmt.Errorf("undefined variable %s", name)
	})
	if err != nil {
		return 0, cgerrors.Wrap(cgerrors.ErrCodeInvalidArgument, err, "evaluate %s", f)
	}
	return v, nil
}

// =============================================================================
// check
// =============================================================================

// checkCommand creates the check command for validating a workbook file.
func (c *CLI) checkCommand() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "check <file>",
		Short: "Load a workbook and report evaluation errors",
		Long: `Load a workbook, replaying every cell as an edit, and report cells whose
formulas evaluate to errors. Malformed files and circular references fail.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			sh, err := c.openSheet(args[0], false)
			if err != nil {
				return err
			}

			st := summarize(sh)
			printSuccess(out, "%s is valid", args[0])
			printStats(out, sh.Len(), st.formulas, len(st.errors))
			for _, name := range st.errors {
				v, _ := sh.GetCellValue(name)
				printWarning(out, "%s: %s", name, cell.Display(v))
			}
			if strict && len(st.errors) > 0 {
				return cgerrors.New(cgerrors.ErrCodeInvalidFormula, "%d cells evaluate to errors", len(st.errors))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "fail if any cell evaluates to an error")
	return cmd
}

type sheetStats struct {
	formulas int
	errors   []string
}

func summarize(sh *sheet.Sheet) sheetStats {
	var st sheetStats
	for _, name := range sh.GetNamesOfAllNonemptyCells() {
		if contents, _ := sh.GetCellContents(name); contents != nil {
			if _, ok := contents.(cell.Formula); ok {
				st.formulas++
			}
		}
		if v, _ := sh.GetCellValue(name); v != nil {
			if _, ok := v.(cell.Error); ok {
				st.errors = append(st.errors, name)
			}
		}
	}
	return st
}

// =============================================================================
// show
// =============================================================================

// showCommand creates the show command for printing every cell as a table.
func (c *CLI) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "Print every non-empty cell of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := c.openSheet(args[0], false)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if sh.Len() == 0 {
				printInfo(out, "%s is empty", args[0])
				return nil
			}
			var rows []cellRow
			for _, name := range sh.GetNamesOfAllNonemptyCells() {
				contents, _ := sh.GetCellContents(name)
				value, _ := sh.GetCellValue(name)
				rows = append(rows, cellRow{name: name, contents: cell.Serialize(contents), value: value})
			}
			fmt.Fprintln(out, renderCellTable(rows))
			return nil
		},
	}
}

// =============================================================================
// get
// =============================================================================

// getCommand creates the get command for inspecting one cell.
func (c *CLI) getCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get <file> <cell>",
		Short: "Print a cell's contents, value, and direct dependencies",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := c.openSheet(args[0], false)
			if err != nil {
				return err
			}
			name := args[1]
			contents, err := sh.GetCellContents(name)
			if err != nil {
				return err
			}
			value, _ := sh.GetCellValue(name)
			dependees, _ := sh.DirectDependees(name)
			dependents, _ := sh.DirectDependents(name)

			out := cmd.OutOrStdout()
			printKeyValue(out, "cell", strings.ToUpper(name))
			printKeyValue(out, "contents", cell.Serialize(contents))
			printKeyValue(out, "value", cell.Display(value))
			printKeyValue(out, "depends on", formatDependencies(dependees))
			printKeyValue(out, "used by", formatDependencies(dependents))
			return nil
		},
	}
}

// =============================================================================
// set
// =============================================================================

// setCommand creates the set command for editing one cell in place.
func (c *CLI) setCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <file> <cell> <contents>",
		Short: "Set a cell and save the workbook",
		Long: `Set the contents of a cell, recalculate its dependents, and save the
workbook. A missing file is created. Contents starting with "=" are formulas;
empty contents clear the cell.`,
		Example: `  cellgraph set budget.xml A1 100
  cellgraph set budget.xml B1 "=A1 * 1.2"
  cellgraph set budget.xml B1 ""`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, name, contents := args[0], args[1], args[2]
			sh, err := c.openSheet(path, true)
			if err != nil {
				return err
			}
			affected, err := sh.SetContentsOfCell(name, contents)
			if err != nil {
				return err
			}
			if err := sh.SaveFile(path); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printSuccess(out, "Updated %d cells", len(affected))
			for _, n := range affected {
				cc, _ := sh.GetCellContents(n)
				v, _ := sh.GetCellValue(n)
				printCell(out, n, cc, v)
			}
			printFile(out, path)
			return nil
		},
	}
	return cmd
}
