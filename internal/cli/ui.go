package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/cellgraph/pkg/cell"
	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleHighlight for emphasized values.
	StyleHighlight = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleError for evaluation errors shown as cell values.
	StyleError = lipgloss.NewStyle().Foreground(colorRed)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconSuccess.Render(iconSuccess)+" "+msg)
}

// printError prints an error message.
func printError(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconError.Render(iconError)+" "+msg)
}

// printWarning prints a warning message.
func printWarning(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconWarning.Render(iconWarning)+" "+StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, styleIconInfo.Render(iconInfo)+" "+msg)
}

// printDetail prints a detail line (indented).
func printDetail(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(w, "  "+StyleDim.Render(msg))
}

// printFile prints a file output line.
func printFile(w io.Writer, path string) {
	fmt.Fprintln(w, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

// printKeyValue prints a labeled value.
func printKeyValue(w io.Writer, key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Fprintln(w, keyStyle.Render(key)+" "+StyleValue.Render(value))
}

// printStats prints sheet statistics on a single line.
func printStats(w io.Writer, cells, formulas, errs int) {
	parts := []string{fmt.Sprintf("%d cells", cells)}
	if formulas > 0 {
		parts = append(parts, fmt.Sprintf("%d formulas", formulas))
	}
	if errs > 0 {
		parts = append(parts, StyleError.Render(fmt.Sprintf("%d errors", errs)))
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	fmt.Fprintln(w, line)
}

// printNextStep prints a suggested next command.
func printNextStep(w io.Writer, description, cmd string) {
	fmt.Fprintln(w, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

// =============================================================================
// Cell Output
// =============================================================================

// renderValue styles a cell value by kind.
func renderValue(v cell.Value) string {
	s := cell.Display(v)
	switch v.(type) {
	case cell.Number:
		return StyleNumber.Render(s)
	case cell.Error:
		return StyleError.Render(s)
	}
	return StyleValue.Render(s)
}

// printCell prints one cell as "NAME  contents → value".
func printCell(w io.Writer, name string, contents cell.Contents, value cell.Value) {
	nameStyle := lipgloss.NewStyle().Foreground(colorGray).Width(5)
	line := nameStyle.Render(name) + " "
	if _, ok := contents.(cell.Formula); ok {
		line += StyleDim.Render(cell.Serialize(contents)) + " " + StyleDim.Render(iconArrow) + " "
	}
	fmt.Fprintln(w, line+renderValue(value))
}

// cellRow is one row of a cell table.
type cellRow struct {
	name     string
	contents string
	value    cell.Value
}

// renderCellTable draws rows as a bordered table.
func renderCellTable(rows []cellRow) string {
	data := make([][]string, len(rows))
	for i, r := range rows {
		data[i] = []string{r.name, r.contents, cell.Display(r.value)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Cell", "Contents", "Value").
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			switch col {
			case 0:
				return base.Foreground(colorGray)
			case 1:
				return base.Foreground(colorDim)
			}
			switch rows[row].value.(type) {
			case cell.Number:
				return base.Foreground(colorCyan)
			case cell.Error:
				return base.Foreground(colorRed)
			}
			return base.Foreground(colorWhite)
		}).
		Render()
}

// formatDependencies renders a name list, or a dash when empty.
func formatDependencies(names []string) string {
	if len(names) == 0 {
		return "—"
	}
	return strings.Join(names, ", ")
}

// ReportError prints err for the user, without its error code.
func ReportError(w io.Writer, err error) {
	printError(w, "%s", cgerrors.UserMessage(err))
}
