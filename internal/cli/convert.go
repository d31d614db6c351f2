package cli

import (
	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/cellgraph/pkg/io"
)

// convertCommand creates the convert command for changing file formats.
func (c *CLI) convertCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <input> <output>",
		Short: "Convert a workbook between XML, JSON, YAML, and TOML",
		Long: `Convert a workbook to another file format, chosen by the output file's
extension. The input is loaded and validated as a sheet first, so a file that
would not open is never converted.`,
		Example: `  cellgraph convert budget.xml budget.yaml`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, out := args[0], args[1]
			if _, err := pkgio.FormatFromPath(out); err != nil {
				return err
			}
			prog := newProgress(loggerFromContext(cmd.Context()))
			sh, err := c.openSheet(in, false)
			if err != nil {
				return err
			}
			if err := sh.SaveFile(out); err != nil {
				return err
			}
			prog.done("Converted " + in)
			printSuccess(cmd.OutOrStdout(), "Converted %d cells", sh.Len())
			printFile(cmd.OutOrStdout(), out)
			return nil
		},
	}
}
