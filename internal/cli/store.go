package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	pkgio "github.com/matzehuels/cellgraph/pkg/io"
	"github.com/matzehuels/cellgraph/pkg/store"
)

// storeCommand creates the store command with its subcommands.
func (c *CLI) storeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage workbooks in the configured store",
		Long: `Manage workbooks in the store selected by the [store] table of the
config file: a directory of XML files (default), SQLite, Redis, or MongoDB.`,
	}

	cmd.AddCommand(c.storeListCommand())
	cmd.AddCommand(c.storeGetCommand())
	cmd.AddCommand(c.storePutCommand())
	cmd.AddCommand(c.storeDeleteCommand())

	return cmd
}

// withStore opens the configured store for the duration of fn.
func (c *CLI) withStore(ctx context.Context, fn func(store.Store) error) error {
	cfg, err := c.config()
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, cfg.Store, loggerFromContext(ctx))
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (c *CLI) storeListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored workbooks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				infos, err := st.List(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(infos) == 0 {
					printInfo(out, "No workbooks stored")
					return nil
				}
				fmt.Fprintln(out, renderStoreTable(infos))
				return nil
			})
		},
	}
}

func renderStoreTable(infos []store.Info) string {
	rows := make([][]string, len(infos))
	for i, info := range infos {
		digest := info.Digest
		if len(digest) > 12 {
			digest = digest[:12]
		}
		rows[i] = []string{info.Name, strconv.Itoa(info.Cells), digest, info.UpdatedAt.Local().Format("2006-01-02 15:04")}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Workbook", "Cells", "Digest", "Updated").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			base := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return styleHeader.Padding(0, 1)
			}
			if col == 0 {
				return base.Foreground(colorCyan)
			}
			return base.Foreground(colorGray)
		}).
		Render()
}

func (c *CLI) storeGetCommand() *cobra.Command {
	var (
		output string
		format string
	)

	cmd := &cobra.Command{
		Use:   "get <workbook>",
		Short: "Print or export a stored workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				doc, err := st.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if output != "" {
					if err := pkgio.ExportFile(doc, output); err != nil {
						return err
					}
					printSuccess(cmd.OutOrStdout(), "Exported %s", args[0])
					printFile(cmd.OutOrStdout(), output)
					return nil
				}
				f, err := pkgio.ParseFormat(format)
				if err != nil {
					return err
				}
				return pkgio.Write(doc, cmd.OutOrStdout(), f)
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file, format by extension")
	cmd.Flags().StringVarP(&format, "format", "f", string(pkgio.FormatXML), "stdout format: xml, json, yaml, or toml")
	return cmd
}

func (c *CLI) storePutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "put <workbook> <file>",
		Short: "Store a workbook file under a name",
		Long: `Store a workbook file under a name, replacing any workbook stored under it.
The file is loaded as a sheet first, so invalid workbooks are rejected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, path := args[0], args[1]
			sh, err := c.openSheet(path, false)
			if err != nil {
				return err
			}
			return c.withStore(cmd.Context(), func(st store.Store) error {
				prog := newProgress(loggerFromContext(cmd.Context()))
				if err := st.Put(cmd.Context(), name, sh.Document()); err != nil {
					return err
				}
				prog.done("Stored " + name)
				printSuccess(cmd.OutOrStdout(), "Stored %s (%d cells)", name, sh.Len())
				return nil
			})
		},
	}
}

func (c *CLI) storeDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <workbook>",
		Aliases: []string{"rm"},
		Short:   "Delete a stored workbook",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withStore(cmd.Context(), func(st store.Store) error {
				if err := st.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess(cmd.OutOrStdout(), "Deleted %s", args[0])
				return nil
			})
		},
	}
}
