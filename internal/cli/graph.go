package cli

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/cache"
	"github.com/matzehuels/cellgraph/pkg/config"
	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/render"
)

// Graph output formats.
const (
	graphDOT = "dot"
	graphSVG = "svg"
)

// graphCommand creates the graph command for rendering dependencies.
func (c *CLI) graphCommand() *cobra.Command {
	var (
		format    string
		output    string
		highlight string
		noValues  bool
		noCache   bool
	)

	cmd := &cobra.Command{
		Use:   "graph <file>",
		Short: "Render a workbook's dependency graph",
		Long: `Render the dependency graph of a workbook. Edges point from a cell to the
cells whose formulas reference it. DOT output can be piped to Graphviz; SVG is
rendered in-process and cached under $XDG_CACHE_HOME/cellgraph.`,
		Example: `  cellgraph graph budget.xml | dot -Tpng > budget.png
  cellgraph graph budget.xml -f svg -o budget.svg --highlight C1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format = strings.ToLower(format)
			if format != graphDOT && format != graphSVG {
				return cgerrors.New(cgerrors.ErrCodeUnsupported, "unknown graph format %q (want dot or svg)", format)
			}
			sh, err := c.openSheet(args[0], false)
			if err != nil {
				return err
			}
			dot := render.SheetDOT(sh, render.Options{Values: !noValues, Highlight: strings.ToUpper(highlight)})

			data := []byte(dot)
			if format == graphSVG {
				rc := c.svgCache(noCache)
				defer rc.Close()
				spinner := newSpinner(cmd.Context(), cmd.ErrOrStderr(), "Rendering graph...")
				spinner.Start()
				data, err = render.CachedSVG(cmd.Context(), rc, dot)
				if err != nil {
					spinner.StopWithError("Rendering failed")
					return err
				}
				spinner.Stop()
			}

			if output == "" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := writeFile(output, data); err != nil {
				return err
			}
			printSuccess(cmd.OutOrStdout(), "Rendered %s graph", format)
			printFile(cmd.OutOrStdout(), output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", graphDOT, "output format: dot or svg")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&highlight, "highlight", "", "cell to emphasize")
	cmd.Flags().BoolVar(&noValues, "no-values", false, "label nodes with names only")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "always re-render SVG output")
	return cmd
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return cgerrors.Wrap(cgerrors.ErrCodeWrite, err, "write %s", path)
	}
	return nil
}

// svgCache opens the on-disk render cache, falling back to no caching when
// disabled or when the cache directory is unusable.
func (c *CLI) svgCache(disabled bool) cache.Cache {
	if disabled {
		return cache.NewNullCache()
	}
	dir, err := config.CacheDir()
	if err == nil {
		var fc *cache.FileCache
		if fc, err = cache.NewFileCache(filepath.Join(dir, "svg")); err == nil {
			return fc
		}
	}
	c.Logger.Warn("render cache disabled", "err", err)
	return cache.NewNullCache()
}
