package cli

import (
	"errors"
	"io"
	"io/fs"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/buildinfo"
	"github.com/matzehuels/cellgraph/pkg/config"
	"github.com/matzehuels/cellgraph/pkg/sheet"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for display.
const appName = "cellgraph"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Cellgraph evaluates spreadsheet workbooks",
		Long:         `Cellgraph is a spreadsheet engine: cells hold text, numbers, or formulas, and every edit recalculates the cells that depend on it in dependency order.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/cellgraph/config.toml)")

	// Register all subcommands
	root.AddCommand(c.evalCommand())
	root.AddCommand(c.checkCommand())
	root.AddCommand(c.showCommand())
	root.AddCommand(c.getCommand())
	root.AddCommand(c.setCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.replCommand())
	root.AddCommand(c.storeCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Configuration
// =============================================================================

// config loads the configuration file once per run.
func (c *CLI) config() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

// sheetOptions returns the options for sheets created by commands.
func (c *CLI) sheetOptions() ([]sheet.Option, error) {
	cfg, err := c.config()
	if err != nil {
		return nil, err
	}
	re, err := cfg.PatternRegexp()
	if err != nil {
		return nil, err
	}
	return []sheet.Option{sheet.WithPattern(re), sheet.WithLogger(c.Logger)}, nil
}

// openSheet loads the workbook at path. With create set, a missing file
// yields an empty sheet.
func (c *CLI) openSheet(path string, create bool) (*sheet.Sheet, error) {
	opts, err := c.sheetOptions()
	if err != nil {
		return nil, err
	}
	if create {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			c.Logger.Debug("creating workbook", "path", path)
			return sheet.New(opts...), nil
		}
	}
	return sheet.Open(path, opts...)
}
