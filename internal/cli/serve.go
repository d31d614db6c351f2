package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/cellgraph/pkg/cache"
	cgerrors "github.com/matzehuels/cellgraph/pkg/errors"
	"github.com/matzehuels/cellgraph/pkg/server"
	"github.com/matzehuels/cellgraph/pkg/sheet"
	"github.com/matzehuels/cellgraph/pkg/store"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 5 * time.Second

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		addr     string
		workbook string
		metrics  bool
	)

	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve a workbook over HTTP",
		Long: `Serve a workbook over a JSON HTTP API until interrupted.

The workbook is read from a file, or from the configured store with
--workbook, in which case POST /save writes it back. Without either an empty
sheet is served.

Routes:
  GET    /cells            all non-empty cells
  GET    /cells/{name}     one cell with its direct dependencies
  PUT    /cells/{name}     set contents (raw request body)
  DELETE /cells/{name}     clear a cell
  GET    /graph.dot        dependency graph as DOT
  GET    /graph.svg        dependency graph as SVG
  GET    /document         workbook document (?format=xml|json|yaml|toml)
  POST   /save             write to the store`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)
			if workbook != "" && len(args) == 1 {
				return cgerrors.New(cgerrors.ErrCodeInvalidArgument, "give a file or --workbook, not both")
			}
			cfg, err := c.config()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Server.Addr
			}

			var rec *metricsRecorder
			if metrics {
				if rec, err = installMetrics(); err != nil {
					return err
				}
				defer func() { _ = rec.close(context.Background()) }()
			}

			srvCfg := server.Config{Logger: logger, Cache: cache.NewMemoryCache(0)}
			switch {
			case workbook != "":
				st, err := store.Open(ctx, cfg.Store, logger)
				if err != nil {
					return err
				}
				defer st.Close()
				if srvCfg.Sheet, err = c.loadWorkbook(ctx, st, workbook); err != nil {
					return err
				}
				srvCfg.Store, srvCfg.Workbook = st, workbook
			case len(args) == 1:
				if srvCfg.Sheet, err = c.openSheet(args[0], true); err != nil {
					return err
				}
			default:
				opts, err := c.sheetOptions()
				if err != nil {
					return err
				}
				srvCfg.Sheet = sheet.New(opts...)
			}

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return cgerrors.Wrap(cgerrors.ErrCodeInvalidArgument, err, "listen on %s", addr)
			}
			out := cmd.OutOrStdout()
			printSuccess(out, "Serving %d cells on http://%s", srvCfg.Sheet.Len(), ln.Addr())
			printNextStep(out, "Try", "curl http://"+ln.Addr().String()+"/cells")

			if err := serve(ctx, ln, server.New(srvCfg).Handler()); err != nil {
				return err
			}
			logger.Info("server stopped")

			if rec != nil {
				lines, err := rec.summary(context.Background())
				if err != nil {
					return err
				}
				for _, l := range lines {
					printDetail(out, "%s", l)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, localhost:8080)")
	cmd.Flags().StringVarP(&workbook, "workbook", "w", "", "serve a workbook from the configured store")
	cmd.Flags().BoolVar(&metrics, "metrics", false, "collect metrics and print totals on exit")
	return cmd
}

// serve runs h on ln until ctx is done, then shuts down gracefully.
func serve(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// loadWorkbook reads name from st. A workbook that does not exist yet
// starts empty.
func (c *CLI) loadWorkbook(ctx context.Context, st store.Store, name string) (*sheet.Sheet, error) {
	opts, err := c.sheetOptions()
	if err != nil {
		return nil, err
	}
	doc, err := st.Get(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		c.Logger.Info("new workbook", "workbook", name)
		return sheet.New(opts...), nil
	}
	if err != nil {
		return nil, err
	}
	return sheet.Load(doc, opts...)
}
