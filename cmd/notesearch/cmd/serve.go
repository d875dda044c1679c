package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/notesearch/notesearch/internal/mcp"
	"github.com/notesearch/notesearch/internal/metrics"
	"github.com/notesearch/notesearch/internal/search"
	"github.com/notesearch/notesearch/internal/web"
)

func newServeCmd() *cobra.Command {
	var (
		transport string
		addr      string
	)

	cmd := &cobra.Command{
		Use:   "serve [path]",
		Short: "Serve searches over MCP (stdio) or HTTP",
		Long: `Serve searches for one directory.

  --transport stdio   MCP server with the search and reindex tools
  --transport http    search form, /api/search and /metrics

Defaults come from the server section of the configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, root, err := loadConfig(argOrEmpty(args))
			if err != nil {
				return err
			}
			if abs, err := filepath.Abs(root); err == nil {
				root = abs
			}
			if transport == "" {
				transport = cfg.Server.Transport
			}
			if addr == "" {
				addr = cfg.Server.HTTPAddr
			}

			logger := slog.Default()
			m := metrics.New()
			engine, err := search.Setup(cfg, search.Dependencies{Metrics: m, Logger: logger})
			if err != nil {
				return err
			}

			switch strings.ToLower(transport) {
			case "stdio":
				srv, err := mcp.NewServer(engine, root, logger)
				if err != nil {
					return err
				}
				return srv.Serve(ctx)
			case "http":
				srv, err := web.NewServer(engine, root, web.WithMetrics(m), web.WithLogger(logger))
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Serving %s on http://%s\n", root, displayAddr(addr))
				return srv.Run(ctx, addr)
			default:
				return fmt.Errorf("unknown transport: %s (supported: stdio, http)", transport)
			}
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "", "Transport: stdio or http")
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default :8080)")

	return cmd
}

func displayAddr(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "localhost" + addr
	}
	return addr
}
