package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/notesearch/notesearch/internal/config"
	"github.com/notesearch/notesearch/internal/output"
	"github.com/notesearch/notesearch/internal/search"
	"github.com/notesearch/notesearch/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [path]",
		Short: "Rebuild the index whenever documents change",
		Long: `Build the index, then watch the directory and rebuild after each burst
of changes. Editing .notesearch.yaml reloads the configuration before the
next build. Stop with Ctrl+C.`,
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

			err = runWatch(ctx, cmd, cfg, root)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, cfg *config.Config, root string) error {
	out := output.New(cmd.OutOrStdout())
	logger := slog.Default()

	engine, err := search.Setup(cfg, search.Dependencies{Logger: logger})
	if err != nil {
		return err
	}

	reindex := func(ctx context.Context) error {
		res, err := engine.Reindex(ctx, root)
		if err != nil {
			return err
		}
		out.IndexSummary(res.Root, res.Indexed, res.Skipped, res.Terms, res.Duration)
		return nil
	}
	if err := reindex(ctx); err != nil {
		return err
	}

	w, err := watcher.New(watcher.Options{ExcludePatterns: cfg.Index.Exclude})
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = w.Stop() }()

	out.Statusf("👀", "Watching %s (Ctrl+C to stop)", root)

	rebuild := func(ctx context.Context, configChanged bool) error {
		if configChanged {
			next, err := config.Load(root)
			if err != nil {
				out.Warningf("Keeping previous configuration: %v", err)
			} else if e, err := search.Setup(next, search.Dependencies{Logger: logger}); err != nil {
				out.Warningf("Keeping previous configuration: %v", err)
			} else {
				engine = e
				logger.Info("watch_config_reloaded", slog.String("root", root))
			}
		}
		return reindex(ctx)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.Start(gctx, root) })
	g.Go(func() error { return watcher.Run(gctx, w.Events(), rebuild, logger) })
	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case err, ok := <-w.Errors():
				if !ok {
					return nil
				}
				logger.Warn("watch_error", slog.String("error", err.Error()))
			}
		}
	})
	return g.Wait()
}
