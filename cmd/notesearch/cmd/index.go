package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	nserrors "github.com/notesearch/notesearch/internal/errors"
	"github.com/notesearch/notesearch/internal/output"
	"github.com/notesearch/notesearch/internal/scanner"
	"github.com/notesearch/notesearch/internal/search"
	"github.com/notesearch/notesearch/internal/ui"
)

func newIndexCmd() *cobra.Command {
	var (
		noTUI  bool
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "index [path]",
		Short: "Build the index for a directory",
		Long: `Build the index for a directory from scratch.

Every .txt and .docx document below the directory is read, normalized and
written to .notesearch/. Documents that can't be read are reported and
skipped. Documents removed since the last build are dropped.

With --dry-run the documents that would be indexed are listed and nothing
is written.`,
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

			if dryRun {
				return listDocuments(ctx, cmd, search.NewScanner(cfg, nil), root)
			}

			renderer := ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(),
				ui.WithForcePlain(noTUI),
				ui.WithNoColor(ui.DetectNoColor()),
				ui.WithRootDir(root)))
			if err := renderer.Start(ctx); err != nil {
				return err
			}
			defer func() { _ = renderer.Stop() }()

			engine, err := search.Setup(cfg, search.Dependencies{Renderer: renderer})
			if err != nil {
				return err
			}
			_, err = engine.Reindex(ctx, root)
			return err
		},
	}

	cmd.Flags().BoolVar(&noTUI, "no-tui", false, "Disable TUI mode, use plain text output")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the documents that would be indexed without writing")

	return cmd
}

// listDocuments prints every document a build of root would index.
func listDocuments(ctx context.Context, cmd *cobra.Command, sc *scanner.Scanner, root string) error {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nserrors.ErrInvalidDirectory
	}

	out := output.New(cmd.OutOrStdout())
	n := 0
	for path, text := range sc.Documents(ctx, root) {
		rel, err := filepath.Rel(root, path)
		if err != nil {
			rel = path
		}
		out.Statusf("📄", "%s (%d words)", rel, len(strings.Fields(text)))
		n++
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	out.Successf("%d documents would be indexed", n)
	return nil
}
