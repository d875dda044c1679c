package cmd

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	nserrors "github.com/notesearch/notesearch/internal/errors"
	"github.com/notesearch/notesearch/internal/output"
	"github.com/notesearch/notesearch/internal/search"
)

type searchOptions struct {
	root   string
	format string
}

func newSearchCmd() *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Find documents containing the query words close together",
		Long: `Find the documents whose words follow the query: every query word must
appear within a few words after the previous one. Matching ignores case,
stopwords and word forms ("runs" finds "run").

The directory is indexed on the first search.`,
		Example: `  notesearch search quick fox
  notesearch search "budget review" --root ~/notes
  notesearch search red fox --format json`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != output.FormatText && opts.format != output.FormatJSON {
				return fmt.Errorf("invalid format %q: use text or json", opts.format)
			}

			cfg, root, err := loadConfig(opts.root)
			if err != nil {
				return err
			}
			engine, err := search.Setup(cfg, search.Dependencies{})
			if err != nil {
				return err
			}

			query := strings.Join(args, " ")
			res := output.SearchResult{Query: query, Root: root}
			if abs, err := filepath.Abs(root); err == nil {
				res.Root = abs
			}

			paths, err := engine.Search(cmd.Context(), query, root)
			if marker, ok := nserrors.Marker(err); ok {
				res.Marker = marker
			} else if err != nil {
				return err
			}
			res.Results = paths

			slog.Debug("search_complete", slog.String("query", query), slog.Int("results", len(paths)))
			return output.New(cmd.OutOrStdout()).Results(opts.format, res)
		},
	}

	cmd.Flags().StringVarP(&opts.root, "root", "r", "", "Directory to search (default: configured root or current directory)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", output.FormatText, "Output format: text, json")

	return cmd
}
