package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	nserrors "github.com/notesearch/notesearch/internal/errors"
	"github.com/notesearch/notesearch/internal/index"
	"github.com/notesearch/notesearch/pkg/version"
)

// Tool names.
const (
	ToolSearch  = "search"
	ToolReindex = "reindex"
)

// Searcher is the engine behind the tools.
type Searcher interface {
	Search(ctx context.Context, phrase, root string) ([]string, error)
	Reindex(ctx context.Context, root string) (*index.Result, error)
}

// Server bridges MCP clients with the search engine for a single root.
type Server struct {
	mcp    *mcp.Server
	engine Searcher
	root   string
	logger *slog.Logger
}

// ToolInfo contains information about a registered tool.
type ToolInfo struct {
	Name        string
	Description string
}

// SearchInput defines the input schema for the search tool.
type SearchInput struct {
	Query string `json:"query" jsonschema:"words to find close together, in order"`
}

// SearchOutput defines the output schema for the search tool. Marker is
// set instead of results when the query or root is rejected.
type SearchOutput struct {
	Results []string `json:"results" jsonschema:"absolute paths of matching documents"`
	Marker  string   `json:"marker,omitempty" jsonschema:"reason the query was rejected"`
}

// ReindexInput defines the input schema for the reindex tool (no parameters).
type ReindexInput struct{}

// ReindexOutput defines the output schema for the reindex tool.
type ReindexOutput struct {
	Root       string `json:"root"`
	Documents  int    `json:"documents"`
	Skipped    int    `json:"skipped"`
	Pruned     int    `json:"pruned"`
	Terms      int    `json:"terms"`
	DurationMS int64  `json:"duration_ms"`
}

var tools = []ToolInfo{
	{
		Name:        ToolSearch,
		Description: "Find documents under the notes directory whose words appear in the query's order, each within a few words of the previous one. Returns absolute file paths.",
	},
	{
		Name:        ToolReindex,
		Description: "Rebuild the notes index from disk. Use after files were added, changed or removed outside the watcher.",
	},
}

// NewServer creates an MCP server answering queries against root.
func NewServer(engine Searcher, root string, logger *slog.Logger) (*Server, error) {
	if engine == nil {
		return nil, errors.New("search engine is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		engine: engine,
		root:   root,
		logger: logger,
	}
	s.mcp = mcp.NewServer(
		&mcp.Implementation{
			Name:    "NoteSearch",
			Version: version.Version,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// MCPServer returns the underlying SDK server.
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []ToolInfo {
	return append([]ToolInfo(nil), tools...)
}

// CallTool invokes a tool by name without going through a transport.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	switch name {
	case ToolSearch:
		query, _ := args["query"].(string)
		return s.search(ctx, query)
	case ToolReindex:
		return s.reindex(ctx)
	default:
		return nil, NewMethodNotFoundError(name)
	}
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[0].Name, Description: tools[0].Description}, s.mcpSearchHandler)
	mcp.AddTool(s.mcp, &mcp.Tool{Name: tools[1].Name, Description: tools[1].Description}, s.mcpReindexHandler)
	s.logger.Debug("mcp_tools_registered", slog.Int("count", len(tools)))
}

func (s *Server) mcpSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (
	*mcp.CallToolResult,
	SearchOutput,
	error,
) {
	out, err := s.search(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, err
	}
	if out.Marker != "" {
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: out.Marker}},
		}, out, nil
	}
	return nil, out, nil
}

func (s *Server) mcpReindexHandler(ctx context.Context, _ *mcp.CallToolRequest, _ ReindexInput) (
	*mcp.CallToolResult,
	ReindexOutput,
	error,
) {
	out, err := s.reindex(ctx)
	if err != nil {
		return nil, ReindexOutput{}, err
	}
	return nil, out, nil
}

// search runs one query. Markers are answers, not failures.
func (s *Server) search(ctx context.Context, query string) (SearchOutput, error) {
	start := time.Now()
	requestID := generateRequestID()

	results, err := s.engine.Search(ctx, query, s.root)
	if marker, ok := nserrors.Marker(err); ok {
		s.logger.Info("mcp_search_rejected",
			slog.String("request_id", requestID),
			slog.String("marker", marker))
		return SearchOutput{Results: []string{}, Marker: marker}, nil
	}
	if err != nil {
		s.logger.Error("mcp_search_failed",
			slog.String("request_id", requestID),
			slog.Duration("duration", time.Since(start)),
			slog.String("error", err.Error()))
		return SearchOutput{}, MapError(err)
	}

	s.logger.Info("mcp_search_complete",
		slog.String("request_id", requestID),
		slog.String("query", query),
		slog.Int("result_count", len(results)),
		slog.Duration("duration", time.Since(start)))
	return SearchOutput{Results: results}, nil
}

func (s *Server) reindex(ctx context.Context) (ReindexOutput, error) {
	res, err := s.engine.Reindex(ctx, s.root)
	if err != nil {
		s.logger.Error("mcp_reindex_failed", slog.String("error", err.Error()))
		return ReindexOutput{}, MapError(err)
	}
	return ReindexOutput{
		Root:       res.Root,
		Documents:  res.Indexed,
		Skipped:    res.Skipped,
		Pruned:     res.Pruned,
		Terms:      res.Terms,
		DurationMS: res.Duration.Milliseconds(),
	}, nil
}

// Serve runs the server over stdio until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	s.logger.Info("mcp_server_started", slog.String("root", s.root))

	err := s.mcp.Run(ctx, &mcp.StdioTransport{})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("mcp_server_failed", slog.String("error", err.Error()))
		return fmt.Errorf("mcp server: %w", err)
	}
	s.logger.Info("mcp_server_stopped")
	return nil
}

// generateRequestID creates a short unique request ID for log correlation.
func generateRequestID() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
