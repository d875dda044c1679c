package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesearch/notesearch/internal/config"
	nserrors "github.com/notesearch/notesearch/internal/errors"
	"github.com/notesearch/notesearch/internal/index"
	"github.com/notesearch/notesearch/internal/search"
)

type fakeSearcher struct {
	results  []string
	err      error
	reindex  *index.Result
	gotQuery string
	gotRoot  string
}

func (f *fakeSearcher) Search(_ context.Context, phrase, root string) ([]string, error) {
	f.gotQuery, f.gotRoot = phrase, root
	return f.results, f.err
}

func (f *fakeSearcher) Reindex(_ context.Context, root string) (*index.Result, error) {
	f.gotRoot = root
	if f.err != nil {
		return nil, f.err
	}
	return f.reindex, nil
}

func TestNewServer_RequiresEngine(t *testing.T) {
	_, err := NewServer(nil, "/notes", nil)
	assert.Error(t, err)
}

func TestServer_ListTools(t *testing.T) {
	s, err := NewServer(&fakeSearcher{}, "/notes", nil)
	require.NoError(t, err)

	names := []string{}
	for _, tool := range s.ListTools() {
		names = append(names, tool.Name)
		assert.NotEmpty(t, tool.Description)
	}
	assert.Equal(t, []string{ToolSearch, ToolReindex}, names)
}

func TestServer_CallTool_Search(t *testing.T) {
	// Given: an engine with two matches
	f := &fakeSearcher{results: []string{"/notes/a.txt", "/notes/b.txt"}}
	s, err := NewServer(f, "/notes", nil)
	require.NoError(t, err)

	// When: calling the search tool
	out, err := s.CallTool(context.Background(), ToolSearch, map[string]any{"query": "quick fox"})

	// Then: results pass through against the configured root
	require.NoError(t, err)
	assert.Equal(t, SearchOutput{Results: f.results}, out)
	assert.Equal(t, "quick fox", f.gotQuery)
	assert.Equal(t, "/notes", f.gotRoot)
}

func TestServer_CallTool_SearchMarkers(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		marker string
	}{
		{"empty query", nserrors.ErrEmptyQuery, "Search query can't be null"},
		{"invalid directory", nserrors.ErrInvalidDirectory, "Invalid directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewServer(&fakeSearcher{err: tt.err}, "/notes", nil)
			require.NoError(t, err)

			out, err := s.CallTool(context.Background(), ToolSearch, map[string]any{"query": ""})

			require.NoError(t, err)
			assert.Equal(t, SearchOutput{Results: []string{}, Marker: tt.marker}, out)
		})
	}
}

func TestServer_CallTool_SearchFailure(t *testing.T) {
	s, err := NewServer(&fakeSearcher{err: nserrors.StoreError("disk gone", errors.New("eio"))}, "/notes", nil)
	require.NoError(t, err)

	_, err = s.CallTool(context.Background(), ToolSearch, map[string]any{"query": "fox"})

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeIndexUnavailable, mcpErr.Code)
}

func TestServer_CallTool_Reindex(t *testing.T) {
	f := &fakeSearcher{reindex: &index.Result{Root: "/notes", Indexed: 3, Skipped: 1, Terms: 12, Duration: 250 * time.Millisecond}}
	s, err := NewServer(f, "/notes", nil)
	require.NoError(t, err)

	out, err := s.CallTool(context.Background(), ToolReindex, nil)

	require.NoError(t, err)
	assert.Equal(t, ReindexOutput{Root: "/notes", Documents: 3, Skipped: 1, Terms: 12, DurationMS: 250}, out)
}

func TestServer_CallTool_UnknownTool(t *testing.T) {
	s, err := NewServer(&fakeSearcher{}, "/notes", nil)
	require.NoError(t, err)

	_, err = s.CallTool(context.Background(), "search_code", nil)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrCodeMethodNotFound, mcpErr.Code)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"deadline", context.DeadlineExceeded, ErrCodeTimeout},
		{"canceled", context.Canceled, ErrCodeTimeout},
		{"validation", nserrors.New(nserrors.ErrCodeInvalidInput, "bad", nil), ErrCodeInvalidParams},
		{"corrupt", nserrors.New(nserrors.ErrCodeCorruptIndex, "bad id", nil), ErrCodeIndexUnavailable},
		{"internal", nserrors.IndexError("boom", nil), ErrCodeInternalError},
		{"plain", errors.New("boom"), ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, MapError(tt.err).Code)
		})
	}
	assert.Nil(t, MapError(nil))
}

func TestMapError_AppendsSuggestion(t *testing.T) {
	err := nserrors.New(nserrors.ErrCodeCorruptIndex, "index contains an invalid document id", nil).
		WithSuggestion("Run 'notesearch index' to rebuild")

	assert.Equal(t, "index contains an invalid document id Run 'notesearch index' to rebuild", MapError(err).Message)
}

func connect(t *testing.T, s *Server) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	serverT, clientT := mcp.NewInMemoryTransports()

	ss, err := s.MCPServer().Connect(ctx, serverT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func decode(t *testing.T, v any, dst any) {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, dst))
}

func TestServer_Protocol_SearchAndReindex(t *testing.T) {
	// Given: a real engine over the scenario documents
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "doc1.txt"), []byte("the quick brown fox"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "doc2.txt"), []byte("the quick red fox runs"), 0o644))

	cfg := config.NewConfig()
	cfg.Index.Workers = 2
	engine, err := search.Setup(cfg, search.Dependencies{})
	require.NoError(t, err)
	s, err := NewServer(engine, root, nil)
	require.NoError(t, err)
	cs := connect(t, s)
	ctx := context.Background()

	// When: a client lists and calls tools
	listed, err := cs.ListTools(ctx, nil)
	require.NoError(t, err)
	require.Len(t, listed.Tools, 2)

	res, err := cs.CallTool(ctx, &mcp.CallToolParams{Name: ToolSearch, Arguments: map[string]any{"query": "fox brown"}})
	require.NoError(t, err)
	require.False(t, res.IsError)

	// Then: structured results name the matching document
	var out SearchOutput
	decode(t, res.StructuredContent, &out)
	assert.Equal(t, []string{filepath.Join(root, "doc1.txt")}, out.Results)

	res, err = cs.CallTool(ctx, &mcp.CallToolParams{Name: ToolReindex, Arguments: map[string]any{}})
	require.NoError(t, err)
	require.False(t, res.IsError)
	var re ReindexOutput
	decode(t, res.StructuredContent, &re)
	assert.Equal(t, 2, re.Documents)
}

func TestServer_Protocol_MarkerIsText(t *testing.T) {
	s, err := NewServer(&fakeSearcher{err: nserrors.ErrEmptyQuery}, "/notes", nil)
	require.NoError(t, err)
	cs := connect(t, s)

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: ToolSearch, Arguments: map[string]any{"query": "  "}})

	require.NoError(t, err)
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(*mcp.TextContent)
	require.True(t, ok)
	assert.Equal(t, "Search query can't be null", text.Text)
}
