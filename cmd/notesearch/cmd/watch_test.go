package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notesearch/notesearch/internal/config"
	"github.com/notesearch/notesearch/internal/search"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRunWatch_RebuildsOnChange(t *testing.T) {
	// Given: a watched root
	isolate(t)
	root := scenarioRoot(t)
	cfg := config.NewConfig()
	cfg.Index.Workers = 2

	out := &syncBuffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(out)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runWatch(ctx, cmd, cfg, root) }()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Watching")
	}, 5*time.Second, 20*time.Millisecond)

	// When: a note is added
	require.NoError(t, os.WriteFile(filepath.Join(root, "fruit.txt"), []byte("a ripe banana"), 0o644))

	// Then: a second build reports three documents and finds the new note
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Indexed 3 documents")
	}, 10*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}

	engine, err := search.Setup(cfg, search.Dependencies{})
	require.NoError(t, err)
	got, err := engine.Search(context.Background(), "ripe banana", root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "fruit.txt")}, got)
}
