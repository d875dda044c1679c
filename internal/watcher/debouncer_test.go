package watcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveBatch(t *testing.T, d *Debouncer, timeout time.Duration) []FileEvent {
	t.Helper()
	select {
	case batch := <-d.Output():
		return batch
	case <-time.After(timeout):
		t.Fatal("timeout waiting for debounced batch")
		return nil
	}
}

func TestDebouncer_Merge(t *testing.T) {
	tests := []struct {
		name string
		ops  []Operation
		want Operation
	}{
		{"single create", []Operation{OpCreate}, OpCreate},
		{"create then modify stays create", []Operation{OpCreate, OpModify}, OpCreate},
		{"modify then delete is delete", []Operation{OpModify, OpDelete}, OpDelete},
		{"delete then create is modify", []Operation{OpDelete, OpCreate}, OpModify},
		{"repeated modify", []Operation{OpModify, OpModify, OpModify}, OpModify},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Given: a debouncer with a short window
			d := NewDebouncer(30 * time.Millisecond)
			defer d.Stop()

			// When: operations for one note arrive in a burst
			for _, op := range tt.ops {
				d.Add(FileEvent{Path: "journal.txt", Operation: op, Timestamp: time.Now()})
			}

			// Then: a single merged event comes out
			batch := receiveBatch(t, d, 300*time.Millisecond)
			require.Len(t, batch, 1)
			assert.Equal(t, "journal.txt", batch[0].Path)
			assert.Equal(t, tt.want, batch[0].Operation)
		})
	}
}

func TestDebouncer_CreateThenDelete_CancelsOut(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "scratch.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "scratch.txt", Operation: OpDelete})

	select {
	case batch := <-d.Output():
		t.Fatalf("unexpected batch %v", batch)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncer_BatchSortedByPath(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	defer d.Stop()

	d.Add(FileEvent{Path: "c.txt", Operation: OpDelete})
	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate})
	d.Add(FileEvent{Path: "b.txt", Operation: OpModify})

	batch := receiveBatch(t, d, 300*time.Millisecond)
	require.Len(t, batch, 3)
	assert.Equal(t, "a.txt", batch[0].Path)
	assert.Equal(t, "b.txt", batch[1].Path)
	assert.Equal(t, "c.txt", batch[2].Path)
}

func TestDebouncer_WindowRestartsOnEachEvent(t *testing.T) {
	d := NewDebouncer(80 * time.Millisecond)
	defer d.Stop()

	for range 4 {
		d.Add(FileEvent{Path: "draft.txt", Operation: OpModify})
		time.Sleep(30 * time.Millisecond)
	}

	batch := receiveBatch(t, d, 500*time.Millisecond)
	assert.Len(t, batch, 1)
}

func TestDebouncer_Stop(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)
	d.Add(FileEvent{Path: "a.txt", Operation: OpCreate})

	d.Stop()
	d.Stop()
	d.Add(FileEvent{Path: "b.txt", Operation: OpCreate})

	_, ok := <-d.Output()
	assert.False(t, ok)
}
