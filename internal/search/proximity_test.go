package search

import (
	"testing"

	"github.com/RoaringBitmap/roaring/v2/roaring64"
	"github.com/stretchr/testify/assert"
)

func TestNear(t *testing.T) {
	tests := []struct {
		name      string
		positions [][]int
		window    int
		want      bool
	}{
		{"single term present", [][]int{{3}}, 5, true},
		{"single term absent", [][]int{{}}, 5, false},
		{"no terms", nil, 5, false},
		{"adjacent", [][]int{{1}, {2}}, 5, true},
		{"distance four", [][]int{{1}, {5}}, 5, true},
		{"distance five is too far", [][]int{{1}, {6}}, 5, false},
		{"order does not matter within window", [][]int{{6}, {3}}, 5, true},
		{"second term missing", [][]int{{1}, {}}, 5, false},
		{"chain through middle term", [][]int{{0}, {4}, {8}}, 5, true},
		{"chain only from surviving positions", [][]int{{0, 20}, {3}, {25}}, 5, false},
		{"any pair suffices", [][]int{{0, 40}, {100, 42}}, 5, true},
		{"repeated term", [][]int{{7}, {7}}, 5, true},
		{"window one requires same offset", [][]int{{2}, {3}}, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Near(tt.positions, tt.window))
		})
	}
}

func bitmapOf(ids ...uint64) *roaring64.Bitmap {
	bm := roaring64.New()
	for _, id := range ids {
		bm.Add(id)
	}
	return bm
}

func TestIntersect(t *testing.T) {
	got := intersect([]*roaring64.Bitmap{bitmapOf(9, 3, 1, 7), bitmapOf(7, 3, 2), bitmapOf(3, 7, 8)})
	assert.Equal(t, []uint64{3, 7}, got.ToArray())

	assert.True(t, intersect(nil).IsEmpty())
	assert.True(t, intersect([]*roaring64.Bitmap{bitmapOf(1), bitmapOf(2), bitmapOf(1)}).IsEmpty())
}

func TestIntersect_DoesNotModifyInputs(t *testing.T) {
	first := bitmapOf(1, 2, 3)
	intersect([]*roaring64.Bitmap{first, bitmapOf(2)})
	assert.Equal(t, uint64(3), first.GetCardinality())
}
