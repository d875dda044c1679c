package search

import "github.com/RoaringBitmap/roaring/v2/roaring64"

// DefaultWindow is the default proximity window in words.
const DefaultWindow = 5

// Near reports whether consecutive query terms appear within window words
// of each other. positions[i] holds the offsets of the i-th query term.
//
// The active set starts as the first term's offsets. For every following
// term only its offsets within window of some active offset survive, and
// those become the new active set. An empty active set rejects the document.
func Near(positions [][]int, window int) bool {
	if len(positions) == 0 {
		return false
	}
	active := positions[0]
	if len(active) == 0 {
		return false
	}
	for _, next := range positions[1:] {
		kept := make([]int, 0, len(next))
		for _, p := range next {
			for _, a := range active {
				if abs(p-a) < window {
					kept = append(kept, p)
					break
				}
			}
		}
		if len(kept) == 0 {
			return false
		}
		active = kept
	}
	return true
}

// intersect returns the documents present in every bitmap, or an empty
// bitmap when there are none.
func intersect(sets []*roaring64.Bitmap) *roaring64.Bitmap {
	if len(sets) == 0 {
		return roaring64.New()
	}
	out := sets[0].Clone()
	for _, s := range sets[1:] {
		out.And(s)
		if out.IsEmpty() {
			break
		}
	}
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
