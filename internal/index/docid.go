package index

import (
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// DocID identifies a document by the hash of its absolute path. The same
// path always yields the same id; content never affects it.
type DocID uint64

// NewDocID hashes an absolute path.
func NewDocID(absPath string) DocID {
	return DocID(xxhash.Sum64String(absPath))
}

// Hex renders the id as the 16-digit store key.
func (d DocID) Hex() string {
	return fmt.Sprintf("%016x", uint64(d))
}

// String implements fmt.Stringer.
func (d DocID) String() string {
	return d.Hex()
}

// ParseDocID parses a store key produced by Hex.
func ParseDocID(s string) (DocID, error) {
	if len(s) != 16 {
		return 0, fmt.Errorf("invalid document id %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid document id %q: %w", s, err)
	}
	return DocID(v), nil
}
