package store

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

// Backend selects the Store implementation.
type Backend string

const (
	// BackendSQLite uses modernc.org/sqlite in WAL mode (default).
	// Readers in other processes can open the store while it is written.
	BackendSQLite Backend = "sqlite"

	// BackendBolt uses bbolt. Single process only.
	BackendBolt Backend = "bolt"
)

// ParseBackend maps a config value to a Backend. Empty means SQLite.
func ParseBackend(s string) (Backend, error) {
	switch Backend(strings.ToLower(s)) {
	case BackendSQLite, "":
		return BackendSQLite, nil
	case BackendBolt:
		return BackendBolt, nil
	default:
		return "", fmt.Errorf("unknown store backend: %s (valid options: sqlite, bolt)", s)
	}
}

// Path returns the file that backs basePath for backend.
func Path(basePath string, backend Backend) string {
	switch backend {
	case BackendBolt:
		return basePath + ".bolt"
	default:
		return basePath + ".db"
	}
}

// Open opens (creating if absent) the store at basePath. The file extension
// follows the backend: .db for SQLite, .bolt for bbolt.
func Open(basePath string, backend Backend) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStore(Path(basePath, BackendSQLite))
	case BackendBolt:
		return NewBoltStore(Path(basePath, BackendBolt))
	default:
		return nil, fmt.Errorf("unknown store backend: %s (valid options: sqlite, bolt)", backend)
	}
}

// Repair checks the store at basePath and removes it when it is corrupt, so
// the next Open starts empty. It reports whether a store was removed. A
// check that cannot run returns its error and leaves the store alone.
// bbolt validates its file on open, so Repair is a no-op for BackendBolt.
func Repair(basePath string, backend Backend) (bool, error) {
	if backend == BackendBolt {
		return false, nil
	}
	path := Path(basePath, BackendSQLite)
	err := checkSQLiteIntegrity(path)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, errSQLiteCorrupt):
		if rerr := removeSQLite(path); rerr != nil {
			return false, fmt.Errorf("store corrupted at %s and cannot remove: %w (check: %v)", path, rerr, err)
		}
		return true, nil
	default:
		return false, err
	}
}

// DetectBackend reports which backend an existing store at basePath uses,
// or "" when no store exists.
func DetectBackend(basePath string) Backend {
	if fileExists(Path(basePath, BackendSQLite)) {
		return BackendSQLite
	}
	if fileExists(Path(basePath, BackendBolt)) {
		return BackendBolt
	}
	return ""
}

// Exists reports whether a store of any backend exists at basePath.
func Exists(basePath string) bool {
	return DetectBackend(basePath) != ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
