package scanner

import (
	"path/filepath"
	"strings"
)

// matchDirPattern reports whether a root-relative directory matches an
// exclude pattern. Supported forms:
//
//	**/name/**  any path component equal to name
//	dir/**      dir itself and everything below it
//	dir         exact path or prefix
func matchDirPattern(relPath, pattern string) bool {
	sep := string(filepath.Separator)

	if strings.HasPrefix(pattern, "**/") {
		name := strings.TrimSuffix(strings.TrimPrefix(pattern, "**/"), "/**")
		for _, part := range strings.Split(relPath, sep) {
			if part == name {
				return true
			}
		}
		return false
	}

	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return relPath == prefix || strings.HasPrefix(relPath, prefix+sep)
	}

	return relPath == pattern || strings.HasPrefix(relPath, pattern+sep)
}

// matchFilePattern reports whether a file matches an exclude pattern.
// Besides the directory forms it understands **/*.ext, dir/*glob and plain
// globs on the base name.
func matchFilePattern(baseName, relPath, pattern string) bool {
	sep := string(filepath.Separator)

	switch {
	case strings.HasSuffix(pattern, "/**") && !strings.HasPrefix(pattern, "**/"):
		prefix := strings.TrimSuffix(pattern, "/**")
		return strings.HasPrefix(relPath, prefix+sep)

	case strings.HasPrefix(pattern, "**/"):
		suffix := strings.TrimPrefix(pattern, "**/")
		if strings.HasPrefix(suffix, "*.") {
			return strings.HasSuffix(baseName, strings.TrimPrefix(suffix, "*"))
		}
		// Any parent directory component.
		dir := filepath.Dir(relPath)
		return dir != "." && matchDirPattern(dir, pattern)

	case strings.Contains(pattern, sep) && strings.Contains(pattern, "*"):
		if filepath.Dir(relPath) != filepath.Dir(pattern) {
			return false
		}
		ok, err := filepath.Match(filepath.Base(pattern), baseName)
		return err == nil && ok

	case strings.ContainsAny(pattern, "*?["):
		ok, err := filepath.Match(pattern, baseName)
		return err == nil && ok
	}

	return baseName == pattern || relPath == pattern
}

// Excluded reports whether a root-relative path is skipped by a walk with
// the given patterns. The app directory and everything below it always are.
func Excluded(relPath string, isDir bool, patterns []string) bool {
	for _, part := range strings.Split(relPath, string(filepath.Separator)) {
		if part == AppDirName {
			return true
		}
	}
	for _, p := range patterns {
		if isDir && matchDirPattern(relPath, p) {
			return true
		}
		if !isDir && matchFilePattern(filepath.Base(relPath), relPath, p) {
			return true
		}
	}
	return false
}
