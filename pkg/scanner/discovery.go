package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// DiscoverFiles walks rootDir applying include/exclude globs from cfg.
// Returns a sorted slice of absolute file paths for deterministic output.
func DiscoverFiles(rootDir string, cfg ScanConfig) ([]string, error) {
	if err := validatePatterns(cfg); err != nil {
		return nil, err
	}

	absRoot, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root path: %w", err)
	}

	var files []string
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, err := filepath.Rel(absRoot, path)
		if err != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		if matchAny(cfg.Exclude, rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if len(cfg.Include) > 0 && !matchAny(cfg.Include, rel) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// MatchesConfig reports whether rel, a slash-separated path relative to the
// scan root, would be picked up by cfg.
func MatchesConfig(cfg ScanConfig, rel string) bool {
	rel = filepath.ToSlash(rel)
	if matchAny(cfg.Exclude, rel) {
		return false
	}
	return len(cfg.Include) == 0 || matchAny(cfg.Include, rel)
}

func validatePatterns(cfg ScanConfig) error {
	for _, pattern := range cfg.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern: %s", pattern)
		}
	}
	for _, pattern := range cfg.Include {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid include pattern: %s", pattern)
		}
	}
	return nil
}

func matchAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if m, _ := doublestar.Match(pattern, rel); m {
			return true
		}
	}
	return false
}
