package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Pubspec is the subset of pubspec.yaml the scanner needs.
type Pubspec struct {
	Name         string         `yaml:"name"`
	Version      string         `yaml:"version"`
	Description  string         `yaml:"description"`
	Dependencies map[string]any `yaml:"dependencies"`
}

// ReadPubspec reads rootDir/pubspec.yaml. A missing file yields an empty
// Pubspec and no error.
func ReadPubspec(rootDir string) (*Pubspec, error) {
	data, err := os.ReadFile(filepath.Join(rootDir, "pubspec.yaml"))
	if errors.Is(err, os.ErrNotExist) {
		return &Pubspec{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading pubspec: %w", err)
	}
	var spec Pubspec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing pubspec: %w", err)
	}
	return &spec, nil
}

// DependsOnFlutter reports whether the package declares a flutter dependency.
func (p *Pubspec) DependsOnFlutter() bool {
	_, ok := p.Dependencies["flutter"]
	return ok
}

// LibraryURI returns the URI of the library stored at path. Files under
// rootDir/lib of a named package get a package: URI, anything else a
// file: URI.
func LibraryURI(rootDir, pkg, path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if pkg != "" {
		absRoot, err := filepath.Abs(rootDir)
		if err == nil {
			rel, err := filepath.Rel(filepath.Join(absRoot, "lib"), abs)
			if err == nil && !strings.HasPrefix(rel, "..") {
				return "package:" + pkg + "/" + filepath.ToSlash(rel)
			}
		}
	}
	return "file://" + filepath.ToSlash(abs)
}
