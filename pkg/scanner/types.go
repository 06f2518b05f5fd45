// Package scanner reads Dart source trees and turns their class, constructor
// and enum declarations into catalog libraries, so that project-local
// widgets can be described and edited alongside the framework catalog.
package scanner

import "github.com/gnana997/widgetprops/pkg/catalog"

// ScanConfig configures which files are scanned.
type ScanConfig struct {
	// Include glob patterns for file matching.
	Include []string
	// Exclude glob patterns.
	Exclude []string
	// PackageName overrides the name read from pubspec.yaml.
	PackageName string
}

// DefaultScanConfig returns the default configuration: every Dart file
// except generated code, build output and tests.
func DefaultScanConfig() ScanConfig {
	return ScanConfig{
		Include: []string{"**/*.dart"},
		Exclude: []string{
			".dart_tool/**",
			".git/**",
			"build/**",
			".idea/**",
			".vscode/**",
			"ios/**",
			"android/**",
			"test/**",
			"**/*.g.dart",
			"**/*.freezed.dart",
			"**/*.mocks.dart",
		},
	}
}

// FileError records a file that could not be read or parsed.
type FileError struct {
	Path string
	Err  error
}

// ScanResult is the output of a scan.
type ScanResult struct {
	Package   string
	Libraries []catalog.Library
	Failed    []FileError
	Stats     ScanStats
}

// ScanStats tracks scan performance metrics.
type ScanStats struct {
	FilesDiscovered int
	FilesParsed     int
	FilesFailed     int
	Classes         int
	Widgets         int
	Enums           int
	DiscoveryTimeMs int64
	ParseTimeMs     int64
	TotalTimeMs     int64
}
