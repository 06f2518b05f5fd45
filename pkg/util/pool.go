package util

import "runtime"

// GetOptimalPoolSize returns the worker count for CPU-bound work such as
// parsing Dart files or checking edited sources with tree-sitter.
//
// Formula: min(max(runtime.NumCPU() * 2, 4), 32)
//
// Twice the core count leaves room for goroutines blocked in cgo calls; the
// cap bounds the memory held by pooled tree-sitter parsers.
func GetOptimalPoolSize() int {
	return min(max(runtime.NumCPU()*2, 4), 32)
}

// GetOptimalPoolSizeWithOverride returns override when it is positive and
// GetOptimalPoolSize() otherwise.
func GetOptimalPoolSizeWithOverride(override int) int {
	if override > 0 {
		return override
	}
	return GetOptimalPoolSize()
}
