package parser

import (
	"github.com/gnana997/widgetprops/pkg/util"
)

// getPoolSize returns the number of parsers a language pool may hold.
//
// Delegates to util.GetOptimalPoolSizeWithOverride so parser pools and the
// scanner's worker pool are sized alike: twice the core count, at least 4
// and at most 32 parsers. A positive override wins.
//
// Memory Impact (Dart grammar):
// - 4 parsers: ~4MB
// - 32 parsers: ~32MB
func getPoolSize(override int) int {
	return util.GetOptimalPoolSizeWithOverride(override)
}
