package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

var errBadLocation = errors.New("location must be a byte offset or LINE:COLUMN")

// parseLocation converts a byte offset or a 1-based LINE:COLUMN (column in
// characters) into a byte offset of content.
func parseLocation(content, loc string) (int, error) {
	line, col, found := strings.Cut(loc, ":")
	if !found {
		offset, err := strconv.Atoi(loc)
		if err != nil || offset < 0 || offset > len(content) {
			return 0, fmt.Errorf("%w: %q", errBadLocation, loc)
		}
		return offset, nil
	}

	l, err1 := strconv.Atoi(line)
	c, err2 := strconv.Atoi(col)
	if err1 != nil || err2 != nil || l < 1 || c < 1 {
		return 0, fmt.Errorf("%w: %q", errBadLocation, loc)
	}
	offset := 0
	for i := 1; i < l; i++ {
		nl := strings.IndexByte(content[offset:], '\n')
		if nl < 0 {
			return 0, fmt.Errorf("%w: line %d past end of file", errBadLocation, l)
		}
		offset += nl + 1
	}
	for i := 1; i < c; i++ {
		if offset >= len(content) || content[offset] == '\n' {
			return 0, fmt.Errorf("%w: column %d past end of line %d", errBadLocation, c, l)
		}
		_, size := utf8.DecodeRuneInString(content[offset:])
		offset += size
	}
	return offset, nil
}
