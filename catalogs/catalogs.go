// Package catalogs provides embedded pre-built catalog data for supported UI frameworks.
package catalogs

import _ "embed"

// FlutterJSON is the bundled Flutter widget catalog, embedded at build time.
//
//go:embed flutter/catalog.json
var FlutterJSON []byte
