package catalog

import (
	"path"
	"strings"
)

// ResolveURI resolves ref, as written in an import or export directive,
// against the URI of the library containing the directive. References that
// already carry a scheme are returned unchanged.
func ResolveURI(base, ref string) string {
	if ref == "" || strings.Contains(ref, ":") {
		return ref
	}
	scheme, rest := splitScheme(base)
	if strings.HasPrefix(ref, "/") {
		return scheme + path.Clean(ref)
	}
	return scheme + path.Join(path.Dir(rest), ref)
}

// IsPrivateURI reports whether uri names an implementation library of a
// package (package:name/src/...).
func IsPrivateURI(uri string) bool {
	return strings.HasPrefix(uri, "package:") && strings.Contains(uri, "/src/")
}

func splitScheme(uri string) (scheme, rest string) {
	switch {
	case strings.HasPrefix(uri, "file://"):
		return "file://", strings.TrimPrefix(uri, "file://")
	case strings.HasPrefix(uri, "package:"):
		return "package:", strings.TrimPrefix(uri, "package:")
	case strings.HasPrefix(uri, "dart:"):
		return "dart:", strings.TrimPrefix(uri, "dart:")
	}
	return "", uri
}
