package parser

import (
	"path/filepath"
	"strings"
)

// Language represents a grammar the parser manager can load.
type Language int

const (
	// LanguageDart represents Dart (.dart files)
	LanguageDart Language = iota
	// LanguageUnknown represents an unsupported language
	LanguageUnknown
)

// String returns the string representation of the language.
func (l Language) String() string {
	switch l {
	case LanguageDart:
		return "dart"
	default:
		return "unknown"
	}
}

// DetectLanguage detects the language from a file path.
// Returns LanguageUnknown if the file extension is not recognized.
func DetectLanguage(filePath string) Language {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".dart":
		return LanguageDart
	default:
		return LanguageUnknown
	}
}

// ParseLanguageString converts a language string to a Language type.
func ParseLanguageString(lang string) Language {
	switch strings.ToLower(lang) {
	case "dart":
		return LanguageDart
	default:
		return LanguageUnknown
	}
}

// SupportedLanguages returns a list of all supported languages.
func SupportedLanguages() []Language {
	return []Language{LanguageDart}
}
