// Package textcase provides locale-independent case mapping for matching
// freeform document text against canonical tokens.
package textcase

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lower returns s mapped to lower case.
func Lower(s string) string {
	// A Caser is stateful, so one is built per call.
	return cases.Lower(language.Und).String(s)
}

// Contains reports whether substr occurs in s, ignoring case.
func Contains(s, substr string) bool {
	return strings.Contains(Lower(s), Lower(substr))
}
