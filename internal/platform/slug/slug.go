// Package slug turns post titles into URL path segments.
package slug

import (
	"regexp"
	"strings"
)

var (
	unsafeChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	separators  = regexp.MustCompile(`[\s-]+`)
)

// Generate lowercases s, drops everything but ASCII letters, digits and
// separators, and joins the remaining words with single hyphens.
func Generate(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = unsafeChars.ReplaceAllString(result, "")
	result = separators.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}
