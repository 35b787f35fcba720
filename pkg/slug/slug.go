package slug

import (
	"regexp"
	"strings"
)

var nonAlphanum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL- and API-safe slug from a display name. Non-ASCII
// characters (e.g. Arabic bundle names) are dropped rather than
// transliterated, so callers should expect an empty slug for fully
// non-Latin input and append their own suffix.
//
// Examples:
//   - "Summer Bundle 2026" → "summer-bundle-2026"
//   - "Buy 2 / Get 1!"     → "buy-2-get-1"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = nonAlphanum.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	return s
}
