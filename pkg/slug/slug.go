package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Generate creates a URL-friendly slug from a title.
//
// Examples:
//   - "Sunset Over Café" → "sunset-over-caf"
//   - "Blue   Horizon #3" → "blue-horizon-3"
func Generate(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
