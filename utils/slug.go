package utils

import (
	"regexp"
	"strings"
)

var (
	slugInvalidChars = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace   = regexp.MustCompile(`\s+`)
	slugHyphens      = regexp.MustCompile(`-{2,}`)
)

// Slugify turns a place name into its URL slug:
// "Lov-A Burger Grill & Cafe" -> "lov-a-burger-grill-cafe".
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugInvalidChars.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugHyphens.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
