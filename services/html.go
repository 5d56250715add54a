package services

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

const (
	DescriptionLimit = 200
	ellipsis         = "..."
)

// blockTags become a space when stripped so adjacent words stay apart.
var blockTags = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "ul": true, "ol": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "tr": true, "td": true,
}

// CleanText decodes HTML entities, strips tags and collapses whitespace.
// Entities are decoded first, so escaped markup is stripped too.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	z := html.NewTokenizer(strings.NewReader(html.UnescapeString(s)))

	var b strings.Builder
	skip := 0
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Raw())
			}
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				switch tt {
				case html.StartTagToken:
					skip++
				case html.EndTagToken:
					if skip > 0 {
						skip--
					}
				}
				continue
			}
			if blockTags[tag] {
				b.WriteByte(' ')
			}
		}
	}
}

// Truncate cuts s to limit characters and marks the cut with an ellipsis.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + ellipsis
}

// CleanDescription is CleanText followed by the 200 character cut.
func CleanDescription(s string) string {
	return Truncate(CleanText(s), DescriptionLimit)
}
