package render

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Summary extracts the visible text of an HTML fragment, collapsing
// whitespace, and cuts it to at most limit runes on a word boundary.
// A limit of zero or less returns the full text.
func Summary(fragment string, limit int) string {
	z := html.NewTokenizer(strings.NewReader(fragment))
	var b strings.Builder
	skip := 0

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			return truncateWords(strings.Join(strings.Fields(b.String()), " "), limit)
		case html.StartTagToken:
			name, _ := z.TagName()
			if isSkippedElement(string(name)) {
				skip++
			}
			if !isInline(string(name)) {
				b.WriteByte(' ')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if isSkippedElement(string(name)) && skip > 0 {
				skip--
			}
			if !isInline(string(name)) {
				b.WriteByte(' ')
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		}
	}
}

func isSkippedElement(name string) bool {
	switch name {
	case "script", "style", "pre", "sup":
		return true
	}
	return false
}

func isInline(name string) bool {
	switch name {
	case "a", "abbr", "b", "code", "del", "em", "i", "kbd", "mark", "s", "small", "span", "strong", "sub", "sup":
		return true
	}
	return false
}

func truncateWords(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	cut := string(runes[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}
