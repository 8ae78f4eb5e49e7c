package extract

import (
	"html"
	"regexp"
	"strings"
)

var (
	// scriptStyle removes script/style blocks whole; their text content is
	// code, not document text.
	scriptStyle = regexp.MustCompile(`(?is)<(script|style)[^>]*>.*?</(script|style)>`)
	htmlTag     = regexp.MustCompile(`<[^>]+>`)
	multiSpace  = regexp.MustCompile(`[ \t]+`)
)

// extractHTML strips tags and entities, leaving readable text.
func extractHTML(content []byte) (string, error) {
	s := scriptStyle.ReplaceAllString(string(content), " ")
	s = htmlTag.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = multiSpace.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n"), nil
}
