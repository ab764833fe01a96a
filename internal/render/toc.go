package render

import (
	"html"
	"regexp"
	"strings"
)

// Heading is one table-of-contents entry. Only h2 headings are collected.
type Heading struct {
	Level int    `json:"level"`
	ID    string `json:"id"`
	Text  string `json:"text"`
}

var (
	headingPattern = regexp.MustCompile(`(?is)<h2([^>]*)>(.*?)</h2>`)
	idAttrPattern  = regexp.MustCompile(`id=["']([^"']+)["']`)
	tagPattern     = regexp.MustCompile(`<[^>]+>`)
	nonSlugPattern = regexp.MustCompile(`[^\w\s-]`)
	dashRunPattern = regexp.MustCompile(`-+`)
)

// ExtractHeadings collects h2 headings from rendered HTML for the sidebar
// table of contents.
func ExtractHeadings(htmlContent string) []Heading {
	var out []Heading
	for _, m := range headingPattern.FindAllStringSubmatch(htmlContent, -1) {
		attrs, inner := m[1], m[2]
		text := strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(inner, "")))

		var id string
		if idm := idAttrPattern.FindStringSubmatch(attrs); idm != nil {
			id = idm[1]
		} else {
			id = Slugify(text)
		}
		out = append(out, Heading{Level: 2, ID: id, Text: text})
	}
	return out
}

// Slugify turns heading text into an anchor id.
func Slugify(text string) string {
	s := nonSlugPattern.ReplaceAllString(strings.ToLower(text), "")
	s = strings.ReplaceAll(s, " ", "-")
	s = dashRunPattern.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
