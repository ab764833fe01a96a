package render

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strings"

	yamlv3 "gopkg.in/yaml.v3"
)

// Delimiter lines must start at column 0; an indented "- item" inside the
// body must not be mistaken for a frontmatter fence.
var frontmatterPattern = regexp.MustCompile(`(?sm)\A-{3,}[ \t]*\n(.*?)\n^-{3,}[ \t]*\n`)

// ExtractFrontmatter splits a leading YAML frontmatter block from the
// markdown body. Unparseable frontmatter is silently dropped; the body is
// still stripped of the block either way.
func ExtractFrontmatter(src []byte) (body []byte, meta map[string]any) {
	m := frontmatterPattern.FindSubmatchIndex(src)
	if m == nil {
		return src, nil
	}
	raw := src[m[2]:m[3]]
	body = src[m[1]:]

	parsed := make(map[string]any)
	if err := yamlv3.Unmarshal(raw, &parsed); err != nil {
		return body, nil
	}
	if len(parsed) == 0 {
		return body, nil
	}
	return body, parsed
}

// FrontmatterTable renders frontmatter key/value pairs as an HTML table.
// Lists and maps become bulleted lists, everything else plain text.
func FrontmatterTable(meta map[string]any) string {
	if len(meta) == 0 {
		return ""
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("<table class=\"frontmatter-table\">\n")
	for _, key := range keys {
		fmt.Fprintf(&b, "<tr><th>%s</th><td>", html.EscapeString(key))
		writeFrontmatterValue(&b, meta[key])
		b.WriteString("</td></tr>\n")
	}
	b.WriteString("</table>\n")
	return b.String()
}

func writeFrontmatterValue(b *strings.Builder, v any) {
	switch val := v.(type) {
	case []any:
		b.WriteString("<ul>")
		for _, item := range val {
			fmt.Fprintf(b, "<li>%s</li>", html.EscapeString(fmt.Sprint(item)))
		}
		b.WriteString("</ul>")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteString("<ul>")
		for _, k := range keys {
			fmt.Fprintf(b, "<li>%s: %s</li>", html.EscapeString(k), html.EscapeString(fmt.Sprint(val[k])))
		}
		b.WriteString("</ul>")
	default:
		b.WriteString(html.EscapeString(fmt.Sprint(val)))
	}
}
