package render

import (
	"bytes"
	"regexp"
)

var (
	mermaidFence = regexp.MustCompile("(?s)```mermaid\n(.*?)\n```")
	listStart    = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)
	listLine     = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+`)
)

// RewriteMermaidBlocks converts mermaid code fences into div elements for
// client-side rendering, before markdown conversion sees them.
func RewriteMermaidBlocks(src []byte) []byte {
	return mermaidFence.ReplaceAllFunc(src, func(m []byte) []byte {
		code := mermaidFence.FindSubmatch(m)[1]
		var out bytes.Buffer
		out.WriteString("<div class=\"mermaid\">\n")
		out.Write(code)
		out.WriteString("\n</div>")
		return out.Bytes()
	})
}

// EnsureListNewlines inserts a blank line before a list item that directly
// follows a non-blank, non-list line, so tightly written lists still parse
// as lists.
func EnsureListNewlines(src []byte) []byte {
	lines := bytes.Split(src, []byte("\n"))
	out := make([][]byte, 0, len(lines)+8)

	for i, line := range lines {
		if i > 0 && listStart.Match(line) {
			prev := bytes.TrimSpace(lines[i-1])
			if len(prev) > 0 && !listLine.Match(prev) {
				out = append(out, nil)
			}
		}
		out = append(out, line)
	}
	return bytes.Join(out, []byte("\n"))
}
