// Package render converts markdown source into the HTML served by the
// viewer: goldmark with GFM and syntax highlighting, plus the viewer's
// preprocessing (mermaid fences, list normalization, frontmatter).
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Result holds everything the viewer page needs from one markdown source.
type Result struct {
	HTML            string
	FrontmatterHTML string
	Meta            map[string]any
	TOC             []Heading
}

// Renderer converts markdown to HTML. Safe for concurrent use.
type Renderer struct {
	md goldmark.Markdown
}

// New builds the viewer's markdown renderer.
func New() *Renderer {
	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				highlighting.NewHighlighting(
					highlighting.WithStyle("github"),
				),
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				html.WithUnsafe(),
			),
		),
	}
}

// Render runs the full pipeline: frontmatter extraction, list
// normalization, mermaid rewrite, markdown conversion, TOC extraction.
func (r *Renderer) Render(source []byte) (*Result, error) {
	body, meta := ExtractFrontmatter(source)

	body = EnsureListNewlines(body)
	body = RewriteMermaidBlocks(body)

	var buf bytes.Buffer
	if err := r.md.Convert(body, &buf); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	htmlOut := buf.String()
	return &Result{
		HTML:            htmlOut,
		FrontmatterHTML: FrontmatterTable(meta),
		Meta:            meta,
		TOC:             ExtractHeadings(htmlOut),
	}, nil
}
