package view

import (
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/ziadkadry99/mdview/internal/clipboard"
)

// ContentRootClass identifies the rendered content root the pipeline
// operates on. Its absence is a hard precondition failure.
const ContentRootClass = "markdown-body"

const (
	// RefInlineClass marks a standalone reference token in inline code.
	RefInlineClass = "ref-inline"
	// RefTokenClass marks a wrapped reference token group in plain text.
	RefTokenClass = "ref-token"
	// CopyButtonClass marks an injected copy control.
	CopyButtonClass = "copy-button"
	// ContainerClass marks the positioning container around a code block.
	ContainerClass = "code-block-container"
	// HighlightClass marks a rich (highlighter-produced) code block.
	HighlightClass = "highlight"

	copiedClass = "copied"

	copyLabel    = "Copy"
	copiedLabel  = "Copied!"
	errorLabel   = "Error"
	copyAriaText = "Copy code to clipboard"
)

const refInlineStyle = "font-size:0.85em;color:#6a737d;background:#f6f8fa;" +
	"padding:1px 4px;border-radius:3px"

// defaultFeedbackFor bounds the Copied!/Error feedback on the copy control.
const defaultFeedbackFor = 2000 * time.Millisecond

var (
	// One or more bracketed groups of short alphanumeric identifiers,
	// comma-separable: [ab12] or [ab12,cd34,ef56].
	tokenGroupRE = regexp.MustCompile(`\[[0-9A-Za-z]{2,6}(?:,[0-9A-Za-z]{2,6})*\]`)
	// A single bracketed identifier filling an inline code element.
	standaloneRE = regexp.MustCompile(`^\[[0-9A-Za-z]{2,6}\]$`)
)

// Pipeline annotates a rendered document tree: reference token styling and
// copy affordance injection. Both passes are idempotent: every mutation is
// guarded by a marker check, so re-running the pipeline over an unchanged
// tree changes nothing.
type Pipeline struct {
	clip        *clipboard.Copier
	docLock     sync.Locker
	feedbackFor time.Duration
}

// NewPipeline builds a pipeline using the given clipboard adapter. docLock
// guards the deferred copy-feedback reverts; pass nil when the tree has a
// single owner.
func NewPipeline(clip *clipboard.Copier, docLock sync.Locker) *Pipeline {
	if docLock == nil {
		docLock = nopLocker{}
	}
	return &Pipeline{
		clip:        clip,
		docLock:     docLock,
		feedbackFor: defaultFeedbackFor,
	}
}

// Annotate runs both passes over the document. It fails only when the
// content root is missing; the walk cannot proceed without one.
func (p *Pipeline) Annotate(doc *html.Node) error {
	root := FindByClass(doc, ContentRootClass)
	if root == nil {
		return fmt.Errorf("annotate: no element with class %q in document", ContentRootClass)
	}
	p.styleReferenceTokens(root)
	p.injectCopyButtons(root)
	return nil
}

// styleReferenceTokens is the reference-token pass. Standalone tokens in
// inline code get muted styling; token groups in plain text get wrapped in
// marker spans. Text inside other code or preformatted content is left as
// raw code.
func (p *Pipeline) styleReferenceTokens(root *html.Node) {
	// Standalone case: inline code whose entire trimmed text is one token.
	for _, code := range FindAllByTag(root, "code") {
		if isPreformatted(code.Parent) {
			continue
		}
		if !standaloneRE.MatchString(strings.TrimSpace(Text(code))) {
			continue
		}
		if HasClass(code, RefInlineClass) {
			continue // already styled on an earlier pass
		}
		AddClass(code, RefInlineClass)
		SetAttr(code, "style", refInlineStyle)
	}

	// Plain-text case: wrap token groups in text nodes outside code/pre.
	// Collect first; wrapping replaces nodes and would derail the walk.
	var candidates []*html.Node
	Walk(root, func(n *html.Node) {
		if n.Type != html.TextNode {
			return
		}
		if n.Parent == nil || skipTextContainer(n.Parent) {
			return
		}
		if ancestorMatches(n, func(a *html.Node) bool {
			return a.Data == "code" || isPreformatted(a)
		}) {
			return
		}
		// Marker check: text already inside a wrap span stays untouched,
		// which keeps repeated passes over an unchanged tree no-ops.
		if ancestorMatches(n, func(a *html.Node) bool { return HasClass(a, RefTokenClass) }) {
			return
		}
		if tokenGroupRE.MatchString(n.Data) {
			candidates = append(candidates, n)
		}
	})

	for _, n := range candidates {
		wrapTokenGroups(n)
	}
}

// wrapTokenGroups rebuilds one text node as a sequence of plain text and
// marker spans around each matched token group.
func wrapTokenGroups(textNode *html.Node) {
	parent := textNode.Parent
	if parent == nil {
		return
	}
	text := textNode.Data
	matches := tokenGroupRE.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return
	}

	pos := 0
	for _, m := range matches {
		if m[0] > pos {
			parent.InsertBefore(TextNode(text[pos:m[0]]), textNode)
		}
		span := Element("span", "class", RefTokenClass)
		span.AppendChild(TextNode(text[m[0]:m[1]]))
		parent.InsertBefore(span, textNode)
		pos = m[1]
	}
	if pos < len(text) {
		parent.InsertBefore(TextNode(text[pos:]), textNode)
	}
	parent.RemoveChild(textNode)
}

// injectCopyButtons is the copy-affordance pass: every rich code block and
// every plain pre block outside a rich block gets exactly one copy control.
func (p *Pipeline) injectCopyButtons(root *html.Node) {
	var blocks []*html.Node
	blocks = append(blocks, FindAllByClass(root, HighlightClass)...)
	for _, pre := range FindAllByTag(root, "pre") {
		if !ancestorMatches(pre, func(a *html.Node) bool { return HasClass(a, HighlightClass) }) {
			blocks = append(blocks, pre)
		}
	}

	for _, block := range blocks {
		p.injectCopyButton(block)
	}
}

func (p *Pipeline) injectCopyButton(block *html.Node) {
	// Idempotence guard: a block whose container already carries the
	// control is never given a second one.
	container := block.Parent
	if container != nil && HasClass(container, ContainerClass) {
		if FindByClass(container, CopyButtonClass) != nil {
			return
		}
	} else {
		if FindByClass(block, CopyButtonClass) != nil {
			return
		}
		container = wrapInContainer(block)
	}

	btn := Element("button",
		"class", CopyButtonClass,
		"type", "button",
		"aria-label", copyAriaText,
	)
	btn.AppendChild(TextNode(copyLabel))
	container.AppendChild(btn)
}

// wrapInContainer moves the block into a fresh positioning container.
func wrapInContainer(block *html.Node) *html.Node {
	parent := block.Parent
	container := Element("div", "class", ContainerClass)
	if parent != nil {
		parent.InsertBefore(container, block)
		parent.RemoveChild(block)
	}
	container.AppendChild(block)
	return container
}

// ActivateCopy runs one activation of a copy control: extract the block's
// text, hand it to the clipboard adapter, and flash transient feedback
// that self-reverts. Failures are logged, never returned; the caller sees
// only the label change.
func (p *Pipeline) ActivateCopy(btn *html.Node) {
	text := p.blockTextFor(btn)

	ok := p.clip.Copy(text)
	if ok {
		setButtonLabel(btn, copiedLabel)
		AddClass(btn, copiedClass)
	} else {
		log.Printf("view: clipboard copy failed for %d byte block", len(text))
		setButtonLabel(btn, errorLabel)
	}

	time.AfterFunc(p.feedbackFor, func() {
		p.docLock.Lock()
		defer p.docLock.Unlock()
		setButtonLabel(btn, copyLabel)
		RemoveClass(btn, copiedClass)
	})
}

// blockTextFor locates the code block sharing the control's container and
// extracts its text, preferring a nested code element over the block
// wrapper itself.
func (p *Pipeline) blockTextFor(btn *html.Node) string {
	container := btn.Parent
	if container == nil {
		return ""
	}
	for c := container.FirstChild; c != nil; c = c.NextSibling {
		if c == btn || c.Type != html.ElementNode {
			continue
		}
		if code := firstTag(c, "code"); code != nil {
			return Text(code)
		}
		return Text(c)
	}
	return ""
}

func firstTag(root *html.Node, tag string) *html.Node {
	if nodes := FindAllByTag(root, tag); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

func setButtonLabel(btn *html.Node, label string) {
	RemoveChildren(btn)
	btn.AppendChild(TextNode(label))
}

// isPreformatted reports whether an element renders its content verbatim.
func isPreformatted(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode && n.Data == "pre"
}

// skipTextContainer lists element types whose text nodes are never
// scanned for tokens.
func skipTextContainer(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "script", "style", "textarea":
		return true
	}
	return false
}
