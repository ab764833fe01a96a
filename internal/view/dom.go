// Package view implements the live view over a rendered markdown document:
// the liveness monitor, the refresh scheduler, and the annotation pipeline
// that enriches the rendered tree. The document is an html.Node tree; the
// helpers in this file are the small DOM surface the rest of the package
// needs.
package view

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ParseDocument parses a full HTML page into a document node.
func ParseDocument(page string) (*html.Node, error) {
	return html.Parse(strings.NewReader(page))
}

// ParseFragment parses an HTML fragment as it would appear inside a div.
func ParseFragment(fragment string) ([]*html.Node, error) {
	ctx := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(fragment), ctx)
}

// RenderHTML serializes a node tree back to HTML.
func RenderHTML(n *html.Node) (string, error) {
	var b strings.Builder
	if err := html.Render(&b, n); err != nil {
		return "", err
	}
	return b.String(), nil
}

// GetAttr returns the value of an attribute, or "" when absent.
func GetAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// SetAttr sets or replaces an attribute.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether an element carries the given class.
func HasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(GetAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// AddClass adds a class to an element if not already present.
func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	existing := GetAttr(n, "class")
	if existing == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", existing+" "+class)
}

// RemoveClass removes a class from an element; absent classes are a no-op.
func RemoveClass(n *html.Node, class string) {
	fields := strings.Fields(GetAttr(n, "class"))
	kept := fields[:0]
	for _, c := range fields {
		if c != class {
			kept = append(kept, c)
		}
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// Walk visits n and all descendants in document order.
func Walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, visit)
	}
}

// FindByID returns the first element with the given id, or nil.
func FindByID(root *html.Node, id string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) {
		if found == nil && n.Type == html.ElementNode && GetAttr(n, "id") == id {
			found = n
		}
	})
	return found
}

// FindByClass returns the first element carrying the given class, or nil.
func FindByClass(root *html.Node, class string) *html.Node {
	var found *html.Node
	Walk(root, func(n *html.Node) {
		if found == nil && HasClass(n, class) {
			found = n
		}
	})
	return found
}

// FindAllByClass returns every element carrying the given class.
func FindAllByClass(root *html.Node, class string) []*html.Node {
	var found []*html.Node
	Walk(root, func(n *html.Node) {
		if HasClass(n, class) {
			found = append(found, n)
		}
	})
	return found
}

// FindAllByTag returns every element with the given tag name.
func FindAllByTag(root *html.Node, tag string) []*html.Node {
	var found []*html.Node
	Walk(root, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == tag {
			found = append(found, n)
		}
	})
	return found
}

// Text returns the concatenated text content of a subtree.
func Text(n *html.Node) string {
	var b strings.Builder
	Walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
	})
	return b.String()
}

// Detach removes a node from its parent; detached nodes are a no-op.
func Detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// RemoveChildren strips all children from a node.
func RemoveChildren(n *html.Node) {
	for n.FirstChild != nil {
		n.RemoveChild(n.FirstChild)
	}
}

// Element builds an element node with optional key/value attribute pairs.
func Element(tag string, attrPairs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, Data: tag, DataAtom: atom.Lookup([]byte(tag))}
	for i := 0; i+1 < len(attrPairs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrPairs[i], Val: attrPairs[i+1]})
	}
	return n
}

// TextNode builds a text node.
func TextNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// ancestorMatches reports whether any ancestor of n satisfies pred.
func ancestorMatches(n *html.Node, pred func(*html.Node) bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if pred(p) {
			return true
		}
	}
	return false
}

// body returns the body element of a document, or the document itself when
// parsing produced no body (fragment roots).
func body(doc *html.Node) *html.Node {
	if b := FindAllByTag(doc, "body"); len(b) > 0 {
		return b[0]
	}
	return doc
}
