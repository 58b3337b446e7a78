package parser

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned by the registry for unknown file extensions.
var ErrUnsupportedFormat = errors.New("parser: unsupported document format")

// Node is one element of a parsed document tree. Text nodes carry Tag "#text"
// and their content in Text. Element nodes carry attributes and children.
//
// Trees are produced upstream and treated as read-only by every consumer.
// All read helpers are nil-safe so extraction heuristics can walk malformed
// or partial trees without guarding every step.
type Node struct {
	Tag      string            `json:"tag"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Text     string            `json:"text,omitempty"`
	Children []*Node           `json:"children,omitempty"`
}

// TextTag marks a text node.
const TextTag = "#text"

// Document pairs a parsed tree with the identifier (path or URL) it came from.
type Document struct {
	Identifier string `json:"identifier"`
	Root       *Node  `json:"root"`
}

// Parser can turn a file of a specific format into a tree.
type Parser interface {
	Parse(ctx context.Context, path string) (*Node, error)
	SupportedFormats() []string
}

// Attr returns the attribute value for key, or "".
func (n *Node) Attr(key string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[key]
}

// HasClass reports whether the class attribute contains class.
func (n *Node) HasClass(class string) bool {
	for _, c := range strings.Fields(n.Attr("class")) {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

// Find returns every descendant (including n) matching pred, in document order.
func (n *Node) Find(pred func(*Node) bool) []*Node {
	var out []*Node
	n.walk(func(c *Node) bool {
		if pred(c) {
			out = append(out, c)
		}
		return true
	})
	return out
}

// First returns the first node in document order matching pred, or nil.
func (n *Node) First(pred func(*Node) bool) *Node {
	var found *Node
	n.walk(func(c *Node) bool {
		if pred(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

// walk visits nodes depth-first. Returning false from fn stops the walk.
func (n *Node) walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.walk(fn) {
			return false
		}
	}
	return true
}

// blockTags break text runs when flattening a subtree.
var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true, "h1": true,
	"h2": true, "h3": true, "h4": true, "h5": true, "h6": true, "blockquote": true,
	"pre": true, "table": true, "ul": true, "ol": true, "dd": true, "dt": true,
}

// TextContent flattens the subtree into text. Inline runs are joined with
// single spaces; block elements start a new line.
func (n *Node) TextContent() string {
	if n == nil {
		return ""
	}
	var b strings.Builder
	n.appendText(&b)
	lines := strings.Split(b.String(), "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func (n *Node) appendText(b *strings.Builder) {
	if n.Tag == TextTag {
		// Source newlines are whitespace; only block structure breaks lines.
		b.WriteString(strings.ReplaceAll(n.Text, "\n", " "))
		return
	}
	block := blockTags[n.Tag]
	if block {
		b.WriteString("\n")
	}
	for _, c := range n.Children {
		if c != nil {
			c.appendText(b)
		}
	}
	if block {
		b.WriteString("\n")
	} else if n.Tag != "" && n.Tag != "a" && n.Tag != "b" && n.Tag != "i" && n.Tag != "em" && n.Tag != "strong" && n.Tag != "span" && n.Tag != "sup" {
		b.WriteString(" ")
	}
}

// Lines returns the non-empty lines of TextContent.
func (n *Node) Lines() []string {
	t := n.TextContent()
	if t == "" {
		return nil
	}
	return strings.Split(t, "\n")
}

// Title returns the text of the <title> element, falling back to the first <h1>.
func (n *Node) Title() string {
	if t := n.First(IsTag("title")); t != nil {
		if s := strings.TrimSpace(t.TextContent()); s != "" {
			return s
		}
	}
	if h := n.First(IsTag("h1")); h != nil {
		return strings.TrimSpace(h.TextContent())
	}
	return ""
}

// Meta returns the content of the first <meta> whose name or property
// matches name case-insensitively.
func (n *Node) Meta(name string) string {
	m := n.First(func(c *Node) bool {
		if c.Tag != "meta" {
			return false
		}
		return strings.EqualFold(c.Attr("name"), name) || strings.EqualFold(c.Attr("property"), name)
	})
	return strings.TrimSpace(m.Attr("content"))
}

// MetaTags returns all name/property → content pairs, lower-cased keys.
func (n *Node) MetaTags() map[string]string {
	out := make(map[string]string)
	for _, m := range n.Find(IsTag("meta")) {
		key := m.Attr("name")
		if key == "" {
			key = m.Attr("property")
		}
		if key == "" {
			continue
		}
		key = strings.ToLower(key)
		if _, ok := out[key]; !ok {
			out[key] = strings.TrimSpace(m.Attr("content"))
		}
	}
	return out
}

// Headings returns h1..h6 nodes in document order.
func (n *Node) Headings() []*Node {
	return n.Find(func(c *Node) bool {
		return len(c.Tag) == 2 && c.Tag[0] == 'h' && c.Tag[1] >= '1' && c.Tag[1] <= '6'
	})
}

// Links returns anchors that carry an href.
func (n *Node) Links() []*Node {
	return n.Find(func(c *Node) bool { return c.Tag == "a" && c.Attr("href") != "" })
}

// IsTag returns a predicate matching element tag.
func IsTag(tag string) func(*Node) bool {
	return func(c *Node) bool { return c.Tag == tag }
}

// HasClassPred returns a predicate matching nodes carrying class.
func HasClassPred(class string) func(*Node) bool {
	return func(c *Node) bool { return c.HasClass(class) }
}

// sortedAttrKeys is used for canonical serialization.
func sortedAttrKeys(attrs map[string]string) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// WriteCanonical writes a deterministic serialization of the subtree:
// tags, attributes in key order, and text. Used for content hashing.
func (n *Node) WriteCanonical(w io.Writer) {
	if n == nil {
		io.WriteString(w, "()")
		return
	}
	io.WriteString(w, "(")
	io.WriteString(w, n.Tag)
	for _, k := range sortedAttrKeys(n.Attrs) {
		io.WriteString(w, " "+k+"="+n.Attrs[k])
	}
	if n.Text != "" {
		io.WriteString(w, " |"+n.Text)
	}
	for _, c := range n.Children {
		c.WriteCanonical(w)
	}
	io.WriteString(w, ")")
}

// Body returns the <body> element, or n itself when the tree has none.
func (n *Node) Body() *Node {
	if b := n.First(IsTag("body")); b != nil {
		return b
	}
	return n
}
