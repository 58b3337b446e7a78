package parser

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// HTMLParser handles .htm/.html files.
type HTMLParser struct{}

func (p *HTMLParser) SupportedFormats() []string { return []string{"htm", "html"} }

func (p *HTMLParser) Parse(ctx context.Context, path string) (*Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening html file: %w", err)
	}
	defer f.Close()
	return ParseHTML(f)
}

// ParseHTML builds a tree from HTML markup. Comments, doctype, script and
// style content are dropped. The returned root has an empty Tag.
func ParseHTML(r io.Reader) (*Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}
	root := &Node{}
	for c := doc.FirstChild; c != nil; c = c.NextSibling {
		if n := convertHTML(c); n != nil {
			root.Children = append(root.Children, n)
		}
	}
	return root, nil
}

// MustParseHTML parses a markup string and panics on error. Intended for fixtures.
func MustParseHTML(markup string) *Node {
	n, err := ParseHTML(strings.NewReader(markup))
	if err != nil {
		panic(err)
	}
	return n
}

func convertHTML(h *html.Node) *Node {
	switch h.Type {
	case html.TextNode:
		if strings.TrimSpace(h.Data) == "" && !strings.Contains(h.Data, " ") {
			return nil
		}
		return &Node{Tag: TextTag, Text: h.Data}
	case html.ElementNode:
		tag := strings.ToLower(h.Data)
		if tag == "script" || tag == "style" || tag == "noscript" {
			return nil
		}
		n := &Node{Tag: tag}
		if len(h.Attr) > 0 {
			n.Attrs = make(map[string]string, len(h.Attr))
			for _, a := range h.Attr {
				n.Attrs[strings.ToLower(a.Key)] = a.Val
			}
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			if cn := convertHTML(c); cn != nil {
				n.Children = append(n.Children, cn)
			}
		}
		return n
	default:
		return nil
	}
}
