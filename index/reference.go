package index

import (
	"fmt"
	"strings"

	"github.com/brunobiangulo/goprovenance/parser"
)

const maxDescription = 1000

func isHeading(n *parser.Node) bool {
	return len(n.Tag) == 2 && n.Tag[0] == 'h' && n.Tag[1] >= '1' && n.Tag[1] <= '6'
}

// parseReference reads one glossary entry: heading, description, and the
// links under its "see also" marker.
func parseReference(doc parser.Document, markers []string) (*parsed, error) {
	if doc.Root == nil {
		return nil, fmt.Errorf("%w: %s: empty tree", ErrNoHeading, doc.Identifier)
	}
	body := doc.Root.Body()

	headNode := body.First(func(n *parser.Node) bool {
		if !isHeading(n) && !n.HasClass("term") {
			return false
		}
		t := strings.TrimSpace(n.TextContent())
		return t != "" && !isMarker(t, markers)
	})
	text := ""
	if headNode != nil {
		text = headNode.TextContent()
	} else {
		text = doc.Root.Title()
	}
	h, ok := ParseHeading(text)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoHeading, doc.Identifier)
	}

	typ := entityType(doc.Identifier, h)
	name := h.Name
	if typ != TypePerson && h.Inverted() {
		name = h.Raw
		if i := strings.Index(name, "("); i > 0 {
			name = strings.TrimSpace(name[:i])
		}
	}
	start := 0
	if h.Period != nil {
		start = h.Period.Start
	}

	aliases := GenerateAliases(name, typ)
	if h.Qualifier != "" {
		aliases = appendUnique(aliases, h.Qualifier)
	}

	e := &Entity{
		ID:          CanonicalID(name, start),
		Name:        name,
		Type:        typ,
		Period:      h.Period,
		Description: description(body, headNode, markers),
		Aliases:     aliases,
		CrossRefs:   []string{},
		Source:      doc.Identifier,
	}
	return &parsed{entity: e, refs: seeAlsoTargets(doc.Identifier, body, markers)}, nil
}

// entityType reads the glossary sub-collection from the path; an inverted
// "Surname, Given" heading elsewhere is taken as a person.
func entityType(identifier string, h Heading) EntityType {
	p := strings.ToLower(parser.StripHost(identifier))
	switch {
	case strings.Contains(p, "/people/"), strings.Contains(p, "/persons/"):
		return TypePerson
	case strings.Contains(p, "/orgs/"), strings.Contains(p, "/organisations/"),
		strings.Contains(p, "/organizations/"), strings.Contains(p, "/parties/"):
		return TypeOrganization
	case strings.Contains(p, "/terms/"), strings.Contains(p, "/events/"),
		strings.Contains(p, "/places/"), strings.Contains(p, "/periodicals/"):
		return TypeConcept
	}
	if h.Inverted() {
		return TypePerson
	}
	return TypeConcept
}

func isMarker(text string, markers []string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, m := range markers {
		if strings.HasPrefix(t, m) {
			return true
		}
	}
	return false
}

// description is the first paragraph-like block after the heading that is
// not a cross-reference line.
func description(body, head *parser.Node, markers []string) string {
	headText := ""
	if head != nil {
		headText = strings.TrimSpace(head.TextContent())
	}
	for _, n := range body.Find(func(n *parser.Node) bool { return n.Tag == "p" || n.Tag == "dd" }) {
		t := strings.Join(strings.Fields(n.TextContent()), " ")
		if t == "" || t == headText || isMarker(t, markers) || n.HasClass("term") {
			continue
		}
		if strings.HasPrefix(t, headText) && headText != "" {
			t = strings.TrimSpace(strings.TrimPrefix(t, headText))
			if t == "" {
				continue
			}
		}
		if r := []rune(t); len(r) > maxDescription {
			t = string(r[:maxDescription])
		}
		return t
	}
	return ""
}

// seeAlsoTargets collects link targets introduced by a marker. Two shapes
// are recognized: an inline block starting with the marker
// ("<p>See also: <a>..</a></p>"), and a heading equal to the marker
// followed by sibling blocks up to the next heading.
func seeAlsoTargets(identifier string, body *parser.Node, markers []string) []string {
	var targets []string
	seen := make(map[string]bool)
	collect := func(n *parser.Node) {
		for _, a := range n.Links() {
			t := parser.ResolveLink(identifier, a.Attr("href"))
			if t == "" || seen[t] {
				continue
			}
			seen[t] = true
			targets = append(targets, t)
		}
	}

	var visit func(n *parser.Node)
	visit = func(n *parser.Node) {
		if n == nil {
			return
		}
		inSection := false
		for _, c := range n.Children {
			if c == nil || c.Tag == parser.TextTag {
				continue
			}
			if isHeading(c) {
				inSection = isMarker(c.TextContent(), markers)
				continue
			}
			if inSection {
				collect(c)
				continue
			}
			if c.HasClass("seealso") || c.HasClass("see-also") ||
				(c.Tag != "a" && !containsBlock(c) && isMarker(c.TextContent(), markers)) {
				collect(c)
				continue
			}
			visit(c)
		}
	}
	visit(body)
	return targets
}

// containsBlock reports whether n has block-level descendants, so that a
// marker test applies to the innermost block only.
func containsBlock(n *parser.Node) bool {
	for _, c := range n.Children {
		if c == nil {
			continue
		}
		switch c.Tag {
		case "p", "div", "ul", "ol", "li", "dl", "dd", "dt", "table", "section", "blockquote":
			return true
		}
		if containsBlock(c) {
			return true
		}
	}
	return false
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
