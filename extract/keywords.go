package extract

import (
	"regexp"
	"strings"

	"github.com/brunobiangulo/goprovenance/parser"
)

var keywordSplitRe = regexp.MustCompile(`\s*[,;]\s*`)

// MetaKeywords splits <meta name="keywords"> on commas and semicolons.
type MetaKeywords struct{ info }

func NewMetaKeywords() *MetaKeywords {
	return &MetaKeywords{info{"keywords.meta", FieldKeywords, TagMeta, 0.8}}
}

func (s *MetaKeywords) Extract(doc Document) Result {
	raw := doc.Tree.Meta("keywords")
	if raw == "" {
		raw = doc.Tree.Meta("dc.subject")
	}
	if raw == "" {
		return s.miss()
	}
	return s.hits(keywordSplitRe.Split(raw, -1))
}

var breadcrumbNoise = map[string]bool{
	"mia": true, "home": true, "marxists internet archive": true,
	"marxists.org": true, "index": true, "main": true, "archive": true,
}

// BreadcrumbKeywords reads the navigation trail: a class="breadcrumb"
// element, or a class="title" block holding a.title links.
type BreadcrumbKeywords struct{ info }

func NewBreadcrumbKeywords() *BreadcrumbKeywords {
	return &BreadcrumbKeywords{info{"keywords.breadcrumb", FieldKeywords, TagBreadcrumb, 0.7}}
}

func (s *BreadcrumbKeywords) Extract(doc Document) Result {
	trail := doc.Tree.First(func(n *parser.Node) bool {
		if n.Tag == "a" || n.Tag == parser.TextTag {
			return false
		}
		if n.HasClass("breadcrumb") {
			return true
		}
		return n.HasClass("title") && n.First(func(c *parser.Node) bool {
			return c != n && c.Tag == "a" && c.HasClass("title")
		}) != nil
	})
	if trail == nil {
		return s.miss()
	}
	var crumbs []string
	for _, a := range trail.Find(parser.IsTag("a")) {
		text := strings.TrimSpace(a.TextContent())
		if text == "" || breadcrumbNoise[strings.ToLower(text)] {
			continue
		}
		crumbs = append(crumbs, text)
	}
	return s.hits(crumbs)
}

const maxLinkKeywords = 20

// LinkKeywords collects the anchor text of links into the subject and
// glossary collections.
type LinkKeywords struct{ info }

func NewLinkKeywords() *LinkKeywords {
	return &LinkKeywords{info{"keywords.links", FieldKeywords, TagLinks, 0.5}}
}

func (s *LinkKeywords) Extract(doc Document) Result {
	var terms []string
	for _, a := range doc.Tree.Links() {
		target := parser.ResolveLink(doc.Identifier, a.Attr("href"))
		if target == "" {
			continue
		}
		dirs := directories(target)
		if len(dirs) == 0 || (dirs[0] != "subject" && dirs[0] != "glossary") {
			continue
		}
		text := strings.Join(strings.Fields(a.TextContent()), " ")
		if text == "" || len(text) > 80 {
			continue
		}
		terms = append(terms, text)
		if len(terms) >= maxLinkKeywords {
			break
		}
	}
	return s.hits(terms)
}
