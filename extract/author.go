package extract

import (
	"regexp"
	"sort"
	"strings"
)

// Source tags shared by strategies that read the same structure.
const (
	TagPath       = "path"
	TagTitle      = "title"
	TagMeta       = "meta"
	TagText       = "text"
	TagProvenance = "provenance"
	TagVocabulary = "vocabulary"
	TagBreadcrumb = "breadcrumb"
	TagLinks      = "links"
)

// ArchivePathAuthor reads the author slug from /archive/<author>/...
type ArchivePathAuthor struct{ info }

func NewArchivePathAuthor() *ArchivePathAuthor {
	return &ArchivePathAuthor{info{"author.path.archive", FieldAuthor, TagPath, 1.0}}
}

func (s *ArchivePathAuthor) Extract(doc Document) Result {
	slug := segmentAfter(doc.Identifier, "archive")
	if slug == "" || strings.Contains(slug, ".") {
		return s.miss()
	}
	return s.hit(titleCase(slug))
}

// WritersPathAuthor reads /history/<collection>/writers/<author>/...
type WritersPathAuthor struct{ info }

func NewWritersPathAuthor() *WritersPathAuthor {
	return &WritersPathAuthor{info{"author.path.writers", FieldAuthor, TagPath, 0.9}}
}

func (s *WritersPathAuthor) Extract(doc Document) Result {
	slug := segmentAfter(doc.Identifier, "writers")
	if slug == "" || strings.Contains(slug, ".") {
		return s.miss()
	}
	return s.hit(titleCase(slug))
}

var byRe = regexp.MustCompile(`(?:^|\s)(?:[Ww]ritten\s+)?[Bb]y\s+(\p{Lu}[\p{L}.'-]*(?:\s+(?:\p{Lu}[\p{L}.'-]*|(?:de|von|van|der|la)\b))*)`)

var creditVerbRe = regexp.MustCompile(`(?i)\b(?:published|printed|edited|issued|reprinted|distributed)\s+by\b`)

// personName accepts a looksLikeName value of at least two words. A single
// capitalized word before a colon is far more often a work title.
func personName(s string) bool {
	return looksLikeName(s) && len(strings.Fields(s)) >= 2
}

// headingPrefix reports whether the first heading of doc starts with name,
// which marks "Work: Subtitle" titles. A heading that is itself the title
// (no <title> element) proves nothing.
func headingPrefix(doc Document, title, name string) bool {
	hs := doc.Tree.Headings()
	if len(hs) == 0 {
		return false
	}
	heading := strings.Join(strings.Fields(hs[0].TextContent()), " ")
	if heading == strings.Join(strings.Fields(title), " ") {
		return false
	}
	return strings.HasPrefix(strings.ToLower(heading), strings.ToLower(name))
}

// TitleAuthor matches "Name: Work" and "Work by Name" title shapes.
type TitleAuthor struct{ info }

func NewTitleAuthor() *TitleAuthor {
	return &TitleAuthor{info{"author.title", FieldAuthor, TagTitle, 0.85}}
}

func (s *TitleAuthor) Extract(doc Document) Result {
	title := doc.Tree.Title()
	if title == "" {
		return s.miss()
	}
	parts := strings.Split(title, ":")
	for _, p := range parts[:len(parts)-1] {
		if name := cleanName(p); personName(name) && !headingPrefix(doc, title, name) {
			return s.hit(name)
		}
	}
	if m := byRe.FindStringSubmatch(title); m != nil {
		if name := cleanName(m[1]); personName(name) {
			return s.hit(name)
		}
	}
	return s.miss()
}

// MetaAuthor reads <meta name="author">. Many pages put the transcriber
// there; a value matching a transcription or markup credit is rejected.
type MetaAuthor struct{ info }

func NewMetaAuthor() *MetaAuthor {
	return &MetaAuthor{info{"author.meta", FieldAuthor, TagMeta, 0.8}}
}

func (s *MetaAuthor) Extract(doc Document) Result {
	var value string
	for _, key := range []string{"author", "dc.creator", "creator"} {
		if value = cleanName(doc.Tree.Meta(key)); value != "" {
			break
		}
	}
	if value == "" || !looksLikeName(value) {
		return s.miss()
	}
	if isContributor(value, contributorNames(Credits(doc))) {
		return s.miss()
	}
	return s.hit(value)
}

// BylineAuthor scans body text for "by Name" lines, skipping credit lines
// and publisher or editor imprints.
type BylineAuthor struct{ info }

func NewBylineAuthor() *BylineAuthor {
	return &BylineAuthor{info{"author.byline", FieldAuthor, TagText, 0.6}}
}

func (s *BylineAuthor) Extract(doc Document) Result {
	lines := doc.Lines()
	contributors := contributorNames(Credits(doc))
	for _, line := range lines {
		if len(line) > 200 {
			continue
		}
		if _, ok := parseCredit(line); ok {
			continue
		}
		if creditVerbRe.MatchString(line) {
			continue
		}
		m := byRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		name := cleanName(m[1])
		if looksLikeName(name) && !isContributor(name, contributors) {
			return s.hit(name)
		}
	}
	return s.miss()
}

// CreditAuthor reads the author from provenance notes ("Author: X",
// "Written: by X, 1847"). Contributor notes never yield an author.
type CreditAuthor struct{ info }

func NewCreditAuthor() *CreditAuthor {
	return &CreditAuthor{info{"author.credit", FieldAuthor, TagProvenance, 0.95}}
}

var (
	leadingByRe = regexp.MustCompile(`^(?i:by)\s+([^,;(]+)`)
	nameRunRe   = regexp.MustCompile(`^\p{Lu}[\p{L}.'-]*(?:\s+(?:\p{Lu}[\p{L}.'-]*|(?:de|von|van|der|la)\b))*`)
)

func (s *CreditAuthor) Extract(doc Document) Result {
	for _, c := range Credits(doc) {
		var candidate string
		switch c.Role {
		case RoleAuthor:
			candidate = untilDelimiter(c.Value)
		case RoleWritten:
			if c.By {
				candidate = untilDelimiter(c.Value)
			} else if m := leadingByRe.FindStringSubmatch(c.Value); m != nil {
				candidate = m[1]
			}
		default:
			continue
		}
		if name := cleanName(nameRunRe.FindString(strings.TrimSpace(candidate))); looksLikeName(name) {
			return s.hit(name)
		}
	}
	return s.miss()
}

func untilDelimiter(s string) string {
	if i := strings.IndexAny(s, ",;("); i >= 0 {
		return s[:i]
	}
	return s
}

// DefaultOrganizations is the collective-author vocabulary.
var DefaultOrganizations = []string{
	"Communist League",
	"International Workingmen's Association",
	"First International",
	"Second International",
	"Executive Committee of the Communist International",
	"Communist International",
	"Fourth International",
	"International Secretariat",
	"Socialist Workers Party",
	"Workers Party",
	"Industrial Workers of the World",
	"Communist Party of Great Britain",
	"Communist Party of the Soviet Union",
	"Communist Party of China",
	"Communist Party USA",
	"Russian Social-Democratic Labour Party",
	"Socialist Party of America",
	"Black Panther Party",
	"Paris Commune",
}

// OrganizationAuthor attributes a document to a collective when the title,
// meta author or a source note names one from a fixed vocabulary.
type OrganizationAuthor struct {
	info
	names    []string
	patterns []*regexp.Regexp
}

// NewOrganizationAuthor builds the lookup. Longer names are tried first so
// "Communist International" wins over "International"-style prefixes.
func NewOrganizationAuthor(vocabulary []string) *OrganizationAuthor {
	if len(vocabulary) == 0 {
		vocabulary = DefaultOrganizations
	}
	names := append([]string(nil), vocabulary...)
	sort.SliceStable(names, func(i, j int) bool { return len(names[i]) > len(names[j]) })

	s := &OrganizationAuthor{info: info{"author.organization", FieldAuthor, TagVocabulary, 0.75}}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		s.names = append(s.names, n)
		s.patterns = append(s.patterns, regexp.MustCompile(`(?i)(?:^|[^\p{L}])`+regexp.QuoteMeta(n)+`(?:$|[^\p{L}])`))
	}
	return s
}

func (s *OrganizationAuthor) Extract(doc Document) Result {
	texts := []string{doc.Tree.Title(), doc.Tree.Meta("author")}
	for _, c := range Credits(doc) {
		if c.Role == RoleSource || c.Role == RolePublished || c.Role == RoleAuthor {
			texts = append(texts, c.Value)
		}
	}
	for _, text := range texts {
		if text == "" {
			continue
		}
		for i, re := range s.patterns {
			if re.MatchString(text) {
				return s.hit(s.names[i])
			}
		}
	}
	return s.miss()
}
