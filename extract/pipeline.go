package extract

import (
	"fmt"
	"log/slog"
	"strings"
)

// StrategyTable lists, per section type and field, the strategy IDs to run
// in declaration order. Declaration order breaks confidence ties.
type StrategyTable map[SectionType]map[Field][]string

// conservative is used for sections missing from the table: path and meta
// tag reads only.
var conservative = map[Field][]string{
	FieldAuthor:   {"author.path.archive", "author.meta"},
	FieldDate:     {"date.path.works", "date.path.year", "date.meta"},
	FieldKeywords: {"keywords.meta"},
}

// DefaultTable returns the strategy table for the known collection conventions.
func DefaultTable() StrategyTable {
	full := map[Field][]string{
		FieldAuthor: {"author.path.archive", "author.credit", "author.title", "author.meta",
			"author.organization", "author.byline"},
		FieldDate: {"date.path.works", "date.provenance", "date.title", "date.meta", "date.path.year"},
		FieldKeywords: {"keywords.meta", "keywords.breadcrumb", "keywords.links"},
	}
	writers := map[Field][]string{
		FieldAuthor: {"author.path.writers", "author.credit", "author.title", "author.meta",
			"author.organization", "author.byline"},
		FieldDate:     {"date.provenance", "date.periodical", "date.title", "date.meta", "date.path.year"},
		FieldKeywords: {"keywords.meta", "keywords.breadcrumb", "keywords.links"},
	}
	return StrategyTable{
		SectionArchive:   full,
		SectionReference: full,
		SectionETOL:      writers,
		SectionEROL:      writers,
		SectionHistory:   writers,
		SectionPeriodical: {
			FieldAuthor:   {"author.credit", "author.title", "author.organization", "author.meta", "author.byline"},
			FieldDate:     {"date.periodical", "date.provenance", "date.title", "date.meta", "date.path.year"},
			FieldKeywords: {"keywords.meta", "keywords.breadcrumb", "keywords.links"},
		},
		SectionSubject: {
			FieldAuthor:   {"author.credit", "author.title", "author.meta", "author.organization"},
			FieldDate:     {"date.provenance", "date.title", "date.meta", "date.path.year"},
			FieldKeywords: {"keywords.breadcrumb", "keywords.meta", "keywords.links"},
		},
		SectionGlossary: {
			FieldAuthor:   {"author.meta"},
			FieldDate:     {"date.meta"},
			FieldKeywords: {"keywords.breadcrumb", "keywords.meta"},
		},
		SectionGeneric: conservative,
	}
}

// Catalog returns every built-in strategy keyed by ID.
func Catalog(organizations []string) map[string]Extractor {
	all := []Extractor{
		NewArchivePathAuthor(), NewWritersPathAuthor(), NewCreditAuthor(), NewTitleAuthor(),
		NewMetaAuthor(), NewOrganizationAuthor(organizations), NewBylineAuthor(),
		NewWorksPathDate(), NewYearPathDate(), NewProvenanceDate(), NewTitleDate(),
		NewMetaDate(), NewPeriodicalDate(),
		NewMetaKeywords(), NewBreadcrumbKeywords(), NewLinkKeywords(),
	}
	out := make(map[string]Extractor, len(all))
	for _, e := range all {
		out[e.ID()] = e
	}
	return out
}

// Metadata is the pipeline's pick for every field of one document.
type Metadata struct {
	Author   Result `json:"author"`
	Date     Result `json:"date"`
	Keywords Result `json:"keywords"`
}

// Get returns the result for field.
func (m Metadata) Get(f Field) Result {
	switch f {
	case FieldAuthor:
		return m.Author
	case FieldDate:
		return m.Date
	default:
		return m.Keywords
	}
}

// Pipeline runs the applicable strategies for a document and selects the
// winning result per field. A Pipeline is immutable after construction and
// safe for concurrent use.
type Pipeline struct {
	table    StrategyTable
	catalog  map[string]Extractor
	disabled map[string]bool
	orgs     []string
	extra    []Extractor
	log      *slog.Logger
}

type Option func(*Pipeline)

// WithDisabled removes strategies by ID from every section.
func WithDisabled(ids ...string) Option {
	return func(p *Pipeline) {
		for _, id := range ids {
			p.disabled[strings.TrimSpace(id)] = true
		}
	}
}

// WithOrganizations replaces the collective-author vocabulary.
func WithOrganizations(names []string) Option {
	return func(p *Pipeline) { p.orgs = names }
}

// WithExtractor registers an additional strategy; the table must name its
// ID for it to run.
func WithExtractor(e Extractor) Option {
	return func(p *Pipeline) { p.extra = append(p.extra, e) }
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// NewPipeline builds a pipeline over table; a nil table means DefaultTable.
func NewPipeline(table StrategyTable, opts ...Option) *Pipeline {
	if table == nil {
		table = DefaultTable()
	}
	p := &Pipeline{table: table, disabled: make(map[string]bool)}
	for _, o := range opts {
		o(p)
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	p.catalog = Catalog(p.orgs)
	for _, e := range p.extra {
		p.catalog[e.ID()] = e
	}
	return p
}

// Validate reports table entries that name unknown strategies or put a
// strategy under the wrong field.
func (p *Pipeline) Validate() error {
	for section, fields := range p.table {
		for field, ids := range fields {
			for _, id := range ids {
				e, ok := p.catalog[id]
				if !ok {
					return fmt.Errorf("extract: section %s field %s: unknown strategy %q", section, field, id)
				}
				if e.Field() != field {
					return fmt.Errorf("extract: section %s: strategy %q extracts %s, listed under %s", section, id, e.Field(), field)
				}
			}
		}
	}
	return nil
}

// Strategies returns the enabled strategies for section and field in
// declaration order. Sections missing from the table use the conservative set.
func (p *Pipeline) Strategies(section SectionType, field Field) []Extractor {
	fields, ok := p.table[section]
	if !ok {
		fields, ok = p.table[SectionGeneric]
		if !ok {
			fields = conservative
		}
	}
	var out []Extractor
	for _, id := range fields[field] {
		if p.disabled[id] {
			continue
		}
		if e, ok := p.catalog[id]; ok && e.Field() == field {
			out = append(out, e)
		}
	}
	return out
}

// ExtractField runs every applicable strategy and returns the result with
// the highest confidence; the first declared wins ties. List fields are the
// union of all hits. No hit yields a zero Result.
func (p *Pipeline) ExtractField(field Field, doc Document) Result {
	var hits []Result
	for _, e := range p.Strategies(doc.Section, field) {
		if r := p.run(e, doc); r.Found() {
			hits = append(hits, r)
		}
	}
	if len(hits) == 0 {
		return Result{}
	}
	if field == FieldKeywords {
		return union(hits)
	}
	best := hits[0]
	for _, r := range hits[1:] {
		if r.Confidence > best.Confidence {
			best = r
		}
	}
	return best
}

// Extract resolves every field for doc.
func (p *Pipeline) Extract(doc Document) Metadata {
	return Metadata{
		Author:   p.ExtractField(FieldAuthor, doc),
		Date:     p.ExtractField(FieldDate, doc),
		Keywords: p.ExtractField(FieldKeywords, doc),
	}
}

// run isolates a strategy so a panic on a malformed tree becomes a miss.
func (p *Pipeline) run(e Extractor, doc Document) (r Result) {
	defer func() {
		if rec := recover(); rec != nil {
			p.log.Warn("extract: strategy panicked",
				"strategy", e.ID(), "identifier", doc.Identifier, "panic", fmt.Sprint(rec))
			r = Miss(e.ID(), e.SourceTag())
		}
	}()
	r = e.Extract(doc)
	if !r.Found() {
		return Miss(e.ID(), e.SourceTag())
	}
	return r
}

// union merges list results: values concatenated in declaration order and
// de-duplicated case-insensitively, confidence is the maximum, tags joined.
func union(hits []Result) Result {
	var values, tags, ids []string
	var conf float64
	for _, r := range hits {
		values = append(values, r.Values...)
		if r.Value != "" {
			values = append(values, r.Value)
		}
		tags = append(tags, r.SourceTag)
		ids = append(ids, r.ExtractorID)
		if r.Confidence > conf {
			conf = r.Confidence
		}
	}
	return List(strings.Join(ids, "+"), strings.Join(tags, "+"), values, conf)
}
