package goprovenance

import (
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/brunobiangulo/goprovenance/extract"
	"github.com/brunobiangulo/goprovenance/link"
)

// SectionCoverage counts, for one section type, documents with a value per
// field and links per match kind.
type SectionCoverage struct {
	Documents  int                    `json:"documents"`
	Found      map[extract.Field]int  `json:"found"`
	MatchKinds map[link.MatchKind]int `json:"match_kinds"`
}

// Coverage is the operator-facing extraction quality report. It is not safe
// for concurrent use.
type Coverage struct {
	Documents int                                      `json:"documents"`
	Sections  map[extract.SectionType]*SectionCoverage `json:"sections"`
}

func NewCoverage() *Coverage {
	return &Coverage{Sections: make(map[extract.SectionType]*SectionCoverage)}
}

// Add counts one record.
func (c *Coverage) Add(r *Record) {
	if r == nil {
		return
	}
	sc, ok := c.Sections[r.Section]
	if !ok {
		sc = &SectionCoverage{Found: make(map[extract.Field]int), MatchKinds: make(map[link.MatchKind]int)}
		c.Sections[r.Section] = sc
	}
	c.Documents++
	sc.Documents++
	for _, f := range extract.Fields {
		if r.Field(f).Found() {
			sc.Found[f]++
		}
	}
	for _, l := range r.Links {
		sc.MatchKinds[l.MatchKind]++
	}
}

// Fraction returns the share of section documents with a value for field.
func (c *Coverage) Fraction(section extract.SectionType, field extract.Field) float64 {
	sc, ok := c.Sections[section]
	if !ok || sc.Documents == 0 {
		return 0
	}
	return float64(sc.Found[field]) / float64(sc.Documents)
}

// MatchShare returns the share of a section's links with the given kind.
func (c *Coverage) MatchShare(section extract.SectionType, kind link.MatchKind) float64 {
	sc, ok := c.Sections[section]
	if !ok {
		return 0
	}
	total := 0
	for _, n := range sc.MatchKinds {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(sc.MatchKinds[kind]) / float64(total)
}

// Render writes the report as a table, one row per section type.
func (c *Coverage) Render(w io.Writer) {
	sections := make([]string, 0, len(c.Sections))
	for s := range c.Sections {
		sections = append(sections, string(s))
	}
	sort.Strings(sections)

	header := []string{"section", "docs"}
	for _, f := range extract.Fields {
		header = append(header, string(f))
	}
	for _, k := range link.MatchKinds {
		header = append(header, string(k))
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range sections {
		st := extract.SectionType(s)
		sc := c.Sections[st]
		row := []string{s, fmt.Sprint(sc.Documents)}
		for _, f := range extract.Fields {
			row = append(row, fmt.Sprintf("%.1f%%", 100*c.Fraction(st, f)))
		}
		for _, k := range link.MatchKinds {
			row = append(row, fmt.Sprint(sc.MatchKinds[k]))
		}
		table.Append(row)
	}
	table.SetFooter(append([]string{"total", fmt.Sprint(c.Documents)}, make([]string, len(header)-2)...))
	table.Render()
}
