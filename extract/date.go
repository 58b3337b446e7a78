package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	worksSegmentRe = regexp.MustCompile(`^(\d{4})(?:-(\d{2,4}))?`)
	yearSegmentRe  = regexp.MustCompile(`^(\d{4})(?:-(\d{2,4}))?$`)
	titleDateRe    = regexp.MustCompile(`\(([A-Za-z\s]*\d{4}(?:-\d{4})?)\)`)
	yearRe         = regexp.MustCompile(`(?:^|[^\d])(1[0-9]{3}|20[0-9]{2})(?:$|[^\d])`)
)

// Year returns the first plausible four-digit year in value.
func Year(value string) (int, bool) {
	m := yearRe.FindStringSubmatch(value)
	if m == nil {
		return 0, false
	}
	y, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return y, true
}

// yearRange normalizes a start year and an optional, possibly abbreviated,
// end year: ("1848", "50") → "1848-1850". Implausible ends are dropped.
func yearRange(start, end string) string {
	if end == "" {
		return start
	}
	if len(end) < 4 {
		end = start[:4-len(end)] + end
	}
	s, _ := strconv.Atoi(start)
	e, _ := strconv.Atoi(end)
	if e <= s {
		return start
	}
	return start + "-" + end
}

func plausibleYear(s string) bool {
	y, err := strconv.Atoi(s)
	return err == nil && y >= 1000 && y <= 2099
}

// WorksPathDate reads the year segment after /works/.
type WorksPathDate struct{ info }

func NewWorksPathDate() *WorksPathDate {
	return &WorksPathDate{info{"date.path.works", FieldDate, TagPath, 0.95}}
}

func (s *WorksPathDate) Extract(doc Document) Result {
	m := worksSegmentRe.FindStringSubmatch(segmentAfter(doc.Identifier, "works"))
	if m == nil || !plausibleYear(m[1]) {
		return s.miss()
	}
	return s.hit(yearRange(m[1], m[2]))
}

// YearPathDate accepts any directory segment that is a bare year or range.
type YearPathDate struct{ info }

func NewYearPathDate() *YearPathDate {
	return &YearPathDate{info{"date.path.year", FieldDate, TagPath, 0.7}}
}

func (s *YearPathDate) Extract(doc Document) Result {
	for _, seg := range directories(doc.Identifier) {
		if m := yearSegmentRe.FindStringSubmatch(seg); m != nil && plausibleYear(m[1]) {
			return s.hit(yearRange(m[1], m[2]))
		}
	}
	return s.miss()
}

// TitleDate matches a parenthesised date in the title, "Capital (1867)".
type TitleDate struct{ info }

func NewTitleDate() *TitleDate {
	return &TitleDate{info{"date.title", FieldDate, TagTitle, 0.85}}
}

func (s *TitleDate) Extract(doc Document) Result {
	m := titleDateRe.FindStringSubmatch(doc.Tree.Title())
	if m == nil {
		return s.miss()
	}
	return s.hit(strings.Join(strings.Fields(m[1]), " "))
}

// ProvenanceDate reads the "Written:" note, falling back to "First
// Published:". The value is cut at the first ";" and must carry a year.
type ProvenanceDate struct{ info }

func NewProvenanceDate() *ProvenanceDate {
	return &ProvenanceDate{info{"date.provenance", FieldDate, TagProvenance, 0.9}}
}

var leadingCreditRe = regexp.MustCompile(`^(?i:by)\s+[^,]*,\s*`)

func (s *ProvenanceDate) Extract(doc Document) Result {
	credits := Credits(doc)
	for _, role := range []Role{RoleWritten, RolePublished} {
		for _, c := range credits {
			if c.Role != role || c.By {
				continue
			}
			v := c.Value
			if i := strings.Index(v, ";"); i >= 0 {
				v = v[:i]
			}
			v = strings.TrimSpace(leadingCreditRe.ReplaceAllString(v, ""))
			v = strings.TrimRight(v, ". ")
			if _, ok := Year(v); ok {
				return s.hit(v)
			}
		}
	}
	return s.miss()
}

// MetaDate reads date-like meta tags.
type MetaDate struct{ info }

func NewMetaDate() *MetaDate {
	return &MetaDate{info{"date.meta", FieldDate, TagMeta, 0.8}}
}

func (s *MetaDate) Extract(doc Document) Result {
	for _, key := range []string{"date", "dc.date", "dcterms.created", "dc.date.created"} {
		if v := doc.Tree.Meta(key); v != "" {
			if _, ok := Year(v); ok {
				return s.hit(v)
			}
		}
	}
	return s.miss()
}

var months = map[string]int{
	"jan": 1, "january": 1, "feb": 2, "february": 2, "mar": 3, "march": 3,
	"apr": 4, "april": 4, "may": 5, "jun": 6, "june": 6, "jul": 7, "july": 7,
	"aug": 8, "august": 8, "sep": 9, "sept": 9, "september": 9, "oct": 10,
	"october": 10, "nov": 11, "november": 11, "dec": 12, "december": 12,
}

const monthPattern = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sept?(?:ember)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

var (
	dayMonthYearRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s+` + monthPattern + `\.?,?\s+(\d{4})\b`)
	monthDayYearRe = regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2}),?\s+(\d{4})\b`)
	issueSegmentRe = regexp.MustCompile(`(?i)` + monthPattern + `-(\d{1,2})-(\d{4})`)
)

// PeriodicalDate reads an issue date from the path ("v03n12-mar-18-1939"),
// the title, or the opening lines, normalized to YYYY-MM-DD.
type PeriodicalDate struct{ info }

func NewPeriodicalDate() *PeriodicalDate {
	return &PeriodicalDate{info{"date.periodical", FieldDate, TagText, 0.9}}
}

func (s *PeriodicalDate) Extract(doc Document) Result {
	if m := issueSegmentRe.FindStringSubmatch(joinedPath(doc.Identifier)); m != nil {
		if d := isoDate(m[3], m[1], m[2]); d != "" {
			return s.hit(d)
		}
	}
	texts := []string{doc.Tree.Title()}
	lines := doc.Lines()
	if len(lines) > 20 {
		lines = lines[:20]
	}
	texts = append(texts, lines...)
	for _, t := range texts {
		if m := dayMonthYearRe.FindStringSubmatch(t); m != nil {
			if d := isoDate(m[3], m[2], m[1]); d != "" {
				return s.hit(d)
			}
		}
		if m := monthDayYearRe.FindStringSubmatch(t); m != nil {
			if d := isoDate(m[3], m[1], m[2]); d != "" {
				return s.hit(d)
			}
		}
	}
	return s.miss()
}

func isoDate(year, month, day string) string {
	mo, ok := months[strings.ToLower(month)]
	if !ok || !plausibleYear(year) {
		return ""
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return ""
	}
	return fmt.Sprintf("%s-%02d-%02d", year, mo, d)
}

func joinedPath(identifier string) string {
	return strings.Join(segments(identifier), "/")
}
