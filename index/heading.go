package index

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Heading is a parsed reference-entry heading such as
// "Marx, Karl (1818-1883)".
type Heading struct {
	Raw       string // heading text as found
	Name      string // display form, given names first for "Surname, Given"
	Surname   string // set for "Surname, Given" headings
	Given     string
	Period    *Period
	Qualifier string // non-date parenthetical, e.g. an acronym
}

// Inverted reports whether the heading used the "Surname, Given" form.
func (h Heading) Inverted() bool { return h.Surname != "" }

var (
	parenRe = regexp.MustCompile(`^(.*?)\s*\(([^()]*)\)\s*$`)
	rangeRe = regexp.MustCompile(`^(?:c\.\s*|ca\.\s*)?(\d{3,4})\s*(?:[-–—]|\s+to\s+)\s*(?:c\.\s*)?(\d{2,4})?\??$`)
	bornRe  = regexp.MustCompile(`(?i)^(?:b\.|born)\s*(\d{3,4})$`)
	diedRe  = regexp.MustCompile(`(?i)^(?:d\.|died)\s*(\d{3,4})$`)
	soleRe  = regexp.MustCompile(`^(?:c\.\s*)?(\d{3,4})$`)
)

// ParseHeading splits a heading into display name, inverted name parts,
// active period and qualifier. ok is false for blank headings.
func ParseHeading(text string) (Heading, bool) {
	raw := strings.Join(strings.Fields(text), " ")
	h := Heading{Raw: raw}
	name := strings.TrimRight(raw, " :")
	if m := parenRe.FindStringSubmatch(name); m != nil {
		if strings.TrimSpace(m[1]) == "" {
			return Heading{}, false
		}
		name = m[1]
		inner := strings.TrimSpace(m[2])
		if p := parsePeriod(inner); p != nil {
			h.Period = p
		} else if inner != "" {
			h.Qualifier = inner
		}
	}
	name = strings.Trim(strings.TrimSpace(name), ",;:")
	if name == "" {
		return Heading{}, false
	}

	if surname, given, ok := splitInverted(name); ok {
		h.Surname, h.Given = surname, given
		h.Name = given + " " + surname
	} else {
		h.Name = name
	}
	return h, true
}

func parsePeriod(s string) *Period {
	s = strings.TrimSpace(s)
	if m := rangeRe.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		p := &Period{Start: start}
		if m[2] != "" {
			end := m[2]
			if len(end) < len(m[1]) {
				end = m[1][:len(m[1])-len(end)] + end
			}
			p.End, _ = strconv.Atoi(end)
			if p.End < p.Start {
				p.End = 0
			}
		}
		return p
	}
	if m := bornRe.FindStringSubmatch(s); m != nil {
		start, _ := strconv.Atoi(m[1])
		return &Period{Start: start}
	}
	if m := diedRe.FindStringSubmatch(s); m != nil {
		end, _ := strconv.Atoi(m[1])
		return &Period{End: end}
	}
	if m := soleRe.FindStringSubmatch(s); m != nil {
		y, _ := strconv.Atoi(m[1])
		return &Period{Start: y, End: y}
	}
	return nil
}

// splitInverted recognizes "Surname, Given Names". Both sides must be short
// capitalized runs; "Paris, Commune of" style headings still pass, so the
// caller decides whether the entry is a person.
func splitInverted(name string) (surname, given string, ok bool) {
	i := strings.Index(name, ",")
	if i <= 0 || strings.Count(name, ",") > 1 {
		return "", "", false
	}
	surname = strings.TrimSpace(name[:i])
	given = strings.TrimSpace(name[i+1:])
	if surname == "" || given == "" || len(strings.Fields(surname)) > 3 || len(strings.Fields(given)) > 4 {
		return "", "", false
	}
	for _, part := range []string{surname, given} {
		words := strings.Fields(part)
		last := []rune(words[len(words)-1])
		if !unicode.IsUpper(last[0]) {
			return "", "", false
		}
	}
	return surname, given, true
}
