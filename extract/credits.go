package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Role classifies a provenance note line.
type Role string

const (
	RoleWritten       Role = "written"
	RolePublished     Role = "first published"
	RoleSource        Role = "source"
	RoleAuthor        Role = "author"
	RoleTranscription Role = "transcription"
	RoleTranslation   Role = "translation"
	RoleMarkup        Role = "markup"
	RoleProofread     Role = "proofread"
	RoleScanned       Role = "scanned"
)

// Credit is one "Marker: value" provenance note, e.g. "Written: late 1847".
// By is set for the "Marker by value" form ("Transcribed by Zodiac").
type Credit struct {
	Role  Role
	Value string
	By    bool
}

// Contributor reports whether the credit names someone who handled the text
// (transcriber, translator, markup editor) rather than its author.
func (c Credit) Contributor() bool {
	switch c.Role {
	case RoleTranscription, RoleTranslation, RoleMarkup, RoleProofread, RoleScanned:
		return true
	}
	return false
}

var creditRe = regexp.MustCompile(`(?i)^\s*(first[\s-]+published|written|source|author|` +
	`transcri(?:bed|ption|ber)s?|translat(?:ed|ion|ors?)|html[\s-]+markup|markup|` +
	`proofread(?:ing|ed)?|scanned)(?:\s*/\s*[a-z][a-z\s-]*?)?(\s+by\s*:?|\s*:)\s*(.*)$`)

func roleFor(marker string) Role {
	m := strings.ToLower(marker)
	switch {
	case strings.HasPrefix(m, "first"):
		return RolePublished
	case m == "written":
		return RoleWritten
	case m == "source":
		return RoleSource
	case m == "author":
		return RoleAuthor
	case strings.HasPrefix(m, "transcri"):
		return RoleTranscription
	case strings.HasPrefix(m, "translat"):
		return RoleTranslation
	case strings.Contains(m, "markup"):
		return RoleMarkup
	case strings.HasPrefix(m, "proofread"):
		return RoleProofread
	default:
		return RoleScanned
	}
}

// parseCredit parses a single line; ok is false when it carries no marker.
func parseCredit(line string) (Credit, bool) {
	m := creditRe.FindStringSubmatch(line)
	if m == nil {
		return Credit{}, false
	}
	return Credit{
		Role:  roleFor(m[1]),
		Value: strings.TrimSpace(m[3]),
		By:    strings.Contains(strings.ToLower(m[2]), "by"),
	}, true
}

// Credits returns the provenance notes found in the document body. A line
// may hold several notes ("Written: 1847; Source: ..."); each is split out.
func Credits(doc Document) []Credit {
	var out []Credit
	for _, line := range doc.Lines() {
		for _, part := range splitNotes(line) {
			if c, ok := parseCredit(part); ok {
				out = append(out, c)
			}
		}
	}
	return out
}

var noteBoundary = regexp.MustCompile(`(?i)[;.]\s+(?:first[\s-]+published|written|source|transcri|translat|html[\s-]+markup|markup|proofread|scanned)`)

func splitNotes(line string) []string {
	idx := noteBoundary.FindAllStringIndex(line, -1)
	if len(idx) == 0 {
		return []string{line}
	}
	var parts []string
	start := 0
	for _, loc := range idx {
		parts = append(parts, line[start:loc[0]])
		// skip the separator and following space
		next := loc[0] + 1
		for next < len(line) && line[next] == ' ' {
			next++
		}
		start = next
	}
	return append(parts, line[start:])
}

// contributorNames collects the names credited for handling the text.
func contributorNames(credits []Credit) []string {
	var names []string
	for _, c := range credits {
		if !c.Contributor() {
			continue
		}
		names = append(names, splitNames(c.Value)...)
	}
	return names
}

var nameSplitRe = regexp.MustCompile(`\s*(?:,|;|&|\band\b)\s*`)

func splitNames(value string) []string {
	var out []string
	for _, part := range nameSplitRe.Split(value, -1) {
		part = cleanName(part)
		if looksLikeName(part) {
			out = append(out, part)
		}
	}
	return out
}

// isContributor reports whether name matches any contributor credit.
func isContributor(name string, contributors []string) bool {
	n := strings.ToLower(cleanName(name))
	if n == "" {
		return false
	}
	for _, c := range contributors {
		c = strings.ToLower(c)
		if c == n || strings.Contains(c, n) || strings.Contains(n, c) {
			return true
		}
	}
	return false
}

var nameBlocklist = map[string]bool{
	"a": true, "an": true, "the": true, "chapter": true, "preface": true,
	"introduction": true, "letter": true, "letters": true, "part": true,
	"section": true, "volume": true, "vol": true, "book": true, "appendix": true,
	"index": true, "notes": true, "note": true, "mia": true, "marxists": true,
	"speech": true, "article": true, "contents": true, "table": true,
	"afterword": true, "foreword": true, "editor": true, "editors": true,
	"public": true, "source": true, "written": true, "unknown": true,
	"anonymous": true, "html": true, "transcribed": true,
}

var nameParticles = map[string]bool{
	"de": true, "del": true, "der": true, "van": true, "von": true, "la": true,
	"le": true, "du": true, "di": true, "da": true, "y": true, "ibn": true,
}

// looksLikeName is a shape test for personal names: one to five
// capitalized words, no digits, not starting with a structural word.
func looksLikeName(s string) bool {
	words := strings.Fields(s)
	if len(words) == 0 || len(words) > 5 || len(s) > 60 {
		return false
	}
	first := strings.ToLower(strings.Trim(words[0], ".,"))
	if nameBlocklist[first] {
		return false
	}
	for i, w := range words {
		if strings.IndexFunc(w, unicode.IsDigit) >= 0 {
			return false
		}
		r := []rune(w)
		if unicode.IsUpper(r[0]) {
			continue
		}
		if i > 0 && i < len(words)-1 && nameParticles[strings.ToLower(w)] {
			continue
		}
		return false
	}
	return true
}

// cleanName collapses whitespace and trims surrounding punctuation. A
// trailing period survives only after an initial ("Marx, K.").
func cleanName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || (unicode.IsPunct(r) && r != '.')
	})
	if strings.HasSuffix(s, ".") {
		words := strings.Fields(s)
		if last := words[len(words)-1]; len([]rune(last)) > 2 {
			s = strings.TrimSuffix(s, ".")
		}
	}
	return strings.TrimLeft(s, ".")
}

// titleCase turns a path slug such as "rosa-luxemburg" into "Rosa Luxemburg".
func titleCase(slug string) string {
	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ", "+", " ").Replace(slug))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
