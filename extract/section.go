package extract

import (
	"strings"

	"github.com/brunobiangulo/goprovenance/parser"
)

// SectionType names the collection convention a document was published under.
type SectionType string

const (
	SectionArchive    SectionType = "archive"
	SectionReference  SectionType = "reference"
	SectionETOL       SectionType = "etol"
	SectionEROL       SectionType = "erol"
	SectionHistory    SectionType = "history"
	SectionPeriodical SectionType = "periodical"
	SectionSubject    SectionType = "subject"
	SectionGlossary   SectionType = "glossary"
	SectionGeneric    SectionType = "generic"
)

// SectionTypes lists every section type in classification order, generic last.
var SectionTypes = []SectionType{
	SectionArchive, SectionPeriodical, SectionETOL, SectionEROL, SectionHistory,
	SectionSubject, SectionGlossary, SectionReference, SectionGeneric,
}

type sectionRule struct {
	segments []string
	section  SectionType
}

// Ordered. An archive segment claims the document wherever it occurs, so
// /reference/archive/... is archive. Otherwise more specific conventions
// precede the collections that contain them, and reference comes last.
var sectionRules = []sectionRule{
	{[]string{"archive"}, SectionArchive},
	{[]string{"history", "etol", "newspape"}, SectionPeriodical},
	{[]string{"history", "erol", "periodicals"}, SectionPeriodical},
	{[]string{"history", "etol"}, SectionETOL},
	{[]string{"history", "erol"}, SectionEROL},
	{[]string{"history"}, SectionHistory},
	{[]string{"subject"}, SectionSubject},
	{[]string{"glossary"}, SectionGlossary},
	{[]string{"reference"}, SectionReference},
}

// Classify maps a document identifier to its section type. The first rule
// whose segments occur contiguously in the identifier's directory path wins.
// Unknown identifiers are generic.
func Classify(identifier string) SectionType {
	dirs := directories(identifier)
	for _, rule := range sectionRules {
		if containsRun(dirs, rule.segments) {
			return rule.section
		}
	}
	return SectionGeneric
}

var languageDirs = map[string]string{
	"arabic":    "ar",
	"catala":    "ca",
	"chinese":   "zh",
	"deutsch":   "de",
	"espanol":   "es",
	"farsi":     "fa",
	"francais":  "fr",
	"greek":     "el",
	"italiano":  "it",
	"japanese":  "ja",
	"korean":    "ko",
	"polski":    "pl",
	"portugues": "pt",
	"russkij":   "ru",
	"russian":   "ru",
	"svenska":   "sv",
	"turkce":    "tr",
}

// Language returns the language code implied by a language directory in the
// identifier, or "en" when there is none.
func Language(identifier string) string {
	for _, d := range directories(identifier) {
		if code, ok := languageDirs[d]; ok {
			return code
		}
	}
	return "en"
}

// segments splits an identifier into its path segments, host stripped.
func segments(identifier string) []string {
	p := parser.StripHost(identifier)
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	var out []string
	for _, s := range strings.Split(strings.ReplaceAll(p, "\\", "/"), "/") {
		if s != "" && s != "." {
			out = append(out, s)
		}
	}
	return out
}

// directories returns the lower-cased segments minus a trailing file name.
func directories(identifier string) []string {
	segs := segments(identifier)
	if n := len(segs); n > 0 && strings.Contains(segs[n-1], ".") {
		segs = segs[:n-1]
	}
	for i, s := range segs {
		segs[i] = strings.ToLower(s)
	}
	return segs
}

func containsRun(haystack, run []string) bool {
	for i := 0; i+len(run) <= len(haystack); i++ {
		match := true
		for j, s := range run {
			if haystack[i+j] != s {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

// segmentAfter returns the original-case segment that follows the first
// directory named marker, or "".
func segmentAfter(identifier, marker string) string {
	segs := segments(identifier)
	for i := 0; i+1 < len(segs); i++ {
		if strings.EqualFold(segs[i], marker) {
			return segs[i+1]
		}
	}
	return ""
}
