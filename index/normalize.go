package index

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a name into its lookup key: diacritics stripped, case
// folded, punctuation replaced by spaces, whitespace collapsed.
// "Marx, K." and "marx k" normalize identically.
func Normalize(s string) string {
	// Transformers and casers are stateful; build them per call.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, s)
	if err != nil {
		stripped = s
	}
	folded := cases.Fold().String(stripped)

	var b strings.Builder
	b.Grow(len(folded))
	space := true
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	return strings.TrimRight(b.String(), " ")
}

// idNamespace roots every canonical ID. Changing it changes every ID.
var idNamespace = uuid.MustParse("6f1c2a8e-4b7d-5c3a-9e21-0d8f7b6a5c41")

// CanonicalID derives the stable entity ID from the canonical name and the
// start of the active period (0 when unknown). It is a UUIDv5, so the same
// glossary content always yields the same ID.
func CanonicalID(name string, start int) string {
	key := Normalize(name) + "|"
	if start != 0 {
		key += strconv.Itoa(start)
	}
	return uuid.NewSHA1(idNamespace, []byte(key)).String()
}
