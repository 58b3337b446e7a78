// Package link resolves extracted names to canonical entities.
package link

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/brunobiangulo/goprovenance/index"
)

// MatchKind records which resolution step produced a link.
type MatchKind string

const (
	MatchExact      MatchKind = "exact"
	MatchAlias      MatchKind = "alias"
	MatchFuzzy      MatchKind = "fuzzy"
	MatchUnresolved MatchKind = "unresolved"
)

// MatchKinds lists the kinds in resolution order.
var MatchKinds = []MatchKind{MatchExact, MatchAlias, MatchFuzzy, MatchUnresolved}

// Context carries optional disambiguation signals for one lookup.
type Context struct {
	Document string // identifier of the document the name came from
	Year     int    // a year the entity should have been active in; 0 if unknown
	Text     string // free text expected to co-occur with the right entity
}

// Link is the outcome of resolving one extracted name. An empty
// CanonicalID means the name is unresolved.
type Link struct {
	DocumentIdentifier string    `json:"document_identifier,omitempty"`
	ExtractedValue     string    `json:"extracted_value"`
	CanonicalID        string    `json:"canonical_id,omitempty"`
	MatchKind          MatchKind `json:"match_kind"`
	Confidence         float64   `json:"match_confidence"`
}

// Resolved reports whether the link names a canonical entity.
func (l Link) Resolved() bool { return l.CanonicalID != "" }

// Options holds thresholds and the confidences assigned per outcome.
type Options struct {
	FuzzyThreshold        float64
	AliasConfidence       float64
	ContextConfidence     float64
	TextContextConfidence float64
	AmbiguousConfidence   float64
}

func DefaultOptions() Options {
	return Options{
		FuzzyThreshold:        0.85,
		AliasConfidence:       0.9,
		ContextConfidence:     0.9,
		TextContextConfidence: 0.7,
		AmbiguousConfidence:   0.5,
	}
}

// Linker resolves names against a fixed index. It holds no mutable state
// and is safe for concurrent use.
type Linker struct {
	idx   *index.Index
	opts  Options
	names []string
	log   *slog.Logger
}

// New builds a linker over idx. Zero option fields take the defaults.
func New(idx *index.Index, opts Options, log *slog.Logger) *Linker {
	def := DefaultOptions()
	if opts.FuzzyThreshold <= 0 {
		opts.FuzzyThreshold = def.FuzzyThreshold
	}
	if opts.AliasConfidence <= 0 {
		opts.AliasConfidence = def.AliasConfidence
	}
	if opts.ContextConfidence <= 0 {
		opts.ContextConfidence = def.ContextConfidence
	}
	if opts.TextContextConfidence <= 0 {
		opts.TextContextConfidence = def.TextContextConfidence
	}
	if opts.AmbiguousConfidence <= 0 {
		opts.AmbiguousConfidence = def.AmbiguousConfidence
	}
	if log == nil {
		log = slog.Default()
	}
	return &Linker{idx: idx, opts: opts, names: idx.Names(), log: log}
}

// Index returns the index the linker resolves against.
func (l *Linker) Index() *index.Index { return l.idx }

// Link resolves name. Resolution order: exact canonical name, alias (with
// disambiguation when several entities share it), then fuzzy match against
// canonical names. Failure to resolve is a normal, unresolved Link.
func (l *Linker) Link(name string, ctx *Context) Link {
	out := Link{ExtractedValue: name, MatchKind: MatchUnresolved}
	if ctx != nil {
		out.DocumentIdentifier = ctx.Document
	}
	norm := index.Normalize(name)
	if norm == "" {
		return out
	}

	if id, ok := l.idx.NameOwner(norm); ok {
		out.CanonicalID, out.MatchKind, out.Confidence = id, MatchExact, 1.0
		return out
	}

	if candidates := l.idx.AliasCandidates(norm); len(candidates) > 0 {
		out.MatchKind = MatchAlias
		if len(candidates) == 1 {
			out.CanonicalID, out.Confidence = candidates[0], l.opts.AliasConfidence
			return out
		}
		out.CanonicalID, out.Confidence = l.disambiguate(candidates, ctx)
		l.log.Debug("link: ambiguous alias",
			"name", name, "candidates", len(candidates), "chosen", out.CanonicalID, "confidence", out.Confidence)
		return out
	}

	best, score := "", 0.0
	for _, key := range l.names {
		if s := Similarity(norm, key); s > score {
			best, score = key, s
		}
	}
	if best != "" && score >= l.opts.FuzzyThreshold {
		id, _ := l.idx.NameOwner(best)
		out.CanonicalID, out.MatchKind, out.Confidence = id, MatchFuzzy, score
	}
	return out
}

// LinkAll resolves each name with the same context.
func (l *Linker) LinkAll(names []string, ctx *Context) []Link {
	out := make([]Link, 0, len(names))
	for _, n := range names {
		out = append(out, l.Link(n, ctx))
	}
	return out
}

// disambiguate picks among entities sharing an alias. A year inside a
// candidate's active period decides first; then co-occurrence of context
// text with a candidate's description and cross references; otherwise the
// first candidate in priority order at reduced confidence.
func (l *Linker) disambiguate(candidates []string, ctx *Context) (string, float64) {
	if ctx != nil && ctx.Year != 0 {
		for _, id := range candidates {
			if e, ok := l.idx.Entity(id); ok && e.Period.Contains(ctx.Year) {
				return id, l.opts.ContextConfidence
			}
		}
	}
	if ctx != nil && strings.TrimSpace(ctx.Text) != "" {
		if id, ok := l.byText(candidates, ctx.Text); ok {
			return id, l.opts.TextContextConfidence
		}
	}
	return candidates[0], l.opts.AmbiguousConfidence
}

// byText scores each candidate by how many distinct significant words of
// its description and cross-referenced names appear in text. A unique best
// score above zero wins.
func (l *Linker) byText(candidates []string, text string) (string, bool) {
	words := significant(text)
	if len(words) == 0 {
		return "", false
	}
	best, bestScore, tie := "", 0, false
	for _, id := range candidates {
		e, ok := l.idx.Entity(id)
		if !ok {
			continue
		}
		profile := e.Description
		for _, ref := range e.CrossRefs {
			if r, ok := l.idx.Entity(ref); ok {
				profile += " " + r.Name
			}
		}
		score := 0
		for w := range significant(profile) {
			if words[w] {
				score++
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tie = id, score, false
		case score == bestScore && score > 0:
			tie = true
		}
	}
	if bestScore == 0 || tie {
		return "", false
	}
	return best, true
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true, "that": true,
	"this": true, "was": true, "were": true, "his": true, "her": true, "who": true,
	"which": true, "into": true, "also": true, "their": true, "about": true,
}

func significant(text string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range strings.Fields(index.Normalize(text)) {
		if len(w) < 3 || stopwords[w] {
			continue
		}
		out[w] = true
	}
	return out
}

// Similarity scores two names in [0,1]: the better of the Levenshtein ratio
// on the normalized strings and on their sorted tokens, so word order
// ("Marx Karl") costs nothing.
func Similarity(a, b string) float64 {
	na, nb := index.Normalize(a), index.Normalize(b)
	if na == nb {
		return 1.0
	}
	s := ratio(na, nb)
	if t := ratio(sortedTokens(na), sortedTokens(nb)); t > s {
		s = t
	}
	return s
}

func ratio(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

func sortedTokens(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}
