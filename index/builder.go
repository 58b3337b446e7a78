package index

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/goprovenance/parser"
)

// BuildOptions tunes a Builder. Zero values take the defaults.
type BuildOptions struct {
	// MinParseFraction is the share of ExpectedReferences that must parse
	// for the build to succeed. Default 0.5.
	MinParseFraction float64
	// ExpectedReferences is the size of the reference collection. Zero
	// means the number of documents handed to Build.
	ExpectedReferences int
	// Concurrency bounds parallel reference parsing. Default 8.
	Concurrency int
	// SeeAlsoMarkers introduce cross-reference links. Default "see also".
	SeeAlsoMarkers []string
}

// Failure records a reference document that could not be parsed.
type Failure struct {
	Identifier string `json:"identifier"`
	Error      string `json:"error"`
}

// Dangling records a cross reference that resolved to no entity.
type Dangling struct {
	Source string `json:"source_identifier"`
	Target string `json:"target"`
}

// BuildReport summarizes one build for operators.
type BuildReport struct {
	Total      int           `json:"total"`
	Expected   int           `json:"expected"`
	Parsed     int           `json:"parsed"`
	Entities   int           `json:"entities"`
	Failures   []Failure     `json:"failures,omitempty"`
	Duplicates []string      `json:"duplicates,omitempty"`
	Collisions []string      `json:"name_collisions,omitempty"`
	Dangling   []Dangling    `json:"dangling,omitempty"`
	Warnings   []string      `json:"warnings,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Builder turns reference documents into an Index.
type Builder struct {
	opts BuildOptions
	log  *slog.Logger
}

func NewBuilder(opts BuildOptions, log *slog.Logger) *Builder {
	if opts.MinParseFraction <= 0 {
		opts.MinParseFraction = 0.5
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if len(opts.SeeAlsoMarkers) == 0 {
		opts.SeeAlsoMarkers = []string{"see also"}
	}
	markers := make([]string, 0, len(opts.SeeAlsoMarkers))
	for _, m := range opts.SeeAlsoMarkers {
		markers = append(markers, strings.ToLower(strings.TrimSpace(m)))
	}
	opts.SeeAlsoMarkers = markers
	if log == nil {
		log = slog.Default()
	}
	return &Builder{opts: opts, log: log}
}

// parsed is one reference document's entity before cross references are
// resolved. refs holds link targets as slash paths.
type parsed struct {
	entity *Entity
	refs   []string
}

// Build parses every reference document in parallel, reduces the results
// in input order and resolves cross references. Individual parse failures
// are logged and skipped; a parse rate under MinParseFraction fails the
// whole build with ErrShortfall. The report is returned in both cases.
func (b *Builder) Build(ctx context.Context, refs []parser.Document) (*Index, *BuildReport, error) {
	start := time.Now()
	expected := b.opts.ExpectedReferences
	if expected <= 0 {
		expected = len(refs)
	}
	report := &BuildReport{Total: len(refs), Expected: expected}
	if len(refs) == 0 {
		return nil, report, ErrNoReferences
	}

	b.log.Info("index: parsing reference documents",
		"total", len(refs), "concurrency", b.opts.Concurrency)

	results := make([]*parsed, len(refs))
	errs := make([]error, len(refs))
	var done atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i := range refs {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i], errs[i] = b.parseSafe(refs[i])
			if n := done.Add(1); n%500 == 0 {
				b.log.Info("index: parse progress", "done", n, "total", len(refs))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, report, err
	}

	var ok []*parsed
	for i, r := range results {
		if errs[i] != nil {
			b.log.Warn("index: reference parse failed", "identifier", refs[i].Identifier, "error", errs[i])
			report.Failures = append(report.Failures, Failure{Identifier: refs[i].Identifier, Error: errs[i].Error()})
			continue
		}
		ok = append(ok, r)
	}
	report.Parsed = len(ok)

	if frac := float64(report.Parsed) / float64(expected); frac < b.opts.MinParseFraction {
		report.Duration = time.Since(start)
		b.log.Error("index: build shortfall",
			"parsed", report.Parsed, "expected", expected, "min_fraction", b.opts.MinParseFraction)
		return nil, report, fmt.Errorf("%w: %d of %d parsed, need %.0f%%",
			ErrShortfall, report.Parsed, expected, b.opts.MinParseFraction*100)
	}

	entities := b.reduce(ok, report)
	idx := newIndex(entities)
	report.Entities = idx.Len()
	report.Duration = time.Since(start)

	b.log.Info("index: build complete",
		"entities", report.Entities, "parsed", report.Parsed, "failed", len(report.Failures),
		"duplicates", len(report.Duplicates), "dangling", len(report.Dangling),
		"duration", report.Duration)
	return idx, report, nil
}

func (b *Builder) parseSafe(doc parser.Document) (p *parsed, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			p, err = nil, fmt.Errorf("index: panic parsing %s: %v", doc.Identifier, rec)
		}
	}()
	return parseReference(doc, b.opts.SeeAlsoMarkers)
}

// reduce merges parsed entities in input order. The first entity to claim
// an ID wins; later claimants are logged and dropped. Cross references are
// resolved once every entity is known.
func (b *Builder) reduce(items []*parsed, report *BuildReport) []*Entity {
	var (
		entities []*Entity
		kept     []*parsed
		byID     = make(map[string]*Entity, len(items))
		names    = make(map[string]string, len(items))
	)
	for _, p := range items {
		e := p.entity
		if first, dup := byID[e.ID]; dup {
			msg := fmt.Sprintf("duplicate canonical id %s: %s dropped, %s kept", e.ID, e.Source, first.Source)
			b.log.Warn("index: duplicate canonical id",
				"canonical_id", e.ID, "kept", first.Source, "dropped", e.Source)
			report.Duplicates = append(report.Duplicates, e.Source)
			report.Warnings = append(report.Warnings, msg)
			continue
		}
		key := Normalize(e.Name)
		if owner, taken := names[key]; taken {
			b.log.Info("index: canonical name shared",
				"name", e.Name, "owner", owner, "canonical_id", e.ID)
			report.Collisions = append(report.Collisions, e.Source)
		} else {
			names[key] = e.ID
		}
		byID[e.ID] = e
		entities = append(entities, e)
		kept = append(kept, p)
	}

	resolve := newResolver(entities)
	for _, p := range kept {
		seen := make(map[string]bool)
		for _, target := range p.refs {
			id, ok := resolve.lookup(target)
			if !ok {
				b.log.Warn("index: dropping dangling cross reference",
					"source", p.entity.Source, "target", target)
				report.Dangling = append(report.Dangling, Dangling{Source: p.entity.Source, Target: target})
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("%s: cross reference %s matches no reference entry", p.entity.Source, target))
				continue
			}
			if id == p.entity.ID || seen[id] {
				continue
			}
			seen[id] = true
			p.entity.CrossRefs = append(p.entity.CrossRefs, id)
		}
	}
	return entities
}

// resolver maps link targets to entity IDs: by full path first, then by a
// file stem that only one reference entry carries.
type resolver struct {
	byPath map[string]string
	byStem map[string][]string
}

func newResolver(entities []*Entity) *resolver {
	r := &resolver{byPath: make(map[string]string), byStem: make(map[string][]string)}
	for _, e := range entities {
		p := cleanPath(e.Source)
		if _, ok := r.byPath[p]; !ok {
			r.byPath[p] = e.ID
		}
		s := stem(p)
		r.byStem[s] = append(r.byStem[s], e.ID)
	}
	return r
}

func (r *resolver) lookup(target string) (string, bool) {
	p := cleanPath(target)
	if id, ok := r.byPath[p]; ok {
		return id, true
	}
	if ids := r.byStem[stem(p)]; len(ids) == 1 {
		return ids[0], true
	}
	return "", false
}

func cleanPath(p string) string {
	p = parser.StripHost(p)
	if i := strings.IndexAny(p, "#?"); i >= 0 {
		p = p[:i]
	}
	return strings.ToLower(path.Clean("/" + strings.TrimPrefix(p, "/")))
}

func stem(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
