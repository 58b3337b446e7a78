// Package goprovenance resolves document provenance: it extracts author,
// date and keywords from heterogeneous documents, links extracted names to
// a canonical entity index, and emits cross-reference edges.
package goprovenance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brunobiangulo/goprovenance/extract"
	"github.com/brunobiangulo/goprovenance/graph"
	"github.com/brunobiangulo/goprovenance/index"
	"github.com/brunobiangulo/goprovenance/link"
	"github.com/brunobiangulo/goprovenance/parser"
	"github.com/brunobiangulo/goprovenance/store"
)

// Engine is the main entry point for provenance resolution.
type Engine interface {
	// PrepareIndex builds the canonical index from reference documents, or
	// loads it from the cache when the collection's content hash matches.
	PrepareIndex(ctx context.Context, refs []parser.Document) (*IndexStatus, error)

	// LoadCachedIndex activates the most recent cached snapshot.
	LoadCachedIndex(ctx context.Context) (*IndexStatus, error)

	// Index returns the active index, or nil before one is prepared.
	Index() *index.Index

	// Process extracts, links and assembles edges for one document.
	Process(doc parser.Document) (*Record, error)

	// ProcessBatch processes documents on a bounded worker pool. Failed
	// documents are logged and reported, never fatal to the batch.
	ProcessBatch(ctx context.Context, docs []parser.Document) (*BatchResult, error)

	// Link resolves one name against the active index.
	Link(name string, lctx *link.Context) (link.Link, error)

	// Graph returns the full cross-reference graph of the active index.
	Graph() (*graph.Graph, error)

	// Snapshots lists cached index snapshots, newest first.
	Snapshots(ctx context.Context) ([]store.Snapshot, error)

	// Close cleanly shuts down the engine.
	Close() error
}

// active is one activated index with its linker. It is swapped whole and
// never mutated.
type active struct {
	idx    *index.Index
	linker *link.Linker
	hash   string
}

// engine is the concrete implementation of Engine.
type engine struct {
	cfg      Config
	log      *slog.Logger
	store    *store.Store
	pipeline *extract.Pipeline
	builder  *index.Builder
	current  atomic.Pointer[active]
	closed   atomic.Bool
}

// Option configures engine construction.
type Option func(*engine)

// WithLogger sets the engine's logger; the default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *engine) { e.log = l }
}

// New creates an engine with the given configuration.
func New(cfg Config, opts ...Option) (Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &engine{cfg: cfg}
	for _, o := range opts {
		o(e)
	}
	if e.log == nil {
		e.log = slog.Default()
	}

	e.pipeline = extract.NewPipeline(nil,
		extract.WithDisabled(cfg.DisabledStrategies...),
		extract.WithOrganizations(cfg.Organizations),
		extract.WithLogger(e.log),
	)
	if err := e.pipeline.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	e.builder = index.NewBuilder(index.BuildOptions{
		MinParseFraction:   cfg.MinParseFraction,
		ExpectedReferences: cfg.ExpectedReferences,
		Concurrency:        cfg.BuildConcurrency,
		SeeAlsoMarkers:     cfg.SeeAlsoMarkers,
	}, e.log)

	if path := cfg.resolveCachePath(); path != "" {
		s, err := store.New(path, e.log)
		if err != nil {
			return nil, fmt.Errorf("opening snapshot cache: %w", err)
		}
		e.store = s
	}
	return e, nil
}

func (e *engine) linkOptions() link.Options {
	return link.Options{
		FuzzyThreshold:        e.cfg.FuzzyThreshold,
		AliasConfidence:       e.cfg.AliasConfidence,
		ContextConfidence:     e.cfg.ContextConfidence,
		TextContextConfidence: e.cfg.TextContextConfidence,
		AmbiguousConfidence:   e.cfg.AmbiguousConfidence,
	}
}

func (e *engine) activate(idx *index.Index, hash string) {
	e.current.Store(&active{idx: idx, linker: link.New(idx, e.linkOptions(), e.log), hash: hash})
}

func (e *engine) PrepareIndex(ctx context.Context, refs []parser.Document) (*IndexStatus, error) {
	if e.closed.Load() {
		return nil, ErrStoreClosed
	}
	hash := index.ContentHash(refs)

	if cur := e.current.Load(); cur != nil && cur.hash == hash {
		return &IndexStatus{Source: SourceActive, ContentHash: hash, Entities: cur.idx.Len()}, nil
	}

	if e.store != nil && len(refs) > 0 {
		idx, err := e.store.LoadIndex(ctx, hash)
		switch {
		case err == nil:
			e.activate(idx, hash)
			e.log.Info("engine: index loaded from cache", "content_hash", hash, "entities", idx.Len())
			return &IndexStatus{Source: SourceCache, ContentHash: hash, Entities: idx.Len()}, nil
		case !errors.Is(err, store.ErrSnapshotNotFound):
			e.log.Warn("engine: cache read failed, rebuilding", "content_hash", hash, "error", err)
		}
	}

	idx, report, err := e.builder.Build(ctx, refs)
	if err != nil {
		switch {
		case errors.Is(err, index.ErrNoReferences):
			return nil, fmt.Errorf("%w: %w", ErrNoReferences, err)
		case errors.Is(err, index.ErrShortfall):
			return e.fallback(ctx, report, fmt.Errorf("%w: %w", ErrIndexShortfall, err))
		}
		return nil, err
	}

	if e.store != nil {
		if err := e.store.SaveIndex(ctx, hash, idx); err != nil {
			e.log.Warn("engine: caching index failed", "content_hash", hash, "error", err)
		}
	}
	e.activate(idx, hash)
	return &IndexStatus{Source: SourceBuild, ContentHash: hash, Entities: idx.Len(), Report: report}, nil
}

// fallback keeps serving after a failed rebuild: the already active index
// if there is one, otherwise the newest cached snapshot. The build error is
// returned either way.
func (e *engine) fallback(ctx context.Context, report *index.BuildReport, buildErr error) (*IndexStatus, error) {
	e.log.Error("engine: index build failed", "error", buildErr)
	if cur := e.current.Load(); cur != nil {
		return &IndexStatus{Source: SourceActive, ContentHash: cur.hash, Entities: cur.idx.Len(), Report: report}, buildErr
	}
	if e.store == nil {
		return &IndexStatus{Report: report}, buildErr
	}
	idx, snap, err := e.store.LoadLatest(ctx)
	if err != nil {
		e.log.Warn("engine: no cached index to fall back on", "error", err)
		return &IndexStatus{Report: report}, buildErr
	}
	e.activate(idx, snap.ContentHash)
	e.log.Warn("engine: serving previous cached index", "content_hash", snap.ContentHash, "entities", idx.Len())
	return &IndexStatus{Source: SourceFallback, ContentHash: snap.ContentHash, Entities: idx.Len(), Report: report}, buildErr
}

func (e *engine) LoadCachedIndex(ctx context.Context) (*IndexStatus, error) {
	if e.closed.Load() {
		return nil, ErrStoreClosed
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: cache disabled", ErrSnapshotNotFound)
	}
	idx, snap, err := e.store.LoadLatest(ctx)
	if errors.Is(err, store.ErrSnapshotNotFound) {
		return nil, fmt.Errorf("%w: %w", ErrSnapshotNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	e.activate(idx, snap.ContentHash)
	return &IndexStatus{Source: SourceCache, ContentHash: snap.ContentHash, Entities: idx.Len()}, nil
}

func (e *engine) Index() *index.Index {
	if cur := e.current.Load(); cur != nil {
		return cur.idx
	}
	return nil
}

func (e *engine) ready() (*active, error) {
	if e.closed.Load() {
		return nil, ErrStoreClosed
	}
	cur := e.current.Load()
	if cur == nil {
		return nil, ErrIndexNotReady
	}
	return cur, nil
}

func (e *engine) Process(doc parser.Document) (rec *Record, err error) {
	cur, err := e.ready()
	if err != nil {
		return nil, err
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("%w: %s: no parsed tree", ErrMalformedDocument, doc.Identifier)
	}
	defer func() {
		if r := recover(); r != nil {
			rec, err = nil, fmt.Errorf("%w: %s: %v", ErrMalformedDocument, doc.Identifier, r)
		}
	}()
	return e.process(cur, doc), nil
}

func (e *engine) process(cur *active, doc parser.Document) *Record {
	xdoc := extract.NewDocument(doc.Identifier, doc.Root)
	meta := e.pipeline.Extract(xdoc)

	rec := &Record{
		Identifier: doc.Identifier,
		Section:    xdoc.Section,
		Language:   extract.Language(doc.Identifier),
		Author:     meta.Author,
		Date:       meta.Date,
		Keywords:   meta.Keywords,
		Links:      []link.Link{},
		Edges:      []graph.Edge{},
	}

	lctx := &link.Context{Document: doc.Identifier, Text: doc.Root.Title()}
	if y, ok := extract.Year(meta.Date.Value); ok {
		lctx.Year = y
	}

	// The author is always linked so unresolved authors show in coverage;
	// keywords only contribute links that resolve.
	if meta.Author.Found() {
		rec.Links = append(rec.Links, cur.linker.Link(meta.Author.Value, lctx))
	}
	if e.cfg.LinkKeywords {
		for _, kw := range meta.Keywords.Values {
			if l := cur.linker.Link(kw, lctx); l.Resolved() {
				rec.Links = append(rec.Links, l)
			}
		}
	}

	edges, dropped := graph.Assemble(rec.Links, cur.idx, e.log)
	if edges != nil {
		rec.Edges = edges
	}
	rec.Dropped = dropped
	return rec
}

func (e *engine) ProcessBatch(ctx context.Context, docs []parser.Document) (*BatchResult, error) {
	if _, err := e.ready(); err != nil {
		return nil, err
	}
	start := time.Now()
	records := make([]*Record, len(docs))
	errs := make([]error, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i := range docs {
		if gctx.Err() != nil {
			break
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			records[i], errs[i] = e.Process(docs[i])
			return nil
		})
	}
	waitErr := g.Wait()
	if waitErr == nil {
		waitErr = ctx.Err()
	}

	res := &BatchResult{Coverage: NewCoverage()}
	for i, rec := range records {
		if errs[i] != nil {
			e.log.Warn("engine: document skipped", "identifier", docs[i].Identifier, "error", errs[i])
			res.Failures = append(res.Failures, Failure{Identifier: docs[i].Identifier, Error: errs[i].Error()})
			continue
		}
		if rec == nil {
			continue
		}
		res.Records = append(res.Records, rec)
		res.Coverage.Add(rec)
	}
	res.Duration = time.Since(start)

	e.log.Info("engine: batch complete",
		"documents", len(docs), "processed", len(res.Records), "failed", len(res.Failures),
		"elapsed", res.Duration.Round(time.Millisecond))
	return res, waitErr
}

func (e *engine) Link(name string, lctx *link.Context) (link.Link, error) {
	cur, err := e.ready()
	if err != nil {
		return link.Link{}, err
	}
	return cur.linker.Link(name, lctx), nil
}

func (e *engine) Graph() (*graph.Graph, error) {
	cur, err := e.ready()
	if err != nil {
		return nil, err
	}
	return graph.FromIndex(cur.idx), nil
}

func (e *engine) Snapshots(ctx context.Context) ([]store.Snapshot, error) {
	if e.closed.Load() {
		return nil, ErrStoreClosed
	}
	if e.store == nil {
		return nil, nil
	}
	return e.store.ListSnapshots(ctx)
}

func (e *engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	if e.store != nil {
		return e.store.Close()
	}
	return nil
}
