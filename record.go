package goprovenance

import (
	"time"

	"github.com/brunobiangulo/goprovenance/extract"
	"github.com/brunobiangulo/goprovenance/graph"
	"github.com/brunobiangulo/goprovenance/index"
	"github.com/brunobiangulo/goprovenance/link"
)

// Record is the enriched provenance record for one document.
type Record struct {
	Identifier string              `json:"identifier"`
	Section    extract.SectionType `json:"section_type"`
	Language   string              `json:"language"`
	Author     extract.Result      `json:"author"`
	Date       extract.Result      `json:"date"`
	Keywords   extract.Result      `json:"keywords"`
	Links      []link.Link         `json:"links"`
	Edges      []graph.Edge        `json:"edges"`
	Dropped    []graph.Dropped     `json:"dropped_edges,omitempty"`
}

// Field returns the record's result for f.
func (r *Record) Field(f extract.Field) extract.Result {
	switch f {
	case extract.FieldAuthor:
		return r.Author
	case extract.FieldDate:
		return r.Date
	default:
		return r.Keywords
	}
}

// AuthorLink returns the link made for the extracted author, if any.
func (r *Record) AuthorLink() (link.Link, bool) {
	if !r.Author.Found() {
		return link.Link{}, false
	}
	for _, l := range r.Links {
		if l.ExtractedValue == r.Author.Value {
			return l, true
		}
	}
	return link.Link{}, false
}

// Failure is a document a batch skipped.
type Failure struct {
	Identifier string `json:"identifier"`
	Error      string `json:"error"`
}

// BatchResult is the outcome of ProcessBatch. Records keep input order.
type BatchResult struct {
	Records  []*Record     `json:"records"`
	Failures []Failure     `json:"failures,omitempty"`
	Coverage *Coverage     `json:"coverage"`
	Duration time.Duration `json:"duration"`
}

// IndexSource says where the active index came from.
type IndexSource string

const (
	SourceBuild    IndexSource = "build"
	SourceCache    IndexSource = "cache"
	SourceFallback IndexSource = "fallback"
	SourceActive   IndexSource = "active" // a failed rebuild left the previous index in place
)

// IndexStatus describes the index activated by PrepareIndex or
// LoadCachedIndex.
type IndexStatus struct {
	Source      IndexSource        `json:"source"`
	ContentHash string             `json:"content_hash"`
	Entities    int                `json:"entities"`
	Report      *index.BuildReport `json:"report,omitempty"`
}
