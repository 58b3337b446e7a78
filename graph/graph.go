// Package graph assembles directed cross-reference edges between canonical
// entities and answers reachability questions over them.
package graph

import (
	"log/slog"

	"github.com/brunobiangulo/goprovenance/index"
	"github.com/brunobiangulo/goprovenance/link"
)

// Edge is a directed cross reference. Cycles are expected.
type Edge struct {
	Source string `json:"source_canonical_id"`
	Target string `json:"target_canonical_id"`
}

// Dropped records an edge that could not be emitted.
type Dropped struct {
	Document string `json:"document_identifier,omitempty"`
	Source   string `json:"source_canonical_id"`
	Target   string `json:"target_canonical_id,omitempty"`
	Reason   string `json:"reason"`
}

const (
	ReasonUnknownSource = "unknown source entity"
	ReasonUnknownTarget = "unknown target entity"
)

// Assemble emits the cross-reference edges of every entity the links
// resolved to. Unresolved links contribute nothing. Links or cross
// references naming an ID absent from idx are logged and returned as
// dropped; they never fail the call. Output is deduplicated and keeps
// first-seen order.
func Assemble(links []link.Link, idx *index.Index, log *slog.Logger) ([]Edge, []Dropped) {
	if log == nil {
		log = slog.Default()
	}
	var (
		edges   []Edge
		dropped []Dropped
		sources = make(map[string]bool)
		seen    = make(map[Edge]bool)
	)
	for _, l := range links {
		if !l.Resolved() || sources[l.CanonicalID] {
			continue
		}
		sources[l.CanonicalID] = true

		e, ok := idx.Entity(l.CanonicalID)
		if !ok {
			log.Warn("graph: dropping link to unknown entity",
				"document", l.DocumentIdentifier, "canonical_id", l.CanonicalID)
			dropped = append(dropped, Dropped{Document: l.DocumentIdentifier, Source: l.CanonicalID, Reason: ReasonUnknownSource})
			continue
		}
		for _, target := range e.CrossRefs {
			if !idx.Has(target) {
				log.Warn("graph: dropping unresolved cross reference",
					"document", l.DocumentIdentifier, "source", e.ID, "target", target)
				dropped = append(dropped, Dropped{Document: l.DocumentIdentifier, Source: e.ID, Target: target, Reason: ReasonUnknownTarget})
				continue
			}
			edge := Edge{Source: e.ID, Target: target}
			if seen[edge] {
				continue
			}
			seen[edge] = true
			edges = append(edges, edge)
		}
	}
	return edges, dropped
}

// Graph is an in-memory adjacency view over a fixed edge set.
type Graph struct {
	nodes []string
	known map[string]bool
	out   map[string][]string
	edges []Edge
}

// New builds a graph from edges, deduplicating them.
func New(edges []Edge) *Graph {
	g := &Graph{known: make(map[string]bool), out: make(map[string][]string)}
	seen := make(map[Edge]bool, len(edges))
	for _, e := range edges {
		if seen[e] {
			continue
		}
		seen[e] = true
		g.addNode(e.Source)
		g.addNode(e.Target)
		g.out[e.Source] = append(g.out[e.Source], e.Target)
		g.edges = append(g.edges, e)
	}
	return g
}

// FromIndex builds the full cross-reference graph of idx. Every entity is a
// node, linked or not.
func FromIndex(idx *index.Index) *Graph {
	var edges []Edge
	entities := idx.Entities()
	for _, e := range entities {
		for _, target := range e.CrossRefs {
			edges = append(edges, Edge{Source: e.ID, Target: target})
		}
	}
	g := New(edges)
	for _, e := range entities {
		g.addNode(e.ID)
	}
	return g
}

func (g *Graph) addNode(id string) {
	if !g.known[id] {
		g.known[id] = true
		g.nodes = append(g.nodes, id)
	}
}

// Edges returns a copy of the edge set in insertion order.
func (g *Graph) Edges() []Edge { return append([]Edge(nil), g.edges...) }

// Nodes returns node IDs in first-seen order.
func (g *Graph) Nodes() []string { return append([]string(nil), g.nodes...) }

// Has reports whether id is a node.
func (g *Graph) Has(id string) bool { return g.known[id] }

// Neighbors returns the targets of id's outgoing edges.
func (g *Graph) Neighbors(id string) []string { return append([]string(nil), g.out[id]...) }

// Reachable walks outgoing edges breadth-first from seeds for up to depth
// hops and returns every visited node, seeds first, in visit order. Unknown
// seeds are ignored. A negative depth returns nothing.
func (g *Graph) Reachable(seeds []string, depth int) []string {
	if depth < 0 {
		return nil
	}
	visited := make(map[string]bool)
	var order, queue []string
	for _, s := range seeds {
		if g.known[s] && !visited[s] {
			visited[s] = true
			order = append(order, s)
			queue = append(queue, s)
		}
	}
	for d := 0; d < depth && len(queue) > 0; d++ {
		var next []string
		for _, id := range queue {
			for _, n := range g.out[id] {
				if !visited[n] {
					visited[n] = true
					order = append(order, n)
					next = append(next, n)
				}
			}
		}
		queue = next
	}
	return order
}
