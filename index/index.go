package index

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

var (
	ErrShortfall          = errors.New("index: too few reference documents parsed")
	ErrNoReferences       = errors.New("index: no reference documents supplied")
	ErrNoHeading          = errors.New("index: reference document has no heading")
	ErrDanglingReference  = errors.New("index: reference to unknown canonical id")
	ErrDuplicateCanonical = errors.New("index: duplicate canonical id")
)

// EntityType is the kind of canonical entity.
type EntityType string

const (
	TypePerson       EntityType = "person"
	TypeOrganization EntityType = "organization"
	TypeConcept      EntityType = "concept"
)

// Period is an active period in years. A zero End means open-ended.
type Period struct {
	Start int `json:"start,omitempty"`
	End   int `json:"end,omitempty"`
}

// Contains reports whether year falls inside the period.
func (p *Period) Contains(year int) bool {
	if p == nil || year == 0 {
		return false
	}
	if p.Start != 0 && year < p.Start {
		return false
	}
	if p.End != 0 && year > p.End {
		return false
	}
	return p.Start != 0 || p.End != 0
}

// Entity is one canonical identity.
type Entity struct {
	ID          string     `json:"canonical_id"`
	Name        string     `json:"canonical_name"`
	Type        EntityType `json:"entity_type"`
	Period      *Period    `json:"active_period,omitempty"`
	Description string     `json:"description,omitempty"`
	Aliases     []string   `json:"aliases"`
	CrossRefs   []string   `json:"cross_reference_ids"`
	Source      string     `json:"source_identifier"`
}

// clone returns a deep copy of e. Nil and empty slices stay as they are.
func (e *Entity) clone() Entity {
	out := *e
	out.Aliases = slices.Clone(e.Aliases)
	out.CrossRefs = slices.Clone(e.CrossRefs)
	if e.Period != nil {
		p := *e.Period
		out.Period = &p
	}
	return out
}

// Index is the immutable canonical entity index. It is safe for concurrent
// reads; nothing mutates it after construction.
type Index struct {
	entities map[string]*Entity
	order    []string
	names    map[string]string
	aliases  map[string][]string
}

// newIndex indexes entities in the given order. The first entity to claim a
// normalized canonical name owns it; alias candidates keep insertion order.
func newIndex(entities []*Entity) *Index {
	idx := &Index{
		entities: make(map[string]*Entity, len(entities)),
		names:    make(map[string]string, len(entities)),
		aliases:  make(map[string][]string),
	}
	for _, e := range entities {
		idx.entities[e.ID] = e
		idx.order = append(idx.order, e.ID)
		key := Normalize(e.Name)
		if _, taken := idx.names[key]; !taken {
			idx.names[key] = e.ID
		}
		seen := make(map[string]bool, len(e.Aliases))
		for _, a := range e.Aliases {
			k := Normalize(a)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			idx.aliases[k] = append(idx.aliases[k], e.ID)
		}
	}
	return idx
}

// Restore rebuilds an index from persisted maps. Entities keep the given
// order. Any map value or cross reference naming an unknown ID fails with
// ErrDanglingReference.
func Restore(entities []Entity, names map[string]string, aliases map[string][]string) (*Index, error) {
	idx := &Index{
		entities: make(map[string]*Entity, len(entities)),
		names:    make(map[string]string, len(names)),
		aliases:  make(map[string][]string, len(aliases)),
	}
	for i := range entities {
		e := entities[i].clone()
		if _, dup := idx.entities[e.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateCanonical, e.ID)
		}
		idx.entities[e.ID] = &e
		idx.order = append(idx.order, e.ID)
	}
	for _, e := range idx.entities {
		for _, ref := range e.CrossRefs {
			if _, ok := idx.entities[ref]; !ok {
				return nil, fmt.Errorf("%w: %s cross reference %s", ErrDanglingReference, e.ID, ref)
			}
		}
	}
	for k, id := range names {
		if _, ok := idx.entities[id]; !ok {
			return nil, fmt.Errorf("%w: name %q → %s", ErrDanglingReference, k, id)
		}
		idx.names[k] = id
	}
	for k, ids := range aliases {
		for _, id := range ids {
			if _, ok := idx.entities[id]; !ok {
				return nil, fmt.Errorf("%w: alias %q → %s", ErrDanglingReference, k, id)
			}
		}
		idx.aliases[k] = append([]string(nil), ids...)
	}
	return idx, nil
}

// Len returns the number of entities.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.order)
}

// Entity looks up an entity by canonical ID. The result is a copy the
// caller may modify.
func (idx *Index) Entity(id string) (Entity, bool) {
	if idx == nil {
		return Entity{}, false
	}
	e, ok := idx.entities[id]
	if !ok {
		return Entity{}, false
	}
	return e.clone(), true
}

// Has reports whether id is a known canonical ID.
func (idx *Index) Has(id string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.entities[id]
	return ok
}

// Entities returns all entities in build order.
func (idx *Index) Entities() []Entity {
	if idx == nil {
		return nil
	}
	out := make([]Entity, 0, len(idx.order))
	for _, id := range idx.order {
		out = append(out, idx.entities[id].clone())
	}
	return out
}

// NameOwner returns the entity owning the normalized form of name.
func (idx *Index) NameOwner(name string) (string, bool) {
	if idx == nil {
		return "", false
	}
	id, ok := idx.names[Normalize(name)]
	return id, ok
}

// AliasCandidates returns the entities sharing the normalized alias, in
// declared priority order.
func (idx *Index) AliasCandidates(name string) []string {
	if idx == nil {
		return nil
	}
	return append([]string(nil), idx.aliases[Normalize(name)]...)
}

// Names returns the normalized canonical names in sorted order.
func (idx *Index) Names() []string {
	if idx == nil {
		return nil
	}
	out := make([]string, 0, len(idx.names))
	for k := range idx.names {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// NameIndex returns a copy of the normalized name → canonical ID map.
func (idx *Index) NameIndex() map[string]string {
	if idx == nil {
		return map[string]string{}
	}
	out := make(map[string]string, len(idx.names))
	for k, v := range idx.names {
		out[k] = v
	}
	return out
}

// AliasIndex returns a copy of the normalized alias → candidate IDs map.
func (idx *Index) AliasIndex() map[string][]string {
	if idx == nil {
		return map[string][]string{}
	}
	out := make(map[string][]string, len(idx.aliases))
	for k, v := range idx.aliases {
		out[k] = append([]string(nil), v...)
	}
	return out
}
