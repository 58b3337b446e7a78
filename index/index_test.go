package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunobiangulo/goprovenance/parser"
)

func ref(id, markup string) parser.Document {
	return parser.Document{Identifier: id, Root: parser.MustParseHTML(markup)}
}

func marxRef() parser.Document {
	return ref("/glossary/people/m/marx.htm", `<html><head><title>Glossary: Marx</title></head><body>
<h1>Marx, Karl (1818-1883)</h1>
<p>German philosopher, economist and revolutionary.</p>
<p>See also: <a href="engels.htm">Engels</a>,
<a href="../../orgs/c/communist-league.htm">Communist League</a>,
<a href="/glossary/people/x/nobody.htm">Nobody</a></p>
</body></html>`)
}

func engelsRef() parser.Document {
	return ref("/glossary/people/e/engels.htm", `<body>
<h1>Engels, Frederick (1820-1895)</h1>
<p>Co-author of the Manifesto.</p>
<h3>See also</h3>
<ul><li><a href="../m/marx.htm">Karl Marx</a></li></ul>
<h3>Works</h3>
<ul><li><a href="/archive/marx/works/1848/communist-manifesto/index.htm">Manifesto</a></li></ul>
</body>`)
}

func leagueRef() parser.Document {
	return ref("/glossary/orgs/c/communist-league.htm", `<body>
<h2>Communist League (1847-1852)</h2>
<p>The first international communist organisation.</p>
</body>`)
}

func emptyRef(id string) parser.Document {
	return ref(id, `<html><body><p></p></body></html>`)
}

func build(t *testing.T, opts BuildOptions, refs ...parser.Document) (*Index, *BuildReport) {
	t.Helper()
	idx, report, err := NewBuilder(opts, nil).Build(context.Background(), refs)
	require.NoError(t, err)
	return idx, report
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

func TestBuildMarxEntry(t *testing.T) {
	idx, report := build(t, BuildOptions{}, marxRef(), engelsRef(), leagueRef())

	require.Equal(t, 3, idx.Len())
	marxID := CanonicalID("Karl Marx", 1818)
	engelsID := CanonicalID("Frederick Engels", 1820)
	leagueID := CanonicalID("Communist League", 1847)

	marx, ok := idx.Entity(marxID)
	require.True(t, ok)
	assert.Equal(t, "Karl Marx", marx.Name)
	assert.Equal(t, TypePerson, marx.Type)
	assert.Equal(t, &Period{Start: 1818, End: 1883}, marx.Period)
	assert.Equal(t, "German philosopher, economist and revolutionary.", marx.Description)
	assert.Equal(t, "/glossary/people/m/marx.htm", marx.Source)
	assert.Subset(t, marx.Aliases, []string{"Marx, Karl", "Karl Marx", "K. Marx", "Marx, K.", "Marx"})
	assert.Equal(t, []string{engelsID, leagueID}, marx.CrossRefs)

	engels, _ := idx.Entity(engelsID)
	assert.Equal(t, []string{marxID}, engels.CrossRefs, "only links under the see-also heading count")

	league, _ := idx.Entity(leagueID)
	assert.Equal(t, TypeOrganization, league.Type)
	assert.Empty(t, league.CrossRefs)

	assert.Equal(t, 3, report.Parsed)
	require.Len(t, report.Dangling, 1)
	assert.Equal(t, "/glossary/people/x/nobody.htm", report.Dangling[0].Target)
	assert.NotEmpty(t, report.Warnings)
}

func TestBuildInvariants(t *testing.T) {
	idx, _ := build(t, BuildOptions{}, marxRef(), engelsRef(), leagueRef())

	for _, e := range idx.Entities() {
		assert.Contains(t, e.Aliases, e.Name)
		for _, ref := range e.CrossRefs {
			assert.True(t, idx.Has(ref), "cross reference %s of %s", ref, e.Name)
		}
	}
	for alias, ids := range idx.AliasIndex() {
		for _, id := range ids {
			assert.True(t, idx.Has(id), "alias %q", alias)
		}
	}
	for name, id := range idx.NameIndex() {
		assert.True(t, idx.Has(id), "name %q", name)
	}
}

func TestLookups(t *testing.T) {
	idx, _ := build(t, BuildOptions{}, marxRef(), leagueRef())
	marxID := CanonicalID("Karl Marx", 1818)

	id, ok := idx.NameOwner("  KARL   marx ")
	assert.True(t, ok)
	assert.Equal(t, marxID, id)

	assert.Equal(t, []string{marxID}, idx.AliasCandidates("Marx"))
	assert.Equal(t, []string{marxID}, idx.AliasCandidates("marx, k"))
	assert.Empty(t, idx.AliasCandidates("Engels"))
	assert.Equal(t, []string{"communist league", "karl marx"}, idx.Names())
}

func TestReturnedEntitiesAreCopies(t *testing.T) {
	idx, _ := build(t, BuildOptions{}, marxRef(), engelsRef(), leagueRef())
	marxID := CanonicalID("Karl Marx", 1818)
	before, ok := idx.Entity(marxID)
	require.True(t, ok)
	wantAlias, wantRef := before.Aliases[0], before.CrossRefs[0]

	e, _ := idx.Entity(marxID)
	e.Aliases[0] = "MUTATED"
	e.CrossRefs[0] = "MUTATED"
	e.Period.Start = 1

	for _, all := range idx.Entities() {
		if all.ID != marxID {
			continue
		}
		all.Aliases[0] = "MUTATED"
		all.Period.End = 2
	}

	after, _ := idx.Entity(marxID)
	assert.Equal(t, wantAlias, after.Aliases[0])
	assert.Equal(t, wantRef, after.CrossRefs[0])
	assert.Equal(t, &Period{Start: 1818, End: 1883}, after.Period)
	assert.Equal(t, before, after)
}

func TestBuildShortfall(t *testing.T) {
	b := NewBuilder(BuildOptions{}, nil)

	idx, report, err := b.Build(context.Background(), []parser.Document{
		marxRef(), emptyRef("/glossary/a.htm"), emptyRef("/glossary/b.htm"), emptyRef("/glossary/c.htm"),
	})
	assert.ErrorIs(t, err, ErrShortfall)
	assert.Nil(t, idx)
	assert.Equal(t, 1, report.Parsed)
	assert.Len(t, report.Failures, 3)

	_, _, err = NewBuilder(BuildOptions{ExpectedReferences: 10}, nil).
		Build(context.Background(), []parser.Document{marxRef(), leagueRef()})
	assert.ErrorIs(t, err, ErrShortfall)

	// exactly half passes the default threshold
	idx, report, err = b.Build(context.Background(), []parser.Document{marxRef(), emptyRef("/glossary/a.htm")})
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.Len(t, report.Failures, 1)
}

func TestBuildNoReferences(t *testing.T) {
	_, _, err := NewBuilder(BuildOptions{}, nil).Build(context.Background(), nil)
	assert.ErrorIs(t, err, ErrNoReferences)
}

func TestBuildDuplicateIDFirstSeenWins(t *testing.T) {
	dup := ref("/glossary/people/k/karl.htm", `<body><h1>Marx, Karl (1818-1883)</h1><p>Duplicate entry.</p></body>`)
	idx, report := build(t, BuildOptions{}, marxRef(), dup)

	assert.Equal(t, 1, idx.Len())
	e, _ := idx.Entity(CanonicalID("Karl Marx", 1818))
	assert.Equal(t, "/glossary/people/m/marx.htm", e.Source)
	assert.Equal(t, []string{"/glossary/people/k/karl.htm"}, report.Duplicates)
}

func TestSharedSurnameAndName(t *testing.T) {
	adam := ref("/glossary/people/s/adam-smith.htm", `<body><h1>Smith, Adam (1723-1790)</h1></body>`)
	john := ref("/glossary/people/s/john-smith.htm", `<body><h1>Smith, John (1860-1920)</h1></body>`)
	elder := ref("/glossary/people/s/john-smith-elder.htm", `<body><h1>Smith, John (1580-1631)</h1></body>`)

	idx, report := build(t, BuildOptions{}, adam, john, elder)
	adamID := CanonicalID("Adam Smith", 1723)
	johnID := CanonicalID("John Smith", 1860)
	elderID := CanonicalID("John Smith", 1580)

	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{adamID, johnID, elderID}, idx.AliasCandidates("Smith"))
	assert.Equal(t, []string{johnID, elderID}, idx.AliasCandidates("John Smith"))

	owner, _ := idx.NameOwner("John Smith")
	assert.Equal(t, johnID, owner)
	assert.Len(t, report.Collisions, 1)
}

func TestBuildOrderIndependentOfConcurrency(t *testing.T) {
	refs := []parser.Document{marxRef(), engelsRef(), leagueRef()}
	serial, _ := build(t, BuildOptions{Concurrency: 1}, refs...)
	parallel, _ := build(t, BuildOptions{Concurrency: 16}, refs...)

	assert.Equal(t, serial.Entities(), parallel.Entities())
	assert.Equal(t, serial.AliasIndex(), parallel.AliasIndex())
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewBuilder(BuildOptions{}, nil).Build(ctx, []parser.Document{marxRef()})
	assert.ErrorIs(t, err, context.Canceled)
}

// ---------------------------------------------------------------------------
// Restore
// ---------------------------------------------------------------------------

func TestRestoreRoundTrip(t *testing.T) {
	idx, _ := build(t, BuildOptions{}, marxRef(), engelsRef(), leagueRef())

	back, err := Restore(idx.Entities(), idx.NameIndex(), idx.AliasIndex())
	require.NoError(t, err)
	assert.Equal(t, idx.Entities(), back.Entities())
	assert.Equal(t, idx.NameIndex(), back.NameIndex())
	assert.Equal(t, idx.AliasIndex(), back.AliasIndex())
}

func TestRestoreCopiesInput(t *testing.T) {
	in := []Entity{{ID: "a", Name: "A", Aliases: []string{"A"}, CrossRefs: []string{}, Period: &Period{Start: 1900}}}

	idx, err := Restore(in, map[string]string{"a": "a"}, map[string][]string{"a": {"a"}})
	require.NoError(t, err)
	in[0].Aliases[0] = "B"
	in[0].Period.Start = 1

	e, ok := idx.Entity("a")
	require.True(t, ok)
	assert.Equal(t, []string{"A"}, e.Aliases)
	assert.Equal(t, []string{}, e.CrossRefs)
	assert.Equal(t, 1900, e.Period.Start)
}

func TestRestoreRejectsDangling(t *testing.T) {
	e := Entity{ID: "a", Name: "A", Aliases: []string{"A"}}

	_, err := Restore([]Entity{e}, map[string]string{"a": "a"}, map[string][]string{"a": {"a", "b"}})
	assert.ErrorIs(t, err, ErrDanglingReference)

	_, err = Restore([]Entity{e}, map[string]string{"x": "missing"}, nil)
	assert.ErrorIs(t, err, ErrDanglingReference)

	e.CrossRefs = []string{"missing"}
	_, err = Restore([]Entity{e}, nil, nil)
	assert.ErrorIs(t, err, ErrDanglingReference)

	_, err = Restore([]Entity{{ID: "a"}, {ID: "a"}}, nil, nil)
	assert.ErrorIs(t, err, ErrDuplicateCanonical)
}

// ---------------------------------------------------------------------------
// Hash
// ---------------------------------------------------------------------------

func TestContentHash(t *testing.T) {
	a := ContentHash([]parser.Document{marxRef(), leagueRef()})
	b := ContentHash([]parser.Document{leagueRef(), marxRef()})
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)

	changed := leagueRef()
	changed.Root = parser.MustParseHTML(`<body><h2>Communist League (1847-1853)</h2></body>`)
	assert.NotEqual(t, a, ContentHash([]parser.Document{marxRef(), changed}))
}
