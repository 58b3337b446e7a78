package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brunobiangulo/goprovenance/index"
	"github.com/brunobiangulo/goprovenance/link"
	"github.com/brunobiangulo/goprovenance/parser"
)

var (
	marxID   = index.CanonicalID("Karl Marx", 1818)
	engelsID = index.CanonicalID("Frederick Engels", 1820)
	leagueID = index.CanonicalID("Communist League", 1847)
	dialID   = index.CanonicalID("Dialectics", 0)
)

func testIndex(t *testing.T) *index.Index {
	t.Helper()
	doc := func(id, markup string) parser.Document {
		return parser.Document{Identifier: id, Root: parser.MustParseHTML(markup)}
	}
	idx, _, err := index.NewBuilder(index.BuildOptions{}, nil).Build(context.Background(), []parser.Document{
		doc("/glossary/people/m/marx.htm", `<body><h1>Marx, Karl (1818-1883)</h1>
<p>See also: <a href="../e/engels.htm">Engels</a>, <a href="/glossary/orgs/c/communist-league.htm">League</a></p></body>`),
		doc("/glossary/people/e/engels.htm", `<body><h1>Engels, Frederick (1820-1895)</h1>
<p>See also: <a href="../m/marx.htm">Marx</a></p></body>`),
		doc("/glossary/orgs/c/communist-league.htm", `<body><h1>Communist League (1847-1852)</h1></body>`),
		doc("/glossary/terms/d/dialectics.htm", `<body><h1>Dialectics</h1><p>Method of reasoning.</p></body>`),
	})
	require.NoError(t, err)
	return idx
}

func TestAssemble(t *testing.T) {
	idx := testIndex(t)
	links := []link.Link{
		{DocumentIdentifier: "/archive/marx/a.htm", CanonicalID: marxID, MatchKind: link.MatchExact, Confidence: 1},
		{DocumentIdentifier: "/archive/marx/a.htm", ExtractedValue: "Nobody", MatchKind: link.MatchUnresolved},
		{DocumentIdentifier: "/archive/marx/a.htm", CanonicalID: marxID, MatchKind: link.MatchAlias, Confidence: 0.9},
		{DocumentIdentifier: "/archive/marx/a.htm", CanonicalID: engelsID, MatchKind: link.MatchAlias, Confidence: 0.9},
	}

	edges, dropped := Assemble(links, idx, nil)
	assert.Equal(t, []Edge{
		{Source: marxID, Target: engelsID},
		{Source: marxID, Target: leagueID},
		{Source: engelsID, Target: marxID},
	}, edges)
	assert.Empty(t, dropped)
}

func TestAssembleDropsUnknownSource(t *testing.T) {
	idx := testIndex(t)
	edges, dropped := Assemble([]link.Link{
		{DocumentIdentifier: "/d.htm", CanonicalID: "stale-id", MatchKind: link.MatchExact, Confidence: 1},
		{DocumentIdentifier: "/d.htm", CanonicalID: leagueID, MatchKind: link.MatchExact, Confidence: 1},
	}, idx, nil)

	assert.Empty(t, edges)
	require.Len(t, dropped, 1)
	assert.Equal(t, Dropped{Document: "/d.htm", Source: "stale-id", Reason: ReasonUnknownSource}, dropped[0])
}

func TestAssembleNothingResolved(t *testing.T) {
	edges, dropped := Assemble(nil, testIndex(t), nil)
	assert.Empty(t, edges)
	assert.Empty(t, dropped)
}

func TestFromIndex(t *testing.T) {
	g := FromIndex(testIndex(t))

	assert.Len(t, g.Edges(), 3)
	assert.ElementsMatch(t, []string{marxID, engelsID, leagueID, dialID}, g.Nodes())
	assert.True(t, g.Has(dialID))
	assert.Equal(t, []string{engelsID, leagueID}, g.Neighbors(marxID))
	assert.Empty(t, g.Neighbors(leagueID))
}

func TestReachable(t *testing.T) {
	g := FromIndex(testIndex(t))

	assert.Equal(t, []string{marxID}, g.Reachable([]string{marxID}, 0))
	assert.Equal(t, []string{marxID, engelsID, leagueID}, g.Reachable([]string{marxID}, 1))
	assert.Equal(t, []string{engelsID, marxID}, g.Reachable([]string{engelsID}, 1))
	assert.Equal(t, []string{engelsID, marxID, leagueID}, g.Reachable([]string{engelsID}, 5))
	assert.Equal(t, []string{leagueID}, g.Reachable([]string{leagueID, "unknown", leagueID}, 3))
	assert.Nil(t, g.Reachable([]string{marxID}, -1))
}

func TestCycleIsNotAnError(t *testing.T) {
	g := New([]Edge{{"a", "b"}, {"b", "a"}, {"a", "b"}})
	assert.Len(t, g.Edges(), 2)
	assert.Equal(t, []string{"a", "b"}, g.Reachable([]string{"a"}, 10))
}

func TestComponents(t *testing.T) {
	g := FromIndex(testIndex(t))
	comps := g.Components()

	require.Len(t, comps, 2)
	assert.ElementsMatch(t, []string{marxID, engelsID, leagueID}, comps[0])
	assert.Equal(t, []string{dialID}, comps[1])
	assert.Equal(t, 3, Largest(comps))
	assert.Equal(t, 0, Largest(nil))
}
