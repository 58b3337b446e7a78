package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/brunobiangulo/goprovenance/parser"
)

const manifestoID = "/archive/marx/works/1848/communist-manifesto/ch01.htm"

const manifestoHTML = `<html><head>
<title>Karl Marx: Manifesto of the Communist Party (1848)</title>
<meta name="author" content="Zodiac">
<meta name="keywords" content="Communism, class struggle; communism">
</head><body>
<p class="title"><a class="title" href="../../../../../index.htm">MIA</a> &gt;
<a class="title" href="../../index.htm">Marx &amp; Engels</a> &gt;
<a class="title" href="index.htm">Manifesto</a></p>
<h1>Manifesto of the Communist Party</h1>
<p class="information">
<span class="info">Written:</span> Late 1847;<br>
<span class="info">First Published:</span> February 1848;<br>
<span class="info">Transcription/Markup:</span> Zodiac and Brian Baggins;<br>
</p>
<p>A spectre is haunting Europe, see <a href="../../../../../subject/marxism/index.htm">Marxism</a>
and <a href="/glossary/people/e/n.htm#engels">Engels</a>.</p>
</body></html>`

func doc(id, markup string) Document {
	return NewDocument(id, parser.MustParseHTML(markup))
}

// ---------------------------------------------------------------------------
// Section classifier
// ---------------------------------------------------------------------------

func TestClassify(t *testing.T) {
	tests := []struct {
		id   string
		want SectionType
	}{
		{"/archive/marx/works/1848/x.htm", SectionArchive},
		{"https://www.marxists.org/reference/archive/stalin/works/1924/x.htm", SectionArchive},
		{"/reference/archive/hegel/works/hl/index.htm", SectionArchive},
		{"/reference/fiction/x.htm", SectionReference},
		{"/reference/subject/philosophy/x.htm", SectionSubject},
		{"/history/etol/newspape/militant/v03n12-mar-18-1939/x.htm", SectionPeriodical},
		{"/history/erol/periodicals/forward/x.htm", SectionPeriodical},
		{"/history/etol/writers/cannon/works/x.htm", SectionETOL},
		{"/history/erol/ncm-1/x.htm", SectionEROL},
		{"/history/usa/x.htm", SectionHistory},
		{"/subject/women/index.htm", SectionSubject},
		{"/glossary/people/m/a.htm", SectionGlossary},
		{"/data/dump/marxists.org/archive/lenin/x.htm", SectionArchive},
		{"/random/archive.htm", SectionGeneric},
		{"", SectionGeneric},
		{"not a path at all", SectionGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.id))
		})
	}
}

func TestLanguage(t *testing.T) {
	assert.Equal(t, "de", Language("/deutsch/archiv/marx-engels/x.htm"))
	assert.Equal(t, "fr", Language("https://www.marxists.org/francais/marx/works/x.htm"))
	assert.Equal(t, "en", Language(manifestoID))
	assert.Equal(t, "en", Language(""))
}

// ---------------------------------------------------------------------------
// Results
// ---------------------------------------------------------------------------

func TestResultInvariants(t *testing.T) {
	assert.Equal(t, 0.0, Scalar("x", "t", "  ", 0.9).Confidence)
	assert.False(t, Scalar("x", "t", "", 0.9).Found())
	assert.Equal(t, 1.0, Scalar("x", "t", "v", 1.7).Confidence)
	assert.Equal(t, 0.0, Scalar("x", "t", "v", -1).Confidence)

	l := List("x", "t", []string{"Marx", " marx ", "", "Engels"}, 0.5)
	assert.Equal(t, []string{"Marx", "Engels"}, l.Values)
	assert.Equal(t, 0.0, List("x", "t", []string{" "}, 0.5).Confidence)
}

func TestStrategiesNeverFailOnMalformedInput(t *testing.T) {
	inputs := []Document{
		{Identifier: "", Tree: nil},
		{Identifier: "/archive/", Tree: &parser.Node{}},
		{Identifier: "/archive/marx/works/", Tree: &parser.Node{Tag: "p", Children: []*parser.Node{nil, {Tag: parser.TextTag}}}},
		doc("/history/etol/newspape/x/y.htm", "<p>by</p><p>Written:</p><title>()</title>"),
		doc(manifestoID, manifestoHTML),
	}
	for id, e := range Catalog(nil) {
		for _, d := range inputs {
			r := e.Extract(d)
			assert.GreaterOrEqual(t, r.Confidence, 0.0, id)
			assert.LessOrEqual(t, r.Confidence, 1.0, id)
			assert.Equal(t, r.Found(), r.Confidence > 0, "%s on %q", id, d.Identifier)
		}
	}
}

// ---------------------------------------------------------------------------
// Author strategies
// ---------------------------------------------------------------------------

func TestAuthorStrategies(t *testing.T) {
	d := doc(manifestoID, manifestoHTML)

	assert.Equal(t, "Marx", NewArchivePathAuthor().Extract(d).Value)
	assert.Equal(t, "Karl Marx", NewTitleAuthor().Extract(d).Value)
	assert.False(t, NewMetaAuthor().Extract(d).Found(), "meta author is the transcriber")
	assert.False(t, NewCreditAuthor().Extract(d).Found())
	assert.False(t, NewBylineAuthor().Extract(d).Found())

	w := NewWritersPathAuthor().Extract(Document{Identifier: "/history/etol/writers/james-p-cannon/works/x.htm"})
	assert.Equal(t, "James P Cannon", w.Value)
	assert.Equal(t, 0.9, w.Confidence)
}

func TestCreditAuthor(t *testing.T) {
	d := doc("/reference/x.htm", `<p>Written: by Frederick Engels, October-November 1847</p>
<p>Transcribed by Zodiac</p>`)
	r := NewCreditAuthor().Extract(d)
	assert.Equal(t, "Frederick Engels", r.Value)
	assert.Equal(t, TagProvenance, r.SourceTag)

	d = doc("/reference/x.htm", `<p>Written by Rosa Luxemburg in 1915 for the Junius pamphlet.</p>`)
	assert.Equal(t, "Rosa Luxemburg", NewCreditAuthor().Extract(d).Value)

	d = doc("/reference/x.htm", `<p>Translated by: Brian Baggins</p><p>HTML Markup: Zodiac</p>`)
	assert.False(t, NewCreditAuthor().Extract(d).Found())
}

func TestBylineAuthor(t *testing.T) {
	d := doc("/x.htm", `<p>Transcribed by Ted Crawford</p><p>by Rosa Luxemburg</p>`)
	assert.Equal(t, "Rosa Luxemburg", NewBylineAuthor().Extract(d).Value)

	d = doc("/x.htm", `<p>Transcribed by Ted Crawford</p><p>Proofread by Einde O'Callaghan</p>`)
	assert.False(t, NewBylineAuthor().Extract(d).Found())

	for _, line := range []string{
		"Published by Progress Publishers, Moscow 1965.",
		"Printed by Foreign Languages Press",
		"Edited by Clemens Dutt",
		"First issued by Marxists Internet Archive",
	} {
		d = doc("/x.htm", "<p>"+line+"</p>")
		assert.False(t, NewBylineAuthor().Extract(d).Found(), line)
	}

	d = doc("/x.htm", `<p>Published by Progress Publishers</p><p>by Rosa Luxemburg</p>`)
	assert.Equal(t, "Rosa Luxemburg", NewBylineAuthor().Extract(d).Value)
}

func TestMetaAuthorAcceptsRealAuthor(t *testing.T) {
	d := doc("/x.htm", `<head><meta name="author" content="V. I. Lenin"></head>
<body><p>Transcription: David Walters</p></body>`)
	r := NewMetaAuthor().Extract(d)
	assert.Equal(t, "V. I. Lenin", r.Value)
	assert.Equal(t, 0.8, r.Confidence)
}

func TestTitleAuthorSkipsStructuralPrefixes(t *testing.T) {
	for _, title := range []string{"Chapter 1: Commodities", "Letter: To Engels", "Preface: 1872"} {
		d := doc("/x.htm", "<title>"+title+"</title>")
		assert.False(t, NewTitleAuthor().Extract(d).Found(), title)
	}
	d := doc("/x.htm", "<title>MIA: Leon Trotsky: The Revolution Betrayed</title>")
	assert.Equal(t, "Leon Trotsky", NewTitleAuthor().Extract(d).Value)

	d = doc("/x.htm", "<title>The Accumulation of Capital by Rosa Luxemburg</title>")
	assert.Equal(t, "Rosa Luxemburg", NewTitleAuthor().Extract(d).Value)
}

func TestTitleAuthorRejectsWorkTitles(t *testing.T) {
	tests := []struct {
		name   string
		markup string
	}{
		{"single word work", "<title>Capital: A Critique of Political Economy</title>"},
		{"single word subject", "<title>Imperialism: The Highest Stage</title>"},
		{"heading repeats prefix", "<title>Wage Labour: And Capital</title><h1>Wage Labour and Capital</h1>"},
		{"single word byline", "<title>Capital by Marx</title>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, NewTitleAuthor().Extract(doc("/x.htm", tt.markup)).Found())
		})
	}

	d := doc("/x.htm", "<h1>Leon Trotsky: Their Morals and Ours</h1>")
	assert.Equal(t, "Leon Trotsky", NewTitleAuthor().Extract(d).Value)
}

func TestOrganizationAuthor(t *testing.T) {
	d := doc("/x.htm", "<title>Theses on Tactics: Executive Committee of the Communist International</title>")
	r := NewOrganizationAuthor(nil).Extract(d)
	assert.Equal(t, "Executive Committee of the Communist International", r.Value)
	assert.Equal(t, 0.75, r.Confidence)

	custom := NewOrganizationAuthor([]string{"Spartacus League"})
	d = doc("/x.htm", "<title>Manifesto</title><p>Source: Spartacus League leaflet, 1918</p>")
	assert.Equal(t, "Spartacus League", custom.Extract(d).Value)
	assert.False(t, NewOrganizationAuthor(nil).Extract(d).Found())
}

// ---------------------------------------------------------------------------
// Date strategies
// ---------------------------------------------------------------------------

func TestPathDates(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"/archive/marx/works/1848/x.htm", "1848"},
		{"/archive/marx/works/1848-50/x.htm", "1848-1850"},
		{"/archive/marx/works/1867-c1/ch01.htm", "1867"},
		{"/archive/lenin/works/1917-1923/x.htm", "1917-1923"},
		{"/archive/marx/letters/x.htm", ""},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, NewWorksPathDate().Extract(Document{Identifier: tt.id}).Value)
		})
	}

	assert.Equal(t, "1919", NewYearPathDate().Extract(Document{Identifier: "/history/usa/1919/x.htm"}).Value)
	assert.False(t, NewYearPathDate().Extract(Document{Identifier: "/history/usa/1919.htm"}).Found())
}

func TestTitleDate(t *testing.T) {
	d := doc("/x.htm", "<title>The Civil War in France (March 1871)</title>")
	assert.Equal(t, "March 1871", NewTitleDate().Extract(d).Value)

	d = doc("/x.htm", "<title>Collected Works (1917-1923)</title>")
	assert.Equal(t, "1917-1923", NewTitleDate().Extract(d).Value)

	d = doc("/x.htm", "<title>Capital (Volume One)</title>")
	assert.False(t, NewTitleDate().Extract(d).Found())
}

func TestProvenanceDatePrefersWritten(t *testing.T) {
	d := doc("/x.htm", `<p>First Published: February 1848, London</p>
<p>Written: by Frederick Engels, October-November 1847; Source: MECW</p>`)
	r := NewProvenanceDate().Extract(d)
	assert.Equal(t, "October-November 1847", r.Value)
	assert.Equal(t, 0.9, r.Confidence)

	d = doc("/x.htm", `<p>Written: unknown</p><p>First published: in Die Neue Zeit, 1891</p>`)
	assert.Equal(t, "in Die Neue Zeit, 1891", NewProvenanceDate().Extract(d).Value)
}

func TestPeriodicalDate(t *testing.T) {
	p := NewPeriodicalDate()

	r := p.Extract(Document{Identifier: "/history/etol/newspape/militant/v03n12-mar-18-1939/art01.htm"})
	assert.Equal(t, "1939-03-18", r.Value)

	assert.Equal(t, "1939-03-18", p.Extract(doc("/x.htm", "<p>Socialist Appeal, 18 March 1939</p>")).Value)
	assert.Equal(t, "1920-09-02", p.Extract(doc("/x.htm", "<title>The Liberator, Sept. 2, 1920</title>")).Value)
	assert.False(t, p.Extract(doc("/x.htm", "<p>In 1939 things changed</p>")).Found())
}

func TestYear(t *testing.T) {
	y, ok := Year("Late 1847")
	assert.True(t, ok)
	assert.Equal(t, 1847, y)

	y, ok = Year("1848-1850")
	assert.True(t, ok)
	assert.Equal(t, 1848, y)

	_, ok = Year("12345")
	assert.False(t, ok)
	_, ok = Year("undated")
	assert.False(t, ok)
}

// ---------------------------------------------------------------------------
// Keyword strategies
// ---------------------------------------------------------------------------

func TestKeywordStrategies(t *testing.T) {
	d := doc(manifestoID, manifestoHTML)

	assert.Equal(t, []string{"Communism", "class struggle"}, NewMetaKeywords().Extract(d).Values)
	assert.Equal(t, []string{"Marx & Engels", "Manifesto"}, NewBreadcrumbKeywords().Extract(d).Values)
	assert.Equal(t, []string{"Marxism", "Engels"}, NewLinkKeywords().Extract(d).Values)
}

func TestBreadcrumbClass(t *testing.T) {
	d := doc("/x.htm", `<nav class="breadcrumb"><a href="/">Home</a> / <a href="/subject/">Subjects</a></nav>`)
	assert.Equal(t, []string{"Subjects"}, NewBreadcrumbKeywords().Extract(d).Values)
}
