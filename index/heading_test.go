package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHeading(t *testing.T) {
	tests := []struct {
		in        string
		name      string
		period    *Period
		qualifier string
	}{
		{"Marx, Karl (1818-1883)", "Karl Marx", &Period{1818, 1883}, ""},
		{"Lenin, Vladimir Ilyich (1870–1924)", "Vladimir Ilyich Lenin", &Period{1870, 1924}, ""},
		{"Hegel, G. W. F. (1770-1831)", "G. W. F. Hegel", &Period{1770, 1831}, ""},
		{"Luxemburg, Rosa (b. 1871)", "Rosa Luxemburg", &Period{Start: 1871}, ""},
		{"Communist International (Comintern)", "Communist International", nil, "Comintern"},
		{"Paris Commune (1871)", "Paris Commune", &Period{1871, 1871}, ""},
		{"Chartism (1838-48)", "Chartism", &Period{1838, 1848}, ""},
		{"  Dialectics  ", "Dialectics", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			h, ok := ParseHeading(tt.in)
			assert.True(t, ok)
			assert.Equal(t, tt.name, h.Name)
			assert.Equal(t, tt.period, h.Period)
			assert.Equal(t, tt.qualifier, h.Qualifier)
		})
	}

	_, ok := ParseHeading("   ")
	assert.False(t, ok)
	_, ok = ParseHeading("(1848)")
	assert.False(t, ok)
}

func TestGenerateAliases(t *testing.T) {
	marx := GenerateAliases("Karl Marx", TypePerson)
	assert.Equal(t, "Karl Marx", marx[0])
	assert.ElementsMatch(t, []string{"Karl Marx", "Marx, Karl", "K. Marx", "Marx, K.", "Marx"}, marx)

	lenin := GenerateAliases("Vladimir Ilyich Lenin", TypePerson)
	assert.Subset(t, lenin, []string{
		"Lenin, Vladimir Ilyich", "V. I. Lenin", "V.I. Lenin", "Lenin, V. I.", "Vladimir Lenin", "Lenin",
	})

	mises := GenerateAliases("Ludwig von Mises", TypePerson)
	assert.Subset(t, mises, []string{"von Mises, Ludwig", "L. von Mises", "von Mises"})

	assert.Equal(t, []string{"Spartacus"}, GenerateAliases("Spartacus", TypePerson))

	iww := GenerateAliases("Industrial Workers of the World", TypeOrganization)
	assert.Contains(t, iww, "IWW")
	assert.Equal(t, []string{"Dialectics"}, GenerateAliases("Dialectics", TypeConcept))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "marx k", Normalize("Marx, K."))
	assert.Equal(t, Normalize("K. Marx"), Normalize("  k   MARX "))
	assert.Equal(t, "jean jaures", Normalize("Jean Jaurès"))
	assert.Equal(t, "v i lenin", Normalize("V.I. Lenin"))
	assert.Equal(t, "", Normalize(" ., "))
}

func TestCanonicalID(t *testing.T) {
	a := CanonicalID("Karl Marx", 1818)
	assert.Equal(t, a, CanonicalID("karl  marx", 1818))
	assert.NotEqual(t, a, CanonicalID("Karl Marx", 0))
	assert.NotEqual(t, a, CanonicalID("Karl Marx", 1819))
	assert.Len(t, a, 36)
}

func TestPeriodContains(t *testing.T) {
	p := &Period{Start: 1723, End: 1790}
	assert.True(t, p.Contains(1776))
	assert.True(t, p.Contains(1723))
	assert.False(t, p.Contains(1860))

	open := &Period{Start: 1871}
	assert.True(t, open.Contains(1990))
	assert.False(t, open.Contains(1800))

	var none *Period
	assert.False(t, none.Contains(1848))
	assert.False(t, (&Period{}).Contains(1848))
}
