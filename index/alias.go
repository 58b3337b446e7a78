package index

import (
	"strings"
	"unicode"
)

var surnameParticles = map[string]bool{
	"de": true, "del": true, "della": true, "der": true, "van": true, "von": true,
	"la": true, "le": true, "du": true, "di": true, "da": true, "ibn": true, "bin": true,
}

// splitPersonName splits a given-first display name into given names and
// surname. Lowercase particles before the last word join the surname.
func splitPersonName(name string) (given []string, surname string) {
	words := strings.Fields(name)
	if len(words) < 2 {
		return nil, name
	}
	cut := len(words) - 1
	for cut > 1 && surnameParticles[strings.ToLower(words[cut-1])] {
		cut--
	}
	return words[:cut], strings.Join(words[cut:], " ")
}

func initial(word string) string {
	r := []rune(strings.TrimRight(word, "."))
	if len(r) == 0 {
		return ""
	}
	return string(unicode.ToUpper(r[0])) + "."
}

// GenerateAliases derives the name variants under which an entity may
// appear. The canonical name is always first.
//
// Persons get the surname-first form, initials with and without spacing,
// the first given name alone, and the bare surname:
//
//	Karl Marx → Marx, Karl · K. Marx · Marx, K. · Marx
//
// Organizations with three or more capitalized words also get an acronym.
func GenerateAliases(name string, typ EntityType) []string {
	set := newAliasSet()
	set.add(name)

	switch typ {
	case TypePerson:
		given, surname := splitPersonName(name)
		if len(given) == 0 {
			break
		}
		var initials []string
		for _, g := range given {
			if i := initial(g); i != "" {
				initials = append(initials, i)
			}
		}
		spaced := strings.Join(initials, " ")
		set.add(surname + ", " + strings.Join(given, " "))
		set.add(spaced + " " + surname)
		set.add(surname + ", " + spaced)
		if len(given) > 1 {
			set.add(strings.Join(initials, "") + " " + surname)
			set.add(given[0] + " " + surname)
			set.add(initials[0] + " " + surname)
		}
		set.add(surname)
	case TypeOrganization:
		trimmed := strings.TrimPrefix(name, "The ")
		set.add(trimmed)
		if a := acronym(trimmed); a != "" {
			set.add(a)
		}
	}
	return set.list
}

// acronym builds "IWW" from "Industrial Workers of the World"; it needs at
// least three capitalized words.
func acronym(name string) string {
	var b strings.Builder
	n := 0
	for _, w := range strings.Fields(name) {
		r := []rune(w)
		if unicode.IsUpper(r[0]) {
			b.WriteRune(r[0])
			n++
		}
	}
	if n < 3 {
		return ""
	}
	return b.String()
}

// aliasSet keeps insertion order and drops exact duplicates.
type aliasSet struct {
	seen map[string]bool
	list []string
}

func newAliasSet() *aliasSet { return &aliasSet{seen: make(map[string]bool)} }

func (s *aliasSet) add(alias string) {
	alias = strings.Join(strings.Fields(alias), " ")
	if alias == "" || s.seen[alias] {
		return
	}
	s.seen[alias] = true
	s.list = append(s.list, alias)
}
