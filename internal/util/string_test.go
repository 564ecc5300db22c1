package util

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9_]*$`)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"honorific and accents", "San Francisco de Asís", "francisco_de_asis"},
		{"feminine honorific", "Santa María Goretti", "maria_goretti"},
		{"punctuation becomes one separator", "Beato Juan XXIII (1881-1963)", "juan_xxiii_1881_1963"},
		{"no honorific", "Áurea de París", "aurea_de_paris"},
		{"empty", "", ""},
		{"punctuation only", "¡¿... -?!", ""},
		{"bare honorific is kept", "San", "san"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestSlugifyIsAlwaysSafe(t *testing.T) {
	inputs := []string{
		"Nuestra Señora del Pilar",
		"Cœur Sacré de Jésus",
		"Ñuño Gómez ß",
		"\xff\xfeSan\x00José",
		"  __--__  ",
		"São João Batista",
		"Святой Николай",
		strings.Repeat("abcde ", 40),
		strings.Repeat("Ángel ", 60),
	}
	for _, in := range inputs {
		slug := Slugify(in)
		assert.Regexp(t, slugPattern, slug, "input %q", in)
		assert.LessOrEqual(t, len(slug), 50, "input %q", in)
		assert.False(t, strings.HasPrefix(slug, "_") || strings.HasSuffix(slug, "_"), "input %q gave %q", in, slug)
	}

	long := Slugify(strings.Repeat("abcde ", 40))
	assert.Len(t, long, 50)
	assert.True(t, strings.HasPrefix(long, "abcde_abcde_"))
}

func TestStripHonorific(t *testing.T) {
	tests := map[string]string{
		"San José":                 "José",
		"Santa Áurea de París":     "Áurea de París",
		"Beato Juan de la Navidad": "Juan de la Navidad",
		"Nuestra Señora de Luján":  "de Luján",
		"Santiago Apóstol":         "Santiago Apóstol",
		"Sanz Pérez":               "Sanz Pérez",
		"San":                      "San",
		"   ":                      "",
	}
	for in, want := range tests {
		assert.Equal(t, want, StripHonorific(in), "input %q", in)
	}
}

func TestNormalizeForLookup(t *testing.T) {
	assert.Equal(t, "maria goretti", NormalizeForLookup("  Santa   MARÍA  Goretti "))
	assert.Equal(t, "jose", NormalizeForLookup("San José"))
	assert.Equal(t, "santiago apostol", NormalizeForLookup("Santiago Apóstol"))
	assert.Equal(t, NormalizeForLookup("Santa Teresa de Ávila"), NormalizeForLookup("teresa de avila"))
}

func TestFolding(t *testing.T) {
	assert.Equal(t, "Senora Jose", FoldAccents("Señora José"))
	assert.Equal(t, "san jose obrero", FoldForCompare("  San  José Obrero "))
	assert.Equal(t, "a b", CollapseSpaces(" a \t\n b "))
}

func TestTruncateRunes(t *testing.T) {
	assert.Equal(t, "Áurea", TruncateRunes("Áurea de París", 5))
	assert.Equal(t, "abc", TruncateRunes("abc def", 4))
	assert.Equal(t, "abc", TruncateRunes("abc", 10))
	assert.Equal(t, "", TruncateRunes("abc", 0))
}

func TestContainsWord(t *testing.T) {
	tests := []struct {
		text, phrase string
		want         bool
	}{
		{"fiesta de san jose obrero", "san jose", true},
		{"navidad", "navidad", true},
		{"beato juan de la navidad", "navidad", true},
		{"josefina bakhita", "jose", false},
		{"san jose", "", false},
		{"asuncion de maria, patrona", "patrona", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ContainsWord(tt.text, tt.phrase), "%q in %q", tt.phrase, tt.text)
	}
}

func TestSignificantTokens(t *testing.T) {
	assert.Equal(t, []string{"san", "juan", "cruz"}, SignificantTokens("san juan de la cruz", 2))
	assert.Empty(t, SignificantTokens("de la", 2))
}
