package util

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// HonorificPrefixes are stripped from the start of a display name before it is
// turned into a slug or a lookup key. Longer prefixes come first so that
// "Santa" is never read as "San".
var HonorificPrefixes = []string{
	"nuestra senora",
	"bienaventurada",
	"bienaventurado",
	"venerable",
	"our lady",
	"blessed",
	"santos",
	"santas",
	"santa",
	"santo",
	"beata",
	"beato",
	"madre",
	"mother",
	"saint",
	"san",
	"st.",
}

const maxSlugLength = 50

// TruncateRunes cuts s to at most maxRunes characters without a marker.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return strings.TrimSpace(string(runes[:maxRunes]))
}

// FoldAccents removes combining marks after canonical decomposition, so
// "José" becomes "Jose" and "Señora" becomes "Senora".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return result
}

// FoldForCompare lowercases, folds accents and collapses whitespace. Honorifics
// are kept.
func FoldForCompare(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(FoldAccents(s))), " ")
}

// StripHonorific removes one leading honorific prefix (case and accent
// insensitive) and returns the remainder with its original spelling.
func StripHonorific(name string) string {
	name = strings.TrimSpace(norm.NFC.String(name))
	if name == "" {
		return ""
	}

	folded := strings.ToLower(FoldAccents(name))
	for _, prefix := range HonorificPrefixes {
		if !strings.HasPrefix(folded, prefix) {
			continue
		}
		rest := folded[len(prefix):]
		if rest == "" || !unicode.IsSpace([]rune(rest)[0]) {
			continue
		}

		prefixRunes := len([]rune(prefix))
		original := []rune(name)
		if len([]rune(folded)) != len(original) {
			return strings.TrimSpace(rest)
		}
		return strings.TrimSpace(string(original[prefixRunes:]))
	}
	return name
}

// NormalizeForLookup produces the key used to compare a name against curated
// tables: honorific stripped, accents folded, lowercased, single spaces.
func NormalizeForLookup(name string) string {
	return FoldForCompare(StripHonorific(name))
}

// Slugify converts a display name into a filesystem-safe slug made only of
// [a-z0-9_], at most 50 characters long. It returns "" when nothing
// alphanumeric is left.
func Slugify(name string) string {
	name = strings.ToLower(FoldAccents(StripHonorific(name)))

	var builder strings.Builder
	pendingSep := false
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && builder.Len() > 0 {
				builder.WriteByte('_')
			}
			pendingSep = false
			builder.WriteRune(r)
			continue
		}
		pendingSep = true
	}

	slug := builder.String()
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "_")
	}
	return slug
}

// ContainsWord reports whether phrase occurs in text on word boundaries. Both
// arguments are expected to be folded already.
func ContainsWord(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+wordsOnly(text)+" ", " "+wordsOnly(phrase)+" ")
}

// SignificantTokens returns the words of a folded name longer than minLen.
func SignificantTokens(folded string, minLen int) []string {
	tokens := make([]string, 0)
	for _, word := range strings.Fields(wordsOnly(folded)) {
		if len([]rune(word)) > minLen {
			tokens = append(tokens, word)
		}
	}
	return tokens
}

func wordsOnly(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

// CollapseSpaces trims s and squeezes runs of whitespace (including NBSP)
// into a single space.
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
