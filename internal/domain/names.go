package domain

import (
	"regexp"
	"strings"

	"github.com/kapu/santoral-go/internal/util"
)

// Leading words that already give a name its honorific.
var honorificStarts = []string{
	"san", "santa", "santo", "santos", "santas",
	"beato", "beata", "bienaventurado", "bienaventurada",
	"venerable", "siervo de dios", "sierva de dios",
	"madre", "nuestra senora",
}

// Feasts and devotions that are not a person and keep their own wording.
var nonPersonStarts = []string{
	"virgen", "sagrado", "sagrada", "inmaculada", "natividad", "asuncion",
	"presentacion", "dedicacion", "exaltacion", "conversion", "catedra",
	"todos los", "fieles difuntos", "conmemoracion", "jesucristo",
	"santisim", "transfiguracion", "anunciacion", "visitacion", "bautismo",
	"epifania", "ascension", "pentecostes", "corpus", "navidad", "pascua",
	"domingo de ramos", "domingo de resurreccion", "miercoles de ceniza", "jueves santo", "viernes santo", "nuestro senor",
	"beatos", "beatas", "martires", "papa",
}

var blessedMarkers = []string{"beato", "beata", "venerable", "siervo de dios", "sierva de dios"}

var feminineFirstNames = []string{
	"maria", "teresa", "isabel", "francisca", "elena", "angela", "catalina",
	"lucia", "rosa", "ana", "margarita", "monica", "cecilia", "ines", "clara",
	"beatriz", "gertrudis", "brigida", "agueda", "apolonia", "dorotea",
	"escolastica", "felicidad", "perpetua", "ursula", "victoria", "zita",
	"marina", "modesta", "virginia", "regina", "julia", "juana", "eduvigis",
	"hildegarda", "faustina", "josefina", "rita", "mercedes", "pilar", "carmen",
	"edith", "genoveva", "matilde", "benedicta", "kateri",
}

// First names ending in "a" (or otherwise ambiguous) that are masculine.
var masculineFirstNames = []string{
	"cosme", "damian", "nicolas", "tomas", "lucas", "matias", "elias",
	"isaias", "jeremias", "jonas", "judas", "vidal", "agricola", "nicandro",
	"pierio", "amancio", "perpetuo", "emerico", "felix", "bautista", "luca",
	"nicola", "garcia", "borja", "josue", "andrea", "bonaventura", "juan",
}

var gluedPrefix = regexp.MustCompile(`^(San|Santa|Santo|Beato|Beata|Santos)(\p{Lu})`)
var doubledPrefix = regexp.MustCompile(`(?i)^(San|Santa|Santo|Beato|Beata)\s+(?:San|Santa|Santo)\s+`)
var trailingParenthetical = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

// CleanSaintName tidies a name scraped from a list item: trailing
// parentheticals go, a prefix glued to the next word is split and a doubled
// prefix collapses ("Beato San X" becomes "Beato X").
func CleanSaintName(name string) string {
	name = util.CollapseSpaces(name)
	name = trailingParenthetical.ReplaceAllString(name, "")
	name = gluedPrefix.ReplaceAllString(name, "$1 $2")
	name = doubledPrefix.ReplaceAllString(name, "$1 ")
	return strings.TrimSpace(name)
}

// CanonicalSaintName makes sure a person's name carries an honorific so that
// the same figure keys identically whatever the source wrote. Names of feasts
// and devotions are returned unchanged.
func CanonicalSaintName(name string) string {
	name = CleanSaintName(name)
	if name == "" {
		return ""
	}

	folded := util.FoldForCompare(name)
	if startsWithAny(folded, honorificStarts) || startsWithAny(folded, nonPersonStarts) {
		return name
	}

	if strings.Contains(folded, " y ") {
		return "Santos " + name
	}

	for _, marker := range blessedMarkers {
		if util.ContainsWord(folded, marker) {
			if isFeminineName(folded) {
				return "Beata " + name
			}
			return "Beato " + name
		}
	}

	if isFeminineName(folded) {
		return "Santa " + name
	}
	if takesSanto(folded) {
		return "Santo " + name
	}
	return "San " + name
}

// startsWithAny matches whole leading words, except for entries that are
// deliberate stems such as "santisim".
func startsWithAny(folded string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if folded == prefix || strings.HasPrefix(folded, prefix+" ") {
			return true
		}
		if prefix == "santisim" && strings.HasPrefix(folded, prefix) {
			return true
		}
	}
	return false
}

func isFeminineName(folded string) bool {
	fields := strings.Fields(folded)
	if len(fields) == 0 {
		return false
	}
	first := strings.Trim(fields[0], ",.;")

	for _, masculine := range masculineFirstNames {
		if first == masculine {
			return false
		}
	}
	for _, feminine := range feminineFirstNames {
		if first == feminine {
			return true
		}
	}
	return strings.HasSuffix(first, "a")
}

// Spanish uses "Santo" before names starting with To- or Do-.
func takesSanto(folded string) bool {
	for _, stem := range []string{"tomas", "tome", "toribio", "domingo"} {
		if strings.HasPrefix(folded, stem) {
			return true
		}
	}
	return false
}
