package resolver

import (
	"strings"

	"github.com/kapu/santoral-go/internal/util"
)

// Title words of articles about places, buildings and organisations that
// merely carry a saint's name.
var noiseTitleWords = []string{
	"iglesia", "parroquia", "catedral", "basilica", "capilla", "santuario",
	"monasterio", "convento", "ermita", "colegio", "escuela", "universidad",
	"instituto", "hospital", "club", "calle", "avenida", "plaza", "municipio",
	"localidad", "provincia", "departamento", "distrito", "estacion",
	"aeropuerto", "barrio", "ciudad", "pueblo", "isla", "rio", "volcan",
	"cerro", "equipo", "album", "cancion", "pelicula", "desambiguacion",
}

// Stems that show an article is about a religious figure.
var sanctityStems = []string{
	"santo", "santa", "beato", "beata", "venerable", "martir", "obispo",
	"arzobispo", "sacerdote", "presbitero", "religios", "canoniz", "beatific",
	"monje", "monja", "papa", "virgen", "apostol", "fraile", "misioner",
	"ermitan", "abad", "diacono", "evangelista", "profeta", "iglesia catolica",
	"saint", "blessed",
}

// Icon and placeholder files the encyclopedia shows where a portrait is missing.
var placeholderImages = []string{
	"edit-clear.svg", "blue_pencil.svg", "nuvola_apps_kedit.svg", "question_book",
	"ambox", "red_question_mark", "emblem-question", "gtk-dialog-question",
	"icon-round-question_mark", "replacement_character.svg", "no_image",
	"sin_foto.svg", "user-avatar", "gnome-stock_person",
}

// IsNoiseTitle reports whether a search hit names a place or an institution.
func IsNoiseTitle(title string) bool {
	folded := util.FoldForCompare(title)
	for _, word := range noiseTitleWords {
		if util.ContainsWord(folded, word) {
			return true
		}
	}
	return false
}

// TitleMatchesName requires one significant token of the name in the title.
// A name without significant tokens matches nothing.
func TitleMatchesName(title string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	folded := util.FoldForCompare(title)
	for _, token := range tokens {
		if util.ContainsWord(folded, token) {
			return true
		}
	}
	return false
}

// HasSanctityVocabulary reports whether text reads like a religious biography.
func HasSanctityVocabulary(text string) bool {
	folded := util.FoldForCompare(text)
	for _, stem := range sanctityStems {
		if strings.Contains(folded, stem) {
			return true
		}
	}
	return false
}

// IsPlaceholderImage reports whether imageURL points at a generic icon.
func IsPlaceholderImage(imageURL string) bool {
	lower := strings.ToLower(imageURL)
	for _, name := range placeholderImages {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

func isDisambiguation(title, extract string) bool {
	return strings.Contains(util.FoldForCompare(title), "desambiguacion") ||
		strings.Contains(util.FoldForCompare(extract), "puede referirse a")
}
