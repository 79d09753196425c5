package constants

import (
	"strings"
)

// Extraction field names expected from the language model.
const (
	FieldItems       = "items"
	FieldProduct     = "product"
	FieldWidth       = "width_mm"
	FieldHeight      = "height_mm"
	FieldPlace       = "place"
	FieldNotFound    = "not_found"
	FieldMessage     = "message"
	NotFoundSentinel = "nenalezeno"
)

// fieldSynonyms maps keys older prompts produced (Czech and English variants) to the current names.
var fieldSynonyms = map[string]string{
	"polozky":     FieldItems,
	"položky":     FieldItems,
	"produkty":    FieldItems,
	"products":    FieldItems,
	"produkt":     FieldProduct,
	"nazev":       FieldProduct,
	"název":       FieldProduct,
	"name":        FieldProduct,
	"sirka":       FieldWidth,
	"šířka":       FieldWidth,
	"width":       FieldWidth,
	"hloubka":     FieldHeight,
	"vyska":       FieldHeight,
	"výška":       FieldHeight,
	"depth":       FieldHeight,
	"height":      FieldHeight,
	"misto":       FieldPlace,
	"místo":       FieldPlace,
	"adresa":      FieldPlace,
	"destination": FieldPlace,
	"nenalezeno":  FieldNotFound,
	"zprava":      FieldMessage,
	"zpráva":      FieldMessage,
}

// CanonicalField returns the current name for an extraction key and whether it is known.
func CanonicalField(key string) (string, bool) {
	normalized := strings.ToLower(strings.TrimSpace(key))
	if f, ok := fieldSynonyms[normalized]; ok {
		return f, true
	}
	switch normalized {
	case FieldItems, FieldProduct, FieldWidth, FieldHeight, FieldPlace, FieldNotFound, FieldMessage:
		return normalized, true
	}
	return key, false
}
