package layout

import (
	"fmt"
	"image"
	"sort"
	"strconv"
	"strings"

	"github.com/ironsheep/card-regions-mcp/internal/detection"
	"github.com/ironsheep/card-regions-mcp/internal/imaging"
)

// ClassMap maps raw detector labels (often numeric class ids) to names.
// Labels without an entry pass through unchanged.
type ClassMap map[string]string

// Lookup returns the mapped name for label.
func (m ClassMap) Lookup(label string) string {
	if name, ok := m[label]; ok {
		return name
	}
	return label
}

// DefaultClassMap maps the single class of a card model to "Card".
func DefaultClassMap() ClassMap {
	return ClassMap{"0": detection.CardLabel}
}

// BuildClassMap builds a ClassMap from a model's id-to-label table. A
// single-class model maps every id to "Card"; otherwise each label is passed
// through NormalizeCardLabel. An empty table yields DefaultClassMap.
func BuildClassMap(id2label map[string]string) ClassMap {
	if len(id2label) == 0 {
		return DefaultClassMap()
	}
	m := make(ClassMap, len(id2label))
	for id, label := range id2label {
		if len(id2label) == 1 {
			m[id] = detection.CardLabel
			continue
		}
		m[id] = NormalizeCardLabel(label)
	}
	return m
}

// cardAliases are raw labels that always denote a card.
var cardAliases = map[string]bool{
	"card":         true,
	"pokemon-card": true,
	"pokemon_card": true,
	"prediction":   true,
}

// NormalizeCardLabel folds card-like model labels to "Card". Blank labels
// become "Card" as well; anything else is returned trimmed.
func NormalizeCardLabel(label string) string {
	trimmed := strings.TrimSpace(label)
	if trimmed == "" {
		return detection.CardLabel
	}
	lower := strings.ToLower(trimmed)
	if strings.Contains(lower, "card") || lower == "prediction" {
		return detection.CardLabel
	}
	return trimmed
}

// IsCardLabel reports whether label names a card.
func IsCardLabel(label string) bool {
	lower := strings.ToLower(strings.TrimSpace(label))
	if lower == "" {
		return false
	}
	return cardAliases[lower] || strings.Contains(lower, "card")
}

// CardElements returns the card elements of r sorted by (top, left).
func CardElements(r *Result) []LayoutElement {
	var cards []LayoutElement
	for _, el := range r.Elements {
		if IsCardLabel(el.Label) {
			cards = append(cards, el)
		}
	}
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].BBox.Y1 != cards[j].BBox.Y1 {
			return cards[i].BBox.Y1 < cards[j].BBox.Y1
		}
		return cards[i].BBox.X1 < cards[j].BBox.X1
	})
	return cards
}

// CountCards returns the number of card elements in r.
func CountCards(r *Result) int {
	n := 0
	for _, el := range r.Elements {
		if IsCardLabel(el.Label) {
			n++
		}
	}
	return n
}

// NamedCrop is an encoded card crop with a generated name.
type NamedCrop struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Bytes    []byte `json:"bytes"`
}

// NamedCrops returns the crops of the card elements in reading order, named
// card_1, card_2, ... Cards without a crop are skipped and do not consume a
// number.
func NamedCrops(r *Result) []NamedCrop {
	var out []NamedCrop
	for _, el := range CardElements(r) {
		if len(el.CropBytes) == 0 {
			continue
		}
		out = append(out, NamedCrop{
			Name:     fmt.Sprintf("card_%d", len(out)+1),
			MimeType: el.CropMIME,
			Bytes:    el.CropBytes,
		})
	}
	return out
}

// CardAnnotations outlines the card elements, labeled 1..n in reading
// order.
func CardAnnotations(r *Result) []imaging.Annotation {
	cards := CardElements(r)
	out := make([]imaging.Annotation, len(cards))
	for i, el := range cards {
		out[i] = imaging.Annotation{
			Rect:  image.Rect(el.BBox.X1, el.BBox.Y1, el.BBox.X2, el.BBox.Y2),
			Label: strconv.Itoa(i + 1),
		}
	}
	return out
}
