package model

import "strings"

// Category is one of the fixed catalog groupings.
type Category string

const (
	CategoryLove      Category = "love"
	CategoryAction    Category = "action"
	CategoryHorror    Category = "horror"
	CategoryAnimation Category = "animation"
	CategoryHeist     Category = "heist"
	CategoryAdventure Category = "adventure"
)

// Categories lists every category in board order. The first half fills the
// left column, the rest the right one.
var Categories = []Category{
	CategoryLove,
	CategoryAction,
	CategoryHorror,
	CategoryAnimation,
	CategoryHeist,
	CategoryAdventure,
}

var categoryLabels = map[Category]string{
	CategoryLove:      "Love",
	CategoryAction:    "Action",
	CategoryHorror:    "Horror",
	CategoryAnimation: "Animation",
	CategoryHeist:     "Heist",
	CategoryAdventure: "Adventure",
}

// Label returns the display name, falling back to the raw identifier.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

// ParseCategory accepts either the identifier or the label, case-insensitive.
func ParseCategory(raw string) (Category, bool) {
	value := strings.ToLower(strings.TrimSpace(raw))
	for _, cat := range Categories {
		if value == string(cat) || value == strings.ToLower(cat.Label()) {
			return cat, true
		}
	}
	return "", false
}
