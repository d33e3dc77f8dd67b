package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Item represents a single movie on the board.
type Item struct {
	Title  string `json:"title" yaml:"title"`
	Year   string `json:"year" yaml:"year"`
	Rating string `json:"rating" yaml:"rating"`
}

// UnmarshalJSON accepts strings, numbers or null for every field and keeps
// them as text. Objects, arrays and booleans are rejected.
func (i *Item) UnmarshalJSON(data []byte) error {
	var raw struct {
		Title  json.RawMessage `json:"title"`
		Year   json.RawMessage `json:"year"`
		Rating json.RawMessage `json:"rating"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var (
		item Item
		err  error
	)
	if item.Title, err = freeText("title", raw.Title); err != nil {
		return err
	}
	if item.Year, err = freeText("year", raw.Year); err != nil {
		return err
	}
	if item.Rating, err = freeText("rating", raw.Rating); err != nil {
		return err
	}
	*i = item
	return nil
}

func freeText(field string, raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("field %q: %w", field, err)
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("field %q: expected text or number, got %s", field, raw)
	}
	return n.String(), nil
}

// Position addresses an item by its category and zero-based index.
type Position struct {
	Category Category
	Index    int
}

// ParsePosition reads a category name and a 1-based slot number.
func ParsePosition(rawCategory, rawSlot string) (Position, error) {
	cat, ok := ParseCategory(rawCategory)
	if !ok {
		return Position{}, fmt.Errorf("unknown category %q", rawCategory)
	}
	slot, err := strconv.Atoi(strings.TrimSpace(rawSlot))
	if err != nil || slot < 1 {
		return Position{}, fmt.Errorf("invalid slot %q", rawSlot)
	}
	return Position{Category: cat, Index: slot - 1}, nil
}
