package model

import (
	"bytes"
	"encoding/json"
	"sort"

	"gopkg.in/yaml.v3"
)

// Collection maps every category to its ordered items.
type Collection map[Category][]Item

// NewCollection returns a collection with every category present and empty.
func NewCollection() Collection {
	c := make(Collection, len(Categories))
	for _, cat := range Categories {
		c[cat] = []Item{}
	}
	return c
}

// Normalize fills in missing categories and replaces nil sequences so the
// collection always serializes with `[]` for empty categories.
func (c Collection) Normalize() Collection {
	if c == nil {
		return NewCollection()
	}
	for _, cat := range Categories {
		if c[cat] == nil {
			c[cat] = []Item{}
		}
	}
	return c
}

// Clone returns a deep copy. Sequences in the copy never alias the original.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for cat, items := range c {
		dup := make([]Item, len(items))
		copy(dup, items)
		out[cat] = dup
	}
	return out
}

// Item returns the item at pos, if any.
func (c Collection) Item(pos Position) (Item, bool) {
	items := c[pos.Category]
	if pos.Index < 0 || pos.Index >= len(items) {
		return Item{}, false
	}
	return items[pos.Index], true
}

// Len counts items across all categories.
func (c Collection) Len() int {
	total := 0
	for _, items := range c {
		total += len(items)
	}
	return total
}

// keys lists fixed categories in board order, then any other keys sorted.
func (c Collection) keys() []Category {
	keys := make([]Category, 0, len(c))
	for _, cat := range Categories {
		if _, ok := c[cat]; ok {
			keys = append(keys, cat)
		}
	}
	var extra []Category
	for cat := range c {
		if !cat.Valid() {
			extra = append(extra, cat)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	return append(keys, extra...)
}

// MarshalJSON writes categories in board order. Nil sequences become [].
func (c Collection) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for n, cat := range c.keys() {
		if n > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(cat))
		if err != nil {
			return nil, err
		}
		items := c[cat]
		if items == nil {
			items = []Item{}
		}
		value, err := json.Marshal(items)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML keeps the same order as MarshalJSON.
func (c Collection) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, cat := range c.keys() {
		items := c[cat]
		if items == nil {
			items = []Item{}
		}
		var value yaml.Node
		if err := value.Encode(items); err != nil {
			return nil, err
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(cat)},
			&value,
		)
	}
	return node, nil
}
