package service

import "movie-cinema/internal/model"

const (
	// SlotsPerPanel is the number of visible positions in a category panel.
	SlotsPerPanel = 7
	// LeftColumnSize is how many categories, in board order, go to the left column.
	LeftColumnSize = 3
)

// Slot is one display position. Item is nil for an empty slot.
type Slot struct {
	Index int
	Item  *model.Item
}

// Occupied reports whether the slot holds an item.
func (s Slot) Occupied() bool {
	return s.Item != nil
}

// Panel is the rendered form of one category.
type Panel struct {
	Category model.Category
	Label    string
	Slots    [SlotsPerPanel]Slot
}

// ViewModel is the whole board split into two columns.
type ViewModel struct {
	Left  []Panel
	Right []Panel
}

// Panels returns every panel in board order.
func (v ViewModel) Panels() []Panel {
	out := make([]Panel, 0, len(v.Left)+len(v.Right))
	out = append(out, v.Left...)
	return append(out, v.Right...)
}

// BuildView lays the collection out on the board. Missing categories render
// as empty panels and items past the last slot are not shown. The input is
// only read.
func BuildView(collection model.Collection) ViewModel {
	var view ViewModel
	for i, cat := range model.Categories {
		panel := buildPanel(cat, collection[cat])
		if i < LeftColumnSize {
			view.Left = append(view.Left, panel)
		} else {
			view.Right = append(view.Right, panel)
		}
	}
	return view
}

func buildPanel(cat model.Category, items []model.Item) Panel {
	panel := Panel{Category: cat, Label: cat.Label()}
	for i := range panel.Slots {
		panel.Slots[i].Index = i
		if i < len(items) {
			item := items[i]
			panel.Slots[i].Item = &item
		}
	}
	return panel
}
