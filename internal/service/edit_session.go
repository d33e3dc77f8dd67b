package service

import (
	"context"
	"strings"

	"movie-cinema/internal/model"
)

// SessionState is the phase of the add/edit form.
type SessionState int

const (
	StateIdle SessionState = iota
	StateComposing
)

// Form carries the field values shown in, or submitted from, the item form.
type Form struct {
	Category model.Category
	Title    string
	Year     string
	Rating   string
}

// EditSession tracks which item, if any, the form is editing and commits
// submissions into the store.
type EditSession struct {
	store  *CatalogStore
	state  SessionState
	target *model.Position
}

func NewEditSession(store *CatalogStore) *EditSession {
	return &EditSession{store: store}
}

func (s *EditSession) State() SessionState {
	return s.state
}

// Target returns the position being edited, or nil when creating.
func (s *EditSession) Target() *model.Position {
	if s.target == nil {
		return nil
	}
	pos := *s.target
	return &pos
}

// StartAdd opens a blank form for a new item.
func (s *EditSession) StartAdd() Form {
	s.state = StateComposing
	s.target = nil
	return Form{Category: model.Categories[0]}
}

// StartEdit opens the form for pos, prefilled from the item there. An empty
// position yields blank fields.
func (s *EditSession) StartEdit(pos model.Position) Form {
	s.state = StateComposing
	s.target = &pos

	form := Form{Category: pos.Category}
	if item, ok := s.store.Item(pos); ok {
		form.Title = item.Title
		form.Year = item.Year
		form.Rating = item.Rating
	}
	return form
}

// Commit validates the form and writes it to the store. On any error the
// session keeps its state so the form can be resubmitted.
func (s *EditSession) Commit(ctx context.Context, form Form) error {
	item := model.Item{
		Title:  strings.TrimSpace(form.Title),
		Year:   strings.TrimSpace(form.Year),
		Rating: strings.TrimSpace(form.Rating),
	}
	if item.Title == "" {
		return &ValidationError{Field: "title", Reason: "is required"}
	}

	var err error
	if s.target == nil {
		err = s.store.AddItem(ctx, form.Category, item)
	} else {
		err = s.store.UpdateItem(ctx, *s.target, form.Category, item)
	}
	if err != nil {
		return err
	}

	s.Cancel()
	return nil
}

// Cancel drops the form without touching the store.
func (s *EditSession) Cancel() {
	s.state = StateIdle
	s.target = nil
}
