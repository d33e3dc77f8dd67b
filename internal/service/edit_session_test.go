package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"movie-cinema/internal/model"
)

func TestEditSessionStartsIdle(t *testing.T) {
	store, _ := newTestStore(t, nil)
	session := NewEditSession(store)

	assert.Equal(t, StateIdle, session.State())
	assert.Nil(t, session.Target())
}

func TestEditSessionAddFlow(t *testing.T) {
	ctx := context.Background()
	store, kv := newTestStore(t, nil)
	session := NewEditSession(store)

	form := session.StartAdd()
	assert.Equal(t, StateComposing, session.State())
	assert.Nil(t, session.Target())
	assert.Equal(t, model.Categories[0], form.Category)
	assert.Empty(t, form.Title)

	form.Category = model.CategoryAnimation
	form.Title = "  Spirited Away "
	form.Year = " 2001"
	require.NoError(t, session.Commit(ctx, form))

	assert.Equal(t, StateIdle, session.State())
	items := store.Snapshot()[model.CategoryAnimation]
	require.Len(t, items, 1)
	assert.Equal(t, model.Item{Title: "Spirited Away", Year: "2001"}, items[0])
	assert.Equal(t, 1, kv.writes)
}

func TestEditSessionRejectsBlankTitle(t *testing.T) {
	for _, title := range []string{"", "   ", "\t\n"} {
		store, kv := newTestStore(t, model.Collection{model.CategoryLove: {{Title: "A"}}})
		session := NewEditSession(store)
		before := store.Snapshot()

		form := session.StartEdit(model.Position{Category: model.CategoryLove, Index: 0})
		form.Title = title
		err := session.Commit(context.Background(), form)

		require.Error(t, err)
		assert.True(t, IsValidationError(err))
		assert.Equal(t, StateComposing, session.State())
		assert.NotNil(t, session.Target())
		assert.Equal(t, before, store.Snapshot())
		assert.Zero(t, kv.writes)
	}
}

func TestEditSessionEditPrefillsAndUpdates(t *testing.T) {
	store, _ := newTestStore(t, model.Collection{
		model.CategoryAction: {{Title: "Rambo", Year: "1982", Rating: "7.7"}, {Title: "Speed"}},
	})
	session := NewEditSession(store)

	pos := model.Position{Category: model.CategoryAction, Index: 0}
	form := session.StartEdit(pos)
	assert.Equal(t, Form{Category: model.CategoryAction, Title: "Rambo", Year: "1982", Rating: "7.7"}, form)
	assert.Equal(t, &pos, session.Target())

	form.Rating = "8"
	require.NoError(t, session.Commit(context.Background(), form))

	items := store.Snapshot()[model.CategoryAction]
	assert.Equal(t, []string{"Rambo", "Speed"}, titles(items))
	assert.Equal(t, "8", items[0].Rating)
	assert.Equal(t, StateIdle, session.State())
	assert.Nil(t, session.Target())
}

func TestEditSessionEditMovesCategory(t *testing.T) {
	store, _ := newTestStore(t, model.Collection{
		model.CategoryLove:   {{Title: "A"}, {Title: "B"}},
		model.CategoryHorror: {{Title: "H"}},
	})
	session := NewEditSession(store)

	form := session.StartEdit(model.Position{Category: model.CategoryLove, Index: 1})
	form.Category = model.CategoryHorror
	require.NoError(t, session.Commit(context.Background(), form))

	snap := store.Snapshot()
	assert.Equal(t, []string{"A"}, titles(snap[model.CategoryLove]))
	assert.Equal(t, []string{"H", "B"}, titles(snap[model.CategoryHorror]))
}

func TestEditSessionStartEditOnEmptySlot(t *testing.T) {
	store, _ := newTestStore(t, nil)
	session := NewEditSession(store)

	form := session.StartEdit(model.Position{Category: model.CategoryHeist, Index: 3})
	assert.Equal(t, Form{Category: model.CategoryHeist}, form)
	assert.Equal(t, StateComposing, session.State())
}

func TestEditSessionCancel(t *testing.T) {
	store, kv := newTestStore(t, model.Collection{model.CategoryLove: {{Title: "A"}}})
	session := NewEditSession(store)

	session.StartEdit(model.Position{Category: model.CategoryLove, Index: 0})
	session.Cancel()

	assert.Equal(t, StateIdle, session.State())
	assert.Nil(t, session.Target())
	assert.Zero(t, kv.writes)
}

func TestEditSessionStoreErrorKeepsComposing(t *testing.T) {
	store, kv := newTestStore(t, nil)
	session := NewEditSession(store)
	kv.failSet = true

	form := session.StartAdd()
	form.Title = "Jaws"
	assert.ErrorIs(t, session.Commit(context.Background(), form), errDiskFull)
	assert.Equal(t, StateComposing, session.State())
}

func TestEditSessionCommitFromIdleAdds(t *testing.T) {
	store, _ := newTestStore(t, nil)
	session := NewEditSession(store)

	require.NoError(t, session.Commit(context.Background(), Form{Category: model.CategoryHeist, Title: "Heat"}))
	assert.Equal(t, []string{"Heat"}, titles(store.Snapshot()[model.CategoryHeist]))
}
