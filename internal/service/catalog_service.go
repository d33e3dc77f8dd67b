package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"movie-cinema/internal/model"
)

// StorageKey is the single key the collection is persisted under.
const StorageKey = "movieCinemaData_v1"

var errUnchanged = errors.New("collection unchanged")

// KeyValueStore is the persistent storage collaborator.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// CatalogStore owns the in-memory collection and keeps it in sync with storage.
// Every mutation is applied to a copy, written out in full, and only then
// becomes the current collection.
type CatalogStore struct {
	kv  KeyValueStore
	log *zap.Logger

	mu   sync.RWMutex
	data model.Collection
}

func NewCatalogStore(kv KeyValueStore, log *zap.Logger) *CatalogStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &CatalogStore{kv: kv, log: log, data: model.NewCollection()}
}

// Load reads the persisted collection. present reports whether anything was
// stored under the key; a value that does not parse yields an empty
// collection with present set.
func (s *CatalogStore) Load(ctx context.Context) (model.Collection, bool, error) {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		return nil, false, fmt.Errorf("load collection: %w", err)
	}
	if !ok {
		return model.NewCollection(), false, nil
	}
	collection, err := decodeCollection([]byte(raw), "stored collection", s.log)
	if err != nil {
		s.log.Warn("stored collection is unreadable, starting empty", zap.Error(err))
		return model.NewCollection(), true, nil
	}
	return collection, true, nil
}

// Save writes the full collection under StorageKey.
func (s *CatalogStore) Save(ctx context.Context, collection model.Collection) error {
	raw, err := json.Marshal(collection)
	if err != nil {
		return fmt.Errorf("encode collection: %w", err)
	}
	if err := s.kv.Set(ctx, StorageKey, string(raw)); err != nil {
		return fmt.Errorf("save collection: %w", err)
	}
	return nil
}

// Replace installs collection as the current state and persists it.
func (s *CatalogStore) Replace(ctx context.Context, collection model.Collection) error {
	return s.mutate(ctx, func(model.Collection) (model.Collection, error) {
		return collection.Clone().Normalize(), nil
	})
}

// Snapshot returns a deep copy of the current collection.
func (s *CatalogStore) Snapshot() model.Collection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Clone()
}

// Item returns the item at pos from the current collection.
func (s *CatalogStore) Item(pos model.Position) (model.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data.Item(pos)
}

// AddItem appends item to the end of category.
func (s *CatalogStore) AddItem(ctx context.Context, category model.Category, item model.Item) error {
	if !category.Valid() {
		return fmt.Errorf("add item to %q: %w", category, ErrUnknownCategory)
	}
	err := s.mutate(ctx, func(c model.Collection) (model.Collection, error) {
		c[category] = append(c[category], item)
		return c, nil
	})
	if err != nil {
		return err
	}
	s.log.Info("item added", zap.String("category", string(category)), zap.String("title", item.Title))
	return nil
}

// UpdateItem rewrites the item at from. When category equals from.Category the
// item is replaced in place; otherwise it is removed from its old category
// (if still there) and appended to the end of the new one.
func (s *CatalogStore) UpdateItem(ctx context.Context, from model.Position, category model.Category, item model.Item) error {
	if !category.Valid() {
		return fmt.Errorf("move item to %q: %w", category, ErrUnknownCategory)
	}
	err := s.mutate(ctx, func(c model.Collection) (model.Collection, error) {
		items := c[from.Category]
		if category == from.Category {
			if from.Index < 0 || from.Index >= len(items) {
				return nil, fmt.Errorf("update %s #%d: %w", from.Category, from.Index+1, ErrSlotOutOfRange)
			}
			items[from.Index] = item
			return c, nil
		}
		if from.Index >= 0 && from.Index < len(items) {
			c[from.Category] = removeAt(items, from.Index)
		}
		c[category] = append(c[category], item)
		return c, nil
	})
	if err != nil {
		return err
	}
	s.log.Info("item updated",
		zap.String("from", string(from.Category)),
		zap.Int("index", from.Index),
		zap.String("category", string(category)),
		zap.String("title", item.Title))
	return nil
}

// DeleteItem removes the item at index. Missing positions are ignored and
// nothing is written.
func (s *CatalogStore) DeleteItem(ctx context.Context, category model.Category, index int) error {
	err := s.mutate(ctx, func(c model.Collection) (model.Collection, error) {
		if _, ok := c.Item(model.Position{Category: category, Index: index}); !ok {
			return nil, errUnchanged
		}
		c[category] = removeAt(c[category], index)
		return c, nil
	})
	if errors.Is(err, errUnchanged) {
		return nil
	}
	if err != nil {
		return err
	}
	s.log.Info("item deleted", zap.String("category", string(category)), zap.Int("index", index))
	return nil
}

// ExportSnapshot renders the collection as indented JSON.
func (s *CatalogStore) ExportSnapshot() ([]byte, error) {
	raw, err := json.MarshalIndent(s.Snapshot(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export collection: %w", err)
	}
	return raw, nil
}

// ImportSnapshot replaces the whole collection with the decoded document.
// A document that fails to decode leaves the current collection untouched
// and is reported as *ParseError.
func (s *CatalogStore) ImportSnapshot(ctx context.Context, text []byte) error {
	collection, err := decodeCollection(text, "import", s.log)
	if err != nil {
		return err
	}
	if err := s.Replace(ctx, collection); err != nil {
		return err
	}
	s.log.Info("collection imported", zap.Int("items", collection.Len()))
	return nil
}

// Reset empties every category.
func (s *CatalogStore) Reset(ctx context.Context) error {
	if err := s.Replace(ctx, model.NewCollection()); err != nil {
		return err
	}
	s.log.Info("collection reset")
	return nil
}

func (s *CatalogStore) mutate(ctx context.Context, fn func(model.Collection) (model.Collection, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(s.data.Clone())
	if err != nil {
		return err
	}
	if err := s.Save(ctx, next); err != nil {
		return err
	}
	s.data = next
	return nil
}

func removeAt(items []model.Item, index int) []model.Item {
	out := make([]model.Item, 0, len(items)-1)
	out = append(out, items[:index]...)
	return append(out, items[index+1:]...)
}

// decodeCollection parses a collection document. The top level must be an
// object; fixed categories must hold arrays (or null). Keys outside the fixed
// category set are dropped.
func decodeCollection(text []byte, source string, log *zap.Logger) (model.Collection, error) {
	trimmed := bytes.TrimSpace(text)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil, &ParseError{Source: source, Err: errors.New("document is null")}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}

	collection := model.NewCollection()
	for key, value := range raw {
		cat := model.Category(key)
		if !cat.Valid() {
			log.Warn("dropping unknown category", zap.String("source", source), zap.String("key", key))
			continue
		}
		var items []model.Item
		if err := json.Unmarshal(value, &items); err != nil {
			return nil, &ParseError{Source: source, Err: fmt.Errorf("category %q: %w", key, err)}
		}
		if items != nil {
			collection[cat] = items
		}
	}
	return collection, nil
}
