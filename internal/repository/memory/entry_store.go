package memory

import (
	"fmt"
	"slices"

	"github.com/mamadbah2/pricecheck/internal/domain/models"
)

// EntryStore defines the mutations the comparison session performs on its list.
type EntryStore interface {
	Add(name, volume, price, image string) (models.Entry, error)
	Update(id int64, name, volume, price, image string) (models.Entry, error)
	Remove(id int64) (models.Entry, error)
	Restore(entry models.Entry)
	Clear()
	Get(id int64) (models.Entry, error)
	List() []models.Entry
	Len() int
}

// Store is an insertion-ordered, in-memory EntryStore.
// It performs no locking; the owning session serializes access.
type Store struct {
	entries []models.Entry
	nextID  int64
}

// NewStore returns an empty store whose first id is 1.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// Add validates the raw fields and appends a new entry.
func (s *Store) Add(name, volume, price, image string) (models.Entry, error) {
	fields, err := models.ParseEntryFields(name, volume, price, image)
	if err != nil {
		return models.Entry{}, err
	}

	entry := models.Entry{
		ID:     s.nextID,
		Name:   fields.Name,
		Volume: fields.Volume,
		Price:  fields.Price,
		Image:  fields.Image,
	}
	s.nextID++
	s.entries = append(s.entries, entry)
	return entry, nil
}

// Update replaces every field of the entry except its id and position.
func (s *Store) Update(id int64, name, volume, price, image string) (models.Entry, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Entry{}, fmt.Errorf("update entry %d: %w", id, models.ErrNotFound)
	}

	fields, err := models.ParseEntryFields(name, volume, price, image)
	if err != nil {
		return models.Entry{}, err
	}

	entry := models.Entry{
		ID:     id,
		Name:   fields.Name,
		Volume: fields.Volume,
		Price:  fields.Price,
		Image:  fields.Image,
	}
	s.entries[idx] = entry
	return entry, nil
}

// Remove deletes the entry and returns it so it can be restored later.
func (s *Store) Remove(id int64) (models.Entry, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Entry{}, fmt.Errorf("remove entry %d: %w", id, models.ErrNotFound)
	}

	entry := s.entries[idx]
	s.entries = slices.Delete(s.entries, idx, idx+1)
	return entry, nil
}

// Restore appends a previously removed entry to the end of the list.
// Calling it twice for the same removal duplicates the entry.
func (s *Store) Restore(entry models.Entry) {
	s.entries = append(s.entries, entry)
	if entry.ID >= s.nextID {
		s.nextID = entry.ID + 1
	}
}

// Clear empties the list. Ids are never reused afterwards.
func (s *Store) Clear() {
	s.entries = nil
}

// Get returns the entry with the given id.
func (s *Store) Get(id int64) (models.Entry, error) {
	idx := s.indexOf(id)
	if idx < 0 {
		return models.Entry{}, fmt.Errorf("get entry %d: %w", id, models.ErrNotFound)
	}
	return s.entries[idx], nil
}

// List returns a copy of the entries in insertion order.
func (s *Store) List() []models.Entry {
	return slices.Clone(s.entries)
}

// Len returns the number of stored entries.
func (s *Store) Len() int {
	return len(s.entries)
}

func (s *Store) indexOf(id int64) int {
	return slices.IndexFunc(s.entries, func(e models.Entry) bool { return e.ID == id })
}
