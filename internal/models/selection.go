package models

import "slices"

// SelectionSet holds the ids marked for a bulk action. The zero value is an empty set.
type SelectionSet struct {
	ids map[string]struct{}
}

// NewSelectionSet creates a set containing ids.
func NewSelectionSet(ids ...string) *SelectionSet {
	s := &SelectionSet{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s *SelectionSet) Add(id string) {
	if s.ids == nil {
		s.ids = make(map[string]struct{})
	}
	s.ids[id] = struct{}{}
}

func (s *SelectionSet) Remove(id string) { delete(s.ids, id) }

// Toggle flips membership of id and reports whether it is now selected.
func (s *SelectionSet) Toggle(id string) bool {
	if s.Has(id) {
		s.Remove(id)
		return false
	}
	s.Add(id)
	return true
}

func (s *SelectionSet) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s *SelectionSet) Len() int { return len(s.ids) }

func (s *SelectionSet) Clear() { clear(s.ids) }

// IDs returns the selected ids in sorted order.
func (s *SelectionSet) IDs() []string {
	ids := make([]string, 0, len(s.ids))
	for id := range s.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}
