package table

import "sort"

// Store maps table names to tables. It is owned by a single session and is
// not safe for concurrent use.
type Store struct {
	tables map[string]*Table
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{tables: make(map[string]*Table)}
}

// Get returns the table bound to name.
func (s *Store) Get(name string) (*Table, bool) {
	t, ok := s.tables[name]
	return t, ok
}

// Put binds t to name, replacing any previous binding.
func (s *Store) Put(name string, t *Table) {
	s.tables[name] = t
}

// Delete removes a binding.
func (s *Store) Delete(name string) {
	delete(s.tables, name)
}

// Names returns the bound names in sorted order.
func (s *Store) Names() []string {
	names := make([]string, 0, len(s.tables))
	for n := range s.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound tables.
func (s *Store) Len() int {
	return len(s.tables)
}
