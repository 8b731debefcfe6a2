package model

import "sort"

// TemplateStore is the arena of trained templates, keyed by id. HashTable
// buckets and persisted state reference templates by id rather than by
// pointer so that persistence is trivial and so hash tables never
// accidentally keep a template store instance alive past its owner — per
// the cascade's design notes recasting the original cyclic
// tables-know-templates/templates-know-tables relationship as an arena.
type TemplateStore struct {
	byID map[uint32]*Template
}

// NewTemplateStore returns an empty arena.
func NewTemplateStore() *TemplateStore {
	return &TemplateStore{byID: make(map[uint32]*Template)}
}

// Add inserts or replaces a template by id.
func (s *TemplateStore) Add(t *Template) {
	s.byID[t.ID] = t
}

// Get resolves a template id to its template, or reports ok=false if the
// store holds no such id (the invariant the orchestrator's Load operation
// must check: every hash-table reference resolves to a known template).
func (s *TemplateStore) Get(id uint32) (*Template, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// Len returns the number of templates in the arena.
func (s *TemplateStore) Len() int {
	return len(s.byID)
}

// All returns the arena's templates sorted by id, for deterministic
// iteration (training hash tables, persistence).
func (s *TemplateStore) All() []*Template {
	out := make([]*Template, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
