package orchestrator

import (
	"fmt"

	"github.com/cadmatch/detect/internal/detect/detecterr"
	"github.com/cadmatch/detect/internal/detect/model"
)

// Load reads the persisted Criteria, templates and hash tables back from
// the session's store and re-links every hash-table bucket's template-id
// references against the freshly loaded template arena, per the
// cascade's "tables store ids, not pointers" arena design. It fails with
// ErrInvariantViolated if a bucket references a template id the store
// does not also hold, or if the persisted Criteria never had its
// discovered statistics frozen.
func (s *Session) Load() error {
	criteria, err := s.store.LoadCriteria()
	if err != nil {
		return fmt.Errorf("orchestrator: load criteria: %w", err)
	}
	if !criteria.StatisticsReady() {
		return fmt.Errorf("orchestrator: persisted criteria never completed training: %w", detecterr.ErrInvariantViolated)
	}

	templates, err := s.store.LoadAllTemplates()
	if err != nil {
		return fmt.Errorf("orchestrator: load templates: %w", err)
	}
	if len(templates) == 0 {
		return fmt.Errorf("orchestrator: store holds no templates: %w", detecterr.ErrInvariantViolated)
	}

	arena := model.NewTemplateStore()
	for _, t := range templates {
		arena.Add(t)
	}

	tables, err := s.store.LoadHashTables()
	if err != nil {
		return fmt.Errorf("orchestrator: load hash tables: %w", err)
	}
	if len(tables) == 0 {
		return fmt.Errorf("orchestrator: store holds no hash tables: %w", detecterr.ErrInvariantViolated)
	}
	for _, table := range tables {
		for key, ids := range table.Buckets {
			for _, id := range ids {
				if _, ok := arena.Get(id); !ok {
					return fmt.Errorf("orchestrator: hash table bucket %v references unknown template %d: %w", key, id, detecterr.ErrInvariantViolated)
				}
			}
		}
		if !table.RangesPartitionFull() {
			return fmt.Errorf("orchestrator: hash table for triplet %+v has incomplete bin ranges: %w", table.Triplet, detecterr.ErrInvariantViolated)
		}
	}

	s.criteria = criteria
	s.templates = arena
	s.tables = tables
	return nil
}
