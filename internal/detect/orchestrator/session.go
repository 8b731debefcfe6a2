package orchestrator

import (
	"fmt"

	"github.com/cadmatch/detect/internal/detect/detecterr"
	"github.com/cadmatch/detect/internal/detect/model"
	"github.com/cadmatch/detect/internal/detect/store"
)

// Session holds the orchestrator's mutable state across its three
// operations: the backing store, the frozen-or-in-training Criteria, the
// template arena, and the calibrated hash tables. A zero Session is not
// usable; construct one with NewSession.
type Session struct {
	store *store.Store

	criteria  *model.Criteria
	templates *model.TemplateStore
	tables    []*model.HashTable

	sceneLoader SceneLoader
}

// NewSession opens (or creates) the SQLite-backed store at dbPath and
// returns a Session with freshly defaulted, unfrozen Criteria. Callers
// that want to detect against already-trained state should follow with
// Load.
func NewSession(dbPath string) (*Session, error) {
	db, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: open store: %w", err)
	}
	return &Session{
		store:     db,
		criteria:  model.DefaultCriteria(),
		templates: model.NewTemplateStore(),
	}, nil
}

// SetSceneLoader installs the SceneLoader Detect uses to resolve a scene
// directory into decoded scenes. Detect returns ErrInputMissing
// immediately if called before a loader is installed.
func (s *Session) SetSceneLoader(l SceneLoader) {
	s.sceneLoader = l
}

// Close releases the session's store handle.
func (s *Session) Close() error {
	return s.store.Close()
}

// Criteria returns the session's current Criteria. Callers must not
// mutate the discovered-statistics section directly; it is only ever set
// by Train or Load.
func (s *Session) Criteria() *model.Criteria {
	return s.criteria
}

// Template looks up a trained template by id, for callers (such as the
// refine CLI subcommand) that need to hand a specific template's mesh to
// Refine.
func (s *Session) Template(id uint32) (*model.Template, bool) {
	return s.templates.Get(id)
}

// Ready reports whether the session holds statistics-frozen Criteria, at
// least one template and at least one hash table, i.e. whether Detect can
// run.
func (s *Session) Ready() bool {
	return s.criteria.StatisticsReady() && s.templates.Len() > 0 && len(s.tables) > 0
}

// requireReady returns ErrInvariantViolated describing what is missing
// when the session cannot yet detect.
func (s *Session) requireReady() error {
	switch {
	case !s.criteria.StatisticsReady():
		return fmt.Errorf("orchestrator: criteria statistics not yet discovered: %w", detecterr.ErrInvariantViolated)
	case s.templates.Len() == 0:
		return fmt.Errorf("orchestrator: no templates loaded: %w", detecterr.ErrInvariantViolated)
	case len(s.tables) == 0:
		return fmt.Errorf("orchestrator: no hash tables loaded: %w", detecterr.ErrInvariantViolated)
	}
	return nil
}
