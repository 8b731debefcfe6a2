package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cadmatch/detect/internal/detect/model"
)

// SaveCriteria persists the single, singleton criteria row — the tunables
// plus whatever statistics training has discovered so far.
func (s *Store) SaveCriteria(c *model.Criteria) error {
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("store: marshal criteria: %w", err)
	}
	frozen := 0
	if c.StatisticsReady() {
		frozen = 1
	}
	_, err = s.Exec(`
		INSERT INTO criteria (id, criteria_json, statistics_frozen) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET criteria_json = excluded.criteria_json, statistics_frozen = excluded.statistics_frozen
	`, string(payload), frozen)
	if err != nil {
		return fmt.Errorf("store: save criteria: %w", err)
	}
	return nil
}

// LoadCriteria returns the persisted criteria, with discovered statistics
// re-frozen if they were frozen when saved.
func (s *Store) LoadCriteria() (*model.Criteria, error) {
	var payload string
	var frozen int
	err := s.QueryRow(`SELECT criteria_json, statistics_frozen FROM criteria WHERE id = 1`).Scan(&payload, &frozen)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("store: no criteria saved yet")
	}
	if err != nil {
		return nil, fmt.Errorf("store: load criteria: %w", err)
	}

	c := model.DefaultCriteria()
	if err := json.Unmarshal([]byte(payload), c); err != nil {
		return nil, fmt.Errorf("store: unmarshal criteria: %w", err)
	}
	if frozen != 0 {
		c.MarkStatisticsDiscovered()
	}
	return c, nil
}
