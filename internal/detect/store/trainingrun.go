package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// TrainingFailure records one object that training could not build a
// template for, alongside the reason, so a training run's failure list
// survives the process that ran it.
type TrainingFailure struct {
	ObjID    uint32 `json:"obj_id"`
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// TrainingRun is a minimal record of one training pass: when it ran, how
// many objects it covered, and what (if anything) failed.
type TrainingRun struct {
	ID           int64
	StartedUnix  int64
	FinishedUnix *int64
	ObjectCount  int
	Status       string // "running", "completed", "failed"
	Failures     []TrainingFailure
}

// CreateTrainingRun inserts a new run record in the "running" state and
// returns its assigned ID.
func (s *Store) CreateTrainingRun(startedUnix int64) (int64, error) {
	res, err := s.Exec(`INSERT INTO training_runs (started_unix, status) VALUES (?, 'running')`, startedUnix)
	if err != nil {
		return 0, fmt.Errorf("store: create training run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: training run last insert id: %w", err)
	}
	return id, nil
}

// FinishTrainingRun closes out a run record with its final object count,
// failure list and terminal status.
func (s *Store) FinishTrainingRun(id int64, finishedUnix int64, objectCount int, status string, failures []TrainingFailure) error {
	if failures == nil {
		failures = []TrainingFailure{}
	}
	payload, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("store: marshal training failures: %w", err)
	}
	_, err = s.Exec(`
		UPDATE training_runs SET finished_unix = ?, object_count = ?, status = ?, failures_json = ?
		WHERE id = ?
	`, finishedUnix, objectCount, status, string(payload), id)
	if err != nil {
		return fmt.Errorf("store: finish training run %d: %w", id, err)
	}
	return nil
}

// ListTrainingRuns returns every training run, most recent first.
func (s *Store) ListTrainingRuns() ([]TrainingRun, error) {
	rows, err := s.Query(`
		SELECT id, started_unix, finished_unix, object_count, status, failures_json
		FROM training_runs ORDER BY id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list training runs: %w", err)
	}
	defer rows.Close()

	var out []TrainingRun
	for rows.Next() {
		var r TrainingRun
		var finished sql.NullInt64
		var failuresJSON string
		if err := rows.Scan(&r.ID, &r.StartedUnix, &finished, &r.ObjectCount, &r.Status, &failuresJSON); err != nil {
			return nil, err
		}
		if finished.Valid {
			r.FinishedUnix = &finished.Int64
		}
		if err := json.Unmarshal([]byte(failuresJSON), &r.Failures); err != nil {
			return nil, fmt.Errorf("store: unmarshal failures for run %d: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
