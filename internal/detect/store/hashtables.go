package store

import (
	"encoding/json"
	"fmt"

	"github.com/cadmatch/detect/internal/detect/model"
)

// SaveHashTables replaces the entire hash-table set in one transaction.
// Hash tables are only ever written wholesale, at the end of training, so
// a clear-then-insert keeps the store free of stale buckets from a
// previous training run's table count or triplet choices.
func (s *Store) SaveHashTables(tables []*model.HashTable) error {
	tx, err := s.Begin()
	if err != nil {
		return fmt.Errorf("store: begin hash table save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM hash_buckets`); err != nil {
		return fmt.Errorf("store: clear hash buckets: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM hash_tables`); err != nil {
		return fmt.Errorf("store: clear hash tables: %w", err)
	}

	for i, ht := range tables {
		tripletJSON, err := json.Marshal(ht.Triplet)
		if err != nil {
			return fmt.Errorf("store: marshal triplet %d: %w", i, err)
		}
		binRangesJSON, err := json.Marshal(ht.BinRanges)
		if err != nil {
			return fmt.Errorf("store: marshal bin ranges %d: %w", i, err)
		}

		res, err := tx.Exec(`INSERT INTO hash_tables (id, triplet_json, bin_ranges_json) VALUES (?, ?, ?)`,
			i, string(tripletJSON), string(binRangesJSON))
		if err != nil {
			return fmt.Errorf("store: insert hash table %d: %w", i, err)
		}
		tableID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("store: hash table %d last insert id: %w", i, err)
		}

		for key, templateIDs := range ht.Buckets {
			keyBlob := append([]byte(nil), key[:]...)
			for _, tid := range templateIDs {
				if _, err := tx.Exec(`INSERT INTO hash_buckets (hash_table_id, hash_key, template_id) VALUES (?, ?, ?)`,
					tableID, keyBlob, tid); err != nil {
					return fmt.Errorf("store: insert hash bucket entry (table %d, template %d): %w", tableID, tid, err)
				}
			}
		}
	}

	return tx.Commit()
}

// LoadHashTables returns the full set of trained hash tables, ordered by
// the id assigned at training time.
func (s *Store) LoadHashTables() ([]*model.HashTable, error) {
	rows, err := s.Query(`SELECT id, triplet_json, bin_ranges_json FROM hash_tables ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("store: query hash tables: %w", err)
	}
	defer rows.Close()

	var tables []*model.HashTable
	var tableIDs []int64
	for rows.Next() {
		var id int64
		var tripletJSON, binRangesJSON string
		if err := rows.Scan(&id, &tripletJSON, &binRangesJSON); err != nil {
			return nil, err
		}
		var triplet model.Triplet
		if err := json.Unmarshal([]byte(tripletJSON), &triplet); err != nil {
			return nil, fmt.Errorf("store: unmarshal triplet for hash table %d: %w", id, err)
		}
		ht := model.NewHashTable(triplet)
		if err := json.Unmarshal([]byte(binRangesJSON), &ht.BinRanges); err != nil {
			return nil, fmt.Errorf("store: unmarshal bin ranges for hash table %d: %w", id, err)
		}
		tables = append(tables, ht)
		tableIDs = append(tableIDs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range tableIDs {
		if err := s.loadBucketsInto(tables[i], id); err != nil {
			return nil, err
		}
	}
	return tables, nil
}

func (s *Store) loadBucketsInto(ht *model.HashTable, tableID int64) error {
	rows, err := s.Query(`SELECT hash_key, template_id FROM hash_buckets WHERE hash_table_id = ?`, tableID)
	if err != nil {
		return fmt.Errorf("store: query hash buckets for table %d: %w", tableID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var keyBlob []byte
		var templateID uint32
		if err := rows.Scan(&keyBlob, &templateID); err != nil {
			return err
		}
		if len(keyBlob) != 5 {
			return fmt.Errorf("store: hash table %d: malformed hash key of length %d", tableID, len(keyBlob))
		}
		var key model.HashKey
		copy(key[:], keyBlob)
		ht.Insert(key, templateID)
	}
	return rows.Err()
}
