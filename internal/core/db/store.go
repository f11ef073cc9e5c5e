package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/walisonlf/fiscal/internal/catalogue"
	"github.com/walisonlf/fiscal/internal/types"
)

/*
 * Rule store.
 *
 * Persists the catalogue one row per (partition, code), the row's document
 * column holding that code's rules as the same JSON fragment the wire
 * document uses. Saves replace the whole table in one transaction together
 * with the catalogue revision, so a load always reconstructs a catalogue
 * that existed, never a blend of two saves.
 */

// StoredRule is one persisted catalogue row.
type StoredRule struct {
	Part      string `db:"part"`
	Code      string `db:"code"`
	Document  string `db:"document"`
	Revision  string `db:"revision"`
	UpdatedAt string `db:"updated_at"`
}

// RuleStore persists and restores rule catalogues.
type RuleStore struct {
	db *sqlx.DB
	q  *Queries
}

// NewRuleStore returns a store bound to an open database.
func NewRuleStore(db *sqlx.DB) (*RuleStore, error) {
	q, err := LoadQueries(db)
	if err != nil {
		return nil, err
	}
	return &RuleStore{db: db, q: q}, nil
}

// SaveCatalogue replaces the stored rule set with the catalogue's current
// contents, atomically.
func (s *RuleStore) SaveCatalogue(cat *catalogue.Catalogue) error {
	entries, err := cat.ExportEntries()
	if err != nil {
		return fmt.Errorf("failed to export catalogue: %w", err)
	}

	insert, err := s.q.Rebound("insert-rule")
	if err != nil {
		return err
	}
	deleteAll, err := s.q.Rebound("delete-all-rules")
	if err != nil {
		return err
	}

	revision := string(cat.Revision())
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.Exec(deleteAll); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to clear rules: %w", err)
	}

	for _, e := range entries {
		if _, err := tx.Exec(insert, e.Partition, e.Code, string(e.Document), revision, now); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to store %s %q: %w", e.Partition, e.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// LoadCatalogue reconstructs the most recently saved catalogue.
// Returns types.ErrRuleNotFound when the store holds no rules, so callers
// can fall back to the built-in defaults.
func (s *RuleStore) LoadCatalogue() (*catalogue.Catalogue, error) {
	var rows []StoredRule
	if err := s.q.Select("list-rules", &rows); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	if len(rows) == 0 {
		return nil, types.ErrRuleNotFound
	}

	entries := make([]catalogue.ExportedRule, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, catalogue.ExportedRule{
			Partition: r.Part,
			Code:      r.Code,
			Document:  []byte(r.Document),
		})
	}

	cat := catalogue.New()
	if err := cat.ImportEntries(entries); err != nil {
		return nil, err
	}
	return cat, nil
}

// List returns the stored rows in partition/code order.
func (s *RuleStore) List() ([]StoredRule, error) {
	var rows []StoredRule
	if err := s.q.Select("list-rules", &rows); err != nil {
		return nil, fmt.Errorf("failed to list rules: %w", err)
	}
	return rows, nil
}

// Count returns the number of stored rows.
func (s *RuleStore) Count() (int, error) {
	var n int
	if err := s.q.Get("count-rules", &n); err != nil {
		return 0, fmt.Errorf("failed to count rules: %w", err)
	}
	return n, nil
}
