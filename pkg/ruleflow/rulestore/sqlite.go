package rulestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists rules to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens or creates a rule database. The path is a file path
// (e.g., "./rules.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rules (
			id TEXT NOT NULL UNIQUE,
			ruleset TEXT NOT NULL,
			name TEXT NOT NULL,
			position INTEGER NOT NULL,
			expression TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			params TEXT,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (ruleset, name)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_rules_ruleset_position
		ON rules(ruleset, position)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Save implements Store.
func (s *SQLiteStore) Save(r Rule) (Rule, error) {
	if err := validate(r); err != nil {
		return Rule{}, err
	}
	params, err := encodeParams(r.Params)
	if err != nil {
		return Rule{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return Rule{}, ErrStoreClosed
	}

	r.UpdatedAt = time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO rules (id, ruleset, name, position, expression, description, params, updated_at)
		VALUES (
			?, ?, ?,
			COALESCE((SELECT MAX(position) FROM rules WHERE ruleset = ?), 0) + 1,
			?, ?, ?, ?
		)
		ON CONFLICT(ruleset, name) DO UPDATE SET
			expression = excluded.expression,
			description = excluded.description,
			params = excluded.params,
			updated_at = excluded.updated_at
	`, newID(), r.Ruleset, r.Name, r.Ruleset,
		r.Expression, r.Description, params, r.UpdatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Rule{}, fmt.Errorf("save rule: %w", err)
	}

	if err := s.db.QueryRow(`
		SELECT id, position FROM rules WHERE ruleset = ? AND name = ?
	`, r.Ruleset, r.Name).Scan(&r.ID, &r.Position); err != nil {
		return Rule{}, fmt.Errorf("read saved rule: %w", err)
	}
	return r, nil
}

// Load implements Store.
func (s *SQLiteStore) Load(ruleset, name string) (Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Rule{}, ErrStoreClosed
	}

	row := s.db.QueryRow(`
		SELECT id, ruleset, name, position, expression, description, params, updated_at
		FROM rules
		WHERE ruleset = ? AND name = ?
	`, ruleset, name)
	r, err := scanRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Rule{}, ErrNotFound
	}
	if err != nil {
		return Rule{}, fmt.Errorf("load rule: %w", err)
	}
	return r, nil
}

// List implements Store.
func (s *SQLiteStore) List(ruleset string) ([]Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT id, ruleset, name, position, expression, description, params, updated_at
		FROM rules
		WHERE ruleset = ?
		ORDER BY position
	`, ruleset)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	rules := []Rule{}
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		rules = append(rules, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return rules, nil
}

// Rulesets implements Store.
func (s *SQLiteStore) Rulesets() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`SELECT DISTINCT ruleset FROM rules ORDER BY ruleset`)
	if err != nil {
		return nil, fmt.Errorf("list rule sets: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan rule set: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rule sets: %w", err)
	}
	return names, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ruleset, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`
		DELETE FROM rules WHERE ruleset = ? AND name = ?
	`, ruleset, name); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return nil
}

// DeleteRuleset implements Store.
func (s *SQLiteStore) DeleteRuleset(ruleset string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if _, err := s.db.Exec(`DELETE FROM rules WHERE ruleset = ?`, ruleset); err != nil {
		return fmt.Errorf("delete rule set: %w", err)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRule(row scanner) (Rule, error) {
	var (
		r         Rule
		params    sql.NullString
		updatedAt string
	)
	if err := row.Scan(&r.ID, &r.Ruleset, &r.Name, &r.Position,
		&r.Expression, &r.Description, &params, &updatedAt); err != nil {
		return Rule{}, err
	}
	if params.Valid && params.String != "" {
		if err := json.Unmarshal([]byte(params.String), &r.Params); err != nil {
			return Rule{}, fmt.Errorf("decode params of %q: %w", r.Name, err)
		}
	}
	r.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
	return r, nil
}

func encodeParams(p map[string]any) (sql.NullString, error) {
	if len(p) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode params: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
