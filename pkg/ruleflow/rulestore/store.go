// Package rulestore persists named rules grouped into rule sets.
package rulestore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists rules. Implementations must be safe for concurrent use.
type Store interface {
	// Save inserts or updates the rule identified by (Ruleset, Name) and
	// returns it as stored. A new rule is given an ID and the next
	// position in its rule set; an update keeps both.
	Save(r Rule) (Rule, error)

	// Load retrieves one rule.
	// Returns ErrNotFound if it doesn't exist.
	Load(ruleset, name string) (Rule, error)

	// List returns the rules of a rule set ordered by position.
	// Returns an empty slice (not error) for an unknown rule set.
	List(ruleset string) ([]Rule, error)

	// Rulesets returns the names of all rule sets, sorted.
	Rulesets() ([]string, error)

	// Delete removes one rule. Returns nil if it doesn't exist.
	Delete(ruleset, name string) error

	// DeleteRuleset removes every rule of a rule set.
	DeleteRuleset(ruleset string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Rule is one stored rule.
type Rule struct {
	ID          string
	Ruleset     string
	Name        string
	Expression  string
	Description string
	// Params are substituted into Expression before validation.
	Params map[string]any
	// Position orders rules within a rule set, starting at 1.
	Position  int
	UpdatedAt time.Time
}

// Sentinel errors for store operations.
var (
	// ErrNotFound indicates a rule doesn't exist.
	ErrNotFound = errors.New("rule not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("rule store closed")

	// ErrInvalidRule indicates a rule without a rule set, name or expression.
	ErrInvalidRule = errors.New("invalid rule")
)

func validate(r Rule) error {
	switch {
	case r.Ruleset == "":
		return fmt.Errorf("%w: empty rule set name", ErrInvalidRule)
	case r.Name == "":
		return fmt.Errorf("%w: empty rule name", ErrInvalidRule)
	case r.Expression == "":
		return fmt.Errorf("%w: rule %q has no expression", ErrInvalidRule, r.Name)
	}
	return nil
}

func newID() string {
	return uuid.New().String()
}
