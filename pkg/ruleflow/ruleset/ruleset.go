// Package ruleset groups named rules and evaluates them together.
//
// A rule set is usually kept in YAML:
//
//	name: orders
//	rules:
//	  - name: high-value
//	    expression: price > ${min_price}
//	    params:
//	      min_price: 100.0
//	  - name: allowed-symbol
//	    expression: symbol inCI ${symbols}
//	    params:
//	      symbols: [ibm, msft]
//
// Parameters are expanded when a rule is added, so a rule with a missing
// parameter is rejected up front. Evaluate runs every rule against one
// record through one Engine and reports each outcome; a failing rule does
// not stop the others.
package ruleset

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/randalmurphal/ruleflow/pkg/ruleflow"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/registry"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/rulestore"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/template"
	"github.com/randalmurphal/ruleflow/pkg/ruleflow/types"
)

// ErrDuplicateRule is returned when two rules in one set share a name.
var ErrDuplicateRule = errors.New("duplicate rule name")

// Rule is one named predicate.
type Rule struct {
	Name        string         `yaml:"name"`
	Expression  string         `yaml:"expression"`
	Description string         `yaml:"description,omitempty"`
	Params      map[string]any `yaml:"params,omitempty"`
}

type entry struct {
	rule Rule
	text string
}

// Ruleset is an ordered collection of rules. Safe for concurrent use.
type Ruleset struct {
	name     string
	rules    *registry.Registry[string, entry]
	expander *template.Expander
}

// New creates an empty rule set.
func New(name string) *Ruleset {
	return &Ruleset{
		name:     name,
		rules:    registry.New[string, entry](),
		expander: template.NewExpander(template.WithMissingAction(template.MissingError)),
	}
}

// Name returns the rule set name.
func (rs *Ruleset) Name() string {
	return rs.name
}

// Add appends a rule after expanding its parameters.
func (rs *Ruleset) Add(r Rule) error {
	if r.Name == "" {
		return fmt.Errorf("rule set %q: rule without a name", rs.name)
	}
	if r.Expression == "" {
		return fmt.Errorf("rule %q: empty expression", r.Name)
	}
	text, err := rs.expander.Expand(r.Expression, r.Params)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	if err := rs.rules.Add(r.Name, entry{rule: r, text: text}); err != nil {
		return fmt.Errorf("rule set %q: %w: %s", rs.name, ErrDuplicateRule, r.Name)
	}
	return nil
}

// Rules returns the rules in declaration order.
func (rs *Ruleset) Rules() []Rule {
	entries := rs.rules.Values()
	out := make([]Rule, len(entries))
	for i, e := range entries {
		out[i] = e.rule
	}
	return out
}

// Expression returns the expanded expression of the named rule.
func (rs *Ruleset) Expression(name string) (string, bool) {
	e, ok := rs.rules.Get(name)
	return e.text, ok
}

// Len returns the number of rules.
func (rs *Ruleset) Len() int {
	return rs.rules.Len()
}

// Outcome is the result of one rule.
type Outcome struct {
	Rule       string
	Expression string
	Result     bool
	Code       ruleflow.ErrorCode
	Err        error
}

// Report collects the outcomes of one Evaluate call in rule order.
type Report struct {
	Ruleset  string
	Outcomes []Outcome
}

// Passed reports whether every rule evaluated to true without error.
func (r Report) Passed() bool {
	for _, o := range r.Outcomes {
		if o.Err != nil || !o.Result {
			return false
		}
	}
	return true
}

// Failed returns the outcomes that evaluated to false without error.
func (r Report) Failed() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err == nil && !o.Result {
			out = append(out, o)
		}
	}
	return out
}

// Errors returns the outcomes that ended in an error.
func (r Report) Errors() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Evaluate runs every rule against rec in declaration order.
func (rs *Ruleset) Evaluate(ctx context.Context, engine *ruleflow.Engine, rec types.Record, traced bool) Report {
	report := Report{Ruleset: rs.name}
	rs.rules.Range(func(name string, e entry) bool {
		result, err := engine.EvaluatePredicate(ctx, e.text, rec, traced)
		report.Outcomes = append(report.Outcomes, Outcome{
			Rule:       name,
			Expression: e.text,
			Result:     result,
			Code:       ruleflow.CodeOf(err),
			Err:        err,
		})
		return true
	})
	return report
}

// Validate checks every rule against s, warming the engine's plan cache.
// The returned map holds the failures by rule name.
func (rs *Ruleset) Validate(ctx context.Context, engine *ruleflow.Engine, s *types.Schema) map[string]error {
	failures := make(map[string]error)
	rs.rules.Range(func(name string, e entry) bool {
		if _, err := engine.Validate(ctx, e.text, s); err != nil {
			failures[name] = err
		}
		return true
	})
	return failures
}

type document struct {
	Name  string `yaml:"name"`
	Rules []Rule `yaml:"rules"`
}

// Parse reads a rule set from YAML.
func Parse(data []byte) (*Ruleset, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule set: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("parse rule set: missing name")
	}
	rs := New(doc.Name)
	for _, r := range doc.Rules {
		if err := rs.Add(r); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// LoadFile reads a rule set from a YAML file.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule set: %w", err)
	}
	return Parse(data)
}

// Marshal renders the rule set as YAML in the form Parse reads.
func (rs *Ruleset) Marshal() ([]byte, error) {
	return yaml.Marshal(document{Name: rs.name, Rules: rs.Rules()})
}

// FromStore loads the named rule set from a store.
func FromStore(store rulestore.Store, name string) (*Ruleset, error) {
	stored, err := store.List(name)
	if err != nil {
		return nil, fmt.Errorf("load rule set %q: %w", name, err)
	}
	if len(stored) == 0 {
		return nil, fmt.Errorf("load rule set %q: %w", name, rulestore.ErrNotFound)
	}
	rs := New(name)
	for _, r := range stored {
		if err := rs.Add(Rule{
			Name:        r.Name,
			Expression:  r.Expression,
			Description: r.Description,
			Params:      r.Params,
		}); err != nil {
			return nil, err
		}
	}
	return rs, nil
}

// Save writes every rule to store, in order, under the rule set's name.
func (rs *Ruleset) Save(store rulestore.Store) error {
	for _, r := range rs.Rules() {
		if _, err := store.Save(rulestore.Rule{
			Ruleset:     rs.name,
			Name:        r.Name,
			Expression:  r.Expression,
			Description: r.Description,
			Params:      r.Params,
		}); err != nil {
			return fmt.Errorf("save rule %q: %w", r.Name, err)
		}
	}
	return nil
}
