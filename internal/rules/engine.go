// Package rules implements the declarative classification engine: rules
// loaded from an external JSON file, sorted by descending priority,
// evaluated first-match-wins against a wildcard pattern language with an
// additive CEL predicate extension.
package rules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/mindburn-labs/ledgerly/internal/canon"
	"github.com/mindburn-labs/ledgerly/internal/model"
)

// Result is the outcome of evaluating an input against the loaded rule
// set: the matching rule's identity plus its target attributes, or a
// zero-confidence miss signalling manual review.
type Result struct {
	RuleID     string
	Merchant   string
	Category   string
	Kind       model.TransactionKind
	Confidence float64
	Matched    bool
}

// Engine holds an immutable, version-tagged rule set. Reload produces a
// new Engine value rather than mutating this one, per the global-state
// discipline of treating the rule set as a value.
type Engine struct {
	rules   []model.ClassificationRule
	version string
	cel     *celEvaluator
}

// Load parses raw (a JSON array of ClassificationRule), validates it
// against the rules-file schema, rejects any rule with an empty pattern,
// and sorts rules by descending priority.
func Load(raw []byte) (*Engine, error) {
	schema, err := compileRulesSchema()
	if err != nil {
		return nil, err
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("rules: unmarshal for validation: %w", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, fmt.Errorf("rules: schema validation: %w", err)
	}

	var parsed []model.ClassificationRule
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&parsed); err != nil {
		return nil, fmt.Errorf("rules: decode: %w", err)
	}

	for _, r := range parsed {
		if r.Pattern == "" {
			return nil, fmt.Errorf("rules: rule %q: %w", r.ID, ErrEmptyPattern)
		}
	}

	sorted := append([]model.ClassificationRule(nil), parsed...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority > sorted[j].Priority
	})

	version, err := canon.CanonicalHash(sorted)
	if err != nil {
		return nil, fmt.Errorf("rules: version hash: %w", err)
	}

	evaluator, err := newCELEvaluator()
	if err != nil {
		return nil, err
	}

	// A broken CEL predicate is a rule-file invalidity: compile every one
	// now so the failure is fatal at load, not deferred to the first
	// classification that happens to reach the rule.
	for _, r := range sorted {
		if isCELPattern(r.Pattern) {
			if _, err := evaluator.program(celExpr(r.Pattern)); err != nil {
				return nil, fmt.Errorf("rules: rule %q: %w", r.ID, err)
			}
		}
	}

	return &Engine{rules: sorted, version: version, cel: evaluator}, nil
}

// LoadFile reads and loads a rules file from path.
func LoadFile(path string) (*Engine, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: read %q: %w", path, err)
	}
	return Load(raw)
}

// Reload loads a replacement rule set from path, returning a new Engine
// value; the receiver is left untouched, so in-flight classifications
// against it stay consistent.
func (e *Engine) Reload(path string) (*Engine, error) {
	return LoadFile(path)
}

// Version returns the engine's content-derived version tag: a canonical
// hash of the loaded, sorted rule set. Two loads of the same rules produce
// the same tag regardless of on-disk formatting.
func (e *Engine) Version() string { return e.version }

// Rules returns the loaded rule set in evaluation order.
func (e *Engine) Rules() []model.ClassificationRule {
	return append([]model.ClassificationRule(nil), e.rules...)
}

// Classify evaluates a transaction's fields against the rule set in
// priority order and returns the first match.
func (e *Engine) Classify(description, merchant string, amount float64, category string, kind model.TransactionKind) (Result, error) {
	input := map[string]any{
		"description": description,
		"merchant":    merchant,
		"amount":      amount,
		"category":    category,
		"kind":        string(kind),
	}

	for _, r := range e.rules {
		matched, err := e.matches(r.Pattern, description, input)
		if err != nil {
			return Result{}, fmt.Errorf("rules: rule %q: %w", r.ID, err)
		}
		if !matched {
			continue
		}
		return Result{
			RuleID:     r.ID,
			Merchant:   r.Merchant,
			Category:   r.Category,
			Kind:       r.TransactionType,
			Confidence: r.Confidence,
			Matched:    true,
		}, nil
	}

	return Result{Matched: false, Confidence: 0.0}, nil
}

func (e *Engine) matches(pattern, description string, input map[string]any) (bool, error) {
	if isCELPattern(pattern) {
		return e.cel.eval(celExpr(pattern), input)
	}
	return Match(pattern, description), nil
}
