package rules

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"
)

// celPrefix marks a pattern as a CEL boolean expression rather than the
// wildcard pattern language — an additive extension; unprefixed patterns
// go through the wildcard matcher unchanged.
const celPrefix = "cel:"

func isCELPattern(pattern string) bool {
	return strings.HasPrefix(pattern, celPrefix)
}

func celExpr(pattern string) string {
	return strings.TrimPrefix(pattern, celPrefix)
}

// celEvaluator compiles and caches CEL programs by expression string, the
// way a module policy evaluator would for a hot path revisited every
// classification.
type celEvaluator struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

func newCELEvaluator() (*celEvaluator, error) {
	env, err := cel.NewEnv(
		cel.Variable("description", cel.StringType),
		cel.Variable("merchant", cel.StringType),
		cel.Variable("amount", cel.DoubleType),
		cel.Variable("category", cel.StringType),
		cel.Variable("kind", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("rules: cel environment: %w", err)
	}
	return &celEvaluator{env: env, programs: make(map[string]cel.Program)}, nil
}

func (e *celEvaluator) eval(expr string, input map[string]any) (bool, error) {
	prg, err := e.program(expr)
	if err != nil {
		return false, err
	}
	out, _, err := prg.Eval(input)
	if err != nil {
		return false, fmt.Errorf("rules: cel eval %q: %w", expr, err)
	}
	val, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rules: cel expression %q did not evaluate to bool", expr)
	}
	return val, nil
}

func (e *celEvaluator) program(expr string) (cel.Program, error) {
	e.mu.RLock()
	prg, hit := e.programs[expr]
	e.mu.RUnlock()
	if hit {
		return prg, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if prg, hit := e.programs[expr]; hit {
		return prg, nil
	}

	ast, issues := e.env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("rules: cel compile %q: %w", expr, issues.Err())
	}
	p, err := e.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("rules: cel program %q: %w", expr, err)
	}
	e.programs[expr] = p
	return p, nil
}
