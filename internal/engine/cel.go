package engine

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
)

// celCostLimit caps expression evaluation cost so a pathological rule
// expression cannot stall an automation pass.
const celCostLimit = 1_000_000

// ExpressionCache compiles optional rule CEL expressions and caches the
// resulting programs by expression text. Safe for concurrent use.
type ExpressionCache struct {
	env      *cel.Env
	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewExpressionCache builds a CEL environment exposing the event to rule
// expressions: `snapshot` (the post-mutation field map) and `entityId`.
func NewExpressionCache() (*ExpressionCache, error) {
	env, err := cel.NewEnv(
		cel.Variable("snapshot", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("entityId", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &ExpressionCache{
		env:      env,
		programs: make(map[string]cel.Program),
	}, nil
}

// Compile returns the compiled program for an expression, compiling and
// caching it on first use.
func (c *ExpressionCache) Compile(expression string) (cel.Program, error) {
	c.mu.RLock()
	prog, ok := c.programs[expression]
	c.mu.RUnlock()
	if ok {
		return prog, nil
	}

	ast, issues := c.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile expression: %w", issues.Err())
	}

	prog, err := c.env.Program(ast, cel.CostLimit(celCostLimit))
	if err != nil {
		return nil, fmt.Errorf("build expression program: %w", err)
	}

	c.mu.Lock()
	c.programs[expression] = prog
	c.mu.Unlock()
	return prog, nil
}

// Eval evaluates an expression against a snapshot. A non-boolean result is
// treated as false.
func (c *ExpressionCache) Eval(expression, entityID string, snapshot map[string]any) (bool, error) {
	prog, err := c.Compile(expression)
	if err != nil {
		return false, err
	}

	if snapshot == nil {
		snapshot = map[string]any{}
	}
	out, _, err := prog.Eval(map[string]any{
		"snapshot": snapshot,
		"entityId": entityID,
	})
	if err != nil {
		return false, fmt.Errorf("evaluate expression: %w", err)
	}

	matched, _ := out.Value().(bool)
	return matched, nil
}
