package cel

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of compiled programs kept when no size is given
const DefaultCacheSize = 1024

// Variable names available to rule expressions
const (
	VarResult     = "result"
	VarErrorKind  = "error_kind"
	VarExpression = "expression"
)

// Evaluator evaluates CEL expressions. Compiled programs are kept in a
// bounded LRU cache.
type Evaluator struct {
	env   *cel.Env
	cache *lru.Cache[string, cel.Program]
	mu    sync.Mutex
}

// NewEvaluator creates a new CEL evaluator caching up to cacheSize programs.
// A cacheSize of zero or less uses DefaultCacheSize.
func NewEvaluator(cacheSize int) (*Evaluator, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, cel.Program](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create program cache: %w", err)
	}

	env, err := cel.NewEnv(
		cel.Variable(VarResult, cel.DoubleType),
		cel.Variable(VarErrorKind, cel.StringType),
		cel.Variable(VarExpression, cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	return &Evaluator{
		env:   env,
		cache: cache,
	}, nil
}

// Evaluate evaluates a CEL expression with the given variables
func (e *Evaluator) Evaluate(ctx context.Context, expression string, vars map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression)
	if err != nil {
		return nil, fmt.Errorf("failed to compile expression: %w", err)
	}

	out, _, err := program.ContextEval(ctx, vars)
	if err != nil {
		return nil, fmt.Errorf("evaluation failed: %w", err)
	}

	return out.Value(), nil
}

// Match evaluates a boolean CEL expression
func (e *Evaluator) Match(ctx context.Context, expression string, vars map[string]interface{}) (bool, error) {
	out, err := e.Evaluate(ctx, expression, vars)
	if err != nil {
		return false, err
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression did not return a boolean: %T", out)
	}
	return matched, nil
}

// getProgram gets a compiled program from cache or compiles it
func (e *Evaluator) getProgram(expression string) (cel.Program, error) {
	if program, ok := e.cache.Get(expression); ok {
		return program, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// Check again in case another goroutine compiled it
	if program, ok := e.cache.Get(expression); ok {
		return program, nil
	}

	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("parse error: %w", issues.Err())
	}

	program, err := e.env.Program(ast, cel.InterruptCheckFrequency(100))
	if err != nil {
		return nil, fmt.Errorf("program generation error: %w", err)
	}

	e.cache.Add(expression, program)

	return program, nil
}

// ValidateExpression checks that a CEL expression compiles and returns a boolean
func (e *Evaluator) ValidateExpression(expression string) error {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return issues.Err()
	}

	if !ast.OutputType().IsExactType(cel.BoolType) {
		return fmt.Errorf("expression must return bool, got %s", ast.OutputType())
	}

	return nil
}

// ClearCache clears the compiled program cache
func (e *Evaluator) ClearCache() {
	e.cache.Purge()
}

// CacheSize returns the number of compiled programs held in the cache
func (e *Evaluator) CacheSize() int {
	return e.cache.Len()
}
