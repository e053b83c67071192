package matching

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Evaluator evaluates boolean expr-lang expressions against a request
// environment. Compiled programs are cached per expression and environment
// key set.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewEvaluator creates an Evaluator with an empty compile cache.
func NewEvaluator() *Evaluator {
	return &Evaluator{cache: make(map[string]*vm.Program)}
}

// Eval runs expression against env and returns its boolean result.
// A non-boolean result is an error.
func (e *Evaluator) Eval(expression string, env map[string]any) (bool, error) {
	program, err := e.compile(expression, env)
	if err != nil {
		return false, fmt.Errorf("compile %q: %w", expression, err)
	}

	out, err := expr.Run(program, env)
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", expression, err)
	}

	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("eval %q: result is %T, not bool", expression, out)
	}
	return b, nil
}

// Validate compiles expression against env without running it.
func (e *Evaluator) Validate(expression string, env map[string]any) error {
	_, err := e.compile(expression, env)
	return err
}

func (e *Evaluator) compile(expression string, env map[string]any) (*vm.Program, error) {
	key := expression + "\x00" + envSignature(env)

	e.mu.RLock()
	if program, ok := e.cache[key]; ok {
		e.mu.RUnlock()
		return program, nil
	}
	e.mu.RUnlock()

	program, err := expr.Compile(expression, expr.Env(env))
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	if existing, ok := e.cache[key]; ok {
		e.mu.Unlock()
		return existing, nil
	}
	e.cache[key] = program
	e.mu.Unlock()

	return program, nil
}

func envSignature(env map[string]any) string {
	if len(env) == 0 {
		return ""
	}
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, fmt.Sprintf("%s:%T", k, env[k]))
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}
