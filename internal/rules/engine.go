// internal/rules/engine.go
package rules

import (
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Rule evaluation.
 *
 * A rule is a mapping with exactly one key: the operator name, whose value
 * holds the operands. A non-sequence operand value is wrapped as a single
 * operand. Sequences and any other value are literals and returned as-is.
 *
 * Operator precedence, first match wins:
 *   1. logical (if, ?:, and, or)            unevaluated operands
 *   2. scoped (filter, map, reduce, ...)    unevaluated operands
 *   -- operands are evaluated left to right --
 *   3. data access (var, missing, ...)      data context + operands
 *   4. custom operations from the registry  operands
 *   5. common operators                     operands
 *   6. table helpers (count, get, ...)      operands
 *   7. dotted custom names ("ns.fn")        operands
 *
 * A nil data context is replaced by an empty mapping.
 */

// Engine evaluates rules against data.
// Safe for concurrent use once constructed.
type Engine struct {
	registry        *Registry
	logger          *slog.Logger
	maxDepth        int
	allowReflection bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithRegistry shares a caller-owned registry. Engines otherwise get their own.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the logger for registry events.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxDepth limits rule nesting. Zero means unlimited.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) { e.maxDepth = depth }
}

// WithReflection enables reflective member access and calls on arbitrary Go
// values for method and dotted operations. Only enable for trusted hosts.
func WithReflection(enabled bool) Option {
	return func(e *Engine) { e.allowReflection = enabled }
}

// NewEngine creates a rules engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Registry returns the engine's custom operation registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Register adds a custom operation. Names owned by the logical, scoped or
// data access groups are accepted but can never be reached.
func (e *Engine) Register(name string, value any) {
	if group := reservedGroup(name); group != "" {
		e.logger.Warn("Custom operation is shadowed by built-in operator",
			"name", name,
			"group", group)
	}
	e.registry.Register(name, value)
	e.logger.Debug("Registered custom operation", "name", name, "type", typeName(value))
}

// Remove deletes a custom operation.
func (e *Engine) Remove(name string) error {
	if err := e.registry.Remove(name); err != nil {
		return err
	}
	e.logger.Debug("Removed custom operation", "name", name)
	return nil
}

func reservedGroup(name string) string {
	if _, ok := logicalOps[name]; ok {
		return "logical"
	}
	if _, ok := scopedOps[name]; ok {
		return "scoped"
	}
	if _, ok := dataOps[name]; ok {
		return "data"
	}
	return ""
}

// Execute evaluates rule against data.
func (e *Engine) Execute(rule, data any) (any, error) {
	ev := &evaluator{engine: e}
	return ev.eval(rule, data)
}

// evaluator carries per-call state through one Execute.
type evaluator struct {
	engine *Engine
	depth  int
}

func (ev *evaluator) eval(rule, data any) (any, error) {
	if isSequence(rule) {
		return rule, nil
	}
	op, operands, ok := splitRule(rule)
	if !ok {
		return rule, nil
	}

	ev.depth++
	defer func() { ev.depth-- }()
	if limit := ev.engine.maxDepth; limit > 0 && ev.depth > limit {
		return nil, fmt.Errorf("%w: %d", types.ErrMaxDepth, limit)
	}

	args, isSeq := toSlice(operands)
	if !isSeq {
		args = []any{operands}
	}
	if data == nil {
		data = map[string]any{}
	}

	if fn, ok := logicalOps[op]; ok {
		return fn(ev, data, args)
	}
	if fn, ok := scopedOps[op]; ok {
		return fn(ev, data, args)
	}

	values := make([]any, len(args))
	for i, arg := range args {
		v, err := ev.eval(arg, data)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	if fn, ok := dataOps[op]; ok {
		return fn(data, values)
	}
	if custom, ok := ev.engine.registry.Lookup(op); ok {
		return ev.call(custom, values)
	}
	if fn, ok := commonOps[op]; ok {
		return fn(ev, values)
	}
	if fn, ok := tableOps[op]; ok {
		return fn(ev, values)
	}
	if strings.Contains(op, ".") && !strings.HasPrefix(op, ".") {
		target, err := ev.engine.registry.resolveDotted(op, ev.engine.allowReflection)
		if err != nil {
			return nil, err
		}
		return ev.call(target, values)
	}
	return nil, &UnrecognizedOperationError{Name: op}
}

// call invokes a custom value with operands, or returns it when it is not callable.
func (ev *evaluator) call(target any, args []any) (any, error) {
	return callValue(target, args, ev.engine.allowReflection)
}

// splitRule returns the operator and operand value of a single-key mapping.
func splitRule(rule any) (string, any, bool) {
	if m, ok := rule.(map[string]any); ok {
		if len(m) != 1 {
			return "", nil, false
		}
		for k, v := range m {
			return k, v, true
		}
	}
	if !isMapping(rule) {
		return "", nil, false
	}
	rv := reflect.ValueOf(rule)
	if rv.Len() != 1 || rv.Type().Key().Kind() != reflect.String {
		return "", nil, false
	}
	iter := rv.MapRange()
	iter.Next()
	return iter.Key().String(), iter.Value().Interface(), true
}
