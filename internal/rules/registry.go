// internal/rules/registry.go
package rules

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/solatis/bamboorules/internal/types"
)

/*
 * Custom operation registry.
 *
 * Holds host-registered values by name. A value is either a callable, which
 * the engine invokes with evaluated operands, or any other value, which is
 * returned directly or traversed by dotted operation names.
 *
 * Dotted names ("ns.sub.fn") start at the registered value for the first
 * segment. Each later segment tries, in order:
 *   1. mapping key (and for non-string-keyed maps nothing else)
 *   2. sequence index
 *   3. member resolution (Object, string members, reflection when enabled)
 *
 * Safe for concurrent use; evaluations take the read lock once per lookup.
 */

// Registry maps custom operation names to values.
type Registry struct {
	mu  sync.RWMutex
	ops map[string]any
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]any)}
}

// Register binds name to value, replacing any previous binding.
func (r *Registry) Register(name string, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops[name] = value
}

// Remove deletes the binding for name.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ops[name]; !ok {
		return fmt.Errorf("%w: %q", types.ErrOperationNotFound, name)
	}
	delete(r.ops, name)
	return nil
}

// Lookup returns the value bound to name.
func (r *Registry) Lookup(name string) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.ops[name]
	return v, ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// resolveDotted walks a dotted operation name through the registry.
func (r *Registry) resolveDotted(name string, allowReflection bool) (any, error) {
	segments := strings.Split(name, ".")
	cur, ok := r.Lookup(segments[0])
	if !ok {
		return nil, &UnrecognizedOperationError{Name: name, FailedAt: segments[0]}
	}
	for i, seg := range segments[1:] {
		next, ok := traverse(cur, seg, allowReflection)
		if !ok {
			return nil, &UnrecognizedOperationError{
				Name:     name,
				FailedAt: strings.Join(segments[:i+2], "."),
				Resolved: strings.Join(segments[:i+1], "."),
			}
		}
		cur = next
	}
	return cur, nil
}

func traverse(v any, seg string, allowReflection bool) (any, bool) {
	if v == nil {
		return nil, false
	}
	if isMapping(v) {
		if out, ok := mapKey(v, seg); ok {
			return out, true
		}
		return mapIntKey(v, seg)
	}
	if xs, ok := toSlice(v); ok {
		idx, err := strconv.Atoi(seg)
		if err != nil {
			return nil, false
		}
		if i, ok := normalizeIndex(idx, len(xs)); ok {
			return xs[i], true
		}
		return nil, false
	}
	m, err := resolveMember(v, seg, allowReflection)
	return m, err == nil
}
