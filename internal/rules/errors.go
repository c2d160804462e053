// internal/rules/errors.go
package rules

import (
	"fmt"

	"github.com/solatis/bamboorules/internal/types"
)

// UnrecognizedOperationError reports an operator name that matched no
// operator group and no resolvable dotted path.
type UnrecognizedOperationError struct {
	// Name is the operator name as written in the rule.
	Name string

	// FailedAt is the dotted prefix up to and including the segment that
	// could not be resolved. Empty when Name was never resolved as a path.
	FailedAt string

	// Resolved is the longest prefix that did resolve.
	Resolved string
}

func (e *UnrecognizedOperationError) Error() string {
	if e.FailedAt == "" {
		return fmt.Sprintf("unrecognized operation %q", e.Name)
	}
	return fmt.Sprintf("unrecognized operation %q (failed at %q)", e.Name, e.FailedAt)
}

func (e *UnrecognizedOperationError) Unwrap() error {
	return types.ErrUnrecognizedOperation
}

// checkArity validates the operand count of a built-in operator.
// hi < 0 means no upper bound.
func checkArity(name string, args []any, lo, hi int) error {
	n := len(args)
	if n >= lo && (hi < 0 || n <= hi) {
		return nil
	}
	switch {
	case lo == hi:
		return fmt.Errorf("%w: %q takes %d, got %d", types.ErrArity, name, lo, n)
	case hi < 0:
		return fmt.Errorf("%w: %q takes at least %d, got %d", types.ErrArity, name, lo, n)
	default:
		return fmt.Errorf("%w: %q takes %d to %d, got %d", types.ErrArity, name, lo, hi, n)
	}
}
