package types

import "errors"

// Sentinel errors for rule evaluation and storage.
var (
	// ErrUnrecognizedOperation indicates an operator name matches no group
	// and no resolvable dotted path.
	ErrUnrecognizedOperation = errors.New("unrecognized operation")

	// ErrOperationNotFound indicates removal of a custom operation that was never registered.
	ErrOperationNotFound = errors.New("custom operation not registered")

	// ErrArity indicates a built-in operator received the wrong number of operands.
	ErrArity = errors.New("wrong number of operands")

	// ErrTypeMismatch indicates an operator does not support its operand types.
	ErrTypeMismatch = errors.New("unsupported operand types")

	// ErrDivisionByZero indicates a division or modulo by zero.
	ErrDivisionByZero = errors.New("division by zero")

	// ErrAmbiguousTruth indicates a truth test on a vector or table value.
	ErrAmbiguousTruth = errors.New("truth value of a vector or table is ambiguous")

	// ErrNotInvocable indicates a value was called but is not callable.
	ErrNotInvocable = errors.New("value is not invocable")

	// ErrMemberNotFound indicates a member lookup on a host object failed.
	ErrMemberNotFound = errors.New("member not found")

	// ErrMaxDepth indicates rule nesting exceeded the configured depth limit.
	ErrMaxDepth = errors.New("rule nesting exceeds maximum depth")

	// ErrLabelNotFound indicates a label lookup on a vector or table failed.
	ErrLabelNotFound = errors.New("label not found")

	// ErrShapeMismatch indicates operands of an element-wise operation cannot be broadcast.
	ErrShapeMismatch = errors.New("operand shapes do not match")

	// ErrRuleNotFound indicates a stored rule name does not exist.
	ErrRuleNotFound = errors.New("rule not found")

	// ErrInvalidRuleName indicates a stored rule name fails validation.
	ErrInvalidRuleName = errors.New("invalid rule name")

	// ErrUnsupportedFormat indicates a rule or data document in an unknown encoding.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrRuleTooLarge indicates a stored rule's encoded logic exceeds MaxRuleSize.
	ErrRuleTooLarge = errors.New("rule exceeds maximum size")
)
