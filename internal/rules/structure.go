package rules

// ElementOp names an element-wise operation a Structure must support.
type ElementOp int

const (
	ElemAdd ElementOp = iota
	ElemSub
	ElemMul
	ElemTrueDiv
	ElemFloorDiv
	ElemMod
	ElemPow
	ElemEq
	ElemLt
	ElemLe
	ElemGt
	ElemGe
)

var elementOpSymbols = [...]string{
	ElemAdd:      "+",
	ElemSub:      "-",
	ElemMul:      "*",
	ElemTrueDiv:  "/",
	ElemFloorDiv: "//",
	ElemMod:      "%",
	ElemPow:      "**",
	ElemEq:       "==",
	ElemLt:       "<",
	ElemLe:       "<=",
	ElemGt:       ">",
	ElemGe:       ">=",
}

func (op ElementOp) String() string {
	if int(op) < len(elementOpSymbols) {
		return elementOpSymbols[op]
	}
	return "?"
}

// IsComparison reports whether op produces a boolean mask.
func (op ElementOp) IsComparison() bool {
	return op >= ElemEq
}

// Structure is a labeled one- or two-dimensional value supplied by the host.
// The engine never looks inside a Structure; it only delegates to it.
type Structure interface {
	// Elementwise applies op between the receiver and other, which is a
	// scalar, a sequence, or another Structure. When reflected is true the
	// receiver is the right-hand operand, so the result is other op receiver.
	// Comparisons are never called reflected; the engine swaps the operator
	// instead (< becomes >).
	Elementwise(op ElementOp, other any, reflected bool) (any, error)

	// Abs returns the element-wise absolute value.
	Abs() (any, error)

	// Min and Max reduce along the first axis.
	Min() (any, error)
	Max() (any, error)

	// Count returns the number of non-null elements along the first axis.
	Count() (any, error)

	// Not returns the element-wise logical negation.
	Not() (any, error)

	// Get looks up a label, a list of labels, or a boolean mask.
	Get(key any) (any, error)
}

// Vector is a labeled one-dimensional Structure.
type Vector interface {
	Structure
	Len() int
}

// Table is a labeled two-dimensional Structure.
type Table interface {
	Structure
	Shape() (rows, cols int)
}

// Querier is implemented by tables that filter rows by an expression string.
type Querier interface {
	Query(expr string) (any, error)
}

// Indexer is implemented by tables that can promote a column to row labels.
type Indexer interface {
	SetIndex(label string) (any, error)
}
