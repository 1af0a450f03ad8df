// Package expr defines the normalized boolean expression tree that the
// meta-index and value-index layers evaluate against. Parsing a query
// string into this tree is out of scope (spec section 1); this package only
// has to give the evaluators something to recurse over.
package expr

import "github.com/vastio/vast-core/internal/value"

// Expr is a boolean expression over record columns: a predicate leaf, or a
// conjunction/disjunction/negation composed from sub-expressions.
type Expr interface {
	isExpr()
}

// Conjunction is the logical AND of its operands.
type Conjunction struct {
	Operands []Expr
}

// Disjunction is the logical OR of its operands.
type Disjunction struct {
	Operands []Expr
}

// Negation is the logical NOT of its single operand.
type Negation struct {
	Operand Expr
}

// Predicate is a leaf comparison "lhs op rhs", where rhs is always a
// constant and lhs names the column(s) to compare via an Extractor.
type Predicate struct {
	LHS Extractor
	Op  value.Op
	RHS value.Value
}

func (Conjunction) isExpr() {}
func (Disjunction) isExpr() {}
func (Negation) isExpr()    {}
func (Predicate) isExpr()   {}

// And builds a Conjunction, flattening a single operand to itself.
func And(operands ...Expr) Expr {
	if len(operands) == 1 {
		return operands[0]
	}
	return Conjunction{Operands: operands}
}

// Or builds a Disjunction, flattening a single operand to itself.
func Or(operands ...Expr) Expr {
	if len(operands) == 1 {
		return operands[0]
	}
	return Disjunction{Operands: operands}
}

// Not builds a Negation.
func Not(operand Expr) Expr { return Negation{Operand: operand} }
