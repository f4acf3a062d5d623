// Package rule implements the textual rule language used for strategy entry
// and exit conditions: an AST of comparison, boolean and temporal nodes over
// price and indicator operands, a recursive-descent parser with
// position-addressable errors, a canonical display form and an
// index-addressed evaluator.
//
// The display form is the portable serialization of a rule tree:
// Parse(rule.String()) reproduces an equal tree for every constructible rule.
package rule

import (
	"github.com/sigmaquant/ruleback/internal/indicator"
)

type OperandKind string

const (
	OperandOpen      OperandKind = "OPEN"
	OperandHigh      OperandKind = "HIGH"
	OperandLow       OperandKind = "LOW"
	OperandClose     OperandKind = "CLOSE"
	OperandVolume    OperandKind = "VOLUME"
	OperandConst     OperandKind = "CONST"
	OperandIndicator OperandKind = "INDICATOR"
)

// Operand is a tagged variant over bar fields, numeric constants and
// indicator-field references.
type Operand struct {
	Kind OperandKind
	// Value is set for OperandConst.
	Value float64
	// Indicator and Field are set for OperandIndicator. Field names which
	// field of the indicator's value record to read.
	Indicator indicator.Descriptor
	Field     string
}

// Const builds a numeric constant operand.
func Const(value float64) Operand {
	return Operand{Kind: OperandConst, Value: value}
}

// Price builds a bar-field operand (OPEN/HIGH/LOW/CLOSE/VOLUME).
func Price(kind OperandKind) Operand {
	return Operand{Kind: kind}
}

// Indicator builds an operand reading the descriptor's default field.
func Indicator(desc indicator.Descriptor) Operand {
	return Operand{Kind: OperandIndicator, Indicator: desc, Field: desc.DefaultField()}
}

// IndicatorField builds an operand reading a named field of the descriptor.
func IndicatorField(desc indicator.Descriptor, field string) Operand {
	return Operand{Kind: OperandIndicator, Indicator: desc, Field: field}
}

type CompareOp string

const (
	CompareCrossAbove CompareOp = "CROSS_ABOVE"
	CompareCrossBelow CompareOp = "CROSS_BELOW"
	CompareAbove      CompareOp = "ABOVE"
	CompareBelow      CompareOp = "BELOW"
	CompareEquals     CompareOp = "EQUALS"
)

// Rule is the recursive tagged variant of the rule language. It looks cyclic
// but is always a tree: every child is owned by exactly one parent.
type Rule interface {
	// String renders the canonical serialization of the rule.
	String() string

	isRule()
}

// Comparison compares two operands at the evaluation index (or across the
// previous index for the cross forms).
type Comparison struct {
	Op    CompareOp
	Left  Operand
	Right Operand
}

// Between holds iff the operand lies in [Lower, Upper] at the evaluation
// index.
type Between struct {
	Operand Operand
	Lower   float64
	Upper   float64
}

// And holds iff every child holds. Requires at least two children.
type And struct {
	Children []Rule
}

// Or holds iff at least one child holds. Requires at least two children.
type Or struct {
	Children []Rule
}

// Not inverts its single child.
type Not struct {
	Child Rule
}

// Consecutive holds iff the child holds for every one of the last N bars
// ending at the evaluation index. False when fewer than N bars are
// available.
type Consecutive struct {
	Child Rule
	N     int
}

// AnyOf holds iff the child holds at least once in the last N bars ending at
// the evaluation index (clamped to the start of the series).
type AnyOf struct {
	Child Rule
	N     int
}

func (*Comparison) isRule()  {}
func (*Between) isRule()     {}
func (*And) isRule()         {}
func (*Or) isRule()          {}
func (*Not) isRule()         {}
func (*Consecutive) isRule() {}
func (*AnyOf) isRule()       {}
