package rule

import (
	"math"

	"github.com/sigmaquant/ruleback/internal/indicator"
	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// equalsEpsilon is the tolerance used by EQUALS comparisons.
const equalsEpsilon = 1e-9

// Evaluator evaluates rules at arbitrary historical bar indexes. Indicator
// reads during warmup (or out of range) yield NaN, and every comparison
// against NaN is false, so rules simply do not fire until their indicators
// are valid.
//
// The temporal forms (CONSECUTIVE/ANY_OF) re-evaluate their child at earlier
// indexes, which is why bars and indicator series are dense index-addressed
// arrays rather than streams.
type Evaluator struct {
	bars   []types.Bar
	engine *indicator.Engine
}

// NewEvaluator creates an evaluator over one instrument's bars and its
// indicator engine.
func NewEvaluator(bars []types.Bar, engine *indicator.Engine) *Evaluator {
	return &Evaluator{bars: bars, engine: engine}
}

// Evaluate reports whether the rule holds at the given bar index. The only
// returned errors are indicator computation failures; these are not reached
// when a short-circuiting AND/OR has already decided the result.
func (e *Evaluator) Evaluate(r Rule, index int) (bool, error) {
	switch node := r.(type) {
	case *Comparison:
		return e.evaluateComparison(node, index)
	case *Between:
		value, err := e.operandValue(node.Operand, index)
		if err != nil {
			return false, err
		}

		return value >= node.Lower && value <= node.Upper, nil
	case *And:
		for _, child := range node.Children {
			ok, err := e.Evaluate(child, index)
			if err != nil {
				return false, err
			}

			if !ok {
				return false, nil
			}
		}

		return true, nil
	case *Or:
		for _, child := range node.Children {
			ok, err := e.Evaluate(child, index)
			if err != nil {
				return false, err
			}

			if ok {
				return true, nil
			}
		}

		return false, nil
	case *Not:
		ok, err := e.Evaluate(node.Child, index)
		if err != nil {
			return false, err
		}

		return !ok, nil
	case *Consecutive:
		if index-node.N+1 < 0 {
			return false, nil
		}

		for i := index - node.N + 1; i <= index; i++ {
			ok, err := e.Evaluate(node.Child, i)
			if err != nil {
				return false, err
			}

			if !ok {
				return false, nil
			}
		}

		return true, nil
	case *AnyOf:
		start := index - node.N + 1
		if start < 0 {
			start = 0
		}

		for i := start; i <= index; i++ {
			ok, err := e.Evaluate(node.Child, i)
			if err != nil {
				return false, err
			}

			if ok {
				return true, nil
			}
		}

		return false, nil
	default:
		return false, errors.Newf(errors.ErrCodeInvalidParameter, "unknown rule node %T", r)
	}
}

func (e *Evaluator) evaluateComparison(node *Comparison, index int) (bool, error) {
	left, err := e.operandValue(node.Left, index)
	if err != nil {
		return false, err
	}

	right, err := e.operandValue(node.Right, index)
	if err != nil {
		return false, err
	}

	switch node.Op {
	case CompareAbove:
		return left > right, nil
	case CompareBelow:
		return left < right, nil
	case CompareEquals:
		return math.Abs(left-right) < equalsEpsilon, nil
	case CompareCrossAbove, CompareCrossBelow:
		// A cross needs a prior bar to flip from.
		if index == 0 {
			return false, nil
		}

		prevLeft, err := e.operandValue(node.Left, index-1)
		if err != nil {
			return false, err
		}

		prevRight, err := e.operandValue(node.Right, index-1)
		if err != nil {
			return false, err
		}

		if node.Op == CompareCrossAbove {
			return prevLeft <= prevRight && left > right, nil
		}

		return prevLeft >= prevRight && left < right, nil
	default:
		return false, errors.Newf(errors.ErrCodeInvalidParameter, "unknown comparison %q", node.Op)
	}
}

// operandValue resolves an operand at the given bar index. Out-of-range
// indexes and warmup indicator points yield NaN.
func (e *Evaluator) operandValue(operand Operand, index int) (float64, error) {
	if index < 0 || index >= len(e.bars) {
		return math.NaN(), nil
	}

	switch operand.Kind {
	case OperandOpen:
		return e.bars[index].Open, nil
	case OperandHigh:
		return e.bars[index].High, nil
	case OperandLow:
		return e.bars[index].Low, nil
	case OperandClose:
		return e.bars[index].Close, nil
	case OperandVolume:
		return e.bars[index].Volume, nil
	case OperandConst:
		return operand.Value, nil
	case OperandIndicator:
		series, err := e.engine.Get(operand.Indicator)
		if err != nil {
			return math.NaN(), err
		}

		return series.Field(index, operand.Field), nil
	default:
		return math.NaN(), errors.Newf(errors.ErrCodeInvalidOperand, "unknown operand kind %q", operand.Kind)
	}
}

// RequiredIndicators walks the tree and collects every distinct indicator
// descriptor the rule references, in first-seen order. The backtest loop
// uses this to warm the per-run cache before the calendar starts so no
// computation happens inside the loop.
func RequiredIndicators(r Rule) []indicator.Descriptor {
	seen := make(map[indicator.Descriptor]bool)

	var out []indicator.Descriptor

	visitOperand := func(o Operand) {
		if o.Kind != OperandIndicator || seen[o.Indicator] {
			return
		}

		seen[o.Indicator] = true
		out = append(out, o.Indicator)
	}

	var visit func(r Rule)

	visit = func(r Rule) {
		switch node := r.(type) {
		case *Comparison:
			visitOperand(node.Left)
			visitOperand(node.Right)
		case *Between:
			visitOperand(node.Operand)
		case *And:
			for _, child := range node.Children {
				visit(child)
			}
		case *Or:
			for _, child := range node.Children {
				visit(child)
			}
		case *Not:
			visit(node.Child)
		case *Consecutive:
			visit(node.Child)
		case *AnyOf:
			visit(node.Child)
		}
	}

	visit(r)

	return out
}
