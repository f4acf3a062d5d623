package rule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmaquant/ruleback/internal/indicator"
	"github.com/sigmaquant/ruleback/internal/types"
)

func evalBars(closes ...float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, close := range closes {
		bars[i] = types.Bar{
			Symbol: "TEST",
			Date:   base.AddDate(0, 0, i),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 1000,
		}
	}

	return bars
}

func newEvaluator(bars []types.Bar) *Evaluator {
	return NewEvaluator(bars, indicator.NewEngine(bars))
}

func mustEval(t *testing.T, e *Evaluator, text string, index int) bool {
	t.Helper()

	r, err := Parse(text)
	require.NoError(t, err)

	ok, err := e.Evaluate(r, index)
	require.NoError(t, err)

	return ok
}

func TestEvaluateComparisons(t *testing.T) {
	e := newEvaluator(evalBars(90, 110, 105, 95))

	assert.False(t, mustEval(t, e, "ABOVE(CLOSE, 100)", 0))
	assert.True(t, mustEval(t, e, "ABOVE(CLOSE, 100)", 1))
	assert.True(t, mustEval(t, e, "BELOW(CLOSE, 100)", 3))
	assert.False(t, mustEval(t, e, "BELOW(CLOSE, 100)", 2))
	assert.True(t, mustEval(t, e, "EQUALS(CLOSE, 105)", 2))
	assert.False(t, mustEval(t, e, "EQUALS(CLOSE, 105.001)", 2))
	assert.True(t, mustEval(t, e, "BETWEEN(CLOSE, 100, 110)", 2))
	assert.False(t, mustEval(t, e, "BETWEEN(CLOSE, 100, 104)", 2))
}

func TestEvaluateCrossSemantics(t *testing.T) {
	e := newEvaluator(evalBars(90, 110, 105, 95))

	// No prior bar to flip from.
	assert.False(t, mustEval(t, e, "CROSS_ABOVE(CLOSE, 100)", 0))

	assert.True(t, mustEval(t, e, "CROSS_ABOVE(CLOSE, 100)", 1))
	// Still above, no new cross.
	assert.False(t, mustEval(t, e, "CROSS_ABOVE(CLOSE, 100)", 2))
	assert.True(t, mustEval(t, e, "CROSS_BELOW(CLOSE, 100)", 3))
}

func TestCrossAboveFiresFromTouch(t *testing.T) {
	// prev == level counts as "was at or below".
	e := newEvaluator(evalBars(100, 101))

	assert.True(t, mustEval(t, e, "CROSS_ABOVE(CLOSE, 100)", 1))
}

func TestComparisonsAgainstWarmupAreFalse(t *testing.T) {
	e := newEvaluator(evalBars(1, 2, 3, 4, 5))

	// SMA(3) is NaN before index 2; every comparison with NaN is false.
	assert.False(t, mustEval(t, e, "ABOVE(SMA(3), 0)", 1))
	assert.False(t, mustEval(t, e, "BELOW(SMA(3), 100)", 1))
	assert.False(t, mustEval(t, e, "EQUALS(SMA(3), 0)", 1))
	assert.True(t, mustEval(t, e, "NOT(ABOVE(SMA(3), 0))", 1))
	assert.True(t, mustEval(t, e, "ABOVE(SMA(3), 0)", 2))
}

func TestEvaluateBoolean(t *testing.T) {
	e := newEvaluator(evalBars(90, 110))

	assert.True(t, mustEval(t, e, "AND(ABOVE(CLOSE, 100), ABOVE(VOLUME, 0))", 1))
	assert.False(t, mustEval(t, e, "AND(ABOVE(CLOSE, 100), BELOW(VOLUME, 0))", 1))
	assert.True(t, mustEval(t, e, "OR(BELOW(CLOSE, 0), ABOVE(CLOSE, 100))", 1))
	assert.False(t, mustEval(t, e, "OR(BELOW(CLOSE, 0), ABOVE(CLOSE, 200))", 1))
	assert.True(t, mustEval(t, e, "NOT(ABOVE(CLOSE, 200))", 1))
}

func TestEvaluateShortCircuit(t *testing.T) {
	bars := evalBars(90, 110)
	e := newEvaluator(bars)

	// The second child carries an invalid descriptor whose computation would
	// fail; the false first child must keep it from ever being evaluated.
	failing := &Comparison{
		Op:    CompareAbove,
		Left:  Indicator(indicator.Descriptor{Kind: "BOGUS"}),
		Right: Const(0),
	}

	r := &And{Children: []Rule{
		&Comparison{Op: CompareAbove, Left: Price(OperandClose), Right: Const(200)},
		failing,
	}}

	ok, err := e.Evaluate(r, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	// Evaluated directly it does surface the error.
	_, err = e.Evaluate(failing, 1)
	assert.Error(t, err)
}

func TestEvaluateConsecutive(t *testing.T) {
	e := newEvaluator(evalBars(101, 102, 103, 99, 104))

	assert.True(t, mustEval(t, e, "CONSECUTIVE(ABOVE(CLOSE, 100), 3)", 2))
	// Window reaches past the start of the series.
	assert.False(t, mustEval(t, e, "CONSECUTIVE(ABOVE(CLOSE, 100), 3)", 1))
	// Bar 3 breaks the run.
	assert.False(t, mustEval(t, e, "CONSECUTIVE(ABOVE(CLOSE, 100), 3)", 4))
}

func TestEvaluateAnyOf(t *testing.T) {
	e := newEvaluator(evalBars(99, 101, 99, 99, 99))

	assert.True(t, mustEval(t, e, "ANY_OF(ABOVE(CLOSE, 100), 3)", 3))
	assert.False(t, mustEval(t, e, "ANY_OF(ABOVE(CLOSE, 100), 3)", 4))
	// The window clamps to the start instead of failing.
	assert.True(t, mustEval(t, e, "ANY_OF(ABOVE(CLOSE, 100), 10)", 2))
}

func TestRequiredIndicators(t *testing.T) {
	r, err := Parse("AND(CROSS_ABOVE(SMA(20), SMA(50)), ABOVE(RSI(14), 50), BELOW(CLOSE, BOLLINGER(20,2).UPPER), ABOVE(SMA(20), 0))")
	require.NoError(t, err)

	got := RequiredIndicators(r)
	assert.Equal(t, []indicator.Descriptor{
		indicator.SMA(20),
		indicator.SMA(50),
		indicator.RSI(14),
		indicator.Bollinger(20, 2),
	}, got)
}

func TestRequiredIndicatorsNone(t *testing.T) {
	r, err := Parse("ABOVE(CLOSE, 100)")
	require.NoError(t, err)

	assert.Empty(t, RequiredIndicators(r))
}
