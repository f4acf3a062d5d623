package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmaquant/ruleback/pkg/errors"
)

const goldenCrossYAML = `
name: golden-cross
description: Classic 20/50 SMA crossover with an RSI filter.
entry_long: AND(CROSS_ABOVE(SMA(20), SMA(50)), BELOW(RSI(14), 70))
exit_long: CROSS_BELOW(SMA(20), SMA(50))
position_size: 0.25
stop_loss_pct: 5
max_positions: 4
`

func TestLoadFromBytes(t *testing.T) {
	strat, err := LoadFromBytes([]byte(goldenCrossYAML))
	require.NoError(t, err)

	assert.Equal(t, "golden-cross", strat.Name)
	assert.Equal(t, 0.25, strat.PositionSize)
	assert.Equal(t, 5.0, strat.StopLossPct)
	assert.Equal(t, 4, strat.MaxPositions)
	assert.False(t, strat.EntryShort.IsSome())
	assert.Equal(t, "AND(CROSS_ABOVE(SMA(20), SMA(50)), BELOW(RSI(14), 70))", strat.EntryLong.String())
	assert.Len(t, strat.Rules(), 2)
}

func TestCompileShortSide(t *testing.T) {
	strat, err := Definition{
		Name:         "both-sides",
		EntryLong:    "ABOVE(CLOSE, 100)",
		ExitLong:     "BELOW(CLOSE, 100)",
		EntryShort:   "BELOW(RSI(14), 30)",
		ExitShort:    "ABOVE(RSI(14), 50)",
		PositionSize: 0.5,
		MaxPositions: 2,
	}.Compile()
	require.NoError(t, err)

	assert.True(t, strat.EntryShort.IsSome())
	assert.True(t, strat.ExitShort.IsSome())
	assert.Len(t, strat.Rules(), 4)
}

func TestCompileRejectsUnpairedShortRules(t *testing.T) {
	_, err := Definition{
		Name:         "half-short",
		EntryLong:    "ABOVE(CLOSE, 100)",
		ExitLong:     "BELOW(CLOSE, 100)",
		EntryShort:   "BELOW(RSI(14), 30)",
		PositionSize: 0.5,
		MaxPositions: 2,
	}.Compile()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidStrategy))
}

func TestCompileValidation(t *testing.T) {
	valid := Definition{
		Name:         "ok",
		EntryLong:    "ABOVE(CLOSE, 100)",
		ExitLong:     "BELOW(CLOSE, 100)",
		PositionSize: 0.5,
		MaxPositions: 1,
	}

	tests := []struct {
		name   string
		mutate func(*Definition)
	}{
		{"missing name", func(d *Definition) { d.Name = "" }},
		{"missing entry", func(d *Definition) { d.EntryLong = "" }},
		{"zero position size", func(d *Definition) { d.PositionSize = 0 }},
		{"oversized position", func(d *Definition) { d.PositionSize = 1.5 }},
		{"zero max positions", func(d *Definition) { d.MaxPositions = 0 }},
		{"negative stop loss", func(d *Definition) { d.StopLossPct = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			def := valid
			tc.mutate(&def)

			_, err := def.Compile()
			assert.Error(t, err)
		})
	}
}

func TestCompileSurfacesParseErrors(t *testing.T) {
	_, err := Definition{
		Name:         "broken",
		EntryLong:    "ABOVE(CLOSE, 100",
		ExitLong:     "BELOW(CLOSE, 100)",
		PositionSize: 0.5,
		MaxPositions: 1,
	}.Compile()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRuleParse))
	assert.True(t, errors.IsParseError(err))
}

func TestLoadFromBytesRejectsMalformedYAML(t *testing.T) {
	_, err := LoadFromBytes([]byte("name: [unclosed"))
	assert.Error(t, err)
}
