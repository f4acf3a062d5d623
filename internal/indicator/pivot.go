package indicator

import "github.com/sigmaquant/ruleback/internal/types"

// computePivot calculates classic floor-trader pivot levels from the
// previous bar's high/low/close. Bar 0 is invalid.
func computePivot(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))

	for i := 1; i < len(bars); i++ {
		high := bars[i-1].High
		low := bars[i-1].Low
		pivot := (high + low + bars[i-1].Close) / 3

		series.setFields(i, map[string]float64{
			FieldPivot: pivot,
			FieldR1:    2*pivot - low,
			FieldS1:    2*pivot - high,
			FieldR2:    pivot + (high - low),
			FieldS2:    pivot - (high - low),
			FieldR3:    high + 2*(pivot-low),
			FieldS3:    low - 2*(high-pivot),
		})
	}

	return series
}
