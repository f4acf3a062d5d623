package indicator

import (
	"math"

	"github.com/sigmaquant/ruleback/internal/types"
)

// computeATR calculates the Wilder-smoothed average true range. The seed is
// the simple mean of the first period true ranges (bar 0's true range is
// high-low, there being no previous close); afterwards
// atr = (atr*(period-1) + tr) / period. Valid from index period-1.
func computeATR(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))
	period := desc.Period

	var atr, sum float64

	for i, bar := range bars {
		tr := trueRange(bar, bars, i)

		switch {
		case i < period-1:
			sum += tr
			continue
		case i == period-1:
			sum += tr
			atr = sum / float64(period)
		default:
			atr = (atr*float64(period-1) + tr) / float64(period)
		}

		series.setScalar(i, atr)
	}

	return series
}

func trueRange(bar types.Bar, bars []types.Bar, i int) float64 {
	if i == 0 {
		return bar.High - bar.Low
	}

	prevClose := bars[i-1].Close

	return math.Max(bar.High-bar.Low,
		math.Max(math.Abs(bar.High-prevClose), math.Abs(bar.Low-prevClose)))
}
