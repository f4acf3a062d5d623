package indicator

import (
	"math"

	"github.com/sigmaquant/ruleback/internal/types"
)

// computeStdDev calculates the population standard deviation of the trailing
// period closes (divide by period, not period-1) with rolling sums. Valid
// from index period-1.
func computeStdDev(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))
	period := desc.Period

	for i := range bars {
		if i >= period-1 {
			series.setScalar(i, windowStdDev(bars, i, period))
		}
	}

	return series
}

// computeBollinger calculates Bollinger bands: middle = SMA(period),
// upper/lower = middle +/- multiplier * population stddev(period). Valid
// from index period-1.
func computeBollinger(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))
	period := desc.Period

	sum := 0.0

	for i, bar := range bars {
		sum += bar.Close
		if i >= period {
			sum -= bars[i-period].Close
		}

		if i < period-1 {
			continue
		}

		middle := sum / float64(period)
		band := desc.Multiplier * windowStdDev(bars, i, period)

		series.setFields(i, map[string]float64{
			FieldMiddle: middle,
			FieldUpper:  middle + band,
			FieldLower:  middle - band,
		})
	}

	return series
}

// windowStdDev computes the population standard deviation of the period
// closes ending at index i. Computing the mean inside the window avoids the
// catastrophic cancellation a rolling sum-of-squares suffers on long runs.
func windowStdDev(bars []types.Bar, i, period int) float64 {
	mean := 0.0
	for j := i - period + 1; j <= i; j++ {
		mean += bars[j].Close
	}

	mean /= float64(period)

	variance := 0.0

	for j := i - period + 1; j <= i; j++ {
		diff := bars[j].Close - mean
		variance += diff * diff
	}

	return math.Sqrt(variance / float64(period))
}
