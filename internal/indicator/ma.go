package indicator

import "github.com/sigmaquant/ruleback/internal/types"

// computeSMA calculates the simple moving average of closes with a rolling
// sum. Valid from index period-1.
func computeSMA(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))
	period := desc.Period

	sum := 0.0

	for i, bar := range bars {
		sum += bar.Close
		if i >= period {
			sum -= bars[i-period].Close
		}

		if i >= period-1 {
			series.setScalar(i, sum/float64(period))
		}
	}

	return series
}

// computeEMA calculates the exponential moving average seeded by SMA(period)
// at index period-1, then v[i] = close[i]*k + v[i-1]*(1-k) with
// k = 2/(period+1).
func computeEMA(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))
	period := desc.Period
	k := 2.0 / float64(period+1)

	sum := 0.0
	prev := 0.0

	for i, bar := range bars {
		if i < period-1 {
			sum += bar.Close
			continue
		}

		if i == period-1 {
			sum += bar.Close
			prev = sum / float64(period)
		} else {
			prev = bar.Close*k + prev*(1-k)
		}

		series.setScalar(i, prev)
	}

	return series
}

// computeWMA calculates the linearly weighted moving average with weights
// 1..period favoring the most recent bar and divisor period*(period+1)/2.
// The weighted numerator is maintained incrementally:
//
//	numerator[i] = numerator[i-1] + period*close[i] - windowSum[i-1]
func computeWMA(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))
	period := desc.Period
	divisor := float64(period*(period+1)) / 2

	windowSum := 0.0
	numerator := 0.0

	for i, bar := range bars {
		if i < period {
			// Build the first window directly.
			windowSum += bar.Close
			numerator += float64(i+1) * bar.Close
		} else {
			numerator += float64(period)*bar.Close - windowSum
			windowSum += bar.Close - bars[i-period].Close
		}

		if i >= period-1 {
			series.setScalar(i, numerator/divisor)
		}
	}

	return series
}
