package indicator

import "github.com/sigmaquant/ruleback/internal/types"

// computeStochastic calculates the stochastic oscillator:
// %K = 100 * (close - lowestLow) / (highestHigh - lowestLow) over the
// trailing KPeriod bars (50 on a zero range), %D = simple mean of the
// trailing DPeriod %K values. Valid from index KPeriod-1 + DPeriod-1.
func computeStochastic(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))

	kStart := desc.KPeriod - 1
	dStart := kStart + desc.DPeriod - 1

	if len(bars) <= kStart {
		return series
	}

	kValues := make([]float64, len(bars))

	for i := kStart; i < len(bars); i++ {
		lowest, highest := windowLowHigh(bars, i, desc.KPeriod)

		if highest == lowest {
			kValues[i] = 50
		} else {
			kValues[i] = 100 * (bars[i].Close - lowest) / (highest - lowest)
		}
	}

	for i := dStart; i < len(bars); i++ {
		dSum := 0.0
		for j := i - desc.DPeriod + 1; j <= i; j++ {
			dSum += kValues[j]
		}

		series.setFields(i, map[string]float64{
			FieldK: kValues[i],
			FieldD: dSum / float64(desc.DPeriod),
		})
	}

	return series
}

func windowLowHigh(bars []types.Bar, i, period int) (float64, float64) {
	lowest := bars[i].Low
	highest := bars[i].High

	for j := i - period + 1; j < i; j++ {
		if bars[j].Low < lowest {
			lowest = bars[j].Low
		}

		if bars[j].High > highest {
			highest = bars[j].High
		}
	}

	return lowest, highest
}
