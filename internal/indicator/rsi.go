package indicator

import "github.com/sigmaquant/ruleback/internal/types"

// computeRSI calculates the Wilder-smoothed relative strength index. The
// first average gain/loss is the simple mean of the first period price
// changes, so the first valid index is period (bar 0 has no change).
func computeRSI(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))
	period := desc.Period

	var avgGain, avgLoss float64

	var sumGain, sumLoss float64

	for i := 1; i < len(bars); i++ {
		change := bars[i].Close - bars[i-1].Close

		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}

		switch {
		case i < period:
			sumGain += gain
			sumLoss += loss

			continue
		case i == period:
			sumGain += gain
			sumLoss += loss
			avgGain = sumGain / float64(period)
			avgLoss = sumLoss / float64(period)
		default:
			avgGain = (avgGain*float64(period-1) + gain) / float64(period)
			avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		}

		series.setScalar(i, rsiValue(avgGain, avgLoss))
	}

	return series
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}

	return 100 - 100/(1+avgGain/avgLoss)
}
