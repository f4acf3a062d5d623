package indicator

import "github.com/sigmaquant/ruleback/internal/types"

// computeMACD calculates line = EMA(fast) - EMA(slow), a signal line that is
// an EMA(signal) of the line seeded by the simple mean of the line's first
// signal values, and histogram = line - signal. Valid from index
// slow-1 + signal-1.
func computeMACD(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))

	fastSeries := computeEMA(EMA(desc.Fast), bars)
	slowSeries := computeEMA(EMA(desc.Slow), bars)

	// The line is defined once the slow EMA is, at index slow-1.
	lineStart := desc.Slow - 1
	signalStart := lineStart + desc.Signal - 1

	k := 2.0 / float64(desc.Signal+1)

	var signal, seedSum float64

	for i := lineStart; i < len(bars); i++ {
		line := fastSeries.Points[i].Value - slowSeries.Points[i].Value

		switch {
		case i < signalStart:
			seedSum += line
			continue
		case i == signalStart:
			seedSum += line
			signal = seedSum / float64(desc.Signal)
		default:
			signal = line*k + signal*(1-k)
		}

		series.setFields(i, map[string]float64{
			FieldLine:      line,
			FieldSignal:    signal,
			FieldHistogram: line - signal,
		})
	}

	return series
}
