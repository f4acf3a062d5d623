package indicator

import "github.com/sigmaquant/ruleback/internal/types"

// computeOBV calculates cumulative on-balance volume. Bar 0 seeds with its
// own volume; later bars add volume on a higher close, subtract on a lower
// close and leave the total unchanged on an equal close. Always valid.
func computeOBV(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))

	obv := 0.0

	for i, bar := range bars {
		switch {
		case i == 0:
			obv = bar.Volume
		case bar.Close > bars[i-1].Close:
			obv += bar.Volume
		case bar.Close < bars[i-1].Close:
			obv -= bar.Volume
		}

		series.setScalar(i, obv)
	}

	return series
}

// computeVWAP calculates the cumulative typical-price-weighted average from
// the start of the series. Always valid; zero while cumulative volume is
// zero.
func computeVWAP(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))

	var cumPV, cumVolume float64

	for i, bar := range bars {
		cumPV += bar.TypicalPrice() * bar.Volume
		cumVolume += bar.Volume

		if cumVolume == 0 {
			series.setScalar(i, 0)
			continue
		}

		series.setScalar(i, cumPV/cumVolume)
	}

	return series
}
