package indicator

import "github.com/sigmaquant/ruleback/internal/types"

// computeROC calculates the percentage rate of change against the close
// period bars back. Valid from index period; zero when the reference close
// is zero.
func computeROC(desc Descriptor, bars []types.Bar) *Series {
	series := newSeries(desc, len(bars))
	period := desc.Period

	for i := period; i < len(bars); i++ {
		reference := bars[i-period].Close
		if reference == 0 {
			series.setScalar(i, 0)
			continue
		}

		series.setScalar(i, (bars[i].Close-reference)/reference*100)
	}

	return series
}
