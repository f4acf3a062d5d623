package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/sigmaquant/ruleback/internal/types"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

// barsFromCloses builds one bar per close with high = close+1, low = close-1
// and volume 1000, dated on consecutive days.
func barsFromCloses(closes ...float64) []types.Bar {
	bars := make([]types.Bar, len(closes))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, close := range closes {
		bars[i] = types.Bar{
			Symbol: "TEST",
			Date:   base.AddDate(0, 0, i),
			Open:   close,
			High:   close + 1,
			Low:    close - 1,
			Close:  close,
			Volume: 1000,
		}
	}

	return bars
}

func (suite *IndicatorTestSuite) get(bars []types.Bar, desc Descriptor) *Series {
	engine := NewEngine(bars)

	series, err := engine.Get(desc)
	suite.Require().NoError(err)
	suite.Require().Equal(len(bars), series.Len())

	return series
}

func (suite *IndicatorTestSuite) TestSMA() {
	series := suite.get(barsFromCloses(1, 2, 3, 4, 5), SMA(3))

	suite.False(series.Valid(0))
	suite.False(series.Valid(1))
	suite.True(series.Valid(2))
	suite.InDelta(2.0, series.Field(2, FieldValue), 1e-12)
	suite.InDelta(3.0, series.Field(3, FieldValue), 1e-12)
	suite.InDelta(4.0, series.Field(4, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestEMA() {
	series := suite.get(barsFromCloses(1, 2, 3, 4, 5), EMA(3))

	suite.False(series.Valid(1))
	// Seeded by SMA(3) at index 2, then k = 0.5.
	suite.InDelta(2.0, series.Field(2, FieldValue), 1e-12)
	suite.InDelta(3.0, series.Field(3, FieldValue), 1e-12)
	suite.InDelta(4.0, series.Field(4, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestWMA() {
	series := suite.get(barsFromCloses(1, 2, 3, 4, 5), WMA(3))

	suite.False(series.Valid(1))
	suite.InDelta(14.0/6.0, series.Field(2, FieldValue), 1e-12)
	suite.InDelta(20.0/6.0, series.Field(3, FieldValue), 1e-12)
	suite.InDelta(26.0/6.0, series.Field(4, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestRSIWilderSmoothing() {
	series := suite.get(barsFromCloses(10, 11, 10.5, 11.5), RSI(2))

	suite.False(series.Valid(1))
	suite.True(series.Valid(2))
	// First average is the simple mean of the first two changes (+1, -0.5).
	suite.InDelta(100-100.0/3.0, series.Field(2, FieldValue), 1e-9)
	// Then Wilder: avgGain = (0.5*1+1)/2, avgLoss = (0.25*1+0)/2.
	suite.InDelta(100-100.0/7.0, series.Field(3, FieldValue), 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIBounds() {
	rising := suite.get(barsFromCloses(1, 2, 3, 4, 5, 6), RSI(3))
	suite.InDelta(100.0, rising.Field(5, FieldValue), 1e-12)

	falling := suite.get(barsFromCloses(6, 5, 4, 3, 2, 1), RSI(3))
	suite.InDelta(0.0, falling.Field(5, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestROC() {
	series := suite.get(barsFromCloses(10, 11, 12), ROC(2))

	suite.False(series.Valid(1))
	suite.InDelta(20.0, series.Field(2, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestATRConstantRange() {
	series := suite.get(barsFromCloses(10, 10, 10, 10), ATR(2))

	suite.False(series.Valid(0))
	// Every true range is 2, so the Wilder average stays 2.
	suite.InDelta(2.0, series.Field(1, FieldValue), 1e-12)
	suite.InDelta(2.0, series.Field(3, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestStdDevPopulation() {
	series := suite.get(barsFromCloses(1, 2, 3, 4, 5), StdDev(3))

	suite.False(series.Valid(1))
	suite.InDelta(math.Sqrt(2.0/3.0), series.Field(2, FieldValue), 1e-12)

	constant := suite.get(barsFromCloses(7, 7, 7), StdDev(3))
	suite.InDelta(0.0, constant.Field(2, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestBollinger() {
	series := suite.get(barsFromCloses(1, 2, 3, 4, 5), Bollinger(3, 2))

	suite.False(series.Valid(1))

	band := 2 * math.Sqrt(2.0/3.0)
	suite.InDelta(2.0, series.Field(2, FieldMiddle), 1e-12)
	suite.InDelta(2.0+band, series.Field(2, FieldUpper), 1e-12)
	suite.InDelta(2.0-band, series.Field(2, FieldLower), 1e-12)

	// Constant prices collapse the bands onto the middle.
	flat := suite.get(barsFromCloses(10, 10, 10), Bollinger(3, 2))
	suite.InDelta(10.0, flat.Field(2, FieldUpper), 1e-12)
	suite.InDelta(10.0, flat.Field(2, FieldLower), 1e-12)
}

func (suite *IndicatorTestSuite) TestOBV() {
	bars := barsFromCloses(10, 11, 11, 9)
	for i, volume := range []float64{100, 200, 300, 400} {
		bars[i].Volume = volume
	}

	series := suite.get(bars, OBV())

	suite.True(series.Valid(0))
	suite.InDelta(100.0, series.Field(0, FieldValue), 1e-12)
	suite.InDelta(300.0, series.Field(1, FieldValue), 1e-12)
	suite.InDelta(300.0, series.Field(2, FieldValue), 1e-12)
	suite.InDelta(-100.0, series.Field(3, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestVWAP() {
	bars := barsFromCloses(10, 20)
	for i := range bars {
		// Collapse high/low onto the close so the typical price is the close.
		bars[i].High = bars[i].Close
		bars[i].Low = bars[i].Close
		bars[i].Volume = 1
	}

	series := suite.get(bars, VWAP())

	suite.InDelta(10.0, series.Field(0, FieldValue), 1e-12)
	suite.InDelta(15.0, series.Field(1, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestVWAPZeroVolume() {
	bars := barsFromCloses(10, 20)
	for i := range bars {
		bars[i].Volume = 0
	}

	series := suite.get(bars, VWAP())

	suite.InDelta(0.0, series.Field(1, FieldValue), 1e-12)
}

func (suite *IndicatorTestSuite) TestMACD() {
	series := suite.get(barsFromCloses(1, 2, 3, 4, 5), MACD(2, 3, 2))

	// Valid from slow-1 + signal-1 = 3.
	suite.False(series.Valid(2))
	suite.True(series.Valid(3))

	// On a linear ramp EMA(2) leads EMA(3) by a constant 0.5.
	suite.InDelta(0.5, series.Field(3, FieldLine), 1e-12)
	suite.InDelta(0.5, series.Field(3, FieldSignal), 1e-12)
	suite.InDelta(0.0, series.Field(3, FieldHistogram), 1e-12)
	suite.InDelta(series.Field(4, FieldLine)-series.Field(4, FieldSignal),
		series.Field(4, FieldHistogram), 1e-12)
}

func (suite *IndicatorTestSuite) TestStochastic() {
	series := suite.get(barsFromCloses(1, 2, 3, 4, 5), Stochastic(2, 2))

	// Valid from KPeriod-1 + DPeriod-1 = 2.
	suite.False(series.Valid(1))
	suite.True(series.Valid(2))

	// Window lows/highs over bars 1..2: low 1, high 4, close 3.
	suite.InDelta(100*2.0/3.0, series.Field(2, FieldK), 1e-9)
	suite.InDelta(100*2.0/3.0, series.Field(2, FieldD), 1e-9)
}

func (suite *IndicatorTestSuite) TestStochasticFlatRange() {
	bars := barsFromCloses(10, 10, 10)
	for i := range bars {
		bars[i].High = 10
		bars[i].Low = 10
	}

	series := suite.get(bars, Stochastic(2, 2))
	suite.InDelta(50.0, series.Field(2, FieldK), 1e-12)
}

func (suite *IndicatorTestSuite) TestPivot() {
	bars := barsFromCloses(2, 2)
	bars[0].High = 3
	bars[0].Low = 1

	series := suite.get(bars, Pivot())

	suite.False(series.Valid(0))
	suite.InDelta(2.0, series.Field(1, FieldPivot), 1e-12)
	suite.InDelta(3.0, series.Field(1, FieldR1), 1e-12)
	suite.InDelta(1.0, series.Field(1, FieldS1), 1e-12)
	suite.InDelta(4.0, series.Field(1, FieldR2), 1e-12)
	suite.InDelta(0.0, series.Field(1, FieldS2), 1e-12)
	suite.InDelta(5.0, series.Field(1, FieldR3), 1e-12)
	suite.InDelta(-1.0, series.Field(1, FieldS3), 1e-12)
}

func (suite *IndicatorTestSuite) TestWarmupReadsAreNaN() {
	series := suite.get(barsFromCloses(1, 2, 3, 4, 5), SMA(3))

	suite.True(math.IsNaN(series.Field(0, FieldValue)))
	suite.True(math.IsNaN(series.Field(-1, FieldValue)))
	suite.True(math.IsNaN(series.Field(99, FieldValue)))
	suite.True(math.IsNaN(series.Field(2, "no_such_field")))
}

func (suite *IndicatorTestSuite) TestEngineCachesSeries() {
	engine := NewEngine(barsFromCloses(1, 2, 3))

	first, err := engine.Get(SMA(2))
	suite.Require().NoError(err)

	second, err := engine.Get(SMA(2))
	suite.Require().NoError(err)

	suite.Same(first, second)
}

func (suite *IndicatorTestSuite) TestInvalidDescriptors() {
	engine := NewEngine(barsFromCloses(1, 2, 3))

	_, err := engine.Get(SMA(0))
	suite.Error(err)

	_, err = engine.Get(MACD(26, 12, 9))
	suite.Error(err)

	_, err = engine.Get(Bollinger(20, -1))
	suite.Error(err)
}

func (suite *IndicatorTestSuite) TestDescriptorString() {
	suite.Equal("SMA(20)", SMA(20).String())
	suite.Equal("MACD(12,26,9)", MACD(12, 26, 9).String())
	suite.Equal("STOCHASTIC(14,3)", Stochastic(14, 3).String())
	suite.Equal("BOLLINGER(20,2)", Bollinger(20, 2).String())
	suite.Equal("BOLLINGER(20,2.5)", Bollinger(20, 2.5).String())
	suite.Equal("OBV()", OBV().String())
}
