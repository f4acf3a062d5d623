package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPositionSide(t *testing.T) {
	long := &Position{Symbol: "AAPL", Quantity: 100}
	assert.Equal(t, PositionSideLong, long.Side())
	assert.Equal(t, 10000.0, long.MarketValue(100))

	short := &Position{Symbol: "TSLA", Quantity: -50}
	assert.Equal(t, PositionSideShort, short.Side())
}

func TestClosedTradeHoldingDays(t *testing.T) {
	entry := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	trade := ClosedTrade{EntryDate: entry, ExitDate: entry.AddDate(0, 0, 3)}
	assert.Equal(t, 3.0, trade.HoldingDays())
}

func TestTotalEquityMarksLongAndShort(t *testing.T) {
	portfolio := NewPortfolio(100000)
	portfolio.Cash = 50000
	portfolio.Positions["AAPL"] = &Position{Symbol: "AAPL", Quantity: 100, EntryPrice: 100}
	portfolio.Positions["TSLA"] = &Position{Symbol: "TSLA", Quantity: -100, EntryPrice: 200}

	closes := map[string]float64{"AAPL": 110, "TSLA": 190}

	// Long: 100 * 110. Short: escrowed 20000 plus 100 * (200 - 190) open PnL.
	assert.InDelta(t, 50000+11000+20000+1000, portfolio.TotalEquity(closes), 1e-9)
}

func TestTotalEquitySkipsUnpricedPositions(t *testing.T) {
	portfolio := NewPortfolio(100000)
	portfolio.Cash = 50000
	portfolio.Positions["AAPL"] = &Position{Symbol: "AAPL", Quantity: 100, EntryPrice: 100}

	assert.InDelta(t, 50000.0, portfolio.TotalEquity(map[string]float64{}), 1e-9)
}

func TestFinalEquity(t *testing.T) {
	portfolio := NewPortfolio(100000)
	assert.Equal(t, 100000.0, portfolio.FinalEquity())

	portfolio.EquityCurve = []EquityPoint{{Equity: 99000}, {Equity: 101000}}
	assert.Equal(t, 101000.0, portfolio.FinalEquity())
}

func TestTypicalPrice(t *testing.T) {
	bar := Bar{High: 12, Low: 8, Close: 10}
	assert.InDelta(t, 10.0, bar.TypicalPrice(), 1e-12)
}
