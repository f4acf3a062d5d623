package types

import "time"

type PositionSide string

const (
	PositionSideLong  PositionSide = "LONG"
	PositionSideShort PositionSide = "SHORT"
)

// Exit reasons recorded on closed trades.
const (
	ExitReasonStrategy   string = "strategy"
	ExitReasonStopLoss   string = "stop_loss"
	ExitReasonTakeProfit string = "take_profit"
)

// Position represents an open holding of a single instrument. Quantity is
// signed: positive for long, negative for short. A Position is owned
// exclusively by the Portfolio; it is created on entry and removed on exit.
type Position struct {
	Symbol string `yaml:"symbol" json:"symbol" csv:"symbol"`
	// Quantity is the signed share count (positive=long, negative=short).
	Quantity   float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	EntryDate  time.Time `yaml:"entry_date" json:"entry_date" csv:"entry_date"`
	// EntryCommission is carried until exit so realized PnL can be net of
	// both legs' commissions.
	EntryCommission float64 `yaml:"entry_commission" json:"entry_commission" csv:"entry_commission"`
	// StopLossPrice and TakeProfitPrice are computed once at entry from the
	// execution price and the strategy's percentages. Zero means disabled.
	StopLossPrice   float64 `yaml:"stop_loss_price" json:"stop_loss_price" csv:"stop_loss_price"`
	TakeProfitPrice float64 `yaml:"take_profit_price" json:"take_profit_price" csv:"take_profit_price"`
}

// Side returns the position side derived from the quantity sign.
func (p *Position) Side() PositionSide {
	if p.Quantity < 0 {
		return PositionSideShort
	}

	return PositionSideLong
}

// MarketValue returns the signed mark-to-market value of the position at the
// given price.
func (p *Position) MarketValue(price float64) float64 {
	return p.Quantity * price
}

// ClosedTrade is the immutable record written once a position is closed.
type ClosedTrade struct {
	ID         string    `yaml:"id" json:"id" csv:"id"`
	Symbol     string    `yaml:"symbol" json:"symbol" csv:"symbol"`
	Quantity   float64   `yaml:"quantity" json:"quantity" csv:"quantity"`
	EntryPrice float64   `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	EntryDate  time.Time `yaml:"entry_date" json:"entry_date" csv:"entry_date"`
	ExitPrice  float64   `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	ExitDate   time.Time `yaml:"exit_date" json:"exit_date" csv:"exit_date"`
	// PnL is realized profit/loss net of entry and exit commissions.
	PnL        float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	ExitReason string  `yaml:"exit_reason" json:"exit_reason" csv:"exit_reason"`
}

// Side returns the trade side derived from the quantity sign.
func (t ClosedTrade) Side() PositionSide {
	if t.Quantity < 0 {
		return PositionSideShort
	}

	return PositionSideLong
}

// HoldingDays returns the holding duration in calendar days.
func (t ClosedTrade) HoldingDays() float64 {
	return t.ExitDate.Sub(t.EntryDate).Hours() / 24
}

// EquityPoint is one date's mark-to-market total equity.
type EquityPoint struct {
	Date   time.Time `yaml:"date" json:"date" csv:"date"`
	Equity float64   `yaml:"equity" json:"equity" csv:"equity"`
}

// Portfolio holds the cash balance and open positions of one backtest run.
// It is owned exclusively by the backtest loop for the run's duration and is
// never shared or mutated concurrently.
type Portfolio struct {
	Cash           float64
	InitialCapital float64
	// Positions maps symbol to at most one open position.
	Positions map[string]*Position
	// ClosedTrades is append-only.
	ClosedTrades []ClosedTrade
	// EquityCurve is append-only with strictly increasing dates.
	EquityCurve []EquityPoint
}

// NewPortfolio creates an empty portfolio with the given starting capital.
func NewPortfolio(initialCapital float64) *Portfolio {
	return &Portfolio{
		Cash:           initialCapital,
		InitialCapital: initialCapital,
		Positions:      make(map[string]*Position),
		ClosedTrades:   nil,
		EquityCurve:    nil,
	}
}

// OpenPositionCount returns the number of currently open positions.
func (p *Portfolio) OpenPositionCount() int {
	return len(p.Positions)
}

// GetPosition returns the open position for symbol, or nil if flat.
func (p *Portfolio) GetPosition(symbol string) *Position {
	return p.Positions[symbol]
}

// TotalEquity returns cash plus the mark-to-market value of every open
// position that has a price in closes. Positions without a price on the
// given date are skipped, not marked with a stale price.
func (p *Portfolio) TotalEquity(closes map[string]float64) float64 {
	equity := p.Cash

	for symbol, position := range p.Positions {
		price, ok := closes[symbol]
		if !ok {
			continue
		}

		if position.Quantity > 0 {
			equity += position.MarketValue(price)
		} else {
			// Short entry moved the notional out of cash as escrow; the
			// position is worth that escrow plus the open PnL against the
			// entry price.
			shares := -position.Quantity
			equity += shares*position.EntryPrice + shares*(position.EntryPrice-price)
		}
	}

	return equity
}

// FinalEquity returns the last equity curve value, or the initial capital if
// the curve is empty.
func (p *Portfolio) FinalEquity() float64 {
	if len(p.EquityCurve) == 0 {
		return p.InitialCapital
	}

	return p.EquityCurve[len(p.EquityCurve)-1].Equity
}
