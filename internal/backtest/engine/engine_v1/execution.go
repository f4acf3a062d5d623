package engine

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sigmaquant/ruleback/internal/strategy"
	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// Entry rejection reasons. A rejected entry is a normal, reported outcome
// with no portfolio change, never an error.
const (
	RejectReasonShortingDisabled string = "shorting_disabled"
	RejectReasonAlreadyHolding   string = "already_holding"
	RejectReasonZeroQuantity     string = "zero_quantity"
	RejectReasonInsufficientCash string = "insufficient_cash"
)

// ExecutionConfig holds the fill-cost model for a run.
type ExecutionConfig struct {
	CommissionFlat float64
	CommissionPct  float64
	SlippagePct    float64
	AllowShort     bool
}

// NewExecutionConfig extracts the fill-cost model from a run configuration.
func NewExecutionConfig(cfg BacktestConfigV1) ExecutionConfig {
	return ExecutionConfig{
		CommissionFlat: cfg.CommissionFlat,
		CommissionPct:  cfg.CommissionPct,
		SlippagePct:    cfg.SlippagePct,
		AllowShort:     cfg.AllowShort,
	}
}

// Commission returns flat + value * pct / 100.
func (c ExecutionConfig) Commission(value float64) float64 {
	commission := decimal.NewFromFloat(c.CommissionFlat).
		Add(decimal.NewFromFloat(value).
			Mul(decimal.NewFromFloat(c.CommissionPct)).
			Div(decimal.NewFromInt(100)))

	result, _ := commission.Float64()

	return result
}

// entryFillPrice applies slippage against the trader on entry: longs pay up,
// shorts receive less.
func (c ExecutionConfig) entryFillPrice(price float64, side types.PositionSide) float64 {
	s := c.SlippagePct / 100
	if side == types.PositionSideShort {
		return price * (1 - s)
	}

	return price * (1 + s)
}

// exitFillPrice applies slippage against the trader on exit: longs receive
// less, shorts pay up to cover.
func (c ExecutionConfig) exitFillPrice(price float64, side types.PositionSide) float64 {
	s := c.SlippagePct / 100
	if side == types.PositionSideShort {
		return price * (1 + s)
	}

	return price * (1 - s)
}

// EntryResult reports whether an entry filled and, if not, why it was
// rejected.
type EntryResult struct {
	Entered bool
	Reason  string
}

// Enter attempts to open a position in symbol at the given market price.
// Sizing is quantity = floor(cash * position_size / fill_price); a zero
// quantity or a total cost above available cash rejects the entry with no
// state change. Stop-loss and take-profit trigger prices are computed once
// here from the fill price.
func Enter(portfolio *types.Portfolio, cfg ExecutionConfig, strat *strategy.Strategy,
	symbol string, price float64, date time.Time, side types.PositionSide) EntryResult {
	if portfolio.GetPosition(symbol) != nil {
		return EntryResult{Entered: false, Reason: RejectReasonAlreadyHolding}
	}

	if side == types.PositionSideShort && !cfg.AllowShort {
		return EntryResult{Entered: false, Reason: RejectReasonShortingDisabled}
	}

	fillPrice := cfg.entryFillPrice(price, side)

	quantity := decimal.NewFromFloat(portfolio.Cash).
		Mul(decimal.NewFromFloat(strat.PositionSize)).
		Div(decimal.NewFromFloat(fillPrice)).
		Floor()
	if quantity.IsZero() {
		return EntryResult{Entered: false, Reason: RejectReasonZeroQuantity}
	}

	cost, _ := quantity.Mul(decimal.NewFromFloat(fillPrice)).Float64()
	commission := cfg.Commission(cost)

	if cost+commission > portfolio.Cash {
		return EntryResult{Entered: false, Reason: RejectReasonInsufficientCash}
	}

	portfolio.Cash -= cost + commission

	shares, _ := quantity.Float64()
	if side == types.PositionSideShort {
		shares = -shares
	}

	stopLoss, takeProfit := triggerPrices(fillPrice, side, strat.StopLossPct, strat.TakeProfitPct)

	portfolio.Positions[symbol] = &types.Position{
		Symbol:          symbol,
		Quantity:        shares,
		EntryPrice:      fillPrice,
		EntryDate:       date,
		EntryCommission: commission,
		StopLossPrice:   stopLoss,
		TakeProfitPrice: takeProfit,
	}

	return EntryResult{Entered: true}
}

// triggerPrices derives stop-loss/take-profit trigger prices from the entry
// fill price. A zero percentage disables the trigger (price 0).
func triggerPrices(fillPrice float64, side types.PositionSide, stopLossPct, takeProfitPct float64) (float64, float64) {
	var stopLoss, takeProfit float64

	if stopLossPct > 0 {
		if side == types.PositionSideShort {
			stopLoss = fillPrice * (1 + stopLossPct/100)
		} else {
			stopLoss = fillPrice * (1 - stopLossPct/100)
		}
	}

	if takeProfitPct > 0 {
		if side == types.PositionSideShort {
			takeProfit = fillPrice * (1 - takeProfitPct/100)
		} else {
			takeProfit = fillPrice * (1 + takeProfitPct/100)
		}
	}

	return stopLoss, takeProfit
}

// Exit closes the open position in symbol at the given market price,
// realizes PnL net of both legs' commissions and appends a ClosedTrade.
func Exit(portfolio *types.Portfolio, cfg ExecutionConfig,
	symbol string, price float64, date time.Time, reason string) (types.ClosedTrade, error) {
	position := portfolio.GetPosition(symbol)
	if position == nil {
		return types.ClosedTrade{}, errors.Newf(errors.ErrCodePositionNotFound, "no open position in %s", symbol)
	}

	side := position.Side()
	fillPrice := cfg.exitFillPrice(price, side)

	sharesDec := decimal.NewFromFloat(position.Quantity).Abs()
	value, _ := sharesDec.Mul(decimal.NewFromFloat(fillPrice)).Float64()
	commission := cfg.Commission(value)

	pnlDec := decimal.NewFromFloat(position.Quantity).
		Mul(decimal.NewFromFloat(fillPrice).Sub(decimal.NewFromFloat(position.EntryPrice))).
		Sub(decimal.NewFromFloat(position.EntryCommission)).
		Sub(decimal.NewFromFloat(commission))
	pnl, _ := pnlDec.Float64()

	if side == types.PositionSideLong {
		portfolio.Cash += value - commission
	} else {
		// Return the escrowed notional, adjusted by the price difference
		// against the buy-to-cover cost.
		shares, _ := sharesDec.Float64()
		portfolio.Cash += shares*position.EntryPrice + shares*(position.EntryPrice-fillPrice) - commission
	}

	delete(portfolio.Positions, symbol)

	trade := types.ClosedTrade{
		ID:         uuid.New().String(),
		Symbol:     symbol,
		Quantity:   position.Quantity,
		EntryPrice: position.EntryPrice,
		EntryDate:  position.EntryDate,
		ExitPrice:  fillPrice,
		ExitDate:   date,
		PnL:        pnl,
		ExitReason: reason,
	}
	portfolio.ClosedTrades = append(portfolio.ClosedTrades, trade)

	return trade, nil
}

type triggeredPosition struct {
	symbol string
	price  float64
	reason string
}

// CheckTriggers exits every open position whose current price has breached
// its stop-loss or take-profit. It runs in two passes: first collect the
// breached positions, then exit them in ascending symbol order. This never
// mutates the position map while iterating it and keeps the exit order
// independent of map iteration order.
func CheckTriggers(portfolio *types.Portfolio, cfg ExecutionConfig,
	closes map[string]float64, date time.Time) ([]types.ClosedTrade, error) {
	var triggered []triggeredPosition

	for symbol, position := range portfolio.Positions {
		price, ok := closes[symbol]
		if !ok {
			continue
		}

		if reason, hit := breachedTrigger(position, price); hit {
			triggered = append(triggered, triggeredPosition{symbol: symbol, price: price, reason: reason})
		}
	}

	sort.Slice(triggered, func(i, j int) bool {
		return triggered[i].symbol < triggered[j].symbol
	})

	var trades []types.ClosedTrade

	for _, hit := range triggered {
		trade, err := Exit(portfolio, cfg, hit.symbol, hit.price, date, hit.reason)
		if err != nil {
			return trades, err
		}

		trades = append(trades, trade)
	}

	return trades, nil
}

// breachedTrigger reports whether the current price breached the position's
// stop or target. The stop takes precedence when both are breached.
func breachedTrigger(position *types.Position, price float64) (string, bool) {
	if position.Side() == types.PositionSideLong {
		if position.StopLossPrice > 0 && price <= position.StopLossPrice {
			return types.ExitReasonStopLoss, true
		}

		if position.TakeProfitPrice > 0 && price >= position.TakeProfitPrice {
			return types.ExitReasonTakeProfit, true
		}

		return "", false
	}

	if position.StopLossPrice > 0 && price >= position.StopLossPrice {
		return types.ExitReasonStopLoss, true
	}

	if position.TakeProfitPrice > 0 && price <= position.TakeProfitPrice {
		return types.ExitReasonTakeProfit, true
	}

	return "", false
}
