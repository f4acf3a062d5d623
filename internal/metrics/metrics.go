// Package metrics derives performance statistics from a finished portfolio.
// Everything here is computed once, after the backtest loop completes; no
// metric feeds back into the simulation.
package metrics

import (
	"math"

	"github.com/sigmaquant/ruleback/internal/types"
)

// tradingDaysPerYear is the annualization base for returns and ratios.
const tradingDaysPerYear = 252

// TradeStats summarizes closed trades: a win has positive PnL, a loss
// negative, a breakeven exactly zero.
type TradeStats struct {
	Total     int `yaml:"total" json:"total"`
	Wins      int `yaml:"wins" json:"wins"`
	Losses    int `yaml:"losses" json:"losses"`
	Breakeven int `yaml:"breakeven" json:"breakeven"`
	// WinRate is wins / total.
	WinRate float64 `yaml:"win_rate" json:"win_rate"`
	// ProfitFactor is gross wins / gross losses; +Inf when there are wins
	// but no losses.
	ProfitFactor       float64 `yaml:"profit_factor" json:"profit_factor"`
	AverageWin         float64 `yaml:"average_win" json:"average_win"`
	AverageLoss        float64 `yaml:"average_loss" json:"average_loss"`
	LargestWin         float64 `yaml:"largest_win" json:"largest_win"`
	LargestLoss        float64 `yaml:"largest_loss" json:"largest_loss"`
	AverageHoldingDays float64 `yaml:"average_holding_days" json:"average_holding_days"`
}

// PerformanceStats is the full statistics block for one run.
type PerformanceStats struct {
	TotalReturn      float64 `yaml:"total_return" json:"total_return"`
	AnnualizedReturn float64 `yaml:"annualized_return" json:"annualized_return"`
	// MaxDrawdown is the largest peak-to-trough fractional decline of the
	// equity curve; MaxDrawdownDuration is the longest run of calendar
	// steps spent below the running peak.
	MaxDrawdown         float64 `yaml:"max_drawdown" json:"max_drawdown"`
	MaxDrawdownDuration int     `yaml:"max_drawdown_duration" json:"max_drawdown_duration"`
	SharpeRatio         float64 `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	SortinoRatio        float64 `yaml:"sortino_ratio" json:"sortino_ratio"`
	FinalEquity         float64 `yaml:"final_equity" json:"final_equity"`

	Trades TradeStats `yaml:"trades" json:"trades"`
	// ByInstrument applies the trade formulas restricted to each
	// instrument's closed trades. Populated for multi-instrument runs.
	ByInstrument map[string]TradeStats `yaml:"by_instrument,omitempty" json:"by_instrument,omitempty"`
}

// Compute derives the full statistics block from a finished portfolio.
// annualRiskFreeRate is the yearly risk-free rate used by Sharpe/Sortino.
func Compute(portfolio *types.Portfolio, annualRiskFreeRate float64) PerformanceStats {
	stats := PerformanceStats{
		FinalEquity: portfolio.FinalEquity(),
		Trades:      computeTradeStats(portfolio.ClosedTrades),
	}

	if portfolio.InitialCapital > 0 {
		stats.TotalReturn = stats.FinalEquity/portfolio.InitialCapital - 1
	}

	stats.AnnualizedReturn = annualize(stats.TotalReturn, len(portfolio.EquityCurve))
	stats.MaxDrawdown, stats.MaxDrawdownDuration = maxDrawdown(portfolio.EquityCurve)
	stats.SharpeRatio, stats.SortinoRatio = riskRatios(portfolio.EquityCurve, annualRiskFreeRate)

	byInstrument := make(map[string][]types.ClosedTrade)
	for _, trade := range portfolio.ClosedTrades {
		byInstrument[trade.Symbol] = append(byInstrument[trade.Symbol], trade)
	}

	if len(byInstrument) > 1 {
		stats.ByInstrument = make(map[string]TradeStats, len(byInstrument))
		for symbol, trades := range byInstrument {
			stats.ByInstrument[symbol] = computeTradeStats(trades)
		}
	}

	return stats
}

// annualize converts a total return over tradingDays equity points into a
// yearly rate. Fewer than two points yields 0.
func annualize(totalReturn float64, curveLength int) float64 {
	tradingDays := curveLength - 1
	if tradingDays < 1 {
		return 0
	}

	return math.Pow(1+totalReturn, tradingDaysPerYear/float64(tradingDays)) - 1
}

func maxDrawdown(curve []types.EquityPoint) (float64, int) {
	var drawdown float64

	var duration, currentRun int

	peak := math.Inf(-1)

	for _, point := range curve {
		if point.Equity >= peak {
			peak = point.Equity
			currentRun = 0

			continue
		}

		currentRun++
		if currentRun > duration {
			duration = currentRun
		}

		if peak > 0 {
			if dd := (peak - point.Equity) / peak; dd > drawdown {
				drawdown = dd
			}
		}
	}

	return drawdown, duration
}

// riskRatios computes annualized Sharpe and Sortino ratios from the daily
// simple returns of the equity curve. Sortino's denominator is the
// population standard deviation of only the returns below the daily
// risk-free rate. Either ratio is 0 when its denominator is.
func riskRatios(curve []types.EquityPoint, annualRiskFreeRate float64) (float64, float64) {
	returns := dailyReturns(curve)
	if len(returns) == 0 {
		return 0, 0
	}

	dailyRiskFree := annualRiskFreeRate / tradingDaysPerYear

	meanExcess := mean(returns) - dailyRiskFree

	var downside []float64

	for _, r := range returns {
		if r < dailyRiskFree {
			downside = append(downside, r)
		}
	}

	sharpe := 0.0
	if std := populationStdDev(returns); std > 0 {
		sharpe = meanExcess / std * math.Sqrt(tradingDaysPerYear)
	}

	sortino := 0.0
	if std := populationStdDev(downside); std > 0 {
		sortino = meanExcess / std * math.Sqrt(tradingDaysPerYear)
	}

	return sharpe, sortino
}

func dailyReturns(curve []types.EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}

	returns := make([]float64, 0, len(curve)-1)

	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Equity
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}

		returns = append(returns, curve[i].Equity/prev-1)
	}

	return returns
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func populationStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	m := mean(values)

	variance := 0.0

	for _, v := range values {
		diff := v - m
		variance += diff * diff
	}

	return math.Sqrt(variance / float64(len(values)))
}

func computeTradeStats(trades []types.ClosedTrade) TradeStats {
	stats := TradeStats{Total: len(trades)}
	if len(trades) == 0 {
		return stats
	}

	var grossWins, grossLosses, holdingDays float64

	for _, trade := range trades {
		holdingDays += trade.HoldingDays()

		switch {
		case trade.PnL > 0:
			stats.Wins++
			grossWins += trade.PnL

			if trade.PnL > stats.LargestWin {
				stats.LargestWin = trade.PnL
			}
		case trade.PnL < 0:
			stats.Losses++
			grossLosses += -trade.PnL

			if trade.PnL < stats.LargestLoss {
				stats.LargestLoss = trade.PnL
			}
		default:
			stats.Breakeven++
		}
	}

	stats.WinRate = float64(stats.Wins) / float64(stats.Total)
	stats.AverageHoldingDays = holdingDays / float64(stats.Total)

	if stats.Wins > 0 {
		stats.AverageWin = grossWins / float64(stats.Wins)
	}

	if stats.Losses > 0 {
		stats.AverageLoss = -grossLosses / float64(stats.Losses)
	}

	switch {
	case grossLosses > 0:
		stats.ProfitFactor = grossWins / grossLosses
	case grossWins > 0:
		stats.ProfitFactor = math.Inf(1)
	}

	return stats
}

// BuyAndHoldReturn is the equal-weight close-to-close benchmark return over
// the run window: the average of lastClose/firstClose - 1 per instrument.
func BuyAndHoldReturn(universe []types.Instrument) float64 {
	var sum float64

	var counted int

	for _, instrument := range universe {
		if len(instrument.Bars) < 2 {
			continue
		}

		first := instrument.Bars[0].Close
		if first == 0 {
			continue
		}

		sum += instrument.Bars[len(instrument.Bars)-1].Close/first - 1
		counted++
	}

	if counted == 0 {
		return 0
	}

	return sum / float64(counted)
}
