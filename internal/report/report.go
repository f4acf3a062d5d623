// Package report serializes a finished backtest run into a YAML document.
package report

import (
	"io"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/sigmaquant/ruleback/internal/backtest/engine"
	"github.com/sigmaquant/ruleback/internal/metrics"
	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/internal/universe"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// StrategyInfo is the strategy metadata echoed into the report. Rules are
// the canonical display forms, so a report round-trips back into a loadable
// strategy definition.
type StrategyInfo struct {
	Name         string `yaml:"name"`
	Description  string `yaml:"description,omitempty"`
	EntryLong    string `yaml:"entry_long"`
	ExitLong     string `yaml:"exit_long"`
	EntryShort   string `yaml:"entry_short,omitempty"`
	ExitShort    string `yaml:"exit_short,omitempty"`
	PositionSize float64 `yaml:"position_size"`
	MaxPositions int     `yaml:"max_positions"`
}

// Report is the full YAML document for one run.
type Report struct {
	RunID       string    `yaml:"run_id"`
	GeneratedAt time.Time `yaml:"generated_at"`

	Strategy StrategyInfo `yaml:"strategy"`

	Stats metrics.PerformanceStats `yaml:"stats"`
	// BuyAndHoldReturn is the equal-weight benchmark over the same window.
	BuyAndHoldReturn float64 `yaml:"buy_and_hold_return"`

	OpenPositions []types.Position    `yaml:"open_positions,omitempty"`
	ClosedTrades  []types.ClosedTrade `yaml:"closed_trades,omitempty"`
	Skips         []universe.Skip     `yaml:"skipped_symbols,omitempty"`
}

// New assembles a report from a run result. riskFreeRate is the annual rate
// used for Sharpe/Sortino.
func New(result *engine.Result, skips []universe.Skip, riskFreeRate float64) *Report {
	strat := result.Strategy

	info := StrategyInfo{
		Name:         strat.Name,
		Description:  strat.Description,
		EntryLong:    strat.EntryLong.String(),
		ExitLong:     strat.ExitLong.String(),
		PositionSize: strat.PositionSize,
		MaxPositions: strat.MaxPositions,
	}

	if strat.EntryShort.IsSome() {
		info.EntryShort = strat.EntryShort.Unwrap().String()
	}

	if strat.ExitShort.IsSome() {
		info.ExitShort = strat.ExitShort.Unwrap().String()
	}

	report := &Report{
		RunID:            uuid.New().String(),
		GeneratedAt:      time.Now().UTC(),
		Strategy:         info,
		Stats:            metrics.Compute(result.Portfolio, riskFreeRate),
		BuyAndHoldReturn: metrics.BuyAndHoldReturn(result.Instruments),
		ClosedTrades:     result.Portfolio.ClosedTrades,
		Skips:            skips,
	}

	for _, symbol := range sortedPositionSymbols(result.Portfolio) {
		report.OpenPositions = append(report.OpenPositions, *result.Portfolio.Positions[symbol])
	}

	return report
}

// Write serializes the report as YAML to w.
func (r *Report) Write(w io.Writer) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)

	if err := encoder.Encode(r); err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailed, "failed to encode report", err)
	}

	return encoder.Close()
}

// WriteFile serializes the report as YAML to path.
func (r *Report) WriteFile(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeStorageFailed, err, "failed to create report file %s", path)
	}
	defer file.Close()

	return r.Write(file)
}

func sortedPositionSymbols(portfolio *types.Portfolio) []string {
	symbols := make([]string, 0, len(portfolio.Positions))
	for symbol := range portfolio.Positions {
		symbols = append(symbols, symbol)
	}

	sort.Strings(symbols)

	return symbols
}
