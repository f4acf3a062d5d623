package engine

import (
	"github.com/sigmaquant/ruleback/internal/strategy"
	"github.com/sigmaquant/ruleback/internal/types"
)

// OnDateCallback is called after each calendar date is processed. current is
// 1-based; total is the calendar length.
type OnDateCallback func(current int, total int)

// Callbacks holds optional lifecycle hooks for a run. Nil fields are not
// invoked.
type Callbacks struct {
	OnDate OnDateCallback
}

// Result is the outcome of one backtest run: the finished portfolio and the
// strategy that produced it. The portfolio is no longer mutated after Run
// returns.
type Result struct {
	Strategy  *strategy.Strategy
	Portfolio *types.Portfolio
	// Instruments are the universe members the run was driven by, in the
	// deterministic per-date evaluation order (ascending symbol).
	Instruments []types.Instrument
	// RiskFreeRate is the annual rate the engine was configured with, so
	// reports compute Sharpe/Sortino at the rate the run was set up for.
	RiskFreeRate float64
}

// Engine runs rule-based strategies over a universe of instruments.
type Engine interface {
	// Initialize configures the engine from YAML content.
	Initialize(config string) error
	// Run executes one backtest of the strategy over the universe.
	Run(strat *strategy.Strategy, universe []types.Instrument, callbacks Callbacks) (*Result, error)
	// GetConfigSchema returns the JSON schema of the engine configuration.
	GetConfigSchema() (string, error)
}
