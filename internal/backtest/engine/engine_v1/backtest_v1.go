package engine

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sigmaquant/ruleback/internal/backtest/engine"
	"github.com/sigmaquant/ruleback/internal/indicator"
	"github.com/sigmaquant/ruleback/internal/logger"
	"github.com/sigmaquant/ruleback/internal/rule"
	"github.com/sigmaquant/ruleback/internal/strategy"
	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// calendarLayout keys calendar dates; ISO dates sort chronologically as
// text.
const calendarLayout = "2006-01-02"

// BacktestEngineV1 drives a day-by-day simulation across a universe of
// instruments. The loop is a strict sequential fold over the calendar:
// trigger checks, then rule-driven exits and entries in ascending symbol
// order, then one equity snapshot per date. Identical inputs always produce
// an identical equity curve and trade list.
type BacktestEngineV1 struct {
	config    BacktestConfigV1
	execution ExecutionConfig
	log       *logger.Logger
}

// NewBacktestEngineV1 creates an engine with the default configuration.
func NewBacktestEngineV1() engine.Engine {
	return &BacktestEngineV1{
		config:    DefaultConfig(),
		execution: NewExecutionConfig(DefaultConfig()),
		log:       logger.NewNopLogger(),
	}
}

// Initialize implements engine.Engine. The content may be either the flat
// run config or the sectioned backtest/execution layout.
func (b *BacktestEngineV1) Initialize(config string) error {
	cfg, err := loadConfig(config)
	if err != nil {
		return err
	}

	log, err := logger.NewLogger()
	if err != nil {
		return err
	}

	b.config = cfg
	b.execution = NewExecutionConfig(cfg)
	b.log = log

	b.log.Debug("Backtest engine initialized",
		zap.Float64("initial_capital", cfg.InitialCapital),
		zap.Bool("allow_short", cfg.AllowShort),
	)

	return nil
}

// SetLogger replaces the engine logger.
func (b *BacktestEngineV1) SetLogger(log *logger.Logger) {
	b.log = log
}

// GetConfigSchema implements engine.Engine.
func (b *BacktestEngineV1) GetConfigSchema() (string, error) {
	return b.config.GenerateSchema()
}

// instrumentRun is one instrument's precomputed runtime state: its bars,
// its per-run indicator cache and a date index for O(1) lookup inside the
// loop.
type instrumentRun struct {
	symbol      string
	bars        []types.Bar
	evaluator   *rule.Evaluator
	indexByDate map[string]int
}

// Run implements engine.Engine. The calendar is the sorted union of all
// dates across the universe; an instrument lacking a bar on a date is
// skipped for that date (neither trigger-checked nor marked).
func (b *BacktestEngineV1) Run(strat *strategy.Strategy, universe []types.Instrument,
	callbacks engine.Callbacks) (*engine.Result, error) {
	if strat == nil {
		return nil, errors.New(errors.ErrCodeBacktestNoStrategy, "no strategy loaded")
	}

	if len(universe) == 0 {
		return nil, errors.New(errors.ErrCodeBacktestNoBars, "universe is empty")
	}

	runs, calendar, dates, err := b.prepare(strat, universe)
	if err != nil {
		return nil, err
	}

	portfolio := types.NewPortfolio(b.config.InitialCapital)

	b.log.Info("Backtest run starting",
		zap.String("strategy", strat.Name),
		zap.Int("instruments", len(runs)),
		zap.Int("trading_days", len(calendar)),
	)

	for di, dateKey := range calendar {
		date := dates[dateKey]

		closes := make(map[string]float64)

		for _, run := range runs {
			if idx, ok := run.indexByDate[dateKey]; ok {
				closes[run.symbol] = run.bars[idx].Close
			}
		}

		// Stop-loss/take-profit triggers fire before any rule is consulted.
		trades, err := CheckTriggers(portfolio, b.execution, closes, date)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeBacktestRunFailed, "trigger check failed", err)
		}

		for _, trade := range trades {
			b.log.Debug("Trigger exit",
				zap.String("symbol", trade.Symbol),
				zap.String("reason", trade.ExitReason),
				zap.Float64("pnl", trade.PnL),
			)
		}

		for _, run := range runs {
			idx, ok := run.indexByDate[dateKey]
			if !ok {
				continue
			}

			if err := b.processInstrument(portfolio, strat, run, idx, date); err != nil {
				return nil, err
			}
		}

		portfolio.EquityCurve = append(portfolio.EquityCurve, types.EquityPoint{
			Date:   date,
			Equity: portfolio.TotalEquity(closes),
		})

		if callbacks.OnDate != nil {
			callbacks.OnDate(di+1, len(calendar))
		}
	}

	b.log.Info("Backtest run finished",
		zap.Int("closed_trades", len(portfolio.ClosedTrades)),
		zap.Int("open_positions", portfolio.OpenPositionCount()),
		zap.Float64("final_equity", portfolio.FinalEquity()),
	)

	instruments := make([]types.Instrument, len(runs))
	for i, run := range runs {
		instruments[i] = types.Instrument{Symbol: run.symbol, Bars: run.bars}
	}

	return &engine.Result{
		Strategy:     strat,
		Portfolio:    portfolio,
		Instruments:  instruments,
		RiskFreeRate: b.config.RiskFreeRate,
	}, nil
}

// prepare builds per-instrument runtime state, warms every indicator the
// strategy references and assembles the unified calendar. All computation
// the loop needs happens here; nothing blocks inside the loop itself.
func (b *BacktestEngineV1) prepare(strat *strategy.Strategy,
	universe []types.Instrument) ([]*instrumentRun, []string, map[string]time.Time, error) {
	required := make([]indicator.Descriptor, 0)
	for _, r := range strat.Rules() {
		required = append(required, rule.RequiredIndicators(r)...)
	}

	runs := make([]*instrumentRun, 0, len(universe))
	dates := make(map[string]time.Time)

	for _, instrument := range universe {
		indicators := indicator.NewEngine(instrument.Bars)

		for _, desc := range required {
			if _, err := indicators.Get(desc); err != nil {
				return nil, nil, nil, errors.Wrapf(errors.ErrCodeBacktestRunFailed, err,
					"failed to compute %s for %s", desc, instrument.Symbol)
			}
		}

		indexByDate := make(map[string]int, len(instrument.Bars))

		for i, bar := range instrument.Bars {
			key := bar.Date.Format(calendarLayout)
			indexByDate[key] = i

			if _, ok := dates[key]; !ok {
				dates[key] = bar.Date
			}
		}

		runs = append(runs, &instrumentRun{
			symbol:      instrument.Symbol,
			bars:        instrument.Bars,
			evaluator:   rule.NewEvaluator(instrument.Bars, indicators),
			indexByDate: indexByDate,
		})
	}

	// The per-date evaluation order is ascending symbol; the run is
	// deterministic because nothing else orders instruments.
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].symbol < runs[j].symbol
	})

	calendar := make([]string, 0, len(dates))
	for key := range dates {
		calendar = append(calendar, key)
	}

	sort.Strings(calendar)

	return runs, calendar, dates, nil
}

// processInstrument applies the per-date state machine for one instrument:
// exit if holding and the exit rule fires, then enter if flat, under the
// position cap, and the entry rule fires.
func (b *BacktestEngineV1) processInstrument(portfolio *types.Portfolio, strat *strategy.Strategy,
	run *instrumentRun, idx int, date time.Time) error {
	closePrice := run.bars[idx].Close

	if position := portfolio.GetPosition(run.symbol); position != nil {
		exitRule := strat.ExitLong
		if position.Side() == types.PositionSideShort && strat.ExitShort.IsSome() {
			exitRule = strat.ExitShort.Unwrap()
		}

		fired, err := run.evaluator.Evaluate(exitRule, idx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestRunFailed, err, "exit rule failed for %s", run.symbol)
		}

		if fired {
			trade, err := Exit(portfolio, b.execution, run.symbol, closePrice, date, types.ExitReasonStrategy)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeBacktestRunFailed, err, "exit failed for %s", run.symbol)
			}

			b.log.Debug("Strategy exit",
				zap.String("symbol", trade.Symbol),
				zap.Float64("price", trade.ExitPrice),
				zap.Float64("pnl", trade.PnL),
			)
		}
	}

	if portfolio.GetPosition(run.symbol) != nil || portfolio.OpenPositionCount() >= strat.MaxPositions {
		return nil
	}

	fired, err := run.evaluator.Evaluate(strat.EntryLong, idx)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeBacktestRunFailed, err, "entry rule failed for %s", run.symbol)
	}

	side := types.PositionSideLong

	if !fired && strat.EntryShort.IsSome() && b.execution.AllowShort {
		fired, err = run.evaluator.Evaluate(strat.EntryShort.Unwrap(), idx)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeBacktestRunFailed, err, "short entry rule failed for %s", run.symbol)
		}

		side = types.PositionSideShort
	}

	if !fired {
		return nil
	}

	result := Enter(portfolio, b.execution, strat, run.symbol, closePrice, date, side)
	if result.Entered {
		b.log.Debug("Position opened",
			zap.String("symbol", run.symbol),
			zap.String("side", string(side)),
			zap.Float64("price", closePrice),
		)
	} else {
		b.log.Debug("Entry rejected",
			zap.String("symbol", run.symbol),
			zap.String("reason", result.Reason),
		)
	}

	return nil
}
