// Command ruleback runs rule-based strategy backtests over stored daily
// bars, ingests CSV data into a bar store and prints the engine config
// schema.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/moznion/go-optional"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"

	"github.com/sigmaquant/ruleback/internal/backtest/engine"
	enginev1 "github.com/sigmaquant/ruleback/internal/backtest/engine/engine_v1"
	"github.com/sigmaquant/ruleback/internal/datasource"
	"github.com/sigmaquant/ruleback/internal/report"
	"github.com/sigmaquant/ruleback/internal/strategy"
	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/internal/universe"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

const dateLayout = "2006-01-02"

// openSource selects the bar source backing a run from the --driver and
// --data flags.
func openSource(cmd *cli.Command) (datasource.BarSource, error) {
	driver := cmd.String("driver")
	dataPath := cmd.String("data")

	switch driver {
	case "duckdb":
		return datasource.NewDuckDBSource(dataPath)
	case "sqlite":
		return datasource.NewSQLiteSource(dataPath)
	case "csv":
		return datasource.NewCSVSource(dataPath)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unknown driver %q", driver)
	}
}

func dateBound(cmd *cli.Command, name string) optional.Option[time.Time] {
	value := cmd.Timestamp(name)
	if value.IsZero() {
		return optional.None[time.Time]()
	}

	return optional.Some(value)
}

func runAction(ctx context.Context, cmd *cli.Command) error {
	strat, err := strategy.LoadFromFile(cmd.String("strategy"))
	if err != nil {
		return fmt.Errorf("failed to load strategy: %w", err)
	}

	backtester := enginev1.NewBacktestEngineV1()

	configContent := ""

	if configPath := cmd.String("config"); configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		configContent = string(data)
	}

	if err := backtester.Initialize(configContent); err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}

	source, err := openSource(cmd)
	if err != nil {
		return fmt.Errorf("failed to open bar source: %w", err)
	}
	defer source.Close()

	exchange := cmd.String("exchange")
	start := dateBound(cmd, "start")
	end := dateBound(cmd, "end")

	var (
		instruments []types.Instrument
		skips       []universe.Skip
	)

	symbols := cmd.StringSlice("symbols")
	if len(symbols) > 0 {
		instruments, skips, err = universe.Load(source, symbols, exchange, start, end)
	} else {
		instruments, skips, err = universe.LoadAll(source, exchange, start, end)
	}

	if err != nil {
		return fmt.Errorf("failed to load universe: %w", err)
	}

	for _, skip := range skips {
		log.Printf("Skipping %s: %s (%s)", skip.Symbol, skip.Reason, skip.Detail)
	}

	var bar *progressbar.ProgressBar

	callbacks := engine.Callbacks{
		OnDate: func(current, total int) {
			if bar == nil {
				bar = progressbar.Default(int64(total), "backtesting")
			}

			_ = bar.Set(current)
		},
	}

	result, err := backtester.Run(strat, instruments, callbacks)
	if err != nil {
		return fmt.Errorf("backtest failed: %w", err)
	}

	riskFreeRate := result.RiskFreeRate
	if cmd.IsSet("risk-free-rate") {
		riskFreeRate = cmd.Float("risk-free-rate")
	}

	doc := report.New(result, skips, riskFreeRate)

	if outputPath := cmd.String("output"); outputPath != "" {
		if err := doc.WriteFile(outputPath); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}

		log.Printf("Report written to %s", outputPath)

		return nil
	}

	return doc.Write(os.Stdout)
}

func ingestAction(ctx context.Context, cmd *cli.Command) error {
	if driver := cmd.String("driver"); driver == "csv" {
		return errors.New(errors.ErrCodeInvalidParameter, "the csv driver is read-only; ingest into duckdb or sqlite")
	}

	source, err := openSource(cmd)
	if err != nil {
		return fmt.Errorf("failed to open bar store: %w", err)
	}
	defer source.Close()

	writer, ok := source.(datasource.BarWriter)
	if !ok {
		return errors.Newf(errors.ErrCodeInvalidParameter, "driver %q does not accept ingestion", cmd.String("driver"))
	}

	total := 0

	for _, path := range cmd.Args().Slice() {
		bars, err := datasource.ReadCSVFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		if err := writer.Put(bars); err != nil {
			return fmt.Errorf("failed to store bars from %s: %w", path, err)
		}

		total += len(bars)

		log.Printf("Ingested %d bars from %s", len(bars), path)
	}

	log.Printf("Done, %d bars total", total)

	return nil
}

func schemaAction(ctx context.Context, cmd *cli.Command) error {
	backtester := enginev1.NewBacktestEngineV1()

	schema, err := backtester.GetConfigSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	fmt.Println(schema)

	return nil
}

func main() {
	dataFlags := []cli.Flag{
		&cli.StringFlag{
			Name:    "data",
			Aliases: []string{"d"},
			Usage:   "Path to the bar store (database file or CSV file)",
			Value:   "data/bars.duckdb",
		},
		&cli.StringFlag{
			Name:  "driver",
			Usage: "Bar store driver: duckdb, sqlite or csv",
			Value: "duckdb",
		},
	}

	cmd := &cli.Command{
		Name:  "ruleback",
		Usage: "Backtest rule-based trading strategies over daily bars",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run a backtest and write a YAML report",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     "strategy",
						Aliases:  []string{"s"},
						Usage:    "Path to the YAML strategy definition",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the YAML engine configuration",
					},
					&cli.StringSliceFlag{
						Name:  "symbols",
						Usage: "Symbols to include; defaults to every symbol in the store",
					},
					&cli.StringFlag{
						Name:  "exchange",
						Usage: "Exchange the symbols trade on",
					},
					&cli.TimestampFlag{
						Name:  "start",
						Usage: "First date to include, in `YYYY-MM-DD` format",
						Config: cli.TimestampConfig{
							Layouts: []string{dateLayout},
						},
					},
					&cli.TimestampFlag{
						Name:  "end",
						Usage: "Last date to include, in `YYYY-MM-DD` format",
						Config: cli.TimestampConfig{
							Layouts: []string{dateLayout},
						},
					},
					&cli.FloatFlag{
						Name:  "risk-free-rate",
						Usage: "Annual risk-free rate for Sharpe and Sortino; overrides the config value",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Report output path; defaults to stdout",
					},
				}, dataFlags...),
				Action: runAction,
			},
			{
				Name:      "ingest",
				Usage:     "Load CSV bar files into the bar store",
				ArgsUsage: "FILE...",
				Flags:     dataFlags,
				Action:    ingestAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the engine configuration",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
