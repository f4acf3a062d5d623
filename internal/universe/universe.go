// Package universe assembles the set of instruments a backtest runs over,
// enforcing the minimum-history requirement and reporting every symbol it
// had to leave out.
package universe

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/sigmaquant/ruleback/internal/datasource"
	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// MinBars is the minimum bar history an instrument needs to participate in a
// run. Anything shorter is skipped, never padded.
const MinBars = 30

// Skip reasons.
const (
	SkipReasonNoData           string = "no_data"
	SkipReasonInsufficientBars string = "insufficient_bars"
	SkipReasonFetchError       string = "fetch_error"
)

// Skip records one symbol excluded from the universe and why.
type Skip struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	Reason string `yaml:"reason" json:"reason"`
	Detail string `yaml:"detail,omitempty" json:"detail,omitempty"`
}

// Load fetches bars for every requested symbol and returns the instruments
// eligible for a run, in ascending symbol order, plus a skip record for each
// symbol left out. It fails only when no symbol qualifies: with the last
// fetch error when every symbol errored, or an aggregate error otherwise.
func Load(source datasource.BarSource, symbols []string, exchange string,
	start, end optional.Option[time.Time]) ([]types.Instrument, []Skip, error) {
	if len(symbols) == 0 {
		return nil, nil, errors.New(errors.ErrCodeInvalidParameter, "no symbols requested")
	}

	sorted := make([]string, len(symbols))
	copy(sorted, symbols)
	sort.Strings(sorted)

	var (
		instruments []types.Instrument
		skips       []Skip
		lastErr     error
	)

	for _, symbol := range sorted {
		bars, err := source.Fetch(symbol, exchange, start, end)
		if err != nil {
			if errors.HasCode(err, errors.ErrCodeNoData) {
				skips = append(skips, Skip{Symbol: symbol, Reason: SkipReasonNoData, Detail: err.Error()})
				continue
			}

			lastErr = err

			skips = append(skips, Skip{Symbol: symbol, Reason: SkipReasonFetchError, Detail: err.Error()})

			continue
		}

		if len(bars) < MinBars {
			skips = append(skips, Skip{
				Symbol: symbol,
				Reason: SkipReasonInsufficientBars,
				Detail: errors.NewInsufficientDataErrorf(MinBars, len(bars), symbol,
					"%s has %d bars, %d required", symbol, len(bars), MinBars).Error(),
			})

			continue
		}

		instruments = append(instruments, types.Instrument{Symbol: symbol, Bars: bars})
	}

	if len(instruments) == 0 {
		if lastErr != nil {
			return nil, skips, errors.Wrapf(errors.ErrCodeUniverseAllFailed, lastErr,
				"all %d symbols failed to load", len(sorted))
		}

		return nil, skips, errors.Newf(errors.ErrCodeUniverseAllFailed,
			"no symbol has the %d bars required, %d skipped", MinBars, len(skips))
	}

	return instruments, skips, nil
}

// LoadAll loads every symbol the source lists for exchange.
func LoadAll(source datasource.BarSource, exchange string,
	start, end optional.Option[time.Time]) ([]types.Instrument, []Skip, error) {
	symbols, err := source.ListSymbols(exchange)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list symbols", err)
	}

	return Load(source, symbols, exchange, start, end)
}
