package datasource

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"

	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

type instrumentKey struct {
	symbol   string
	exchange string
}

// MemorySource is an in-memory bar source. It backs tests and programmatic
// runs where bars are already loaded.
type MemorySource struct {
	bars map[instrumentKey][]types.Bar
}

// NewMemorySource creates an empty in-memory bar source.
func NewMemorySource() *MemorySource {
	return &MemorySource{bars: make(map[instrumentKey][]types.Bar)}
}

// Put implements BarWriter. Bars are kept sorted by date per instrument;
// a bar on an existing date replaces the old one.
func (m *MemorySource) Put(bars []types.Bar) error {
	for _, bar := range bars {
		key := instrumentKey{symbol: bar.Symbol, exchange: bar.Exchange}
		existing := m.bars[key]

		replaced := false

		for i := range existing {
			if existing[i].Date.Equal(bar.Date) {
				existing[i] = bar
				replaced = true

				break
			}
		}

		if !replaced {
			existing = append(existing, bar)
		}

		sort.Slice(existing, func(i, j int) bool {
			return existing[i].Date.Before(existing[j].Date)
		})

		m.bars[key] = existing
	}

	return nil
}

// Fetch implements BarSource.
func (m *MemorySource) Fetch(symbol, exchange string, start, end optional.Option[time.Time]) ([]types.Bar, error) {
	stored, ok := m.bars[instrumentKey{symbol: symbol, exchange: exchange}]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeNoData, "no bars for %s on %s", symbol, exchange)
	}

	var out []types.Bar

	for _, bar := range stored {
		if inRange(bar.Date, start, end) {
			out = append(out, bar)
		}
	}

	if len(out) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoData, "no bars for %s on %s in requested range", symbol, exchange)
	}

	return out, nil
}

// ListSymbols implements BarSource.
func (m *MemorySource) ListSymbols(exchange string) ([]string, error) {
	var symbols []string

	for key := range m.bars {
		if key.exchange == exchange {
			symbols = append(symbols, key.symbol)
		}
	}

	sort.Strings(symbols)

	return symbols, nil
}

// Close implements BarSource.
func (m *MemorySource) Close() error {
	return nil
}
