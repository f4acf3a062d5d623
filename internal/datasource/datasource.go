// Package datasource provides bar sources: adapters that load ordered daily
// price bars for one instrument. The backtest core only consumes the
// BarSource interface and does not care whether bars come from DuckDB,
// SQLite or memory.
package datasource

import (
	"time"

	"github.com/moznion/go-optional"

	"github.com/sigmaquant/ruleback/internal/types"
)

// BarSource loads price bars and symbol listings. Implementations must
// distinguish "no data" (an error with code ErrCodeNoData) from
// transport/storage failures (ErrCodeStorageFailed or ErrCodeQueryFailed) so
// callers can report skips accurately.
type BarSource interface {
	// Fetch returns the bars for symbol on exchange within the optional
	// [start, end] date bounds, ordered by date ascending. An empty result
	// is an ErrCodeNoData error, not an empty slice.
	Fetch(symbol, exchange string, start, end optional.Option[time.Time]) ([]types.Bar, error)
	// ListSymbols returns the distinct symbols available for exchange.
	ListSymbols(exchange string) ([]string, error)
	// Close releases any resources held by the source.
	Close() error
}

// BarWriter is implemented by sources that also accept bar ingestion.
type BarWriter interface {
	// Put stores bars, replacing any existing bar for the same
	// symbol/exchange/date.
	Put(bars []types.Bar) error
}

// inRange reports whether date falls within the optional bounds.
func inRange(date time.Time, start, end optional.Option[time.Time]) bool {
	if start.IsSome() && date.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && date.After(end.Unwrap()) {
		return false
	}

	return true
}
