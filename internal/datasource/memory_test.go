package datasource

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

func testBar(symbol string, day int, close float64) types.Bar {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	return types.Bar{
		Symbol: symbol,
		Date:   base.AddDate(0, 0, day),
		Open:   close,
		High:   close + 1,
		Low:    close - 1,
		Close:  close,
		Volume: 1000,
	}
}

func TestMemorySourcePutAndFetch(t *testing.T) {
	source := NewMemorySource()

	// Out of order on purpose; Fetch must return date-ascending bars.
	require.NoError(t, source.Put([]types.Bar{
		testBar("AAPL", 2, 102),
		testBar("AAPL", 0, 100),
		testBar("AAPL", 1, 101),
	}))

	bars, err := source.Fetch("AAPL", "", optional.None[time.Time](), optional.None[time.Time]())
	require.NoError(t, err)
	require.Len(t, bars, 3)
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[2].Close)
}

func TestMemorySourceReplacesOnSameDate(t *testing.T) {
	source := NewMemorySource()

	require.NoError(t, source.Put([]types.Bar{testBar("AAPL", 0, 100)}))
	require.NoError(t, source.Put([]types.Bar{testBar("AAPL", 0, 200)}))

	bars, err := source.Fetch("AAPL", "", optional.None[time.Time](), optional.None[time.Time]())
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 200.0, bars[0].Close)
}

func TestMemorySourceFetchRange(t *testing.T) {
	source := NewMemorySource()
	require.NoError(t, source.Put([]types.Bar{
		testBar("AAPL", 0, 100),
		testBar("AAPL", 1, 101),
		testBar("AAPL", 2, 102),
	}))

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars, err := source.Fetch("AAPL", "",
		optional.Some(base.AddDate(0, 0, 1)), optional.Some(base.AddDate(0, 0, 1)))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 101.0, bars[0].Close)

	// A range with no bars is a no-data error, not an empty slice.
	_, err = source.Fetch("AAPL", "",
		optional.Some(base.AddDate(0, 0, 10)), optional.None[time.Time]())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoData))
}

func TestMemorySourceMissingSymbol(t *testing.T) {
	source := NewMemorySource()

	_, err := source.Fetch("GONE", "", optional.None[time.Time](), optional.None[time.Time]())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeNoData))
}

func TestMemorySourceListSymbols(t *testing.T) {
	source := NewMemorySource()
	require.NoError(t, source.Put([]types.Bar{
		testBar("MSFT", 0, 100),
		testBar("AAPL", 0, 100),
	}))

	symbols, err := source.ListSymbols("")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, symbols)
}
