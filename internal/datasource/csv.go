package datasource

import (
	"os"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// csvRow is the on-disk row shape. Dates are ISO day strings, not RFC3339.
type csvRow struct {
	Symbol   string  `csv:"symbol"`
	Exchange string  `csv:"exchange"`
	Date     string  `csv:"date"`
	Open     float64 `csv:"open"`
	High     float64 `csv:"high"`
	Low      float64 `csv:"low"`
	Close    float64 `csv:"close"`
	Volume   float64 `csv:"volume"`
}

// ReadCSVFile loads bars from one CSV file. The file may mix symbols and
// exchanges; rows are returned in file order.
func ReadCSVFile(path string) ([]types.Bar, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err, "failed to open CSV file %s", path)
	}
	defer file.Close()

	var rows []csvRow
	if err := gocsv.UnmarshalFile(file, &rows); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err, "failed to parse CSV file %s", path)
	}

	bars := make([]types.Bar, 0, len(rows))

	for _, row := range rows {
		date, err := time.Parse(dateLayout, row.Date)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err,
				"bad date %q in %s", row.Date, path)
		}

		bars = append(bars, types.Bar{
			Symbol:   row.Symbol,
			Exchange: row.Exchange,
			Date:     date,
			Open:     row.Open,
			High:     row.High,
			Low:      row.Low,
			Close:    row.Close,
			Volume:   row.Volume,
		})
	}

	return bars, nil
}

// CSVSource serves bars from CSV files. Files are loaded eagerly into an
// in-memory source at construction time.
type CSVSource struct {
	*MemorySource
}

// NewCSVSource loads the given CSV files into a new source.
func NewCSVSource(paths ...string) (*CSVSource, error) {
	source := &CSVSource{MemorySource: NewMemorySource()}

	for _, path := range paths {
		bars, err := ReadCSVFile(path)
		if err != nil {
			return nil, err
		}

		if err := source.MemorySource.Put(bars); err != nil {
			return nil, err
		}
	}

	return source, nil
}

// Put rejects writes. The backing files are never modified, so accepting
// bars would drop them when the process exits.
func (s *CSVSource) Put(bars []types.Bar) error {
	return errors.New(errors.ErrCodeInvalidParameter, "csv source is read-only")
}

var _ BarSource = (*CSVSource)(nil)

