package datasource

import (
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/moznion/go-optional"

	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// dateLayout is how bar dates are stored. ISO dates compare correctly as
// text, which keeps the range predicates identical across DuckDB and SQLite.
const dateLayout = "2006-01-02"

const createBarsTable = `
	CREATE TABLE IF NOT EXISTS bars (
		symbol TEXT NOT NULL,
		exchange TEXT NOT NULL,
		date TEXT NOT NULL,
		open DOUBLE,
		high DOUBLE,
		low DOUBLE,
		close DOUBLE,
		volume DOUBLE,
		PRIMARY KEY (symbol, exchange, date)
	)
`

// sqlSource is the shared implementation behind the DuckDB and SQLite bar
// sources.
type sqlSource struct {
	db *sql.DB
	sq squirrel.StatementBuilderType
}

func newSQLSource(driver, dsn string) (*sqlSource, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeStorageFailed, err, "failed to open %s database", driver)
	}

	if _, err := db.Exec(createBarsTable); err != nil {
		db.Close()

		return nil, errors.Wrap(errors.ErrCodeStorageFailed, "failed to create bars table", err)
	}

	return &sqlSource{
		db: db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Put implements BarWriter. All bars are written in one transaction.
func (s *sqlSource) Put(bars []types.Bar) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailed, "failed to begin transaction", err)
	}

	for _, bar := range bars {
		_, err := tx.Exec(
			`INSERT OR REPLACE INTO bars (symbol, exchange, date, open, high, low, close, volume)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			bar.Symbol, bar.Exchange, bar.Date.Format(dateLayout),
			bar.Open, bar.High, bar.Low, bar.Close, bar.Volume,
		)
		if err != nil {
			tx.Rollback()

			return errors.Wrapf(errors.ErrCodeStorageFailed, err, "failed to insert bar %s %s", bar.Symbol, bar.Date.Format(dateLayout))
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeStorageFailed, "failed to commit bars", err)
	}

	return nil
}

// Fetch implements BarSource.
func (s *sqlSource) Fetch(symbol, exchange string, start, end optional.Option[time.Time]) ([]types.Bar, error) {
	query := s.sq.
		Select("symbol", "exchange", "date", "open", "high", "low", "close", "volume").
		From("bars").
		Where(squirrel.Eq{"symbol": symbol, "exchange": exchange}).
		OrderBy("date ASC")

	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"date": start.Unwrap().Format(dateLayout)})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"date": end.Unwrap().Format(dateLayout)})
	}

	sqlText, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to query bars for %s", symbol)
	}
	defer rows.Close()

	var bars []types.Bar

	for rows.Next() {
		var bar types.Bar

		var dateText string

		if err := rows.Scan(&bar.Symbol, &bar.Exchange, &dateText,
			&bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan bar", err)
		}

		date, err := time.Parse(dateLayout, dateText)
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "invalid stored date %q", dateText)
		}

		bar.Date = date
		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate bars", err)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoData, "no bars for %s on %s", symbol, exchange)
	}

	return bars, nil
}

// ListSymbols implements BarSource.
func (s *sqlSource) ListSymbols(exchange string) ([]string, error) {
	sqlText, args, err := s.sq.
		Select("DISTINCT symbol").
		From("bars").
		Where(squirrel.Eq{"exchange": exchange}).
		OrderBy("symbol ASC").
		ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build query", err)
	}

	rows, err := s.db.Query(sqlText, args...)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeQueryFailed, err, "failed to list symbols for %s", exchange)
	}
	defer rows.Close()

	var symbols []string

	for rows.Next() {
		var symbol string
		if err := rows.Scan(&symbol); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan symbol", err)
		}

		symbols = append(symbols, symbol)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate symbols", err)
	}

	return symbols, nil
}

// Close implements BarSource.
func (s *sqlSource) Close() error {
	return s.db.Close()
}
