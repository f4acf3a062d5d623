package datasource

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// SQLSourceTestSuite exercises the shared SQL bar store through the SQLite
// driver, which needs no external library at test time.
type SQLSourceTestSuite struct {
	suite.Suite
	source *SQLiteSource
}

func TestSQLSourceSuite(t *testing.T) {
	suite.Run(t, new(SQLSourceTestSuite))
}

func (suite *SQLSourceTestSuite) SetupTest() {
	source, err := NewSQLiteSource(":memory:")
	suite.Require().NoError(err)
	suite.source = source
}

func (suite *SQLSourceTestSuite) TearDownTest() {
	if suite.source != nil {
		suite.Require().NoError(suite.source.Close())
	}
}

func (suite *SQLSourceTestSuite) seed() {
	suite.Require().NoError(suite.source.Put([]types.Bar{
		testBar("AAPL", 1, 101),
		testBar("AAPL", 0, 100),
		testBar("AAPL", 2, 102),
		testBar("MSFT", 0, 200),
	}))
}

func (suite *SQLSourceTestSuite) TestPutAndFetchOrdered() {
	suite.seed()

	bars, err := suite.source.Fetch("AAPL", "", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)
	suite.Equal(100.0, bars[0].Close)
	suite.Equal(102.0, bars[2].Close)
	suite.True(bars[0].Date.Before(bars[1].Date))
}

func (suite *SQLSourceTestSuite) TestPutReplacesSameDate() {
	suite.seed()
	suite.Require().NoError(suite.source.Put([]types.Bar{testBar("AAPL", 0, 150)}))

	bars, err := suite.source.Fetch("AAPL", "", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().NoError(err)
	suite.Require().Len(bars, 3)
	suite.Equal(150.0, bars[0].Close)
}

func (suite *SQLSourceTestSuite) TestFetchRange() {
	suite.seed()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	bars, err := suite.source.Fetch("AAPL", "",
		optional.Some(base.AddDate(0, 0, 1)), optional.Some(base.AddDate(0, 0, 1)))
	suite.Require().NoError(err)
	suite.Require().Len(bars, 1)
	suite.Equal(101.0, bars[0].Close)
}

func (suite *SQLSourceTestSuite) TestFetchMissingIsNoData() {
	suite.seed()

	_, err := suite.source.Fetch("GONE", "", optional.None[time.Time](), optional.None[time.Time]())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeNoData))
}

func (suite *SQLSourceTestSuite) TestListSymbols() {
	suite.seed()

	symbols, err := suite.source.ListSymbols("")
	suite.Require().NoError(err)
	suite.Equal([]string{"AAPL", "MSFT"}, symbols)
}
