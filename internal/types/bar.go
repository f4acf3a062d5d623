package types

import "time"

// Bar is one day's open/high/low/close/volume for one instrument.
// Bars are immutable once loaded and ordered by date per instrument.
type Bar struct {
	Symbol   string    `yaml:"symbol" json:"symbol" csv:"symbol" validate:"required"`
	Exchange string    `yaml:"exchange" json:"exchange" csv:"exchange"`
	Date     time.Time `yaml:"date" json:"date" csv:"date" validate:"required"`
	Open     float64   `yaml:"open" json:"open" csv:"open"`
	High     float64   `yaml:"high" json:"high" csv:"high"`
	Low      float64   `yaml:"low" json:"low" csv:"low"`
	Close    float64   `yaml:"close" json:"close" csv:"close"`
	Volume   float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// TypicalPrice returns (high + low + close) / 3.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Instrument is one admitted member of a backtest universe: a symbol and
// its date-ordered bars.
type Instrument struct {
	Symbol string
	Bars   []Bar
}
