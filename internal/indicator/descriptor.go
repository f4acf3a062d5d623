package indicator

import (
	"fmt"
	"strconv"

	"github.com/sigmaquant/ruleback/pkg/errors"
)

type IndicatorType string

const (
	IndicatorTypeSMA        IndicatorType = "SMA"
	IndicatorTypeEMA        IndicatorType = "EMA"
	IndicatorTypeWMA        IndicatorType = "WMA"
	IndicatorTypeRSI        IndicatorType = "RSI"
	IndicatorTypeROC        IndicatorType = "ROC"
	IndicatorTypeATR        IndicatorType = "ATR"
	IndicatorTypeStdDev     IndicatorType = "STDDEV"
	IndicatorTypeOBV        IndicatorType = "OBV"
	IndicatorTypeVWAP       IndicatorType = "VWAP"
	IndicatorTypeMACD       IndicatorType = "MACD"
	IndicatorTypeStochastic IndicatorType = "STOCHASTIC"
	IndicatorTypeBollinger  IndicatorType = "BOLLINGER"
	IndicatorTypePivot      IndicatorType = "PIVOT"
)

// Field names for multi-value indicators. Scalar indicators use FieldValue.
const (
	FieldValue     = "value"
	FieldLine      = "line"
	FieldSignal    = "signal"
	FieldHistogram = "histogram"
	FieldK         = "k"
	FieldD         = "d"
	FieldMiddle    = "middle"
	FieldUpper     = "upper"
	FieldLower     = "lower"
	FieldPivot     = "pivot"
	FieldR1        = "r1"
	FieldS1        = "s1"
	FieldR2        = "r2"
	FieldS2        = "s2"
	FieldR3        = "r3"
	FieldS3        = "s3"
)

// Descriptor identifies one parameterized indicator, e.g. "SMA period 20".
// It is a comparable value so it can key the per-run series cache directly.
// Only the fields that apply to Kind are set; the rest stay zero.
type Descriptor struct {
	Kind       IndicatorType
	Period     int
	Fast       int
	Slow       int
	Signal     int
	KPeriod    int
	DPeriod    int
	Multiplier float64
}

// SMA describes a simple moving average of closes over period bars.
func SMA(period int) Descriptor { return Descriptor{Kind: IndicatorTypeSMA, Period: period} }

// EMA describes an exponential moving average seeded by SMA(period).
func EMA(period int) Descriptor { return Descriptor{Kind: IndicatorTypeEMA, Period: period} }

// WMA describes a linearly weighted moving average favoring recent bars.
func WMA(period int) Descriptor { return Descriptor{Kind: IndicatorTypeWMA, Period: period} }

// RSI describes a Wilder-smoothed relative strength index.
func RSI(period int) Descriptor { return Descriptor{Kind: IndicatorTypeRSI, Period: period} }

// ROC describes a percentage rate of change over period bars.
func ROC(period int) Descriptor { return Descriptor{Kind: IndicatorTypeROC, Period: period} }

// ATR describes a Wilder-smoothed average true range.
func ATR(period int) Descriptor { return Descriptor{Kind: IndicatorTypeATR, Period: period} }

// StdDev describes the population standard deviation of trailing closes.
func StdDev(period int) Descriptor { return Descriptor{Kind: IndicatorTypeStdDev, Period: period} }

// OBV describes cumulative on-balance volume.
func OBV() Descriptor { return Descriptor{Kind: IndicatorTypeOBV} }

// VWAP describes the cumulative volume-weighted average price.
func VWAP() Descriptor { return Descriptor{Kind: IndicatorTypeVWAP} }

// MACD describes moving average convergence/divergence with the given
// fast/slow/signal periods.
func MACD(fast, slow, signal int) Descriptor {
	return Descriptor{Kind: IndicatorTypeMACD, Fast: fast, Slow: slow, Signal: signal}
}

// Stochastic describes the stochastic oscillator with %K and %D periods.
func Stochastic(kPeriod, dPeriod int) Descriptor {
	return Descriptor{Kind: IndicatorTypeStochastic, KPeriod: kPeriod, DPeriod: dPeriod}
}

// Bollinger describes Bollinger bands around SMA(period) at multiplier
// population standard deviations.
func Bollinger(period int, multiplier float64) Descriptor {
	return Descriptor{Kind: IndicatorTypeBollinger, Period: period, Multiplier: multiplier}
}

// Pivot describes classic floor-trader pivot levels from the previous bar.
func Pivot() Descriptor { return Descriptor{Kind: IndicatorTypePivot} }

// String renders the descriptor in the canonical rule-text form, e.g.
// "SMA(20)", "MACD(12,26,9)", "BOLLINGER(20,2)".
func (d Descriptor) String() string {
	switch d.Kind {
	case IndicatorTypeOBV, IndicatorTypeVWAP, IndicatorTypePivot:
		return fmt.Sprintf("%s()", d.Kind)
	case IndicatorTypeMACD:
		return fmt.Sprintf("%s(%d,%d,%d)", d.Kind, d.Fast, d.Slow, d.Signal)
	case IndicatorTypeStochastic:
		return fmt.Sprintf("%s(%d,%d)", d.Kind, d.KPeriod, d.DPeriod)
	case IndicatorTypeBollinger:
		return fmt.Sprintf("%s(%d,%s)", d.Kind, d.Period, strconv.FormatFloat(d.Multiplier, 'g', -1, 64))
	default:
		return fmt.Sprintf("%s(%d)", d.Kind, d.Period)
	}
}

// DefaultField returns the field read when a rule references the indicator
// without naming one.
func (d Descriptor) DefaultField() string {
	switch d.Kind {
	case IndicatorTypeMACD:
		return FieldLine
	case IndicatorTypeStochastic:
		return FieldK
	case IndicatorTypeBollinger:
		return FieldMiddle
	case IndicatorTypePivot:
		return FieldPivot
	default:
		return FieldValue
	}
}

// Fields returns the value fields this descriptor's series carries.
func (d Descriptor) Fields() []string {
	switch d.Kind {
	case IndicatorTypeMACD:
		return []string{FieldLine, FieldSignal, FieldHistogram}
	case IndicatorTypeStochastic:
		return []string{FieldK, FieldD}
	case IndicatorTypeBollinger:
		return []string{FieldMiddle, FieldUpper, FieldLower}
	case IndicatorTypePivot:
		return []string{FieldPivot, FieldR1, FieldS1, FieldR2, FieldS2, FieldR3, FieldS3}
	default:
		return []string{FieldValue}
	}
}

// Validate checks the descriptor's parameters for the descriptor's kind.
func (d Descriptor) Validate() error {
	switch d.Kind {
	case IndicatorTypeOBV, IndicatorTypeVWAP, IndicatorTypePivot:
		return nil
	case IndicatorTypeMACD:
		if d.Fast < 1 || d.Slow < 1 || d.Signal < 1 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s: periods must be positive", d)
		}

		if d.Fast >= d.Slow {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s: fast period must be below slow period", d)
		}

		return nil
	case IndicatorTypeStochastic:
		if d.KPeriod < 1 || d.DPeriod < 1 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s: periods must be positive", d)
		}

		return nil
	case IndicatorTypeBollinger:
		if d.Period < 1 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s: period must be positive", d)
		}

		if d.Multiplier <= 0 {
			return errors.Newf(errors.ErrCodeInvalidParameter, "%s: multiplier must be positive", d)
		}

		return nil
	default:
		if d.Period < 1 {
			return errors.Newf(errors.ErrCodeInvalidPeriod, "%s: period must be positive", d)
		}

		return nil
	}
}

// HasField reports whether name is a valid field of this descriptor.
func (d Descriptor) HasField(name string) bool {
	for _, f := range d.Fields() {
		if f == name {
			return true
		}
	}

	return false
}
