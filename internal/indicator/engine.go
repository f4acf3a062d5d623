package indicator

import (
	"github.com/sigmaquant/ruleback/internal/types"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// Engine computes indicator series over one ordered bar sequence and caches
// them by descriptor. Each series is computed in a single forward pass on the
// first request and never recomputed within a run. The cache is owned by the
// engine value, not package state, so independent runs (e.g. parameter
// sweeps) never leak series into each other.
type Engine struct {
	bars  []types.Bar
	cache map[Descriptor]*Series
}

// NewEngine creates an indicator engine over the given bar sequence. The
// bars must be ordered by date.
func NewEngine(bars []types.Bar) *Engine {
	return &Engine{
		bars:  bars,
		cache: make(map[Descriptor]*Series),
	}
}

// Bars returns the bar sequence the engine was built over.
func (e *Engine) Bars() []types.Bar {
	return e.bars
}

// Get returns the series for desc, computing and caching it on first use.
func (e *Engine) Get(desc Descriptor) (*Series, error) {
	if series, ok := e.cache[desc]; ok {
		return series, nil
	}

	series, err := e.compute(desc)
	if err != nil {
		return nil, err
	}

	e.cache[desc] = series

	return series, nil
}

func (e *Engine) compute(desc Descriptor) (*Series, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}

	switch desc.Kind {
	case IndicatorTypeSMA:
		return computeSMA(desc, e.bars), nil
	case IndicatorTypeEMA:
		return computeEMA(desc, e.bars), nil
	case IndicatorTypeWMA:
		return computeWMA(desc, e.bars), nil
	case IndicatorTypeRSI:
		return computeRSI(desc, e.bars), nil
	case IndicatorTypeROC:
		return computeROC(desc, e.bars), nil
	case IndicatorTypeATR:
		return computeATR(desc, e.bars), nil
	case IndicatorTypeStdDev:
		return computeStdDev(desc, e.bars), nil
	case IndicatorTypeOBV:
		return computeOBV(desc, e.bars), nil
	case IndicatorTypeVWAP:
		return computeVWAP(desc, e.bars), nil
	case IndicatorTypeMACD:
		return computeMACD(desc, e.bars), nil
	case IndicatorTypeStochastic:
		return computeStochastic(desc, e.bars), nil
	case IndicatorTypeBollinger:
		return computeBollinger(desc, e.bars), nil
	case IndicatorTypePivot:
		return computePivot(desc, e.bars), nil
	default:
		return nil, errors.Newf(errors.ErrCodeIndicatorNotFound, "unknown indicator kind %q", desc.Kind)
	}
}

