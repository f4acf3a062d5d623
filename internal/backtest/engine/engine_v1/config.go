package engine

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/sigmaquant/ruleback/internal/config"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// BacktestConfigV1 configures one backtest run.
type BacktestConfigV1 struct {
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"required,gt=0" jsonschema:"title=Initial Capital,description=Starting capital for the backtest,minimum=0"`
	// CommissionFlat is charged per fill; CommissionPct is a percentage of
	// fill value. Total commission = flat + value * pct / 100.
	CommissionFlat float64 `yaml:"commission_flat" json:"commission_flat" validate:"gte=0" jsonschema:"title=Flat Commission,description=Fixed commission charged per fill"`
	CommissionPct  float64 `yaml:"commission_pct" json:"commission_pct" validate:"gte=0" jsonschema:"title=Percentage Commission,description=Commission as a percentage of fill value"`
	// SlippagePct moves every fill price against the trader by this
	// percentage.
	SlippagePct float64 `yaml:"slippage_pct" json:"slippage_pct" validate:"gte=0" jsonschema:"title=Slippage,description=Directional price penalty applied at fill time as a percentage"`
	AllowShort  bool    `yaml:"allow_short" json:"allow_short" jsonschema:"title=Allow Short,description=Whether short entries are permitted"`
	// RiskFreeRate is the annual risk-free rate used by Sharpe/Sortino.
	RiskFreeRate float64 `yaml:"risk_free_rate" json:"risk_free_rate" validate:"gte=0" jsonschema:"title=Risk Free Rate,description=Annual risk-free rate used for Sharpe and Sortino ratios"`
}

// DefaultConfig returns a zero-friction configuration: no commission, no
// slippage, long-only.
func DefaultConfig() BacktestConfigV1 {
	return BacktestConfigV1{
		InitialCapital: 100000,
		CommissionFlat: 0,
		CommissionPct:  0,
		SlippagePct:    0,
		AllowShort:     false,
		RiskFreeRate:   0,
	}
}

// ParseConfig unmarshals and validates YAML configuration content.
func ParseConfig(content string) (BacktestConfigV1, error) {
	cfg := DefaultConfig()

	if err := yaml.Unmarshal([]byte(content), &cfg); err != nil {
		return cfg, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse backtest config", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// loadConfig accepts either config document layout: the sectioned
// backtest/execution form is routed through FromConfig, everything else is
// parsed as the flat run config.
func loadConfig(content string) (BacktestConfigV1, error) {
	source, err := config.LoadBytes([]byte(content))
	if err == nil && (source.HasSection("backtest") || source.HasSection("execution")) {
		return FromConfig(source)
	}

	return ParseConfig(content)
}

// FromConfig builds a run configuration from a section/key configuration
// source, falling back to defaults for absent keys. Keys live in the
// "backtest" and "execution" sections.
func FromConfig(source *config.Config) (BacktestConfigV1, error) {
	cfg := DefaultConfig()

	var err error

	if cfg.InitialCapital, err = source.GetFloat("backtest", "initial_capital", cfg.InitialCapital); err != nil {
		return cfg, err
	}

	if cfg.RiskFreeRate, err = source.GetFloat("backtest", "risk_free_rate", cfg.RiskFreeRate); err != nil {
		return cfg, err
	}

	if cfg.CommissionFlat, err = source.GetFloat("execution", "commission_flat", cfg.CommissionFlat); err != nil {
		return cfg, err
	}

	if cfg.CommissionPct, err = source.GetFloat("execution", "commission_pct", cfg.CommissionPct); err != nil {
		return cfg, err
	}

	if cfg.SlippagePct, err = source.GetFloat("execution", "slippage_pct", cfg.SlippagePct); err != nil {
		return cfg, err
	}

	if cfg.AllowShort, err = source.GetBool("execution", "allow_short", cfg.AllowShort); err != nil {
		return cfg, err
	}

	if err = cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the configuration invariants.
func (c BacktestConfigV1) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid backtest config", err)
	}

	return nil
}

// GenerateSchema generates a JSON schema for the run configuration.
func (c BacktestConfigV1) GenerateSchema() (string, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
	}

	schema := reflector.Reflect(c)
	schema.Title = "backtest-config-v1"
	schema.Description = "Configuration schema for BacktestEngineV1"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to marshal config schema", err)
	}

	return string(data), nil
}
