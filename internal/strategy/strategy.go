package strategy

import (
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/sigmaquant/ruleback/internal/rule"
	"github.com/sigmaquant/ruleback/pkg/errors"
)

// Strategy is an immutable, compiled trading strategy: entry/exit rules for
// the long side (required) and the short side (optional), plus sizing and
// risk parameters. One Strategy value is shared read-only across a run.
type Strategy struct {
	Name        string
	Description string
	EntryLong   rule.Rule
	ExitLong    rule.Rule
	EntryShort  optional.Option[rule.Rule]
	ExitShort   optional.Option[rule.Rule]
	// PositionSize is the fraction of available cash committed per entry.
	PositionSize float64
	// StopLossPct and TakeProfitPct are percentages of the entry price.
	// Zero disables the trigger.
	StopLossPct   float64
	TakeProfitPct float64
	// MaxPositions caps concurrently open positions across the universe.
	MaxPositions int
}

// Definition is the YAML form of a strategy, with rules as text in the rule
// grammar.
type Definition struct {
	Name          string  `yaml:"name" json:"name" validate:"required"`
	Description   string  `yaml:"description" json:"description"`
	EntryLong     string  `yaml:"entry_long" json:"entry_long" validate:"required"`
	ExitLong      string  `yaml:"exit_long" json:"exit_long" validate:"required"`
	EntryShort    string  `yaml:"entry_short" json:"entry_short"`
	ExitShort     string  `yaml:"exit_short" json:"exit_short"`
	PositionSize  float64 `yaml:"position_size" json:"position_size" validate:"required,gt=0,lte=1"`
	StopLossPct   float64 `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gte=0"`
	TakeProfitPct float64 `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gte=0"`
	MaxPositions  int     `yaml:"max_positions" json:"max_positions" validate:"required,gte=1"`
}

// Compile validates the definition and parses its rule texts into a
// Strategy. Rule parse failures surface as position-addressable parse
// errors.
func (d Definition) Compile() (*Strategy, error) {
	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStrategy, "invalid strategy definition", err)
	}

	if (d.EntryShort == "") != (d.ExitShort == "") {
		return nil, errors.New(errors.ErrCodeInvalidStrategy,
			"entry_short and exit_short must be provided together")
	}

	entryLong, err := rule.Parse(d.EntryLong)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRuleParse, "entry_long", err)
	}

	exitLong, err := rule.Parse(d.ExitLong)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRuleParse, "exit_long", err)
	}

	compiled := &Strategy{
		Name:          d.Name,
		Description:   d.Description,
		EntryLong:     entryLong,
		ExitLong:      exitLong,
		EntryShort:    optional.None[rule.Rule](),
		ExitShort:     optional.None[rule.Rule](),
		PositionSize:  d.PositionSize,
		StopLossPct:   d.StopLossPct,
		TakeProfitPct: d.TakeProfitPct,
		MaxPositions:  d.MaxPositions,
	}

	if d.EntryShort != "" {
		entryShort, err := rule.Parse(d.EntryShort)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRuleParse, "entry_short", err)
		}

		exitShort, err := rule.Parse(d.ExitShort)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeRuleParse, "exit_short", err)
		}

		compiled.EntryShort = optional.Some(entryShort)
		compiled.ExitShort = optional.Some(exitShort)
	}

	return compiled, nil
}

// LoadFromBytes unmarshals a YAML strategy definition and compiles it.
func LoadFromBytes(data []byte) (*Strategy, error) {
	var definition Definition
	if err := yaml.Unmarshal(data, &definition); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidStrategy, "failed to unmarshal strategy", err)
	}

	return definition.Compile()
}

// LoadFromFile reads a YAML strategy definition from disk and compiles it.
func LoadFromFile(path string) (*Strategy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeInvalidStrategy, err, "failed to read strategy file %s", path)
	}

	return LoadFromBytes(data)
}

// Rules returns every rule the strategy carries, long side first.
func (s *Strategy) Rules() []rule.Rule {
	rules := []rule.Rule{s.EntryLong, s.ExitLong}

	if s.EntryShort.IsSome() {
		rules = append(rules, s.EntryShort.Unwrap())
	}

	if s.ExitShort.IsSome() {
		rules = append(rules, s.ExitShort.Unwrap())
	}

	return rules
}
