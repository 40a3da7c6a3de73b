package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"pool-tick-bot/internal/num"
)

// StrategyNode is the declarative strategy tree. Exactly one variant field may
// be set; the factory in internal/strategy enforces that when building. The
// tree is finite by construction since it comes from a YAML document.
type StrategyNode struct {
	Null       *NullNode      `yaml:"null"`
	AlwaysBuy  *Amount        `yaml:"always_buy"`
	AlwaysSell *Amount        `yaml:"always_sell"`
	Threshold  *ThresholdNode `yaml:"threshold"`
	EMA        *EMANode       `yaml:"ema"`
}

// NullNode must be written as an explicit empty mapping ("null": {}), since a
// bare YAML null leaves the variant pointer nil.
type NullNode struct{}

type ThresholdNode struct {
	Buy  *PointNode `yaml:"buy"`
	Sell *PointNode `yaml:"sell"`
}

type PointNode struct {
	At     float64 `yaml:"at"`
	Amount Amount  `yaml:"amount"`
}

type EMANode struct {
	Carry float64       `yaml:"carry"`
	Inner *StrategyNode `yaml:"inner"`
}

// Amount is an exact trade size. It accepts either a plain unsigned integer
// (denominator 1) or an explicit {numerator, denominator} mapping. The
// denominator is not range-checked here; a zero denominator is the operator's
// problem at runtime, not a parse error.
type Amount struct {
	Numerator   uint64
	Denominator uint64
}

func (a Amount) Fraction() num.Fraction {
	return num.New(a.Numerator, a.Denominator)
}

func (a *Amount) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var n uint64
		if err := value.Decode(&n); err != nil {
			return fmt.Errorf("amount: expected unsigned integer: %w", err)
		}
		a.Numerator = n
		a.Denominator = 1
		return nil
	case yaml.MappingNode:
		// KnownFields does not reach into custom unmarshalers, so unknown
		// keys are rejected by hand.
		var haveNum, haveDen bool
		for i := 0; i+1 < len(value.Content); i += 2 {
			key := value.Content[i].Value
			val := value.Content[i+1]
			switch key {
			case "numerator":
				if err := val.Decode(&a.Numerator); err != nil {
					return fmt.Errorf("amount.numerator: %w", err)
				}
				haveNum = true
			case "denominator":
				if err := val.Decode(&a.Denominator); err != nil {
					return fmt.Errorf("amount.denominator: %w", err)
				}
				haveDen = true
			default:
				return fmt.Errorf("amount: unknown field %q", key)
			}
		}
		if !haveNum || !haveDen {
			return fmt.Errorf("amount: numerator and denominator are both required")
		}
		return nil
	}
	return fmt.Errorf("amount: expected integer or {numerator, denominator} mapping")
}
