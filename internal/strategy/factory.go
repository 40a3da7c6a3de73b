package strategy

import (
	"errors"
	"fmt"

	"pool-tick-bot/internal/config"
)

// maxDepth caps factory recursion. Config trees are parsed from YAML and
// cannot cycle, so this only guards against absurd nesting.
const maxDepth = 32

var errNoVariant = errors.New(`strategy node must set exactly one of "null", always_buy, always_sell, threshold, ema`)

// Build turns a declarative strategy tree into a single Strategy instance.
// This is the only failure boundary of the decision engine: a malformed tree
// fails here, at startup, and numeric values (carry range, zero denominators,
// overlapping thresholds) pass through unvalidated to their runtime behavior.
func Build(node *config.StrategyNode) (Strategy, error) {
	return build(node, 0)
}

func build(node *config.StrategyNode, depth int) (Strategy, error) {
	if node == nil {
		return nil, errNoVariant
	}
	if depth >= maxDepth {
		return nil, fmt.Errorf("strategy tree exceeds max depth %d", maxDepth)
	}
	if n := countVariants(node); n != 1 {
		if n == 0 {
			return nil, errNoVariant
		}
		return nil, fmt.Errorf("strategy node sets %d variants, want exactly one", n)
	}
	switch {
	case node.Null != nil:
		return Null{}, nil
	case node.AlwaysBuy != nil:
		return AlwaysBuy{Amount: node.AlwaysBuy.Fraction()}, nil
	case node.AlwaysSell != nil:
		return AlwaysSell{Amount: node.AlwaysSell.Fraction()}, nil
	case node.Threshold != nil:
		var s Threshold
		if p := node.Threshold.Buy; p != nil {
			s.Buy = &Point{At: p.At, Amount: p.Amount.Fraction()}
		}
		if p := node.Threshold.Sell; p != nil {
			s.Sell = &Point{At: p.At, Amount: p.Amount.Fraction()}
		}
		return s, nil
	case node.EMA != nil:
		inner, err := build(node.EMA.Inner, depth+1)
		if err != nil {
			return nil, fmt.Errorf("ema.inner: %w", err)
		}
		return NewEMA(node.EMA.Carry, inner), nil
	}
	return nil, errNoVariant
}

func countVariants(node *config.StrategyNode) int {
	n := 0
	if node.Null != nil {
		n++
	}
	if node.AlwaysBuy != nil {
		n++
	}
	if node.AlwaysSell != nil {
		n++
	}
	if node.Threshold != nil {
		n++
	}
	if node.EMA != nil {
		n++
	}
	return n
}
