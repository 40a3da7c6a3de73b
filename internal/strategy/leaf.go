package strategy

import "pool-tick-bot/internal/num"

// Null never trades. It is the configured default and the base case that
// terminates composite chains.
type Null struct{}

func (Null) Decide(TradeContext) *Trade {
	return nil
}

// AlwaysBuy emits a fixed-amount buy on every cycle, price ignored. Mostly
// useful for deterministic tests and dumb accumulation.
type AlwaysBuy struct {
	Amount num.Fraction
}

func (s AlwaysBuy) Decide(TradeContext) *Trade {
	return Buy(s.Amount)
}

type AlwaysSell struct {
	Amount num.Fraction
}

func (s AlwaysSell) Decide(TradeContext) *Trade {
	return Sell(s.Amount)
}

// Point is a one-sided trigger: a price level paired with a fixed amount.
type Point struct {
	At     float64
	Amount num.Fraction
}

// Threshold buys at or below the buy point and sells at or above the sell
// point. The buy check runs first, so if both sides are satisfied at once
// (possible when buy.At >= sell.At, a permitted configuration) buy wins.
// Either side may be absent and then never fires. Pure: no state, and NaN
// prices fail both comparisons.
type Threshold struct {
	Buy  *Point
	Sell *Point
}

func (s Threshold) Decide(ctx TradeContext) *Trade {
	if s.Buy != nil && ctx.PriceLossy <= s.Buy.At {
		return Buy(s.Buy.Amount)
	}
	if s.Sell != nil && ctx.PriceLossy >= s.Sell.At {
		return Sell(s.Sell.Amount)
	}
	return nil
}
