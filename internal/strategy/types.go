package strategy

import "pool-tick-bot/internal/num"

type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// TradeContext is the per-block observation handed to a strategy. It is built
// fresh every evaluation cycle and never retained by strategies; the only
// derived value a strategy may keep is its own smoothing memory.
type TradeContext struct {
	// PriceLossy is the pool price as a float64. Exact pool math happens
	// upstream; strategies treat this as an opaque number, IEEE semantics
	// included.
	PriceLossy float64
}

// Trade is a proposed action with an exact amount, not yet executed. A nil
// *Trade means "no trade this cycle", which is the normal steady state.
type Trade struct {
	Side   Side
	Amount num.Fraction
}

func Buy(amount num.Fraction) *Trade {
	return &Trade{Side: SideBuy, Amount: amount}
}

func Sell(amount num.Fraction) *Trade {
	return &Trade{Side: SideSell, Amount: amount}
}

// Strategy converts one price observation into at most one trade intent.
// Implementations may mutate their own state but must not block, perform I/O,
// or fail: Decide is total. The driver calls it strictly sequentially, once
// per observed block, on a single instance that lives for the whole run.
type Strategy interface {
	Decide(ctx TradeContext) *Trade
}
