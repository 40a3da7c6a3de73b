package strategy

import (
	"math"
	"testing"

	"pool-tick-bot/internal/num"
)

// recorder captures the contexts an inner strategy is called with.
type recorder struct {
	prices []float64
	out    *Trade
}

func (r *recorder) Decide(ctx TradeContext) *Trade {
	r.prices = append(r.prices, ctx.PriceLossy)
	return r.out
}

func TestEMAColdStartPassesRawPrice(t *testing.T) {
	inner := &recorder{}
	s := NewEMA(0.9, inner)
	if got := s.Decide(TradeContext{PriceLossy: 123.5}); got != nil {
		t.Fatalf("unexpected trade: %+v", got)
	}
	if len(inner.prices) != 1 || inner.prices[0] != 123.5 {
		t.Fatalf("expected inner to see raw 123.5 on first call, got %v", inner.prices)
	}
	last, ok := s.Smoothed()
	if !ok || last != 123.5 {
		t.Fatalf("expected memory 123.5, got %v (ok=%v)", last, ok)
	}
}

func TestEMARecurrence(t *testing.T) {
	prices := []float64{100, 120, 80, 90, 200}
	for _, carry := range []float64{0, 0.5, 0.9, 1.0} {
		inner := &recorder{}
		s := NewEMA(carry, inner)
		want := make([]float64, len(prices))
		want[0] = prices[0]
		for i := 1; i < len(prices); i++ {
			want[i] = want[i-1]*carry + prices[i]*(1-carry)
		}
		for _, p := range prices {
			s.Decide(TradeContext{PriceLossy: p})
		}
		for i := range want {
			if inner.prices[i] != want[i] {
				t.Fatalf("carry %v step %d: expected %v, got %v", carry, i, want[i], inner.prices[i])
			}
		}
	}
}

func TestEMACarryZeroTracksRawPrice(t *testing.T) {
	inner := &recorder{}
	s := NewEMA(0, inner)
	for _, p := range []float64{10, 55, 3} {
		s.Decide(TradeContext{PriceLossy: p})
		last, _ := s.Smoothed()
		if last != p {
			t.Fatalf("carry 0: expected smoothed %v, got %v", p, last)
		}
	}
}

func TestEMACarryOneFreezesFirstPrice(t *testing.T) {
	inner := &recorder{}
	s := NewEMA(1, inner)
	for _, p := range []float64{42, 1000, -7} {
		s.Decide(TradeContext{PriceLossy: p})
		last, _ := s.Smoothed()
		if last != 42 {
			t.Fatalf("carry 1: expected smoothed frozen at 42, got %v", last)
		}
	}
}

func TestEMAStateUpdatesEvenWhenInnerHolds(t *testing.T) {
	s := NewEMA(0.5, Null{})
	for _, p := range []float64{10, 20, 30} {
		if got := s.Decide(TradeContext{PriceLossy: p}); got != nil {
			t.Fatalf("null inner traded: %+v", got)
		}
	}
	// s0=10, s1=15, s2=22.5
	last, ok := s.Smoothed()
	if !ok || last != 22.5 {
		t.Fatalf("expected smoothed 22.5 after three calls, got %v (ok=%v)", last, ok)
	}
}

func TestEMADelegatesResultUnchanged(t *testing.T) {
	want := Buy(num.FromUint(7))
	inner := &recorder{out: want}
	s := NewEMA(0.5, inner)
	if got := s.Decide(TradeContext{PriceLossy: 10}); got != want {
		t.Fatalf("expected inner result passed through, got %+v", got)
	}
}

func TestEMASeedSkipsColdStart(t *testing.T) {
	inner := &recorder{}
	s := NewEMA(0.5, inner)
	s.Seed(100)
	s.Decide(TradeContext{PriceLossy: 200})
	if len(inner.prices) != 1 || inner.prices[0] != 150 {
		t.Fatalf("expected seeded smoothing 150, got %v", inner.prices)
	}
}

func TestEMANaNPropagates(t *testing.T) {
	inner := &recorder{}
	s := NewEMA(0.5, inner)
	s.Decide(TradeContext{PriceLossy: 10})
	s.Decide(TradeContext{PriceLossy: math.NaN()})
	last, _ := s.Smoothed()
	if !math.IsNaN(last) {
		t.Fatalf("expected NaN to propagate into memory, got %v", last)
	}
}
