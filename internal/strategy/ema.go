package strategy

// EMA smooths the observed price with an exponential moving average before
// delegating the decision to an inner strategy. carry weights the previous
// smoothed value: 0 tracks the raw price exactly, 1 freezes the first
// observation forever. Values outside [0,1] are not rejected; they diverge
// instead of smoothing, which is the operator's choice to make.
type EMA struct {
	carry float64
	inner Strategy

	last   float64
	seeded bool
}

func NewEMA(carry float64, inner Strategy) *EMA {
	return &EMA{carry: carry, inner: inner}
}

func (s *EMA) Decide(ctx TradeContext) *Trade {
	smoothed := ctx.PriceLossy
	if s.seeded {
		smoothed = s.last*s.carry + ctx.PriceLossy*(1-s.carry)
	}
	// The memory update is unconditional: the average reflects every
	// observed price whether or not the inner strategy trades on it.
	s.last = smoothed
	s.seeded = true
	return s.inner.Decide(TradeContext{PriceLossy: smoothed})
}

// Smoothed returns the current smoothing memory. The second result is false
// before the first observation.
func (s *EMA) Smoothed() (float64, bool) {
	return s.last, s.seeded
}

// Seed restores the smoothing memory, e.g. from a persisted run snapshot, so
// a restart does not reset the average to a cold start.
func (s *EMA) Seed(last float64) {
	s.last = last
	s.seeded = true
}
