package metrics

type Counter interface {
	Inc()
}

type Gauge interface {
	Set(v float64)
}

type Metrics struct {
	BlocksObserved Counter
	TradesBuy      Counter
	TradesSell     Counter
	SwapsFailed    Counter
	PriceErrors    Counter
	Price          Gauge
	SmoothedPrice  Gauge
}

type noopCounter struct{}

func (noopCounter) Inc() {}

type noopGauge struct{}

func (noopGauge) Set(float64) {}

func NewNoop() *Metrics {
	c := noopCounter{}
	g := noopGauge{}
	return &Metrics{
		BlocksObserved: c,
		TradesBuy:      c,
		TradesSell:     c,
		SwapsFailed:    c,
		PriceErrors:    c,
		Price:          g,
		SmoothedPrice:  g,
	}
}
