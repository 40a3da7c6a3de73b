package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "pool_tick_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type promGauge struct {
	gauge prometheus.Gauge
}

func (p promGauge) Set(v float64) {
	p.gauge.Set(v)
}

type Prometheus struct {
	Metrics *Metrics

	registry       *prometheus.Registry
	blocksObserved prometheus.Counter
	tradesBuy      prometheus.Counter
	tradesSell     prometheus.Counter
	swapsFailed    prometheus.Counter
	priceErrors    prometheus.Counter
	price          prometheus.Gauge
	smoothed       prometheus.Gauge
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	blocksObserved := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "blocks_observed_total",
		Help:      "Total number of blocks evaluated by the strategy.",
	})
	tradesBuy := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "trades_buy_total",
		Help:      "Total number of buy intents emitted.",
	})
	tradesSell := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "trades_sell_total",
		Help:      "Total number of sell intents emitted.",
	})
	swapsFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "swaps_failed_total",
		Help:      "Total number of swap submissions that failed after retries.",
	})
	priceErrors := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "price_errors_total",
		Help:      "Total number of failed pool price reads.",
	})
	price := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "pool_price",
		Help:      "Last observed pool price.",
	})
	smoothed := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      "smoothed_price",
		Help:      "Current exponential moving average of the pool price.",
	})

	registry.MustRegister(blocksObserved, tradesBuy, tradesSell, swapsFailed, priceErrors, price, smoothed)

	m := &Metrics{
		BlocksObserved: promCounter{blocksObserved},
		TradesBuy:      promCounter{tradesBuy},
		TradesSell:     promCounter{tradesSell},
		SwapsFailed:    promCounter{swapsFailed},
		PriceErrors:    promCounter{priceErrors},
		Price:          promGauge{price},
		SmoothedPrice:  promGauge{smoothed},
	}

	return &Prometheus{
		Metrics:        m,
		registry:       registry,
		blocksObserved: blocksObserved,
		tradesBuy:      tradesBuy,
		tradesSell:     tradesSell,
		swapsFailed:    swapsFailed,
		priceErrors:    priceErrors,
		price:          price,
		smoothed:       smoothed,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
