package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "cb_swing_bot"

type promCounter struct {
	counter prometheus.Counter
}

func (p promCounter) Inc() {
	p.counter.Inc()
}

type Prometheus struct {
	Metrics *Metrics

	registry *prometheus.Registry
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	ordersPlaced := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_placed_total",
		Help:      "Total number of orders submitted to the exchange.",
	})
	ordersRejected := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_rejected_total",
		Help:      "Total number of orders the exchange declined to fill.",
	})
	ordersFailed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "orders_failed_total",
		Help:      "Total number of order submissions that failed at transport level.",
	})
	buysFilled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "buys_filled_total",
		Help:      "Total number of filled BUY orders.",
	})
	sellsFilled := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "sells_filled_total",
		Help:      "Total number of filled SELL orders.",
	})
	cyclesCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "cycles_completed_total",
		Help:      "Total number of completed BUY to SELL cycles.",
	})
	ticksSkipped := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      "ticks_skipped_total",
		Help:      "Total number of scheduler ticks skipped because an evaluation was in flight.",
	})

	registry.MustRegister(ordersPlaced, ordersRejected, ordersFailed, buysFilled, sellsFilled, cyclesCompleted, ticksSkipped)

	m := &Metrics{
		OrdersPlaced:    promCounter{ordersPlaced},
		OrdersRejected:  promCounter{ordersRejected},
		OrdersFailed:    promCounter{ordersFailed},
		BuysFilled:      promCounter{buysFilled},
		SellsFilled:     promCounter{sellsFilled},
		CyclesCompleted: promCounter{cyclesCompleted},
		TicksSkipped:    promCounter{ticksSkipped},
	}

	return &Prometheus{
		Metrics:  m,
		registry: registry,
	}
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
