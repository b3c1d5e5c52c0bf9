package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const promNamespace = "flashpeg_keeper"

var strategyLabel = []string{"strategy"}

type promCounter struct {
	vec *prometheus.CounterVec
}

func (p promCounter) Inc(strategy string) {
	p.vec.WithLabelValues(strategy).Inc()
}

type promGauge struct {
	vec *prometheus.GaugeVec
}

func (p promGauge) Set(strategy string, value float64) {
	p.vec.WithLabelValues(strategy).Set(value)
}

type Prometheus struct {
	Metrics *Metrics

	registry           *prometheus.Registry
	cycles             *prometheus.CounterVec
	opportunities      *prometheus.CounterVec
	executionsOK       *prometheus.CounterVec
	executionsFailed   *prometheus.CounterVec
	executionsSkipped  *prometheus.CounterVec
	quoteFailures      *prometheus.CounterVec
	evaluationFailures *prometheus.CounterVec
	spreadBps          *prometheus.GaugeVec
	lastCheck          *prometheus.GaugeVec
}

func newCounter(name, help string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	}, strategyLabel)
}

func newGauge(name, help string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: promNamespace,
		Name:      name,
		Help:      help,
	}, strategyLabel)
}

func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	p := &Prometheus{
		registry:           registry,
		cycles:             newCounter("cycles_total", "Total number of evaluation cycles."),
		opportunities:      newCounter("opportunities_total", "Total number of profitable opportunities found."),
		executionsOK:       newCounter("successful_arbitrages_total", "Total number of confirmed arbitrage executions."),
		executionsFailed:   newCounter("failed_arbitrages_total", "Total number of failed arbitrage executions."),
		executionsSkipped:  newCounter("skipped_arbitrages_total", "Total number of executions skipped by the gas price ceiling."),
		quoteFailures:      newCounter("quote_failures_total", "Total number of cycles affected by a price fetch failure."),
		evaluationFailures: newCounter("evaluation_failures_total", "Total number of failed profitability simulations."),
		spreadBps:          newGauge("spread_bps", "Last observed spread or peg deviation in basis points."),
		lastCheck:          newGauge("last_check_timestamp_seconds", "Unix time of the last evaluation cycle."),
	}
	registry.MustRegister(
		p.cycles,
		p.opportunities,
		p.executionsOK,
		p.executionsFailed,
		p.executionsSkipped,
		p.quoteFailures,
		p.evaluationFailures,
		p.spreadBps,
		p.lastCheck,
	)
	p.Metrics = &Metrics{
		Cycles:             promCounter{p.cycles},
		Opportunities:      promCounter{p.opportunities},
		ExecutionsOK:       promCounter{p.executionsOK},
		ExecutionsFailed:   promCounter{p.executionsFailed},
		ExecutionsSkipped:  promCounter{p.executionsSkipped},
		QuoteFailures:      promCounter{p.quoteFailures},
		EvaluationFailures: promCounter{p.evaluationFailures},
		SpreadBps:          promGauge{p.spreadBps},
		LastCheck:          promGauge{p.lastCheck},
	}
	return p
}

func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}
