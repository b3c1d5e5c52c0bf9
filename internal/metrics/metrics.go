package metrics

// Counter is a per-strategy counter.
type Counter interface {
	Inc(strategy string)
}

// Gauge is a per-strategy gauge.
type Gauge interface {
	Set(strategy string, value float64)
}

type Metrics struct {
	Cycles             Counter
	Opportunities      Counter
	ExecutionsOK       Counter
	ExecutionsFailed   Counter
	ExecutionsSkipped  Counter
	QuoteFailures      Counter
	EvaluationFailures Counter
	SpreadBps          Gauge
	LastCheck          Gauge
}

type noopCounter struct{}

func (noopCounter) Inc(string) {}

type noopGauge struct{}

func (noopGauge) Set(string, float64) {}

func NewNoop() *Metrics {
	n := noopCounter{}
	g := noopGauge{}
	return &Metrics{
		Cycles:             n,
		Opportunities:      n,
		ExecutionsOK:       n,
		ExecutionsFailed:   n,
		ExecutionsSkipped:  n,
		QuoteFailures:      n,
		EvaluationFailures: n,
		SpreadBps:          g,
		LastCheck:          g,
	}
}
