package pipeline

import "github.com/prometheus/client_golang/prometheus"

// Metrics 管道指标
type Metrics struct {
	Requests     *prometheus.CounterVec   // name, kind, result
	Duration     *prometheus.HistogramVec // name, kind
	Transactions *prometheus.CounterVec   // outcome
}

// NewMetrics reg 为 nil 时只创建不注册
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accesscore", Subsystem: "pipeline", Name: "requests_total",
			Help: "Requests handled by the pipeline, by result.",
		}, []string{"name", "kind", "result"}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "accesscore", Subsystem: "pipeline", Name: "request_duration_seconds",
			Help:    "Time spent inside the logging stage and below.",
			Buckets: prometheus.DefBuckets,
		}, []string{"name", "kind"}),
		Transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "accesscore", Subsystem: "pipeline", Name: "transactions_total",
			Help: "Transaction outcomes: committed, rolled_back, dispatch_failed, joined.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.Duration, m.Transactions)
	}
	return m
}
