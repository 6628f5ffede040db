package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTP
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)

	// Liquidity decisions
	LiquidityChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "liquidity_checks_total",
			Help: "Total liquidity checks by outcome code",
		},
		[]string{"code"}, // OK|AC04|AM04|AM12
	)
	CreditsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liquidity_credits_total",
			Help: "Total bank credits",
		},
	)

	// Advisory risk model
	RiskScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "liquidity_risk_score",
			Help:    "Advisory risk scores of checked transactions",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)
	HighRiskTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "liquidity_high_risk_total",
			Help: "Checks scoring above the high-risk threshold",
		},
	)

	// Worker queue
	WorkerQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "worker_queue_depth",
			Help: "Current worker queue depth",
		},
	)
)

// Handler serves the /metrics endpoint.
var Handler = promhttp.Handler

func Init() {
	prometheus.MustRegister(RequestsTotal)
	prometheus.MustRegister(LiquidityChecksTotal)
	prometheus.MustRegister(CreditsTotal)
	prometheus.MustRegister(RiskScore)
	prometheus.MustRegister(HighRiskTotal)
	prometheus.MustRegister(WorkerQueueDepth)
}
