package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evalconsole_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "method", "code"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evalconsole_http_request_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method"})

	AsksServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evalconsole_asks_served_total",
		Help: "Ask records persisted, by served policy",
	}, []string{"policy"})

	AskFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evalconsole_ask_failures_total",
		Help: "Ask calls that persisted nothing, by error kind",
	}, []string{"kind"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evalconsole_provider_latency_millis",
		Help:    "Milliseconds for one engine to produce a candidate answer",
		Buckets: []float64{50, 250, 500, 1000, 2500, 5000, 10000, 20000, 40000},
	}, []string{"provider"})

	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evalconsole_provider_errors_total",
		Help: "Engine calls that failed or returned an empty answer",
	}, []string{"provider"})

	FeedbackRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evalconsole_feedback_total",
		Help: "Feedback submissions by user choice; replays count under replayed=true",
	}, []string{"choice", "replayed"})

	WSClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evalconsole_ws_clients",
		Help: "Connected research console websocket clients",
	})
)
