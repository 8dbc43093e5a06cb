package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "salary_predictor"

type metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	estimates *prometheus.CounterVec
	insights  *prometheus.CounterVec
	salary    prometheus.Histogram
}

func newMetrics(reg *prometheus.Registry) *metrics {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	factory := promauto.With(reg)

	return &metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		estimates: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "estimates_total",
			Help:      "Estimate requests by outcome.",
		}, []string{"outcome"}),
		insights: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_total",
			Help:      "Insight generation attempts by outcome.",
		}, []string{"outcome"}),
		salary: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "estimated_salary_thousands",
			Help:      "Distribution of estimated salaries, in thousands.",
			Buckets:   prometheus.LinearBuckets(25, 25, 10),
		}),
	}
}
