package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtbook_chat_requests_total",
		Help: "Chat completion requests by outcome.",
	}, []string{"outcome"})

	chatDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debtbook_chat_request_duration_seconds",
		Help:    "Upstream chat completion latency.",
		Buckets: prometheus.DefBuckets,
	})

	recordMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtbook_record_mutations_total",
		Help: "Record store mutations by kind.",
	}, []string{"kind"})

	renders = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debtbook_renders_total",
		Help: "Document renders, split by signature attachment.",
	}, []string{"signed"})
)

func observeChat(err error, elapsed time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	chatRequests.WithLabelValues(outcome).Inc()
	chatDuration.Observe(elapsed.Seconds())
}

func observeMutation(kind string) {
	recordMutations.WithLabelValues(kind).Inc()
}

func observeRender(signed bool) {
	label := "false"
	if signed {
		label = "true"
	}
	renders.WithLabelValues(label).Inc()
}
