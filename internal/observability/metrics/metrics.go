// Package metrics provides Prometheus instrumentation for the deploy and
// verify workflows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	enabled     bool
	serviceName string

	// Deployment metrics
	deploymentsTotal *prometheus.CounterVec

	// Verification metrics
	verificationSubmitTotal *prometheus.CounterVec
	verificationResultTotal *prometheus.CounterVec

	// Explorer API metrics
	explorerRequestsTotal *prometheus.CounterVec
)

// Init initializes the metrics system. When disabled every record call is
// a no-op, so call sites never need to guard.
func Init(enabledFlag bool, svcName string) {
	enabled = enabledFlag
	serviceName = svcName

	if !enabled {
		return
	}

	deploymentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "deployments_total",
			Help: "Total number of contract deployments",
		},
		[]string{"network", "status"},
	)

	verificationSubmitTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_submissions_total",
			Help: "Total number of verification submissions to explorers",
		},
		[]string{"service"},
	)

	verificationResultTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verification_results_total",
			Help: "Total number of verification runs by terminal status",
		},
		[]string{"status"},
	)

	explorerRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "explorer_requests_total",
			Help: "Total number of explorer API requests",
		},
		[]string{"action", "outcome"},
	)
}

// Deployment records a deployment attempt outcome.
func Deployment(network, status string) {
	if !enabled {
		return
	}
	deploymentsTotal.WithLabelValues(network, status).Inc()
}

// VerificationSubmit records one verification submission.
func VerificationSubmit() {
	if !enabled {
		return
	}
	verificationSubmitTotal.WithLabelValues(serviceName).Inc()
}

// VerificationResult records the terminal status of a verification run.
func VerificationResult(status string) {
	if !enabled {
		return
	}
	verificationResultTotal.WithLabelValues(status).Inc()
}

// ExplorerRequest records one explorer API request.
func ExplorerRequest(action, outcome string) {
	if !enabled {
		return
	}
	explorerRequestsTotal.WithLabelValues(action, outcome).Inc()
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
