package metrics

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	metricPrefix = "govee_proxy_"

	resultSuccess  = "success"
	resultRejected = "rejected"
	resultError    = "error"
)

var (
	registerOnce sync.Once

	vendorCalls   *prometheus.CounterVec
	vendorLatency *prometheus.HistogramVec

	fallbackTotal *prometheus.CounterVec

	loginAttempts *prometheus.CounterVec
)

// Init registers proxy metrics. Safe to call more than once.
func Init(logger *log.Logger) {
	registerOnce.Do(func() {
		vendorCalls = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "vendor_calls_total",
				Help: "Total vendor API calls by operation, payload variant and result",
			},
			[]string{"op", "variant", "result"},
		)
		vendorLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "vendor_call_latency_seconds",
				Help:    "Vendor API call latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op", "variant", "result"},
		)
		fallbackTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "payload_fallback_total",
				Help: "Total operations that fell back to the nested payload variant",
			},
			[]string{"op"},
		)
		loginAttempts = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "login_attempts_total",
				Help: "Total login attempts by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			vendorCalls,
			vendorLatency,
			fallbackTotal,
			loginAttempts,
		)

		if logger != nil {
			logger.Printf("metrics registered with prefix %s", metricPrefix)
		}
	})
}

// ObserveVendorCall records one upstream call.
func ObserveVendorCall(op, variant, result string, duration time.Duration) {
	if op == "" {
		op = "unknown"
	}
	if variant == "" {
		variant = "none"
	}
	if result == "" {
		result = resultSuccess
	}
	if vendorCalls != nil {
		vendorCalls.WithLabelValues(op, variant, result).Inc()
	}
	if vendorLatency != nil {
		vendorLatency.WithLabelValues(op, variant, result).Observe(duration.Seconds())
	}
}

// IncFallback counts an operation that needed the nested-variant fallback.
func IncFallback(op string) {
	if op == "" {
		op = "unknown"
	}
	if fallbackTotal != nil {
		fallbackTotal.WithLabelValues(op).Inc()
	}
}

// IncLogin counts a login attempt.
func IncLogin(result string) {
	if result == "" {
		result = "unknown"
	}
	if loginAttempts != nil {
		loginAttempts.WithLabelValues(result).Inc()
	}
}

// Exported constants for callers.
const (
	ResultSuccess  = resultSuccess
	ResultRejected = resultRejected
	ResultError    = resultError
)
