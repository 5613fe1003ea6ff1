package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rental_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	SessionsStartedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_sessions_started_total",
			Help: "Total number of rental sessions started",
		},
		[]string{"payment_type", "member"},
	)

	SessionsEndedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_sessions_ended_total",
			Help: "Total number of rental sessions ended",
		},
		[]string{"reason"},
	)

	RefundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_refunds_total",
			Help: "Total number of deposit refunds issued at session end",
		},
	)

	RefundedAmountTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_refunded_amount_total",
			Help: "Sum of refunded amounts in minor currency units",
		},
	)

	LedgerAppendFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_ledger_append_failures_total",
			Help: "Activity events that could not be appended to the ledger",
		},
		[]string{"activity_type"},
	)

	ActuatorFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_actuator_failures_total",
			Help: "Failed power on/off calls to the device actuator",
		},
		[]string{"command"},
	)

	PaymentRecordFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_payment_record_failures_total",
			Help: "Payments that could not be written to the payment ledger",
		},
		[]string{"type"},
	)

	SweepsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "rental_sweeps_total",
			Help: "Total number of expiry sweep passes",
		},
	)

	SweepDevicesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rental_sweep_devices_total",
			Help: "Devices handled by the expiry sweeper by outcome",
		},
		[]string{"outcome"},
	)

	RunningDevices = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "rental_running_devices",
			Help: "Devices with a running timer at the last sweep",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordSessionStarted(paymentType string, member bool) {
	m := "false"
	if member {
		m = "true"
	}
	SessionsStartedTotal.WithLabelValues(paymentType, m).Inc()
}

// RecordSessionEnded counts an ended session; reason is manual, expired or cancelled.
func RecordSessionEnded(reason string) {
	SessionsEndedTotal.WithLabelValues(reason).Inc()
}

func RecordRefund(amount int64) {
	RefundsTotal.Inc()
	RefundedAmountTotal.Add(float64(amount))
}

func RecordLedgerAppendFailure(activityType string) {
	LedgerAppendFailuresTotal.WithLabelValues(activityType).Inc()
}

func RecordActuatorFailure(command string) {
	ActuatorFailuresTotal.WithLabelValues(command).Inc()
}

func RecordPaymentFailure(paymentType string) {
	PaymentRecordFailuresTotal.WithLabelValues(paymentType).Inc()
}

func RecordSweep(running, expired, skipped, failed int) {
	SweepsTotal.Inc()
	RunningDevices.Set(float64(running))
	SweepDevicesTotal.WithLabelValues("expired").Add(float64(expired))
	SweepDevicesTotal.WithLabelValues("skipped_busy").Add(float64(skipped))
	SweepDevicesTotal.WithLabelValues("failed").Add(float64(failed))
}
