// Package metrics defines and registers all custom Prometheus metrics for the
// storefront auth API. It is the single source of truth for metric names,
// labels, and help strings.
//
// Metrics register with the default Prometheus registry at package init; the
// /metrics endpoint exposes them.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "storefront"

// RegistrationsTotal counts registration requests by outcome.
// Label:
//   - result: "success", "invalid", "conflict", or "error"
var RegistrationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "registrations_total",
		Help:      "Total number of registration requests, by outcome.",
	},
	[]string{"result"},
)

// LoginAttemptsTotal counts password-step login attempts by outcome.
// Label:
//   - result: "challenge_issued", "invalid_credentials", "locked", or "error"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of password login attempts, by outcome.",
	},
	[]string{"result"},
)

// OTPVerificationsTotal counts second-factor verification attempts by outcome.
// Label:
//   - result: "success", "invalid_request", "expired", "invalid_code",
//     "attempts_exceeded", or "error"
var OTPVerificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "otp_verifications_total",
		Help:      "Total number of OTP verification attempts, by outcome.",
	},
	[]string{"result"},
)

// AuditEntriesDroppedTotal counts audit entries discarded because the async
// writer queue was full.
var AuditEntriesDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_entries_dropped_total",
		Help:      "Total number of audit entries dropped due to a full queue.",
	},
)
