// Package metrics defines all custom Prometheus metrics for the mael portal.
// It is the single source of truth for metric names, labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mael"

// ── Account metrics ───────────────────────────────────────────────────────────

// SignupsTotal counts completed signups, labelled by assigned role.
var SignupsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "signups_total",
		Help:      "Total number of accounts created, by role.",
	},
	[]string{"role"},
)

// LoginsTotal counts login attempts.
// Label:
//   - result: "ok" or "failed" (failures are indistinguishable by cause on purpose)
var LoginsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "logins_total",
		Help:      "Total number of login attempts, by result.",
	},
	[]string{"result"},
)

// SessionsSweptTotal counts sessions removed by the opportunistic expiry sweep.
var SessionsSweptTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_swept_total",
		Help:      "Total number of expired sessions deleted by the sweep.",
	},
)

// ResetRequestsTotal counts password-reset requests. No existence label:
// the counter must not leak whether the address was registered.
var ResetRequestsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reset_requests_total",
		Help:      "Total number of password-reset requests accepted.",
	},
)

// ── Ingestion metrics ─────────────────────────────────────────────────────────

// MessagesIngestedTotal counts inbound messages that finished the pipeline.
// Label:
//   - result: "ok" or "error"
var MessagesIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "messages_ingested_total",
		Help:      "Total number of inbound messages processed, by result.",
	},
	[]string{"result"},
)

// IngestQueueDepth tracks the number of messages waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var IngestQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ingest_queue_depth",
		Help:      "Current number of messages pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)
