// Package metrics экспонирует счётчики журнала отметок для Prometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EventsRecorded - записанные события журнала, kind: checkpoint|task.
	EventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "race_events_recorded_total",
		Help: "Completion events appended to the ledger.",
	}, []string{"kind"})

	// EventsRevoked - отозванные события, kind: checkpoint|task.
	EventsRevoked = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "race_events_revoked_total",
		Help: "Completion events revoked from the ledger.",
	}, []string{"kind"})

	// EvidenceFailures - сбои хранилища фотоподтверждений, op: upload|delete.
	EvidenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "race_evidence_failures_total",
		Help: "Evidence storage operations that failed.",
	}, []string{"op"})
)
