// Package metrics exposes Prometheus counters for the picking workflow.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Uploads = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picking",
		Name:      "uploads_total",
		Help:      "Uploaded picking files by reconciliation result (clean, conflict, rejected).",
	}, []string{"result"})

	ConflictRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "picking",
		Name:      "conflict_rows_total",
		Help:      "Incoming rows whose pallet was already in the store.",
	})

	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picking",
		Name:      "decisions_total",
		Help:      "Operator decisions by decision and outcome.",
	}, []string{"decision", "outcome"})

	AppendedRows = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "picking",
		Name:      "appended_rows_total",
		Help:      "Rows appended to the store.",
	})

	Archives = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picking",
		Name:      "archives_total",
		Help:      "Archive runs by result (archived, empty, failed, partial).",
	}, []string{"result"})

	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "picking",
		Name:      "store_errors_total",
		Help:      "Failed store calls by operation.",
	}, []string{"op"})
)
