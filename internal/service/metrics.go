package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Результаты попытки регистрации (label result).
const (
	resultAccepted  = "accepted"
	resultInvalid   = "invalid"
	resultDuplicate = "duplicate"
	resultClosed    = "closed"
	resultError     = "error"
)

// Prometheus-метрики сервиса регистрации.
var (
	registrationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evr_registrations_total",
		Help: "Registration attempts by outcome.",
	}, []string{"result"})

	registrationsStored = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "evr_registrations_stored",
		Help: "Number of registrations in the primary store after the last mutation.",
	})

	exportSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evr_export_sync_total",
		Help: "Export workbook sync runs by outcome.",
	}, []string{"result"})

	exportSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "evr_export_sync_duration_seconds",
		Help:    "Duration of export workbook sync runs, retries included.",
		Buckets: prometheus.DefBuckets,
	})
)
