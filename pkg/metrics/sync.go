package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Resultados usados como etiqueta "result".
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// SyncMetrics contadores del motor de sincronización. Todos los métodos aceptan receptor nil.
type SyncMetrics struct {
	labelUpdates      *prometheus.CounterVec
	checkouts         *prometheus.CounterVec
	sequenceConflicts *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
}

// NewSyncMetrics registra los colectores en reg. Con reg nil devuelve métricas inertes.
func NewSyncMetrics(reg prometheus.Registerer) *SyncMetrics {
	if reg == nil {
		return &SyncMetrics{}
	}
	labelUpdates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricesync_label_updates_total",
		Help: "Actualizaciones de etiquetas por operación y resultado.",
	}, []string{"op", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricesync_checkout_total",
		Help: "Ventas procesadas por resultado.",
	}, []string{"result"})
	sequenceConflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "pricesync_sequence_conflicts_total",
		Help: "Conflictos de escritura al asignar consecutivos.",
	}, []string{"counter"})
	reconcileDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "pricesync_reconcile_duration_seconds",
		Help:    "Duración de cada ciclo de reconciliación de etiquetas.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(labelUpdates, checkouts, sequenceConflicts, reconcileDuration)
	return &SyncMetrics{
		labelUpdates:      labelUpdates,
		checkouts:         checkouts,
		sequenceConflicts: sequenceConflicts,
		reconcileDuration: reconcileDuration,
	}
}

// LabelUpdate cuenta una actualización de etiqueta (assign, discount, clear, resync, ...).
func (m *SyncMetrics) LabelUpdate(op string, err error) {
	if m == nil || m.labelUpdates == nil {
		return
	}
	m.labelUpdates.WithLabelValues(normalizeLabel(op), result(err)).Inc()
}

// Checkout cuenta una venta por resultado (ok o el código de error).
func (m *SyncMetrics) Checkout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// SequenceConflict cuenta un reintento del asignador.
func (m *SyncMetrics) SequenceConflict(counter string) {
	if m == nil || m.sequenceConflicts == nil {
		return
	}
	m.sequenceConflicts.WithLabelValues(normalizeLabel(counter)).Inc()
}

// ObserveReconcile registra la duración de un ciclo.
func (m *SyncMetrics) ObserveReconcile(d time.Duration) {
	if m == nil || m.reconcileDuration == nil {
		return
	}
	m.reconcileDuration.Observe(d.Seconds())
}

func result(err error) string {
	if err != nil {
		return ResultFailed
	}
	return ResultOK
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
