package metrics

import "github.com/prometheus/client_golang/prometheus"

// RepairMetrics tracks progress of media normalization passes.
type RepairMetrics struct {
	rowsScanned   prometheus.Counter
	rowsRewritten prometheus.Counter
	mediaCreated  prometheus.Counter
	refsDropped   prometheus.Counter
	decodeDepth   prometheus.Histogram
}

// NewRepairMetrics registers the repair metrics on the provided registerer.
func NewRepairMetrics(reg prometheus.Registerer) *RepairMetrics {
	if reg == nil {
		return &RepairMetrics{}
	}
	rowsScanned := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repair_rows_scanned_total",
		Help: "Field value rows inspected by the repair pass.",
	})
	rowsRewritten := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repair_rows_rewritten_total",
		Help: "Field value rows whose stored value was rewritten.",
	})
	mediaCreated := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repair_media_created_total",
		Help: "Media rows created while normalizing field values.",
	})
	refsDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "repair_refs_dropped_total",
		Help: "Unresolvable media references dropped during normalization.",
	})
	decodeDepth := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "repair_decode_depth",
		Help:    "JSON decode passes needed before reaching a container.",
		Buckets: []float64{1, 2, 3, 4, 5},
	})
	reg.MustRegister(rowsScanned, rowsRewritten, mediaCreated, refsDropped, decodeDepth)
	return &RepairMetrics{
		rowsScanned:   rowsScanned,
		rowsRewritten: rowsRewritten,
		mediaCreated:  mediaCreated,
		refsDropped:   refsDropped,
		decodeDepth:   decodeDepth,
	}
}

// AddRowsScanned increments the scanned row counter.
func (r *RepairMetrics) AddRowsScanned(n int) {
	if r == nil || r.rowsScanned == nil {
		return
	}
	r.rowsScanned.Add(float64(n))
}

// AddRowsRewritten increments the rewritten row counter.
func (r *RepairMetrics) AddRowsRewritten(n int) {
	if r == nil || r.rowsRewritten == nil {
		return
	}
	r.rowsRewritten.Add(float64(n))
}

// AddMediaCreated increments the created media counter.
func (r *RepairMetrics) AddMediaCreated(n int) {
	if r == nil || r.mediaCreated == nil {
		return
	}
	r.mediaCreated.Add(float64(n))
}

// AddRefsDropped increments the dropped reference counter.
func (r *RepairMetrics) AddRefsDropped(n int) {
	if r == nil || r.refsDropped == nil {
		return
	}
	r.refsDropped.Add(float64(n))
}

// ObserveDecodeDepth records how many decode passes a value needed.
func (r *RepairMetrics) ObserveDecodeDepth(depth int) {
	if r == nil || r.decodeDepth == nil {
		return
	}
	r.decodeDepth.Observe(float64(depth))
}
