package streaming

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the streaming counters. A nil *Metrics records nothing.
type Metrics struct {
	MeshesBuilt    prometheus.Counter
	FacesEmitted   prometheus.Counter
	Uploads        prometheus.Counter
	UploadsSkipped prometheus.Counter
	SlotsAllocated prometheus.Counter
	SlotsReused    prometheus.Counter
	BufferGrowths  prometheus.Counter
	VisibleChunks  prometheus.Gauge
	FlushSeconds   prometheus.Histogram
}

// NewMetrics creates the streaming metrics and registers them with reg when
// it is non-nil. Duplicate registrations are ignored.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		MeshesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "meshes_built_total",
			Help:      "Chunk meshes generated.",
		}),
		FacesEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "faces_emitted_total",
			Help:      "Face instances produced by the mesher.",
		}),
		Uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "uploads_total",
			Help:      "Instance buffers written to the render pool.",
		}),
		UploadsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "uploads_skipped_total",
			Help:      "Instance buffer uploads skipped because the contents were unchanged.",
		}),
		SlotsAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "slots_allocated_total",
			Help:      "Render slots newly created in the pool.",
		}),
		SlotsReused: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "slots_reused_total",
			Help:      "Render slots handed from a leaving chunk to an entering one.",
		}),
		BufferGrowths: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "buffer_growths_total",
			Help:      "Instance buffers grown past their initial capacity.",
		}),
		VisibleChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "visible_chunks",
			Help:      "Chunks in the current chunk order.",
		}),
		FlushSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "voxel",
			Subsystem: "streaming",
			Name:      "flush_seconds",
			Help:      "Time spent meshing and uploading dirty chunks per frame.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}
	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
					panic(err)
				}
			}
		}
	}
	return m
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.MeshesBuilt, m.FacesEmitted, m.Uploads, m.UploadsSkipped,
		m.SlotsAllocated, m.SlotsReused, m.BufferGrowths, m.VisibleChunks, m.FlushSeconds,
	}
}

func (m *Metrics) meshBuilt(faces int) {
	if m == nil {
		return
	}
	m.MeshesBuilt.Inc()
	m.FacesEmitted.Add(float64(faces))
}

func (m *Metrics) upload(skipped bool) {
	if m == nil {
		return
	}
	if skipped {
		m.UploadsSkipped.Inc()
		return
	}
	m.Uploads.Inc()
}

func (m *Metrics) slotAllocated() {
	if m != nil {
		m.SlotsAllocated.Inc()
	}
}

func (m *Metrics) slotReused() {
	if m != nil {
		m.SlotsReused.Inc()
	}
}

// BufferGrown records a pool growing one instance buffer.
func (m *Metrics) BufferGrown() {
	if m != nil {
		m.BufferGrowths.Inc()
	}
}

func (m *Metrics) visible(n int) {
	if m != nil {
		m.VisibleChunks.Set(float64(n))
	}
}

func (m *Metrics) flushed(seconds float64) {
	if m != nil {
		m.FlushSeconds.Observe(seconds)
	}
}
