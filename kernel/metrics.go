package kernel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the A2 Prometheus collector, wired from C1 (queue
// push/pop), C3 (failure/latency) and C4 (drain exit). All metrics are
// namespaced "kernel" and are write-only from the kernel's own
// perspective — nothing in the drain path ever reads a metric back.
type Registry struct {
	queueDepth       *prometheus.GaugeVec
	barrierCollapses prometheus.Counter
	stepLatency      *prometheus.HistogramVec
	nodeFailures     *prometheus.CounterVec
	drainDepth       prometheus.Gauge

	NodeFailures *prometheus.CounterVec
}

// bucketLabels names the six drain buckets in index order, matching
// bucketOf.
var bucketLabels = [6]string{"child", "pure", "read", "barrier", "sampler", "effect"}

// NewRegistry registers the kernel's metrics with reg and returns the
// Registry handle. Passing a nil reg registers against
// prometheus.DefaultRegisterer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	r := &Registry{
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "kernel",
			Name:      "queue_depth",
			Help:      "Layers currently resident in a drain queue bucket",
		}, []string{"bucket"}),

		barrierCollapses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "kernel",
			Name:      "barrier_collapses_total",
			Help:      "Enqueue attempts dropped because their barrier key was already pending",
		}),

		stepLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "kernel",
			Name:      "step_latency_seconds",
			Help:      "Wall time spent running a node's step sequence from one popped layer to its next stopping point",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node_id", "priority"}),

		nodeFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "kernel",
			Name:      "node_failures_total",
			Help:      "Node activations that failed: an unsafe compute step whose user function panicked, or a MaxSteps overrun",
		}, []string{"node_id"}),

		drainDepth: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "kernel",
			Name:      "drain_depth",
			Help:      "Layers left in the queue when a drain loop returns; should be 0 on a clean exit",
		}),
	}
	r.NodeFailures = r.nodeFailures
	return r
}

// observeStepLatency records one C3 activation's duration.
func (r *Registry) observeStepLatency(nodeID string, priority PriorityTag, d time.Duration) {
	r.stepLatency.WithLabelValues(nodeID, string(priority)).Observe(d.Seconds())
}

// observeBarrierCollapse is called from the queue's OnBarrierDrop hook.
func (r *Registry) observeBarrierCollapse() {
	r.barrierCollapses.Inc()
}

// observeQueuePush/observeQueuePop are wired as a Queue's OnPush/OnPop
// hooks; bucket is the index produced by bucketOf.
func (r *Registry) observeQueuePush(bucket int) {
	r.queueDepth.WithLabelValues(bucketLabels[bucket]).Inc()
}

func (r *Registry) observeQueuePop(bucket int) {
	r.queueDepth.WithLabelValues(bucketLabels[bucket]).Dec()
}

// observeDrainDepth records the queue's total resident layers at the
// moment a drain loop exits.
func (r *Registry) observeDrainDepth(q *Queue) {
	depth := q.Depth()
	total := 0
	for _, d := range depth {
		total += d
	}
	r.drainDepth.Set(float64(total))
}

// wireQueue attaches this Registry's push/pop/barrier-drop hooks to q.
// Called by the Kernel for every fresh queue it creates
// (newWiredQueue); a Queue never outlives the Kernel that owns it, so
// there is no unwiring path.
func (r *Registry) wireQueue(q *Queue) {
	q.OnPush = r.observeQueuePush
	q.OnPop = r.observeQueuePop
	q.OnBarrierDrop = r.observeBarrierCollapse
}
