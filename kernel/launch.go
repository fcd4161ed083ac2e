package kernel

import (
	"github.com/google/uuid"

	"github.com/movpushmov/effector/kernel/snapshot"
	"github.com/movpushmov/effector/kernel/trace"
)

// LaunchConfig is the object-form calling convention of Launch.
// Target/Params are parallel slices: Params[i] is the payload for
// Target[i]. A nil Page/Scope falls back to the ambient value active
// on the Kernel; a nil Stack seeds root activations with no parent.
type LaunchConfig struct {
	Target []Unit
	Params []any

	// Defer is the `upsert` flag: true means "enqueue into the
	// ambient queue and return without draining if we're not already
	// at the drain root".
	Defer bool

	Queue *Queue
	Page  *Leaf
	Scope *Scope
	Stack *Stack
	Meta  map[string]any
}

// Launch is the object-form front-end (C5).
func (k *Kernel) Launch(cfg LaunchConfig) {
	k.launch(cfg)
}

// LaunchUnit is the positional-form front-end: launch(unit, payload, upsert).
func (k *Kernel) LaunchUnit(unit Unit, payload any, upsert bool) {
	k.launch(LaunchConfig{Target: []Unit{unit}, Params: []any{payload}, Defer: upsert})
}

func (k *Kernel) launch(cfg LaunchConfig) {
	// Scope disambiguation: a nested launch into a different scope
	// must not inherit the outer one.
	if cfg.Scope != nil && k.forkPage != nil && k.forkPage != cfg.Scope {
		k.forkPage = nil
	}

	q := k.selectQueue(cfg)

	page := cfg.Page
	if page == nil {
		page = k.currentPage
	}
	scope := cfg.Scope
	if scope == nil {
		scope = k.forkPage
	}

	for i, unit := range cfg.Target {
		var payload any
		if i < len(cfg.Params) {
			payload = cfg.Params[i]
		}
		node := getGraph(unit)
		q.PushFirstHeapItem(node, payload, page, scope, cfg.Stack, PriorityPure)
	}

	if cfg.Defer && !k.isRoot {
		// The outer drain already owns q; it will pick up the new roots.
		return
	}

	k.drain(q, uuid.NewString())
}

// selectQueue implements the three-way queue selection rule:
// an explicit queue wins, then upsert reuses the ambient queue, then a
// fresh (metrics-wired) queue is created.
func (k *Kernel) selectQueue(cfg LaunchConfig) *Queue {
	if cfg.Queue != nil {
		return cfg.Queue
	}
	if cfg.Defer && k.currentQueue != nil {
		return k.currentQueue
	}
	return k.newWiredQueue()
}

func (k *Kernel) newWiredQueue() *Queue {
	q := NewQueue()
	if k.Metrics != nil {
		k.Metrics.wireQueue(q)
	}
	return q
}

// Option configures a Kernel at construction time (A5).
type Option func(*kernelConfig) error

type kernelConfig struct {
	emitter       trace.Emitter
	metrics       *Registry
	diagnostics   DiagnosticSink
	snapshotStore snapshot.Store
	snapshotEvery int
	maxSteps      int
}

func (cfg *kernelConfig) applyTo(k *Kernel) {
	k.Metrics = cfg.metrics
	k.Diagnostics = cfg.diagnostics
	k.MaxSteps = cfg.maxSteps

	if cfg.emitter != nil {
		k.installEmitter(cfg.emitter)
	}
	if cfg.snapshotStore != nil {
		k.snapshots = newSnapshotHook(cfg.snapshotStore, cfg.snapshotEvery)
	}
}

// WithEmitter installs e as the default C6 inspector: every node
// activation is turned into a trace.Event and forwarded to e.
func WithEmitter(e trace.Emitter) Option {
	return func(cfg *kernelConfig) error {
		cfg.emitter = e
		return nil
	}
}

// WithMetrics wires r into the drain loop and every queue it creates
// (A2).
func WithMetrics(r *Registry) Option {
	return func(cfg *kernelConfig) error {
		cfg.metrics = r
		return nil
	}
}

// WithDiagnosticSink installs s as the receiver of C3's tryRun failure
// reports (A3). The default Kernel has no sink: failures are counted
// via Metrics (if set) but otherwise silently dropped.
func WithDiagnosticSink(s DiagnosticSink) Option {
	return func(cfg *kernelConfig) error {
		cfg.diagnostics = s
		return nil
	}
}

// WithSnapshotStore enables ambient Scope snapshotting (A4): every
// `every` completed activations under a given Scope, its observed
// values are persisted to s. every <= 0 is treated as 1 (snapshot on
// every activation).
func WithSnapshotStore(s snapshot.Store, every int) Option {
	return func(cfg *kernelConfig) error {
		cfg.snapshotStore = s
		cfg.snapshotEvery = every
		return nil
	}
}

// WithMaxSteps caps the number of steps runNode will execute for a
// single activation before treating it as a runaway node. 0 (the
// default) disables the guard.
func WithMaxSteps(n int) Option {
	return func(cfg *kernelConfig) error {
		cfg.maxSteps = n
		return nil
	}
}
