package kernel

import (
	"context"

	"github.com/movpushmov/effector/kernel/trace"
)

// Inspector is C6's contract: a single process-wide observer invoked
// after every node activation's step loop completes, successfully or
// not. It is best-effort — no return value, no way to influence the
// drain.
type Inspector func(stack *Stack, result ActivationResult)

// Kernel is the drain loop owner (C4). Its ambient fields mirror the
// process-wide state a strictly typed implementation bundles into a
// context object rather than using as literal globals; Kernel is that
// object. A zero Kernel is not usable — construct one with New.
type Kernel struct {
	// Metrics, Diagnostics and MaxSteps are the A2/A3/A5 collaborators;
	// all are nil-safe except MaxSteps (0 means unlimited).
	Metrics     *Registry
	Diagnostics DiagnosticSink
	MaxSteps    int

	inspector Inspector
	emitter   trace.Emitter
	snapshots *snapshotHook

	// Ambient state, snapshotted on drain entry and restored on exit so
	// a reentrant launch never leaks its context into the caller that
	// triggered it.
	isRoot       bool
	currentPage  *Leaf
	forkPage     *Scope
	isWatch      bool
	isPure       bool
	currentQueue *Queue
	currentRunID string

	Context context.Context
}

// New returns a Kernel configured by opts (A5). Without options it has
// no emitter, metrics, or diagnostic sink.
func New(opts ...Option) (*Kernel, error) {
	k := &Kernel{isRoot: true, Context: context.Background()}
	cfg := &kernelConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	cfg.applyTo(k)
	return k, nil
}

// ctx returns the context a diagnostic sink or snapshot store call
// should use. It is never nil.
func (k *Kernel) ctx() context.Context {
	if k.Context != nil {
		return k.Context
	}
	return context.Background()
}

// ambientSnapshot captures the {isRoot, currentPage, forkPage,
// isWatch, isPure, currentQueue} tuple a drain must restore on exit.
type ambientSnapshot struct {
	isRoot       bool
	currentPage  *Leaf
	forkPage     *Scope
	isWatch      bool
	isPure       bool
	currentQueue *Queue
}

func (k *Kernel) snapshotAmbient() ambientSnapshot {
	return ambientSnapshot{
		isRoot:       k.isRoot,
		currentPage:  k.currentPage,
		forkPage:     k.forkPage,
		isWatch:      k.isWatch,
		isPure:       k.isPure,
		currentQueue: k.currentQueue,
	}
}

func (k *Kernel) restoreAmbient(s ambientSnapshot) {
	k.isRoot = s.isRoot
	k.currentPage = s.currentPage
	k.forkPage = s.forkPage
	k.isWatch = s.isWatch
	k.isPure = s.isPure
	k.currentQueue = s.currentQueue
}

// drain owns the single drain loop (C4). It captures the ambient
// snapshot, marks this drain non-root and runs q to completion,
// restoring the ambient snapshot on every exit path.
func (k *Kernel) drain(q *Queue, runID string) {
	saved := k.snapshotAmbient()
	savedRunID := k.currentRunID
	k.isRoot = false
	k.currentQueue = q
	k.currentRunID = runID
	defer func() {
		k.restoreAmbient(saved)
		k.currentRunID = savedRunID
	}()

	if k.Metrics != nil {
		defer k.Metrics.observeDrainDepth(q)
	}

	for {
		layer, ok := q.DeleteMin()
		if !ok {
			return
		}

		stack := layer.Stack
		k.currentPage = stack.Page
		k.forkPage = getForkPage(stack)

		result := k.runNode(layer)

		if k.inspector != nil {
			k.inspector(stack, result)
		}

		if result.Outcome != ActivationCompleted {
			continue
		}
		k.snapshots.onActivation(k.ctx(), k.forkPage)

		node := stack.Node
		value := getValue(stack)

		for _, child := range node.Next {
			childStack := &Stack{Node: child, Parent: stack, Value: value, Page: stack.Page, Scope: stack.Scope}
			q.Push(0, childStack, PriorityChild, 0)
		}

		if fp := k.forkPage; fp != nil {
			if node.Meta.NeedFxCounter && fp.FxCount != nil {
				k.enqueueSink(q, fp.FxCount, stack, value)
			}
			if node.Meta.StoreChange && fp.StoreChange != nil {
				k.enqueueSink(q, fp.StoreChange, stack, value)
			}
			if node.Meta.WarnSerialize && fp.WarnSerializeNode != nil {
				k.enqueueSink(q, fp.WarnSerializeNode, stack, value)
			}
			for _, extra := range fp.AdditionalLinks[node.ID] {
				k.enqueueSink(q, extra, stack, value)
			}
		}
	}
}

// enqueueSink seeds a single child-priority layer for one of the
// bookkeeping sinks C4 notifies after a node activation.
func (k *Kernel) enqueueSink(q *Queue, target *Node, parent *Stack, value any) {
	sinkStack := &Stack{Node: target, Parent: parent, Value: value, Page: parent.Page, Scope: parent.Scope}
	q.Push(0, sinkStack, PriorityChild, 0)
}

// SetInspector installs the C6 singleton, replacing whatever was
// installed before — including the default trace-emitting inspector
// WithEmitter installs. Passing nil disables inspection. It is
// idempotent and safe to call between (never during) drains.
func (k *Kernel) SetInspector(i Inspector) {
	k.inspector = i
}

// installEmitter wires e as the default C6 inspector: every node
// activation becomes one trace.Event (A1). A caller that also needs
// its own inspector should call SetInspector afterward and emit
// through e itself from that callback.
func (k *Kernel) installEmitter(e trace.Emitter) {
	k.emitter = e
	k.SetInspector(func(stack *Stack, result ActivationResult) {
		k.emitTrace(stack, result)
	})
}

func (k *Kernel) emitTrace(stack *Stack, result ActivationResult) {
	msg := "activated"
	switch {
	case result.Outcome == ActivationReenqueued:
		msg = "reenqueued"
	case result.Failed:
		msg = "failed"
	case result.Outcome == ActivationStopped:
		msg = "stopped"
	}

	k.emitter.Emit(trace.Event{
		RunID:  k.currentRunID,
		NodeID: stack.Node.ID,
		Msg:    msg,
	})
}
