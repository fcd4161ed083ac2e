package kernel

import (
	"fmt"
	"time"
)

// localFrame is the interpreter's per-activation working state,
// separate from Stack because it never needs to survive a re-enqueue
// (a re-enqueued layer restarts the interpreter from scratch at the
// new idx).
type localFrame struct {
	fail       bool
	failReason error
	scope      any
}

// ActivationOutcome is C3's report to the kernel driver (C4) about what
// happened to one popped Layer.
type ActivationOutcome int

const (
	// ActivationReenqueued means the layer was abandoned because an
	// ordered step needed to wait for its priority turn (or was
	// dropped as a barrier duplicate); C4 must not schedule successors.
	ActivationReenqueued ActivationOutcome = iota

	// ActivationStopped means the node failed or was filtered out; no
	// successors are scheduled.
	ActivationStopped

	// ActivationCompleted means every step ran; C4 should schedule
	// successors using the finalized value.
	ActivationCompleted
)

// ActivationResult is the value C3 hands back to C4 (and, via the
// Inspector hook, to C6) after running a Layer to a stopping point.
type ActivationResult struct {
	Outcome    ActivationOutcome
	Failed     bool
	FailReason error
}

// runNode executes a Node's step sequence starting at layer.Idx (C3).
func (k *Kernel) runNode(layer Layer) ActivationResult {
	stack := layer.Stack
	node := stack.Node
	startIdx := layer.Idx

	local := localFrame{scope: node.Scope}
	pos := startIdx

	if k.Metrics != nil {
		start := time.Now()
		defer func() { k.Metrics.observeStepLatency(node.ID, layer.Type, time.Since(start)) }()
	}

	for pos < len(node.Seq) {
		if k.MaxSteps > 0 && pos-startIdx >= k.MaxSteps {
			k.reportFailure(stack, pos, ErrMaxStepsExceeded)
			return ActivationResult{Outcome: ActivationStopped, Failed: true, FailReason: ErrMaxStepsExceeded}
		}

		step := node.Seq[pos]

		if step.Order != nil {
			isFirst := pos == startIdx
			typeMatches := layer.Type == step.Order.Priority
			if !isFirst || !typeMatches {
				k.reenqueueOrdered(stack, pos, step.Order)
				return ActivationResult{Outcome: ActivationReenqueued}
			}
			if step.Order.BarrierID != 0 {
				k.currentQueue.RemoveBarrier(barrierKey(stack.Page, step.Order.BarrierID))
			}
		}

		failed, skip := k.execStep(step, stack, &local)
		if failed {
			k.reportFailure(stack, pos, local.failReason)
			return ActivationResult{Outcome: ActivationStopped, Failed: true, FailReason: local.failReason}
		}
		if skip {
			return ActivationResult{Outcome: ActivationStopped}
		}
		pos++
	}

	return ActivationResult{Outcome: ActivationCompleted}
}

// reenqueueOrdered re-enqueues the current layer at a step's required
// priority, applying barrier de-duplication (invariant 2) whenever
// BarrierID is set — both the barrier and sampler priority classes use
// this same join semantics.
func (k *Kernel) reenqueueOrdered(stack *Stack, pos int, order *Order) {
	if order.BarrierID == 0 {
		k.currentQueue.Push(pos, stack, order.Priority, 0)
		return
	}

	key := barrierKey(stack.Page, order.BarrierID)
	if k.currentQueue.HasBarrier(key) {
		if k.currentQueue.OnBarrierDrop != nil {
			k.currentQueue.OnBarrierDrop()
		}
		return
	}
	k.currentQueue.AddBarrier(key)
	k.currentQueue.Push(pos, stack, order.Priority, order.BarrierID)
}

// execStep runs one Step and reports (failed, skip).
func (k *Kernel) execStep(step Step, stack *Stack, local *localFrame) (failed, skip bool) {
	switch step.Kind {
	case StepMov:
		k.execMov(step.Mov, stack)
		return false, false
	case StepCompute:
		return k.execCompute(step.Compute, stack, local)
	default:
		return false, false
	}
}

// execMov runs a `mov` Step.
func (k *Kernel) execMov(data MovData, stack *Stack) {
	var value any
	switch data.From {
	case SlotStack:
		value = stack.Value
	case SlotA:
		value = stack.A
	case SlotB:
		value = stack.B
	case SlotValue:
		value = data.Value
	case SlotStore:
		value = k.movFromStore(stack, data.Store, data.SoftRead)
	}

	switch data.To {
	case SlotStack:
		stack.Value = value
	case SlotA:
		stack.A = value
	case SlotB:
		stack.B = value
	case SlotStore:
		ref := GetPageRef(stack.Page, getForkPage(stack), data.Target, false)
		ref.Current = value
	}
}

// movFromStore implements a load-bearing page-mutation subtlety:
// reading a store ref may update stack.Page as a side effect so that
// subsequent steps in the same node observe the updated page.
func (k *Kernel) movFromStore(stack *Stack, ref *StateRef, softRead bool) any {
	page := stack.Page
	owned := page != nil && refOwnedBy(page, ref.ID)

	if !owned {
		if np := GetPageForRef(page, ref.ID); np != nil {
			stack.Page = np
		} else if scope := getForkPage(stack); scope != nil {
			initRefInScope(scope, ref, false, true, softRead)
		}
		// else: neither a page nor a scope — fall through, GetPageRef
		// below will read the ref directly; this is not an error.
	}

	resolved := GetPageRef(stack.Page, getForkPage(stack), ref, false)
	return readRef(resolved)
}

func refOwnedBy(page *Leaf, id string) bool {
	if page == nil || page.Reg == nil {
		return false
	}
	_, ok := page.Reg[id]
	return ok
}

// execCompute runs a `compute` Step.
func (k *Kernel) execCompute(data ComputeData, stack *Stack, local *localFrame) (failed, skip bool) {
	if data.Fn == nil {
		return false, false
	}

	savedWatch, savedPure := k.isWatch, k.isPure
	k.isWatch = stack.Node.Meta.Op == "watch"
	k.isPure = data.Pure
	defer func() {
		k.isWatch = savedWatch
		k.isPure = savedPure
	}()

	var result any
	if data.Safe {
		result = data.Fn(getValue(stack), local.scope, stack, k.currentQueue)
	} else {
		result = k.tryRun(data.Fn, stack, local)
		if local.fail {
			return true, false
		}
	}

	if data.Filter {
		return false, isFalsy(result)
	}

	stack.Value = result
	return false, false
}

// tryRun invokes fn, converting a panic into a captured failure on
// local instead of propagating it — the Go analogue of catching a
// user function's exception. The drain itself is never torn down by
// a node failure.
func (k *Kernel) tryRun(fn ComputeFn, stack *Stack, local *localFrame) (result any) {
	defer func() {
		if r := recover(); r != nil {
			local.fail = true
			if err, ok := r.(error); ok {
				local.failReason = err
			} else {
				local.failReason = fmt.Errorf("%v", r)
			}
		}
	}()
	return fn(getValue(stack), local.scope, stack, k.currentQueue)
}

// isFalsy mirrors the predicate semantics a `filter` compute step
// needs: nil, false, a zero int, int64 or float64, or an empty string
// all skip the node's remaining steps. Values of any other type,
// including zeros of other numeric types, are truthy.
func isFalsy(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case bool:
		return !t
	case string:
		return t == ""
	case int:
		return t == 0
	case int64:
		return t == 0
	case float64:
		return t == 0
	default:
		return false
	}
}

// reportFailure forwards a node failure to the configured
// DiagnosticSink and metrics registry. It never panics and never
// affects drain continuation.
func (k *Kernel) reportFailure(stack *Stack, stepIdx int, err error) {
	if k.Metrics != nil {
		k.Metrics.NodeFailures.WithLabelValues(stack.Node.ID).Inc()
	}
	if k.Diagnostics != nil {
		k.Diagnostics.ReportFailure(k.ctx(), Failure{
			RunID:     k.currentRunID,
			NodeID:    stack.Node.ID,
			StepIndex: stepIdx,
			Err:       err,
			Value:     stack.Value,
		})
	}
}
