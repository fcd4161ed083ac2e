package kernel

import "errors"

// ErrUnsupportedDerivation is returned by graph-compile-time validation
// (never by the runtime drain path) when a StateRef's Before list
// contains a `closure` derivation command. The original source carried
// a `closure` case that was commented out; this kernel treats it as
// unsupported rather than silently ignoring it.
var ErrUnsupportedDerivation = errors.New("kernel: closure derivation is not supported")

// ErrMissingStoreTarget is returned by graph-compile-time validation
// when a mov step with To == SlotStore has a nil Target.
var ErrMissingStoreTarget = errors.New("kernel: mov to=store requires a non-nil Target StateRef")

// ErrBarrierPriorityMismatch is returned by graph-compile-time
// validation when a Step's Order sets BarrierID but Priority is
// neither PriorityBarrier nor PrioritySampler.
var ErrBarrierPriorityMismatch = errors.New("kernel: order.barrierID requires priority barrier or sampler")

// ErrMaxStepsExceeded is returned internally (never propagated to the
// launcher, per the no-retry/no-propagation error model) when a single
// node's step sequence runs past a configured WithMaxSteps ceiling.
// It exists purely as a runaway-node guard; the default configuration
// (MaxSteps == 0) disables it so default behavior matches the
// unlimited-steps semantics in the spec.
var ErrMaxStepsExceeded = errors.New("kernel: node exceeded configured max step count")
