package kernel

// ValidateNode checks the compiled-graph invariants the kernel expects:
// every mov with To == SlotStore carries a Target, and every Order
// with a BarrierID set names a barrier/sampler priority. It does not
// walk Next — cycles are legal and the kernel never memoizes by node
// identity.
//
// The kernel itself never calls ValidateNode; it is a courtesy for
// graph compilers, which are out of scope for this package, that want
// to fail fast instead of discovering a malformed node mid-drain.
func ValidateNode(n *Node) error {
	for _, step := range n.Seq {
		if step.Kind == StepMov && step.Mov.To == SlotStore && step.Mov.Target == nil {
			return ErrMissingStoreTarget
		}
		if step.Order != nil && step.Order.BarrierID != 0 {
			if step.Order.Priority != PriorityBarrier && step.Order.Priority != PrioritySampler {
				return ErrBarrierPriorityMismatch
			}
		}
	}
	return nil
}

// ValidateBeforeCommand rejects the unsupported `closure` derivation
// kind a graph compiler might otherwise accept. Commands recognized by
// initRefInScope are `map` and `field` only; anything else (including
// the historical `closure` case) is a compile-time error.
func ValidateBeforeCommand(kind string) error {
	switch kind {
	case "map", "field":
		return nil
	default:
		return ErrUnsupportedDerivation
	}
}
