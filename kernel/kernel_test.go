package kernel

import "testing"

func leafNode(id string) *Node {
	return &Node{ID: id, Seq: []Step{{Kind: StepMov, Mov: MovData{From: SlotValue, To: SlotStack, Value: nil}}}}
}

func TestDrain_SchedulesSuccessorsAfterCompletion(t *testing.T) {
	k := &Kernel{isRoot: true, Context: nil}
	child := leafNode("child")
	parent := &Node{ID: "parent", Seq: []Step{{Kind: StepMov, Mov: MovData{From: SlotValue, To: SlotStack, Value: "x"}}}, Next: []*Node{child}}

	q := NewQueue()
	stack := &Stack{Node: parent}
	q.Push(0, stack, PriorityPure, 0)

	k.drain(q, "run-1")

	if _, ok := q.DeleteMin(); ok {
		t.Fatal("expected the drain to fully consume parent and its scheduled child")
	}
}

func TestDrain_RestoresAmbientStateOnExit(t *testing.T) {
	outerQueue := NewQueue()
	outerPage := &Leaf{FullID: "outer"}
	k := &Kernel{isRoot: true, currentPage: outerPage, currentQueue: outerQueue, isWatch: true}

	innerQueue := NewQueue()
	node := leafNode("n")
	innerQueue.Push(0, &Stack{Node: node}, PriorityPure, 0)

	k.drain(innerQueue, "run-2")

	if k.isRoot != true {
		t.Fatal("expected isRoot restored to true after drain returns")
	}
	if k.currentPage != outerPage {
		t.Fatal("expected currentPage restored to the outer page")
	}
	if k.currentQueue != outerQueue {
		t.Fatal("expected currentQueue restored to the outer queue")
	}
	if !k.isWatch {
		t.Fatal("expected isWatch restored to true")
	}
}

func TestDrain_MarksNonRootWhileRunning(t *testing.T) {
	k := &Kernel{isRoot: true}
	var observedRoot bool
	node := &Node{ID: "n", Seq: []Step{{
		Kind: StepCompute,
		Compute: ComputeData{
			Safe: true,
			Fn: func(any, any, *Stack, *Queue) any {
				observedRoot = k.isRoot
				return nil
			},
		},
	}}}

	q := NewQueue()
	q.Push(0, &Stack{Node: node}, PriorityPure, 0)
	k.drain(q, "run-3")

	if observedRoot {
		t.Fatal("expected isRoot false while a nested drain is running")
	}
}

func TestDrain_InspectorFiresForEveryActivation(t *testing.T) {
	k := &Kernel{isRoot: true}
	var seen []string
	k.SetInspector(func(stack *Stack, result ActivationResult) {
		seen = append(seen, stack.Node.ID)
	})

	q := NewQueue()
	q.Push(0, &Stack{Node: leafNode("a")}, PriorityPure, 0)
	q.Push(0, &Stack{Node: leafNode("b")}, PriorityPure, 0)
	k.drain(q, "run-4")

	if len(seen) != 2 || seen[0] != "a" || seen[1] != "b" {
		t.Fatalf("expected inspector called for a then b, got %v", seen)
	}
}

func TestDrain_EnqueuesScopeSinksGatedByNodeMeta(t *testing.T) {
	k := &Kernel{isRoot: true}
	fxCount := leafNode("fx-count")
	scope := NewScope(ScopeValues{}, false)
	scope.FxCount = fxCount

	activated := make(map[string]bool)
	k.SetInspector(func(stack *Stack, result ActivationResult) {
		activated[stack.Node.ID] = true
	})

	node := &Node{ID: "store-write", Seq: []Step{{Kind: StepMov, Mov: MovData{From: SlotValue, To: SlotStack}}}, Meta: NodeMeta{NeedFxCounter: true}}
	stack := &Stack{Node: node, Scope: scope}

	q := NewQueue()
	q.Push(0, stack, PriorityPure, 0)
	k.drain(q, "run-5")

	if !activated["fx-count"] {
		t.Fatal("expected the scope's FxCount sink to be activated after a NeedFxCounter node completes")
	}
}

func TestDrain_AdditionalLinksEnqueueExtraSuccessors(t *testing.T) {
	k := &Kernel{isRoot: true}
	extra := leafNode("extra")
	scope := NewScope(ScopeValues{}, false)
	scope.AdditionalLinks["n"] = []*Node{extra}

	activated := make(map[string]bool)
	k.SetInspector(func(stack *Stack, result ActivationResult) {
		activated[stack.Node.ID] = true
	})

	node := &Node{ID: "n", Seq: []Step{{Kind: StepMov, Mov: MovData{From: SlotValue, To: SlotStack}}}}
	stack := &Stack{Node: node, Scope: scope}

	q := NewQueue()
	q.Push(0, stack, PriorityPure, 0)
	k.drain(q, "run-6")

	if !activated["extra"] {
		t.Fatal("expected the scope's AdditionalLinks entry for n to be activated")
	}
}

func TestDrain_StoppedActivationDoesNotScheduleSuccessors(t *testing.T) {
	k := &Kernel{isRoot: true}
	child := leafNode("child")
	node := &Node{ID: "n", Next: []*Node{child}, Seq: []Step{{
		Kind: StepCompute,
		Compute: ComputeData{Safe: true, Filter: true, Fn: func(any, any, *Stack, *Queue) any { return false }},
	}}}

	activated := make(map[string]bool)
	k.SetInspector(func(stack *Stack, result ActivationResult) {
		activated[stack.Node.ID] = true
	})

	q := NewQueue()
	q.Push(0, &Stack{Node: node}, PriorityPure, 0)
	k.drain(q, "run-7")

	if activated["child"] {
		t.Fatal("expected a filtered-out node to never schedule its successors")
	}
}
