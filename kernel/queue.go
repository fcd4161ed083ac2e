package kernel

import "strconv"

// Queue is the hybrid scheduler (C1): six priority buckets. Buckets
// 0, 1, 2 and 5 (child, pure, read, effect) are FIFO linked lists;
// buckets 3 and 4 (barrier, sampler) share one skew heap ordered by
// the pair (priority, id). Not thread-safe: single drainer, cooperative
// scheduling only.
type Queue struct {
	fifo     [6]fifoBucket // only indices 0,1,2,5 are used
	heap     *heapNode
	heapSize [2]int // heapSize[0] = bucket 3 (barrier), heapSize[1] = bucket 4 (sampler)
	barriers map[any]struct{}

	// Hooks for the ambient metrics registry (A2); nil-safe. OnPush and
	// OnPop are called from Push/DeleteMin; OnBarrierDrop is called by
	// the interpreter when it drops a duplicate barrier arrival. They
	// exist purely for observation — the
	// kernel never reads back through them.
	OnPush        func(bucket int)
	OnPop         func(bucket int)
	OnBarrierDrop func()
}

// NewQueue returns an empty Queue ready for launch seeding.
func NewQueue() *Queue {
	return &Queue{barriers: make(map[any]struct{})}
}

// fifoBucket is a singly-linked {first,last,size} FIFO list.
type fifoBucket struct {
	first, last *fifoNode
	size        int
}

type fifoNode struct {
	layer Layer
	next  *fifoNode
}

func (b *fifoBucket) push(l Layer) {
	n := &fifoNode{layer: l}
	if b.last == nil {
		b.first, b.last = n, n
	} else {
		b.last.next = n
		b.last = n
	}
	b.size++
}

func (b *fifoBucket) pop() (Layer, bool) {
	if b.first == nil {
		return Layer{}, false
	}
	n := b.first
	b.first = n.next
	if b.first == nil {
		b.last = nil
	}
	b.size--
	return n.layer, true
}

// heapNode is a skew heap node holding one Layer.
type heapNode struct {
	layer       Layer
	left, right *heapNode
}

// heapLess orders the barrier/sampler heap: a keeps priority over b
// iff priority(a.Type) < priority(b.Type), or equal priorities with
// a.ID <= b.ID.
func heapLess(a, b Layer) bool {
	pa, pb := bucketOf(a.Type), bucketOf(b.Type)
	if pa != pb {
		return pa < pb
	}
	return a.ID <= b.ID
}

// mergeHeap is the standard skew heap merge: pick the smaller root,
// swap its children, and recursively merge its old right child with
// the other heap.
func mergeHeap(a, b *heapNode) *heapNode {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if !heapLess(a.layer, b.layer) {
		a, b = b, a
	}
	merged := mergeHeap(a.right, b)
	a.left, a.right = merged, a.left
	return a
}

// barrierKey computes the barrier de-duplication key for an Order:
// "${page.FullID}_${barrierID}" when a page is present, else the bare
// BarrierID, else 0 for unordered steps. Shared with the interpreter
// (C3), which needs the same key to check/clear q.barriers.
func barrierKey(page *Leaf, barrierID int) any {
	if barrierID == 0 {
		return 0
	}
	if page != nil {
		return page.FullID + "_" + strconv.Itoa(barrierID)
	}
	return barrierID
}

// HasBarrier reports whether key is currently enqueued.
func (q *Queue) HasBarrier(key any) bool {
	_, ok := q.barriers[key]
	return ok
}

// AddBarrier records key as enqueued.
func (q *Queue) AddBarrier(key any) {
	q.barriers[key] = struct{}{}
}

// RemoveBarrier clears key — called exactly when its layer is popped
// and executed (invariant 2).
func (q *Queue) RemoveBarrier(key any) {
	delete(q.barriers, key)
}

// PushFirstHeapItem creates a fresh Stack for node/payload under the
// given page/scope/parent and enqueues its first layer (idx=0, id=0)
// at the given priority — the root-seeding primitive used by the
// Launch Front-end (C5). The name is inherited from the original
// implementation; despite it, the enqueue dispatches through the same
// bucket logic as any other priority (most launches seed at
// PriorityPure, a FIFO bucket, not the heap).
func (q *Queue) PushFirstHeapItem(node *Node, payload any, page *Leaf, scope *Scope, parent *Stack, typ PriorityTag) *Stack {
	stack := &Stack{Node: node, Parent: parent, Value: payload, Page: page, Scope: scope}
	q.Push(0, stack, typ, 0)
	return stack
}

// Push enqueues a layer {idx, stack, typ, id} into the correct bucket.
func (q *Queue) Push(idx int, stack *Stack, typ PriorityTag, id int) {
	layer := Layer{Idx: idx, Stack: stack, Type: typ, ID: id}
	bucket := bucketOf(typ)

	if bucket == 3 || bucket == 4 {
		q.heap = mergeHeap(q.heap, &heapNode{layer: layer})
		q.heapSize[bucket-3]++
	} else {
		q.fifo[bucket].push(layer)
	}

	if q.OnPush != nil {
		q.OnPush(bucket)
	}
}

// DeleteMin scans buckets in order 0..5 and returns the first
// non-empty one. For buckets 3/4 it pops the heap root and re-merges
// its children.
func (q *Queue) DeleteMin() (Layer, bool) {
	for bucket := 0; bucket < 6; bucket++ {
		if bucket == 3 || bucket == 4 {
			if q.heapSize[0]+q.heapSize[1] == 0 {
				continue
			}
			root := q.heap
			q.heap = mergeHeap(root.left, root.right)
			q.heapSize[bucketOf(root.layer.Type)-3]--
			if q.OnPop != nil {
				q.OnPop(bucketOf(root.layer.Type))
			}
			return root.layer, true
		}
		if q.fifo[bucket].size > 0 {
			layer, _ := q.fifo[bucket].pop()
			if q.OnPop != nil {
				q.OnPop(bucket)
			}
			return layer, true
		}
	}
	return Layer{}, false
}

// Depth reports the number of resident layers in each of the six
// buckets, in bucket-index order — used by the Metrics Registry's
// DrainDepth gauge.
func (q *Queue) Depth() [6]int {
	var d [6]int
	for i := 0; i < 6; i++ {
		if i == 3 || i == 4 {
			d[i] = q.heapSize[i-3]
		} else {
			d[i] = q.fifo[i].size
		}
	}
	return d
}
