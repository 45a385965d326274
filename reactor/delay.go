package reactor

import (
	"container/heap"

	"github.com/lam2003/netreactor/task"
)

// delayEntry is one scheduled DelayRunnable, keyed by absolute deadline in
// milliseconds. Duplicates (same deadline) are permitted; tie-break by
// insertion sequence to keep the heap's Less total and stable.
type delayEntry struct {
	deadlineMs int64
	seq        uint64
	runnable   task.DelayRunnable
	index      int // maintained by container/heap
}

// delayHeap is a min-heap of delayEntry ordered by deadline, used as the
// reactor's delay-task multi-map (spec.md 4.4: "delay-task multi-map keyed
// by absolute deadline").
type delayHeap []*delayEntry

func (h delayHeap) Len() int { return len(h) }

func (h delayHeap) Less(i, j int) bool {
	if h[i].deadlineMs != h[j].deadlineMs {
		return h[i].deadlineMs < h[j].deadlineMs
	}
	return h[i].seq < h[j].seq
}

func (h delayHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *delayHeap) Push(x any) {
	e := x.(*delayEntry)
	e.index = len(*h)
	*h = append(*h, e)
}

func (h *delayHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

var _ heap.Interface = (*delayHeap)(nil)
