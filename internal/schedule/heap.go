package schedule

import (
	"container/heap"
	"time"

	"github.com/weirlabs/weir/pkg/api"
)

type (
	// entry is one pending run: the dataflow it belongs to, when it fires,
	// and the function that starts it
	entry struct {
		dataflow api.DataflowID
		at       time.Time
		fn       RunFunc
		index    int
	}

	// runHeap orders pending runs by fire time, with at most one entry per
	// dataflow; scheduling again replaces the previous entry
	runHeap struct {
		items []*entry
		byID  map[api.DataflowID]*entry
	}
)

func newRunHeap() *runHeap {
	h := &runHeap{byID: map[api.DataflowID]*entry{}}
	heap.Init(h)
	return h
}

// insert adds a pending run, replacing any existing entry for the dataflow
func (h *runHeap) insert(e *entry) {
	if e == nil || e.fn == nil || e.at.IsZero() {
		return
	}
	if old, ok := h.byID[e.dataflow]; ok && old != nil {
		old.fn = e.fn
		old.at = e.at
		heap.Fix(h, old.index)
		return
	}
	heap.Push(h, e)
}

// pop removes and returns the next pending run
func (h *runHeap) pop() *entry {
	if h.Len() == 0 {
		return nil
	}
	return heap.Pop(h).(*entry)
}

// peek returns the next pending run without removing it
func (h *runHeap) peek() *entry {
	if len(h.items) == 0 {
		return nil
	}
	return h.items[0]
}

// cancel removes the pending run for a dataflow, if any
func (h *runHeap) cancel(id api.DataflowID) {
	e, ok := h.byID[id]
	if !ok || e == nil {
		return
	}
	heap.Remove(h, e.index)
}

func (h *runHeap) Len() int {
	return len(h.items)
}

func (h *runHeap) Less(i, j int) bool {
	return h.items[i].at.Before(h.items[j].at)
}

func (h *runHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *runHeap) Push(x any) {
	e := x.(*entry)
	e.index = len(h.items)
	h.items = append(h.items, e)
	h.byID[e.dataflow] = e
}

func (h *runHeap) Pop() any {
	old := h.items
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	h.items = old[:n-1]
	delete(h.byID, e.dataflow)
	return e
}
