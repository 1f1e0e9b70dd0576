// internal/loader/queue.go
package loader

import "container/heap"

// readyItem wraps a job in the ready queue. seq is assigned at push time
// and breaks priority ties FIFO: among equal priorities the job enqueued
// first is popped first.
type readyItem struct {
	job   *Job
	prio  int64
	seq   uint64
	index int
}

// readyHeap is a max-heap over (priority desc, seq asc).
type readyHeap []*readyItem

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].prio != h[j].prio {
		return h[i].prio > h[j].prio
	}
	return h[i].seq < h[j].seq
}

func (h readyHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *readyHeap) Push(x any) {
	it := x.(*readyItem)
	it.index = len(*h)
	*h = append(*h, it)
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*h = old[:n-1]
	return it
}

// readyQueue is the priority-ordered queue of jobs whose dependencies
// are all OK. Not safe for concurrent use; the loader serializes access
// under its mutex.
type readyQueue struct {
	heap    readyHeap
	items   map[*Job]*readyItem
	nextSeq uint64
}

func newReadyQueue() *readyQueue {
	return &readyQueue{items: make(map[*Job]*readyItem)}
}

func (q *readyQueue) Len() int { return len(q.heap) }

// Push enqueues a job at the given effective priority.
func (q *readyQueue) Push(job *Job, priority int64) {
	it := &readyItem{job: job, prio: priority, seq: q.nextSeq}
	q.nextSeq++
	q.items[job] = it
	heap.Push(&q.heap, it)
}

// Pop removes and returns the highest-priority job, or nil when empty.
func (q *readyQueue) Pop() *Job {
	if len(q.heap) == 0 {
		return nil
	}
	it := heap.Pop(&q.heap).(*readyItem)
	delete(q.items, it.job)
	return it.job
}

// Contains reports whether the job is currently queued.
func (q *readyQueue) Contains(job *Job) bool {
	_, ok := q.items[job]
	return ok
}

// Remove takes a queued job out of the queue (cancellation path).
func (q *readyQueue) Remove(job *Job) {
	it, ok := q.items[job]
	if !ok {
		return
	}
	delete(q.items, job)
	heap.Remove(&q.heap, it.index)
}

// Reprioritize repositions a queued job after its effective priority
// grew. The original enqueue sequence is kept, so the FIFO tie-break is
// unaffected. O(log n).
func (q *readyQueue) Reprioritize(job *Job, priority int64) {
	it, ok := q.items[job]
	if !ok || it.prio == priority {
		return
	}
	it.prio = priority
	heap.Fix(&q.heap, it.index)
}
