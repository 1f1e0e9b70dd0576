// internal/loader/loader.go
package loader

import (
	"context"
	"log"
	"sync"

	"github.com/fawad-mazhar/delos/internal/metrics"
)

// jobInfo is the loader-side metadata of a registered (non-terminal)
// job. Entries live in Loader.jobs from submission until the job reaches
// a terminal status, and are guarded by the loader mutex.
type jobInfo struct {
	successors  []*Job // registered jobs depending on this one, in registration order
	pendingDeps int    // dependencies not yet OK
	executing   bool   // a worker is currently running the function
}

// Loader is the scheduler core: it owns the job graph registry, the
// ready queue and the worker pool, and dispatches jobs so that a job
// runs only after all of its dependencies finished OK, highest effective
// priority first.
//
// One mutex guards the registry, the queue, every status transition and
// the worker accounting. The mutex is released while user functions run,
// so job functions may call back into the loader (Prioritize included)
// without deadlocking.
type Loader struct {
	totalThreads  metrics.Gauge
	activeThreads metrics.Gauge
	logFailures   bool

	mu       sync.Mutex
	workCond *sync.Cond

	jobs  map[*Job]*jobInfo
	ready *readyQueue

	maxThreads int
	workers    int // live worker goroutines
	executing  int // jobs whose function is currently running
	scheduled  int // registered jobs not yet terminal
	started    bool

	drained chan struct{} // closed whenever scheduled == 0
	wg      sync.WaitGroup
}

// New creates a stopped loader. The gauges receive the live worker
// count (total) and the executing-job count (active); nil gauges are
// replaced with no-ops. When logFailures is set, every job failure is
// logged with the job name and error.
//
// Jobs can be scheduled before Start; they are dispatched once workers
// exist.
func New(total, active metrics.Gauge, maxThreads int, logFailures bool) *Loader {
	if total == nil {
		total = metrics.NoopGauge{}
	}
	if active == nil {
		active = metrics.NoopGauge{}
	}
	if maxThreads < 1 {
		maxThreads = 1
	}
	drained := make(chan struct{})
	close(drained)
	l := &Loader{
		totalThreads:  total,
		activeThreads: active,
		logFailures:   logFailures,
		jobs:          make(map[*Job]*jobInfo),
		ready:         newReadyQueue(),
		maxThreads:    maxThreads,
		drained:       drained,
	}
	l.workCond = sync.NewCond(&l.mu)
	return l
}

// NewTask bundles jobs into an owning handle. The task is not submitted
// until Task.Schedule is called.
func (l *Loader) NewTask(jobs ...*Job) *Task {
	return newTask(l, jobs)
}

// Start spawns workers and begins dispatching ready jobs.
func (l *Loader) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.started {
		return
	}
	l.started = true
	l.spawnLocked()
}

// Stop signals all workers to exit and joins them. Executing jobs run to
// completion; pending jobs stay scheduled and are dispatched again after
// the next Start.
func (l *Loader) Stop() {
	l.mu.Lock()
	l.started = false
	l.workCond.Broadcast()
	l.mu.Unlock()
	l.wg.Wait()
}

// Wait blocks until no scheduled job remains pending or executing, or
// until the context ends.
func (l *Loader) Wait(ctx context.Context) error {
	l.mu.Lock()
	ch := l.drained
	l.mu.Unlock()
	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MaxThreads returns the current concurrency limit.
func (l *Loader) MaxThreads() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.maxThreads
}

// SetMaxThreads adjusts the concurrency limit at any time. Raising it
// spawns workers if ready jobs are waiting; lowering it makes excess
// workers exit after their current job. No new job is dispatched beyond
// the lower of the old and new limits during the transition.
func (l *Loader) SetMaxThreads(n int) {
	if n < 1 {
		n = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxThreads = n
	l.workCond.Broadcast()
	l.spawnLocked()
}

// ScheduledJobCount returns the number of registered jobs that have not
// reached a terminal status yet.
func (l *Loader) ScheduledJobCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scheduled
}

// Prioritize raises the effective priority of job to at least priority,
// and recursively of every job in its dependency closure, repositioning
// queued jobs. Jobs that are already executing or terminal are left
// alone. Safe to call from inside a running job function.
func (l *Loader) Prioritize(job *Job, priority int64) {
	if job == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prioritizeLocked(job, priority)
}

// schedule registers a batch of jobs together with their not yet
// registered transitive dependencies. Submission is all-or-nothing: if
// the combined dependency graph contains a cycle, an ErrCycle error
// naming exactly the jobs on the cycle is returned and no state changes.
func (l *Loader) schedule(jobs []*Job) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	newJobs, err := l.collectLocked(jobs)
	if err != nil {
		return err
	}
	if len(newJobs) == 0 {
		return nil
	}

	if l.scheduled == 0 {
		l.drained = make(chan struct{})
	}
	for _, j := range newJobs {
		l.jobs[j] = &jobInfo{}
		l.scheduled++
	}

	// Link successor edges and count unmet dependencies. A dependency
	// that already failed or was canceled dooms the new job.
	type doomed struct {
		job   *Job
		cause error
	}
	var cancels []doomed
	for _, j := range newJobs {
		info := l.jobs[j]
		var cause error
		for _, d := range j.deps {
			if d.Status().Terminal() {
				if err := d.Err(); err != nil && cause == nil {
					cause = err
				}
				continue
			}
			l.jobs[d].successors = append(l.jobs[d].successors, j)
			info.pendingDeps++
		}
		if cause != nil {
			cancels = append(cancels, doomed{j, cause})
		}
	}

	// Static priority propagation: every new job lifts its dependency
	// closure to at least its own effective priority.
	for _, j := range newJobs {
		for _, d := range j.deps {
			l.prioritizeLocked(d, j.Priority())
		}
	}

	for _, c := range cancels {
		l.cancelLocked(c.job, c.cause)
	}

	for _, j := range newJobs {
		if j.Status().Terminal() {
			continue
		}
		if l.jobs[j].pendingDeps == 0 {
			l.enqueueLocked(j)
		}
	}
	return nil
}

// collectLocked walks the batch and its transitive dependencies depth
// first, returning the not yet registered jobs in dependency-first
// order, or an ErrCycle error. Nothing is mutated.
func (l *Loader) collectLocked(jobs []*Job) ([]*Job, error) {
	const (
		onPath = 1
		done   = 2
	)
	color := make(map[*Job]int8)
	var path, order, cycle []*Job

	var visit func(j *Job) bool
	visit = func(j *Job) bool {
		if _, registered := l.jobs[j]; registered || j.Status().Terminal() {
			return true
		}
		switch color[j] {
		case done:
			return true
		case onPath:
			for i, p := range path {
				if p == j {
					cycle = append(cycle, path[i:]...)
					break
				}
			}
			return false
		}
		color[j] = onPath
		path = append(path, j)
		for _, d := range j.deps {
			if !visit(d) {
				return false
			}
		}
		path = path[:len(path)-1]
		color[j] = done
		order = append(order, j)
		return true
	}

	for _, j := range jobs {
		if j == nil {
			continue
		}
		if !visit(j) {
			return nil, cycleError(cycle)
		}
	}
	return order, nil
}

func (l *Loader) prioritizeLocked(j *Job, priority int64) {
	if j.Status().Terminal() {
		return
	}
	info, ok := l.jobs[j]
	if !ok || info.executing {
		return
	}
	if priority <= j.Priority() {
		// Dependencies are already at or above this level.
		return
	}
	j.priority.Store(priority)
	l.ready.Reprioritize(j, priority)
	for _, d := range j.deps {
		l.prioritizeLocked(d, priority)
	}
}

func (l *Loader) enqueueLocked(j *Job) {
	l.ready.Push(j, j.Priority())
	l.workCond.Signal()
	l.spawnLocked()
}

// cancelLocked transitions a pending, not executing job to CANCELED and
// walks its registered successors. Executing jobs are left to finish.
func (l *Loader) cancelLocked(j *Job, cause error) {
	info, ok := l.jobs[j]
	if !ok || info.executing {
		return
	}
	l.ready.Remove(j)
	j.finish(StatusCanceled, canceledError(j.name, cause))
	delete(l.jobs, j)
	l.jobDoneLocked()
	for _, s := range info.successors {
		l.cancelLocked(s, j.err)
	}
}

// finishLocked records the outcome of an executed job and advances or
// cancels its successors.
func (l *Loader) finishLocked(j *Job, err error) {
	info := l.jobs[j]
	info.executing = false
	delete(l.jobs, j)

	if err != nil {
		j.finish(StatusFailed, failedError(j.name, err))
		if l.logFailures {
			log.Printf("load job %q failed: %v", j.name, err)
		}
		l.jobDoneLocked()
		for _, s := range info.successors {
			l.cancelLocked(s, j.err)
		}
		return
	}

	j.finish(StatusOK, nil)
	l.jobDoneLocked()
	// Successors are released newest-registration-first; combined with
	// the queue's FIFO tie-break this fixes the dispatch order among
	// same-priority siblings.
	for i := len(info.successors) - 1; i >= 0; i-- {
		s := info.successors[i]
		sInfo, ok := l.jobs[s]
		if !ok {
			continue
		}
		sInfo.pendingDeps--
		if sInfo.pendingDeps == 0 {
			l.enqueueLocked(s)
		}
	}
}

func (l *Loader) jobDoneLocked() {
	l.scheduled--
	if l.scheduled == 0 {
		close(l.drained)
	}
}
