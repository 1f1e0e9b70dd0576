// internal/loader/job.go
package loader

import (
	"context"
	"sync/atomic"
)

// Status represents the current state of a load job.
// A job transitions PENDING -> {OK, FAILED, CANCELED} exactly once and
// never backwards. A job whose function is currently executing still
// reports StatusPending; the terminal transition happens at completion.
type Status int32

const (
	StatusPending Status = iota
	StatusOK
	StatusFailed
	StatusCanceled
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "PENDING"
	case StatusOK:
		return "OK"
	case StatusFailed:
		return "FAILED"
	case StatusCanceled:
		return "CANCELED"
	default:
		return "UNKNOWN"
	}
}

// Terminal reports whether the status is one of OK, FAILED or CANCELED.
func (s Status) Terminal() bool { return s != StatusPending }

// JobFunc is the user function of a job. It receives the job itself so
// it can observe the effective priority it was dispatched at. A non-nil
// return (or a panic, which the worker recovers) fails the job and
// cancels its transitive successors.
type JobFunc func(self *Job) error

// Job is a single unit of asynchronous loading work: a named user
// function plus a dependency set fixed at construction. Jobs are shared
// between their owning Task, their successors, the ready queue and the
// loader registry; all public accessors are safe from any goroutine.
type Job struct {
	name string
	fn   JobFunc
	deps []*Job

	status   atomic.Int32
	priority atomic.Int64
	waiters  atomic.Int64

	// err is written under the loader mutex before the terminal status
	// is stored and finished is closed.
	err      error
	finished chan struct{}
}

// NewJob creates a pending job with the default priority 0.
// Dependencies are deduplicated and cannot change afterwards.
func NewJob(name string, fn JobFunc, deps ...*Job) *Job {
	return NewPriorityJob(name, 0, fn, deps...)
}

// NewPriorityJob creates a pending job with the given static priority.
// Higher values run first. The effective priority may only grow from
// here, lifted by successors at submission or via Loader.Prioritize.
func NewPriorityJob(name string, priority int64, fn JobFunc, deps ...*Job) *Job {
	j := &Job{
		name:     name,
		fn:       fn,
		finished: make(chan struct{}),
	}
	j.priority.Store(priority)
	seen := make(map[*Job]struct{}, len(deps))
	for _, d := range deps {
		if d == nil {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		j.deps = append(j.deps, d)
	}
	return j
}

// Name returns the job's label.
func (j *Job) Name() string { return j.name }

// Dependencies returns a copy of the job's dependency set.
func (j *Job) Dependencies() []*Job {
	out := make([]*Job, len(j.deps))
	copy(out, j.deps)
	return out
}

// Status returns the job's current status.
func (j *Job) Status() Status { return Status(j.status.Load()) }

// Priority returns the job's current effective priority.
func (j *Job) Priority() int64 { return j.priority.Load() }

// WaitersCount returns the number of callers currently blocked on this
// job, including a Task.Remove waiting for an executing member.
func (j *Job) WaitersCount() int64 { return j.waiters.Load() }

// Err returns the terminal error of a FAILED or CANCELED job, or nil.
// It must only be consulted after Status() was observed terminal.
func (j *Job) Err() error {
	if !j.Status().Terminal() {
		return nil
	}
	return j.err
}

// Wait blocks until the job reaches a terminal status. It returns nil
// if the job finished OK, the recorded *JobError if it failed or was
// canceled, or ctx.Err() if the context ends first.
func (j *Job) Wait(ctx context.Context) error {
	if !j.Status().Terminal() {
		j.waiters.Add(1)
		defer j.waiters.Add(-1)
		select {
		case <-j.finished:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return j.err
}

// finish records the terminal result. Caller must hold the loader mutex
// and must call at most once per job: err is published before the status
// store, and the status store before the channel close, so concurrent
// readers always observe them together.
func (j *Job) finish(s Status, err error) {
	j.err = err
	j.status.Store(int32(s))
	close(j.finished)
}

// addDependencyUnsafe appends a dependency after construction, bypassing
// the construction-time immutability. Test-only: it exists so cycle
// rejection can be exercised at all, since the public API cannot build a
// cyclic graph.
func (j *Job) addDependencyUnsafe(dep *Job) {
	j.deps = append(j.deps, dep)
}
