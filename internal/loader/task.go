// internal/loader/task.go
package loader

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Task is the owning handle over a batch of jobs and the unit of
// cancellation. Go has no destructors, so ownership ends explicitly:
// call Remove to cancel whatever has not run yet (blocking on executing
// members), or Detach to let the jobs finish on their own. Dropping an
// undetached Task without calling either simply leaves its jobs to the
// scheduler.
type Task struct {
	id     string
	loader *Loader

	mu        sync.Mutex
	jobs      []*Job
	scheduled bool
	released  bool // removed or detached
}

func newTask(l *Loader, jobs []*Job) *Task {
	t := &Task{id: uuid.New().String(), loader: l}
	seen := make(map[*Job]struct{}, len(jobs))
	for _, j := range jobs {
		if j == nil {
			continue
		}
		if _, ok := seen[j]; ok {
			continue
		}
		seen[j] = struct{}{}
		t.jobs = append(t.jobs, j)
	}
	return t
}

// ID returns the task's unique identifier.
func (t *Task) ID() string { return t.id }

// Jobs returns a copy of the task's current member set.
func (t *Task) Jobs() []*Job {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Job, len(t.jobs))
	copy(out, t.jobs)
	return out
}

// Schedule submits the task's jobs to the loader. A second call is a
// logical error. On a cycle the whole batch is rejected and the task
// stays unscheduled.
func (t *Task) Schedule() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.scheduled {
		return fmt.Errorf("load task %s: already scheduled", t.id)
	}
	if err := t.loader.schedule(t.jobs); err != nil {
		return err
	}
	t.scheduled = true
	return nil
}

// Merge absorbs another task's jobs, transferring ownership. The merged
// task is left empty and releases its claim. The two tasks must not be
// merged into each other concurrently.
func (t *Task) Merge(other *Task) {
	if other == nil || other == t {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	other.mu.Lock()
	defer other.mu.Unlock()
	t.jobs = append(t.jobs, other.jobs...)
	other.jobs = nil
	other.released = true
}

// Remove cancels every member job that is still pending, then blocks
// until members that were already executing reach a terminal status.
// Executing jobs are never interrupted: one that returns normally stays
// OK. Calling Remove again (or after Detach) is a no-op.
func (t *Task) Remove() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.released {
		return
	}
	t.released = true

	l := t.loader
	l.mu.Lock()
	var executing []*Job
	for _, j := range t.jobs {
		info, ok := l.jobs[j]
		if !ok {
			continue
		}
		if info.executing {
			executing = append(executing, j)
			continue
		}
		l.cancelLocked(j, nil)
	}
	l.mu.Unlock()

	for _, j := range executing {
		j.waiters.Add(1)
		<-j.finished
		j.waiters.Add(-1)
	}
}

// Detach releases the task's claim on its jobs, so they complete (or
// get canceled through their dependencies) on their own.
func (t *Task) Detach() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.released = true
	t.jobs = nil
}
