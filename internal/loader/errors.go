// internal/loader/errors.go
package loader

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds recorded on terminal jobs and raised from Schedule.
// Exactly one kind applies to any given job; match with errors.Is.
var (
	ErrCycle    = errors.New("load job dependency cycle detected")
	ErrFailed   = errors.New("load job failed")
	ErrCanceled = errors.New("load job canceled")
)

// JobError is the terminal result of a job that did not reach StatusOK.
// Kind is ErrFailed or ErrCanceled. Cause is the user function's error
// for failures, or the terminal error of the dependency for
// cancellations, so the message of a canceled job always carries the
// root-cause text through the successor chain. A job canceled directly
// by Task.Remove has a nil Cause.
type JobError struct {
	Kind  error
	Job   string
	Cause error
}

func (e *JobError) Error() string {
	verb := "failed"
	if e.Kind == ErrCanceled {
		verb = "canceled"
	}
	if e.Cause == nil {
		return fmt.Sprintf("load job %q %s", e.Job, verb)
	}
	return fmt.Sprintf("load job %q %s: %v", e.Job, verb, e.Cause)
}

// Unwrap exposes only the kind. The cause is rendered into the message
// but deliberately kept out of the unwrap chain so that a canceled job
// never also matches ErrFailed.
func (e *JobError) Unwrap() error { return e.Kind }

func failedError(name string, cause error) *JobError {
	return &JobError{Kind: ErrFailed, Job: name, Cause: cause}
}

func canceledError(name string, cause error) *JobError {
	return &JobError{Kind: ErrCanceled, Job: name, Cause: cause}
}

// cycleError formats the submission-time cycle rejection. Only the jobs
// lying on the cycle are named, in dependency order, with the first one
// repeated to close the loop.
func cycleError(cycle []*Job) error {
	names := make([]string, 0, len(cycle)+1)
	for _, j := range cycle {
		names = append(names, fmt.Sprintf("%q", j.Name()))
	}
	names = append(names, fmt.Sprintf("%q", cycle[0].Name()))
	return fmt.Errorf("%w: %s", ErrCycle, strings.Join(names, " -> "))
}
