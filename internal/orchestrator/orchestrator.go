// internal/orchestrator/orchestrator.go
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fawad-mazhar/delos/internal/config"
	"github.com/fawad-mazhar/delos/internal/loader"
	"github.com/fawad-mazhar/delos/internal/metrics"
	"github.com/fawad-mazhar/delos/internal/models"
	"github.com/fawad-mazhar/delos/internal/worker"
	"github.com/google/uuid"
)

// Orchestrator is the host around the async loader: it keeps the load
// plan registry, materializes plans into job graphs, schedules them and
// tracks the resulting executions. All state is in-memory; executions
// do not survive a restart.
type Orchestrator struct {
	id       string
	config   *config.Config
	loader   *loader.Loader
	registry *worker.Registry
	total    *metrics.AtomicGauge
	active   *metrics.AtomicGauge

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	plans      map[string]*models.LoadPlan
	executions map[string]*execution
}

// execution ties a scheduled plan instance to its task and jobs.
type execution struct {
	id        string
	planID    string
	startTime time.Time
	task      *loader.Task
	specs     []models.JobSpec
	jobs      map[string]*loader.Job // by spec id
}

// NewOrchestrator creates the host and registers the load plans from
// configuration.
func NewOrchestrator(cfg *config.Config, ld *loader.Loader, registry *worker.Registry, total, active *metrics.AtomicGauge) (*Orchestrator, error) {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		id:         uuid.New().String(),
		config:     cfg,
		loader:     ld,
		registry:   registry,
		total:      total,
		active:     active,
		ctx:        ctx,
		cancel:     cancel,
		plans:      make(map[string]*models.LoadPlan),
		executions: make(map[string]*execution),
	}
	for i := range cfg.LoadPlans {
		if err := o.RegisterPlan(&cfg.LoadPlans[i]); err != nil {
			cancel()
			return nil, err
		}
	}
	return o, nil
}

// ID returns the orchestrator's unique identifier.
func (o *Orchestrator) ID() string { return o.id }

// RegisterPlan validates and stores a load plan definition.
func (o *Orchestrator) RegisterPlan(plan *models.LoadPlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}
	for _, j := range plan.Jobs {
		if _, err := o.registry.Get(j.FunctionName); err != nil {
			return fmt.Errorf("load plan %s: job %s: %w", plan.ID, j.ID, err)
		}
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, exists := o.plans[plan.ID]; exists {
		return fmt.Errorf("load plan %s already registered", plan.ID)
	}
	o.plans[plan.ID] = plan
	return nil
}

// GetPlan returns a registered load plan.
func (o *Orchestrator) GetPlan(id string) (*models.LoadPlan, error) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	plan, ok := o.plans[id]
	if !ok {
		return nil, fmt.Errorf("load plan %s not found", id)
	}
	return plan, nil
}

// ExecutePlan materializes a plan into scheduler jobs, bundles them in a
// task and schedules it. It returns the execution id used for status,
// cancellation and prioritization.
func (o *Orchestrator) ExecutePlan(planID string, data map[string]interface{}) (string, error) {
	plan, err := o.GetPlan(planID)
	if err != nil {
		return "", err
	}

	jobs, err := o.buildJobs(plan, data)
	if err != nil {
		return "", err
	}

	all := make([]*loader.Job, 0, len(jobs))
	for _, j := range plan.Jobs {
		all = append(all, jobs[j.ID])
	}
	task := o.loader.NewTask(all...)
	if err := task.Schedule(); err != nil {
		return "", fmt.Errorf("failed to schedule load plan %s: %w", planID, err)
	}

	exec := &execution{
		id:        uuid.New().String(),
		planID:    planID,
		startTime: time.Now(),
		task:      task,
		specs:     plan.Jobs,
		jobs:      jobs,
	}
	o.mu.Lock()
	o.executions[exec.id] = exec
	o.mu.Unlock()

	log.Printf("Scheduled load plan %s as execution %s (%d jobs)", planID, exec.id, len(all))
	return exec.id, nil
}

// buildJobs constructs loader jobs for every spec, dependencies first.
func (o *Orchestrator) buildJobs(plan *models.LoadPlan, data map[string]interface{}) (map[string]*loader.Job, error) {
	jobs := make(map[string]*loader.Job, len(plan.Jobs))
	building := make(map[string]bool)

	var build func(spec models.JobSpec) (*loader.Job, error)
	build = func(spec models.JobSpec) (*loader.Job, error) {
		if j, ok := jobs[spec.ID]; ok {
			return j, nil
		}
		if building[spec.ID] {
			return nil, fmt.Errorf("load plan %s: dependency cycle through job %s", plan.ID, spec.ID)
		}
		building[spec.ID] = true
		deps := make([]*loader.Job, 0, len(spec.DependsOn))
		for _, depID := range spec.DependsOn {
			depSpec, _ := plan.Job(depID)
			dep, err := build(depSpec)
			if err != nil {
				return nil, err
			}
			deps = append(deps, dep)
		}
		fn, err := o.registry.Get(spec.FunctionName)
		if err != nil {
			return nil, err
		}
		name := spec.Name
		if name == "" {
			name = spec.ID
		}
		j := loader.NewPriorityJob(name, spec.Priority, func(*loader.Job) error {
			return fn(o.ctx, data)
		}, deps...)
		jobs[spec.ID] = j
		return j, nil
	}

	for _, spec := range plan.Jobs {
		if _, err := build(spec); err != nil {
			return nil, err
		}
	}
	return jobs, nil
}

// ExecutionState reports the current state of an execution.
func (o *Orchestrator) ExecutionState(id string) (*models.ExecutionState, error) {
	o.mu.RLock()
	exec, ok := o.executions[id]
	o.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("execution %s not found", id)
	}

	state := &models.ExecutionState{
		ID:        exec.id,
		PlanID:    exec.planID,
		StartTime: exec.startTime,
		Status:    models.ExecutionOK,
	}
	pending, failed, canceled := 0, 0, 0
	for _, spec := range exec.specs {
		job := exec.jobs[spec.ID]
		js := models.JobState{
			ID:       spec.ID,
			Name:     job.Name(),
			Status:   job.Status().String(),
			Priority: job.Priority(),
		}
		switch job.Status() {
		case loader.StatusPending:
			pending++
		case loader.StatusFailed:
			failed++
			js.Error = job.Err().Error()
		case loader.StatusCanceled:
			canceled++
			js.Error = job.Err().Error()
		}
		state.Jobs = append(state.Jobs, js)
	}
	switch {
	case failed > 0:
		state.Status = models.ExecutionFailed
	case pending > 0:
		state.Status = models.ExecutionRunning
	case canceled > 0:
		state.Status = models.ExecutionCanceled
	}
	return state, nil
}

// CancelExecution removes the execution's task: still-pending jobs are
// canceled, executing jobs are waited for.
func (o *Orchestrator) CancelExecution(id string) error {
	o.mu.RLock()
	exec, ok := o.executions[id]
	o.mu.RUnlock()
	if !ok {
		return fmt.Errorf("execution %s not found", id)
	}
	exec.task.Remove()
	log.Printf("Canceled execution %s", id)
	return nil
}

// PrioritizeJob raises the effective priority of one job of an
// execution (and, transitively, of its dependencies).
func (o *Orchestrator) PrioritizeJob(executionID, jobID string, priority int64) error {
	o.mu.RLock()
	exec, ok := o.executions[executionID]
	o.mu.RUnlock()
	if !ok {
		return fmt.Errorf("execution %s not found", executionID)
	}
	job, ok := exec.jobs[jobID]
	if !ok {
		return fmt.Errorf("execution %s: job %s not found", executionID, jobID)
	}
	o.loader.Prioritize(job, priority)
	return nil
}

// SetMaxThreads reconfigures the loader's worker limit.
func (o *Orchestrator) SetMaxThreads(n int) error {
	if n < 1 {
		return fmt.Errorf("maxThreads must be positive, got %d", n)
	}
	o.loader.SetMaxThreads(n)
	log.Printf("Set loader max threads to %d", n)
	return nil
}

// SystemState reports the loader-wide state.
func (o *Orchestrator) SystemState() models.SystemState {
	o.mu.RLock()
	executions := len(o.executions)
	o.mu.RUnlock()
	return models.SystemState{
		ScheduledJobs: o.loader.ScheduledJobCount(),
		MaxThreads:    o.loader.MaxThreads(),
		TotalThreads:  o.total.Value(),
		ActiveThreads: o.active.Value(),
		Executions:    executions,
		UpdatedAt:     time.Now(),
	}
}

// Shutdown drains scheduled work within the timeout, then stops the
// worker pool. Load functions observe the cancellation through their
// context.
func (o *Orchestrator) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	err := o.loader.Wait(ctx)
	o.cancel()
	o.loader.Stop()
	if err != nil {
		return fmt.Errorf("shutdown timed out after %v: %w", timeout, err)
	}
	return nil
}
