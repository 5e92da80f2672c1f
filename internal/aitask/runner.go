// Package aitask runs AI operations on assets as cancellable background tasks
// that report progress and commit their result through the registry.
package aitask

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"editify-backend/internal/edits"
	"editify-backend/internal/registry"
	"editify-backend/internal/supabase"

	"github.com/google/uuid"
)

var ErrTaskNotFound = errors.New("task not found")

type Status string

const (
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Terminal() bool {
	return s != StatusRunning
}

type Task struct {
	ID         uuid.UUID  `json:"task_id"`
	AssetID    uuid.UUID  `json:"asset_id"`
	Job        Job        `json:"job"`
	Status     Status     `json:"status"`
	Progress   int        `json:"progress"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Publisher receives task lifecycle events. *supabase.RealtimeClient
// satisfies it.
type Publisher interface {
	PublishAssetEvent(assetID uuid.UUID, event string, payload map[string]interface{}) error
}

// DefaultRetention is how long finished tasks stay queryable.
const DefaultRetention = 10 * time.Minute

type Config struct {
	// StepDelay replaces the per-job delay between progress steps when set.
	StepDelay time.Duration
	// Retention bounds how long finished tasks are kept; zero means
	// DefaultRetention.
	Retention time.Duration
}

type taskState struct {
	task   Task
	cancel context.CancelFunc
	done   chan struct{}
}

type Runner struct {
	reg       *registry.Registry
	publisher Publisher
	logger    *slog.Logger
	stepDelay time.Duration
	retention time.Duration
	now       func() time.Time

	mu    sync.Mutex
	tasks map[uuid.UUID]*taskState
	wg    sync.WaitGroup
}

func NewRunner(reg *registry.Registry, publisher Publisher, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		reg:       reg,
		publisher: publisher,
		logger:    logger,
		stepDelay: cfg.StepDelay,
		retention: cfg.Retention,
		now:       time.Now,
		tasks:     make(map[uuid.UUID]*taskState),
	}
	if r.retention <= 0 {
		r.retention = DefaultRetention
	}
	reg.OnRelease(r.cancelAsset)
	return r
}

// Start launches job on the asset. It fails when the asset is unknown or
// already has an AI operation running.
func (r *Runner) Start(assetID uuid.UUID, job Job) (Task, error) {
	patch, err := job.Patch()
	if err != nil {
		return Task{}, err
	}
	if err := r.reg.BeginProcessing(assetID); err != nil {
		return Task{}, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	st := &taskState{
		task: Task{
			ID:        uuid.New(),
			AssetID:   assetID,
			Job:       job,
			Status:    StatusRunning,
			StartedAt: r.now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}

	r.mu.Lock()
	r.pruneLocked()
	r.tasks[st.task.ID] = st
	r.mu.Unlock()

	r.publish(assetID, supabase.EventProcessingStarted,
		supabase.ProcessingStartedPayload(assetID, st.task.ID, job.String()))
	r.logger.Info("ai task started", "task_id", st.task.ID, "asset_id", assetID, "job", job.String())

	r.wg.Add(1)
	go r.run(ctx, st, patch)

	return st.task, nil
}

func (r *Runner) run(ctx context.Context, st *taskState, patch edits.PatchFunc) {
	defer r.wg.Done()
	defer st.cancel()

	id, assetID := st.task.ID, st.task.AssetID
	step, delay := st.task.Job.cadence(r.stepDelay)

	timer := time.NewTimer(delay)
	defer timer.Stop()

	progress := 0
	for progress < 100 {
		select {
		case <-ctx.Done():
			r.finish(st, StatusCancelled, "")
			r.publish(assetID, supabase.EventProcessingCancelled,
				supabase.ProcessingCancelledPayload(assetID, id, progress))
			return
		case <-timer.C:
		}

		progress = min(progress+step, 100)
		r.mu.Lock()
		st.task.Progress = progress
		r.mu.Unlock()
		r.publish(assetID, supabase.EventProcessingProgress,
			supabase.ProcessingProgressPayload(assetID, id, progress))

		if progress < 100 {
			timer.Reset(delay)
		}
	}

	// A cancel racing the final step still wins.
	if ctx.Err() != nil {
		r.finish(st, StatusCancelled, "")
		r.publish(assetID, supabase.EventProcessingCancelled,
			supabase.ProcessingCancelledPayload(assetID, id, progress))
		return
	}

	if _, err := r.reg.CommitProcessed(assetID, patch); err != nil {
		r.logger.Warn("ai task failed", "task_id", id, "asset_id", assetID, "error", err)
		r.finish(st, StatusFailed, err.Error())
		r.publish(assetID, supabase.EventProcessingFailed,
			supabase.ProcessingFailedPayload(assetID, id, err.Error()))
		return
	}

	r.finish(st, StatusSucceeded, "")
	r.publish(assetID, supabase.EventProcessingCompleted,
		supabase.ProcessingCompletedPayload(assetID, id))
}

// finish clears the processing flag before the task becomes terminal, so a
// caller that observes a finished task can start the next one immediately.
func (r *Runner) finish(st *taskState, status Status, errMsg string) {
	r.reg.EndProcessing(st.task.AssetID)

	now := r.now()
	r.mu.Lock()
	st.task.Status = status
	st.task.Error = errMsg
	st.task.FinishedAt = &now
	r.pruneLocked()
	r.mu.Unlock()
	close(st.done)

	r.logger.Info("ai task finished", "task_id", st.task.ID, "status", status)
}

func (r *Runner) publish(assetID uuid.UUID, event string, payload map[string]interface{}) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishAssetEvent(assetID, event, payload); err != nil {
		r.logger.Warn("failed to publish task event", "event", event, "asset_id", assetID, "error", err)
	}
}

func (r *Runner) Get(taskID uuid.UUID) (Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.tasks[taskID]
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}
	return st.task, nil
}

// Cancel aborts a running task. Cancelling a finished task is a no-op that
// returns its final state.
func (r *Runner) Cancel(taskID uuid.UUID) (Task, error) {
	r.mu.Lock()
	st, ok := r.tasks[taskID]
	r.mu.Unlock()
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	st.cancel()
	<-st.done
	return r.snapshot(st), nil
}

func (r *Runner) snapshot(st *taskState) Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return st.task
}

// Wait blocks until the task finishes or ctx is done.
func (r *Runner) Wait(ctx context.Context, taskID uuid.UUID) (Task, error) {
	r.mu.Lock()
	st, ok := r.tasks[taskID]
	r.mu.Unlock()
	if !ok {
		return Task{}, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
	}

	select {
	case <-st.done:
		return r.snapshot(st), nil
	case <-ctx.Done():
		return Task{}, ctx.Err()
	}
}

// cancelAsset stops the tasks of a removed asset and forgets the finished
// ones; running tasks are forgotten once they age out.
func (r *Runner) cancelAsset(assetID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, st := range r.tasks {
		if st.task.AssetID != assetID {
			continue
		}
		st.cancel()
		if st.task.Status.Terminal() {
			delete(r.tasks, id)
		}
	}
}

// pruneLocked drops tasks that finished more than the retention window ago.
func (r *Runner) pruneLocked() {
	cutoff := r.now().Add(-r.retention)
	for id, st := range r.tasks {
		if st.task.FinishedAt != nil && st.task.FinishedAt.Before(cutoff) {
			delete(r.tasks, id)
		}
	}
}

// Len reports how many tasks are tracked, running or retained.
func (r *Runner) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Shutdown cancels every running task and waits for them to stop.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	for _, st := range r.tasks {
		st.cancel()
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
