// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/storage"
)

// TaskFunc is the body of a submitted task. It receives a context that is
// cancelled when the task is cancelled or the executor shuts down, and
// returns an opaque result string.
type TaskFunc func(ctx context.Context) (string, error)

// Executor runs submitted tasks on a bounded worker pool and records their
// lifecycle in a task repository. A task moves PENDING -> RUNNING and then
// exactly once to COMPLETED, FAILED or CANCELLED. Task panics and errors are
// captured into the record and never take down the executor.
type Executor struct {
	repo   storage.TaskRepository
	pool   *ants.Pool
	logger *slog.Logger

	// mu guards status transitions and the cancel map so a task cannot
	// reach two terminal states.
	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	closed  bool
}

// Option configures an Executor.
type Option func(*Executor) error

// WithConcurrency sets the maximum number of tasks running at once.
// Default is 2.
func WithConcurrency(n int) Option {
	return func(e *Executor) error {
		if n < 1 {
			n = 1
		}

		if e.pool != nil {
			e.pool.Release()
		}
		pool, err := ants.NewPool(n)
		if err != nil {
			return err
		}
		e.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// New creates a new executor.
func New(repo storage.TaskRepository, opts ...Option) (*Executor, error) {
	if repo == nil {
		return nil, ErrTaskRepositoryRequired
	}

	pool, err := ants.NewPool(2)
	if err != nil {
		return nil, err
	}

	e := &Executor{
		repo:    repo,
		pool:    pool,
		logger:  slog.Default(),
		cancels: make(map[string]context.CancelFunc),
	}

	// Apply options
	for _, opt := range opts {
		if err := opt(e); err != nil {
			e.pool.Release()
			return nil, err
		}
	}

	return e, nil
}

// Submit persists a PENDING task and schedules it for execution, returning
// the task id immediately. The task starts as soon as a worker is free.
func (e *Executor) Submit(ctx context.Context, taskType string, fn TaskFunc) (string, error) {
	if fn == nil {
		return "", ErrTaskFuncRequired
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrExecutorClosed
	}

	task := &core.Task{
		Id:        uuid.NewString(),
		Type:      taskType,
		Status:    core.TaskPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.repo.SaveTask(ctx, task); err != nil {
		e.mu.Unlock()
		return "", fmt.Errorf("persisting task: %w", err)
	}

	taskCtx, cancel := context.WithCancel(context.Background())
	e.cancels[task.Id] = cancel
	e.mu.Unlock()

	// Dispatch from a goroutine: pool.Submit blocks while all workers are
	// busy, and Submit must return the id without waiting for a slot.
	go func() {
		err := e.pool.Submit(func() {
			e.run(task.Id, taskCtx, fn)
		})
		if err != nil {
			e.logger.Error("task dispatch failed", "task", task.Id, "err", err)
			e.finalize(task.Id, core.TaskFailed, "", err)
		}
	}()

	e.logger.Debug("task submitted", "task", task.Id, "type", taskType)
	return task.Id, nil
}

// Status returns the current task record.
func (e *Executor) Status(ctx context.Context, id string) (*core.Task, error) {
	return e.repo.GetTask(ctx, id)
}

// List returns all task records, newest first.
func (e *Executor) List(ctx context.Context) ([]*core.Task, error) {
	return e.repo.ListTasks(ctx)
}

// Cancel cancels a task. Any non-terminal task is marked CANCELLED right
// away; a running pipeline additionally observes cancellation through its
// context, and whatever it returns afterwards is discarded by the terminal
// write-once guard. Cancelling a terminal task is a no-op.
func (e *Executor) Cancel(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, err := e.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if task.Status.Terminal() {
		return nil
	}

	if cancel, ok := e.cancels[id]; ok {
		cancel()
	}

	task.Status = core.TaskCancelled
	task.CompletedAt = time.Now().UTC()
	if err := e.repo.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("persisting cancellation: %w", err)
	}
	delete(e.cancels, id)
	e.logger.Info("task cancelled", "task", id)

	return nil
}

// Cleanup removes terminal tasks older than the given age and reports how
// many were removed.
func (e *Executor) Cleanup(ctx context.Context, olderThan time.Duration) (int, error) {
	return e.repo.DeleteTerminalBefore(ctx, time.Now().UTC().Add(-olderThan))
}

// Running returns the number of tasks currently executing.
func (e *Executor) Running() int {
	return e.pool.Running()
}

// Release shuts down the worker pool and cancels every outstanding task
// context. Already running tasks finish on their own terms.
func (e *Executor) Release() {
	e.mu.Lock()
	e.closed = true
	for id, cancel := range e.cancels {
		cancel()
		delete(e.cancels, id)
	}
	e.mu.Unlock()

	e.pool.Release()
}

// run executes a task body on a pool worker.
func (e *Executor) run(id string, ctx context.Context, fn TaskFunc) {
	// A task cancelled while pending must not start.
	if !e.begin(id) {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("task panicked", "task", id, "panic", r)
			e.finalize(id, core.TaskFailed, "", fmt.Errorf("task panicked: %v", r))
		}
	}()

	result, err := fn(ctx)
	switch {
	case err == nil:
		e.finalize(id, core.TaskCompleted, result, nil)
	case errors.Is(err, context.Canceled):
		e.finalize(id, core.TaskCancelled, "", nil)
	default:
		e.finalize(id, core.TaskFailed, "", err)
	}
}

// begin transitions a task to RUNNING. Returns false if the task is already
// terminal.
func (e *Executor) begin(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, err := e.repo.GetTask(context.Background(), id)
	if err != nil {
		e.logger.Error("loading task for start", "task", id, "err", err)
		return false
	}
	if task.Status.Terminal() {
		return false
	}

	task.Status = core.TaskRunning
	task.StartedAt = time.Now().UTC()
	if err := e.repo.SaveTask(context.Background(), task); err != nil {
		e.logger.Error("persisting task start", "task", id, "err", err)
		return false
	}
	return true
}

// finalize records the single terminal transition for a task. Later calls
// for the same task are ignored.
func (e *Executor) finalize(id string, status core.TaskStatus, result string, taskErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	task, err := e.repo.GetTask(context.Background(), id)
	if err != nil {
		e.logger.Error("loading task for finish", "task", id, "err", err)
		return
	}
	if task.Status.Terminal() {
		return
	}

	task.Status = status
	task.CompletedAt = time.Now().UTC()
	task.Result = result
	if taskErr != nil {
		task.Error = taskErr.Error()
	}
	if err := e.repo.SaveTask(context.Background(), task); err != nil {
		e.logger.Error("persisting task finish", "task", id, "err", err)
	}
	delete(e.cancels, id)

	e.logger.Debug("task finished", "task", id, "status", status.String())
}
