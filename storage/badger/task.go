package badger

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/quanta/core"
	"github.com/poiesic/quanta/storage"
)

// TaskRepository implements storage.TaskRepository for BadgerDB.
type TaskRepository struct {
	backend *Backend
}

var _ storage.TaskRepository = (*TaskRepository)(nil)

// NewTaskRepository creates a new TaskRepository.
func NewTaskRepository(backend *Backend) *TaskRepository {
	return &TaskRepository{backend: backend}
}

// Close releases repository resources. The backend is closed separately.
func (r *TaskRepository) Close() error {
	return nil
}

// SaveTask persists a task record, overwriting any previous state.
func (r *TaskRepository) SaveTask(ctx context.Context, task *core.Task) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeTaskKey(task.Id), storage.MarshalTask(task)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// GetTask retrieves a task record by id.
func (r *TaskRepository) GetTask(ctx context.Context, id string) (*core.Task, error) {
	var task *core.Task

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeTaskKey(id))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			var err error
			task, err = storage.UnmarshalTask(val)
			return err
		})
	}, false)

	if err != nil {
		return nil, err
	}
	return task, nil
}

// ListTasks retrieves all task records, newest first.
func (r *TaskRepository) ListTasks(ctx context.Context) ([]*core.Task, error) {
	var tasks []*core.Task

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(taskRecordPrefix + ":")
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				task, err := storage.UnmarshalTask(val)
				if err != nil {
					return err
				}
				tasks = append(tasks, task)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	if err != nil {
		return nil, err
	}

	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// DeleteTerminalBefore removes terminal task records that finished before
// the cutoff and reports how many were deleted. Aging goes by completion
// time, so a long-running task that just finished is not swept with the
// old ones. Non-terminal records are never removed.
func (r *TaskRepository) DeleteTerminalBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var deleted int

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(taskRecordPrefix + ":")
		iter := tx.NewIterator(opts)

		var stale [][]byte
		var iterErr error
		for iter.Rewind(); iter.Valid(); iter.Next() {
			item := iter.Item()
			iterErr = item.Value(func(val []byte) error {
				task, err := storage.UnmarshalTask(val)
				if err != nil {
					return err
				}
				if task.Status.Terminal() && task.CompletedAt.Before(cutoff) {
					stale = append(stale, item.KeyCopy(nil))
				}
				return nil
			})
			if iterErr != nil {
				break
			}
		}
		iter.Close()
		if iterErr != nil {
			return iterErr
		}

		for _, key := range stale {
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		deleted = len(stale)
		return tx.Commit()
	}, true)

	if err != nil {
		return 0, err
	}
	return deleted, nil
}
