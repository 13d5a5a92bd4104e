package task

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/model"
)

type memoryRecord struct {
	userID string
	task   model.Task
}

// MemoryRepo keeps tasks in process memory. It backs tests and the
// "memory" storage backend; nothing survives a restart.
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]memoryRecord
	now   func() time.Time
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		tasks: map[model.TaskID]memoryRecord{},
		now:   time.Now,
	}
}

// SetClock overrides the repo clock. Tests use it to pin timestamps.
func (r *MemoryRepo) SetClock(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func newTaskID() model.TaskID {
	return model.TaskID("task_" + uuid.NewString())
}

func (r *MemoryRepo) List(ctx context.Context, userID string) ([]model.Task, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0, len(r.tasks))
	for _, rec := range r.tasks {
		if rec.userID != userID {
			continue
		}
		t := rec.task
		normalizeTask(&t)
		out = append(out, t)
	}
	return out, nil
}

func (r *MemoryRepo) Create(ctx context.Context, userID string, t model.Task) (model.Task, error) {
	_ = ctx

	if err := ValidateNew(&t); err != nil {
		return model.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	t.ID = newTaskID()
	t.CreatedAt = now
	t.UpdatedAt = now
	normalizeTask(&t)

	r.tasks[t.ID] = memoryRecord{userID: userID, task: t}
	return t, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id model.TaskID, p Patch) (model.Task, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.tasks[id]
	if !ok {
		return model.Task{}, ErrNotFound
	}

	t := rec.task
	if err := applyPatch(&t, p); err != nil {
		return model.Task{}, err
	}
	t.UpdatedAt = r.now()
	normalizeTask(&t)

	rec.task = t
	r.tasks[id] = rec
	return t, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id model.TaskID) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}
