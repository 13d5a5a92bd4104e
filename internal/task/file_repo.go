package task

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"taskdeck/internal/model"
)

type fileState struct {
	Users map[string]userTaskState `json:"users"`
}

type userTaskState struct {
	Tasks map[model.TaskID]model.Task `json:"tasks"`
}

func newFileState() fileState {
	return fileState{Users: map[string]userTaskState{}}
}

// FileRepo persists tasks as one JSON document per data dir, bucketed by
// user. Every mutation writes through to disk before returning.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepo{
		path: filepath.Join(dataDir, "tasks.json"),
		s:    newFileState(),
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.s = newFileState()
			return nil
		}
		return err
	}

	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	if loaded.Users == nil {
		loaded.Users = map[string]userTaskState{}
	}
	for uid, us := range loaded.Users {
		if us.Tasks == nil {
			us.Tasks = map[model.TaskID]model.Task{}
			loaded.Users[uid] = us
		}
	}
	r.s = loaded
	return nil
}

func (r *FileRepo) saveLocked() error {
	b, err := json.MarshalIndent(r.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, b, 0o644)
}

func (r *FileRepo) userStateLocked(userID string) userTaskState {
	us, ok := r.s.Users[userID]
	if !ok || us.Tasks == nil {
		us = userTaskState{Tasks: map[model.TaskID]model.Task{}}
		r.s.Users[userID] = us
	}
	return us
}

func (r *FileRepo) List(ctx context.Context, userID string) ([]model.Task, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	us, ok := r.s.Users[userID]
	if !ok || us.Tasks == nil {
		return []model.Task{}, nil
	}

	out := make([]model.Task, 0, len(us.Tasks))
	for _, t := range us.Tasks {
		normalizeTask(&t)
		out = append(out, t)
	}
	return out, nil
}

func (r *FileRepo) Create(ctx context.Context, userID string, t model.Task) (model.Task, error) {
	_ = ctx

	if err := ValidateNew(&t); err != nil {
		return model.Task{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	us := r.userStateLocked(userID)

	now := time.Now()
	t.ID = newTaskID()
	t.CreatedAt = now
	t.UpdatedAt = now
	normalizeTask(&t)

	us.Tasks[t.ID] = t
	if err := r.saveLocked(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *FileRepo) Update(ctx context.Context, id model.TaskID, p Patch) (model.Task, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	uid, t, ok := r.findLocked(id)
	if !ok {
		return model.Task{}, ErrNotFound
	}
	if err := applyPatch(&t, p); err != nil {
		return model.Task{}, err
	}
	t.UpdatedAt = time.Now()
	normalizeTask(&t)

	r.s.Users[uid].Tasks[id] = t
	if err := r.saveLocked(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *FileRepo) Delete(ctx context.Context, id model.TaskID) error {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	uid, _, ok := r.findLocked(id)
	if !ok {
		return ErrNotFound
	}
	delete(r.s.Users[uid].Tasks, id)
	return r.saveLocked()
}

func (r *FileRepo) findLocked(id model.TaskID) (string, model.Task, bool) {
	for uid, us := range r.s.Users {
		if t, ok := us.Tasks[id]; ok {
			return uid, t, true
		}
	}
	return "", model.Task{}, false
}
