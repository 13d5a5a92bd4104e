package task

import (
	"context"
	"fmt"
	"sync"

	"taskdeck/internal/model"
)

type StoreState string

const (
	StateIdle    StoreState = "idle"
	StateLoading StoreState = "loading"
	StateReady   StoreState = "ready"
	StateErrored StoreState = "errored"
)

// View is the read-only snapshot the presentation layer consumes: the
// filtered+sorted list, the raw list for aggregate stats and tag
// enumeration, and the control state that produced it. Consumers must not
// mutate the slices.
type View struct {
	Tasks    []model.Task
	AllTasks []model.Task

	Status   StatusFilter
	Query    string
	SortBy   SortMode
	Advanced AdvancedFilters

	State   StoreState
	Loading bool
	Err     string
}

// Store owns the authoritative in-memory task list for one user and
// orchestrates every mutation against the persistence boundary. Mutations
// resync the whole list rather than patching locally: consistency over
// latency. A fetch failure keeps the previous list on display.
type Store struct {
	repo   Repo
	userID string

	mu       sync.Mutex
	tasks    []model.Task
	state    StoreState
	lastErr  string
	status   StatusFilter
	query    string
	sortBy   SortMode
	advanced AdvancedFilters

	subscribers []func(View)
}

func NewStore(repo Repo, userID string) *Store {
	return &Store{
		repo:   repo,
		userID: userID,
		state:  StateIdle,
		status: StatusAll,
		sortBy: SortCreated,
	}
}

// Subscribe registers fn to run with a fresh snapshot after every
// republish. Callbacks run synchronously on the mutating goroutine and
// must not call back into the store.
func (s *Store) Subscribe(fn func(View)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Store) viewLocked() View {
	all := make([]model.Task, len(s.tasks))
	copy(all, s.tasks)

	derived := Sort(Filter(all, s.status, s.query, s.advanced), s.sortBy)

	return View{
		Tasks:    derived,
		AllTasks: all,
		Status:   s.status,
		Query:    s.query,
		SortBy:   s.sortBy,
		Advanced: s.advanced,
		State:    s.state,
		Loading:  s.state == StateLoading,
		Err:      s.lastErr,
	}
}

func (s *Store) publishLocked() {
	if len(s.subscribers) == 0 {
		return
	}
	v := s.viewLocked()
	for _, fn := range s.subscribers {
		fn(v)
	}
}

func (s *Store) SetStatusFilter(f StatusFilter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = f
	s.publishLocked()
}

func (s *Store) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
	s.publishLocked()
}

func (s *Store) SetSortMode(m SortMode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Valid() {
		s.sortBy = m
	}
	s.publishLocked()
}

func (s *Store) SetAdvancedFilters(f AdvancedFilters) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanced = f
	s.publishLocked()
}

// FetchAll replaces the in-memory list with the persisted one. On failure
// the prior list is retained; only the state and error message change.
func (s *Store) FetchAll(ctx context.Context) error {
	s.mu.Lock()
	s.state = StateLoading
	s.lastErr = ""
	s.publishLocked()
	s.mu.Unlock()

	tasks, err := s.repo.List(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.state = StateErrored
		s.lastErr = err.Error()
		s.publishLocked()
		return err
	}
	s.tasks = tasks
	s.state = StateReady
	s.publishLocked()
	return nil
}

func (s *Store) Create(ctx context.Context, payload model.Task) (model.Task, error) {
	if err := ValidateNew(&payload); err != nil {
		// Validation failures never reach persistence and never
		// disturb the store's error state.
		return model.Task{}, err
	}

	created, err := s.repo.Create(ctx, s.userID, payload)
	if err != nil {
		s.recordErr(err)
		return model.Task{}, err
	}
	return created, s.FetchAll(ctx)
}

func (s *Store) Update(ctx context.Context, id model.TaskID, p Patch) error {
	if _, err := s.repo.Update(ctx, id, p); err != nil {
		s.recordErr(err)
		return err
	}
	return s.FetchAll(ctx)
}

func (s *Store) Remove(ctx context.Context, id model.TaskID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		s.recordErr(err)
		return err
	}
	return s.FetchAll(ctx)
}

// ToggleComplete flips a task's completed flag. On the false->true
// transition of a recurring, dated task the next occurrence is created
// first and awaited; only then is the original marked complete, so a
// failed create leaves the original untouched rather than silently ending
// the series.
func (s *Store) ToggleComplete(ctx context.Context, id model.TaskID, currentStatus bool) error {
	if !currentStatus {
		if cur, ok := s.find(id); ok {
			if next, ok := Expand(cur); ok {
				if _, err := s.repo.Create(ctx, s.userID, next); err != nil {
					s.recordErr(err)
					return err
				}
			}
		}
	}

	completed := !currentStatus
	return s.Update(ctx, id, Patch{Completed: &completed})
}

// BatchUpdate applies the same patch to every id. The mutations are issued
// concurrently and all of them are attempted; a partial failure is
// reported in aggregate only, and already-applied changes stay applied.
// One resync runs regardless of outcome.
func (s *Store) BatchUpdate(ctx context.Context, ids []model.TaskID, p Patch) error {
	failed := s.batch(ids, func(id model.TaskID) error {
		_, err := s.repo.Update(ctx, id, p)
		return err
	})
	return s.finishBatch(ctx, "update", failed, len(ids))
}

func (s *Store) BatchDelete(ctx context.Context, ids []model.TaskID) error {
	failed := s.batch(ids, func(id model.TaskID) error {
		return s.repo.Delete(ctx, id)
	})
	return s.finishBatch(ctx, "delete", failed, len(ids))
}

func (s *Store) batch(ids []model.TaskID, op func(model.TaskID) error) int {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		failed int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id model.TaskID) {
			defer wg.Done()
			if err := op(id); err != nil {
				mu.Lock()
				failed++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return failed
}

func (s *Store) finishBatch(ctx context.Context, op string, failed, total int) error {
	syncErr := s.FetchAll(ctx)
	if failed > 0 {
		err := fmt.Errorf("batch %s: %d of %d tasks failed", op, failed, total)
		s.recordErr(err)
		return err
	}
	return syncErr
}

// Reorder moves the element at fromIndex in the currently derived list to
// toIndex and rewrites every element's CustomOrder to its new positional
// index. The writes target the derived (filtered+sorted) list, so under a
// sort mode other than custom they only take effect once the user switches
// to custom.
func (s *Store) Reorder(ctx context.Context, fromIndex, toIndex int) error {
	s.mu.Lock()
	derived := s.viewLocked().Tasks
	s.mu.Unlock()

	if fromIndex < 0 || fromIndex >= len(derived) || toIndex < 0 || toIndex >= len(derived) {
		return fmt.Errorf("reorder: index out of range")
	}

	moved := derived[fromIndex]
	derived = append(derived[:fromIndex], derived[fromIndex+1:]...)
	derived = append(derived[:toIndex], append([]model.Task{moved}, derived[toIndex:]...)...)

	failed := 0
	for i, t := range derived {
		order := i
		if _, err := s.repo.Update(ctx, t.ID, Patch{CustomOrder: &order}); err != nil {
			failed++
		}
	}
	if failed > 0 {
		err := fmt.Errorf("reorder: %d of %d tasks failed", failed, len(derived))
		s.recordErr(err)
		_ = s.FetchAll(ctx)
		return err
	}
	return s.FetchAll(ctx)
}

func (s *Store) find(id model.TaskID) (model.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}

func (s *Store) recordErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateErrored
	s.lastErr = err.Error()
	s.publishLocked()
}
