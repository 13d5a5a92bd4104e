package task

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskdeck/internal/model"
)

func newTaskHandlerForTests(t *testing.T) (*Handler, *MemoryRepo) {
	t.Helper()
	repo := NewMemoryRepo()
	h := NewHandler(NewStoreSet(repo))
	return h, repo
}

func jsonReq(method, path string, body any) *http.Request {
	var b []byte
	if body != nil {
		b, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
	}
}

func TestTasksRoot_CreateAndList(t *testing.T) {
	h, _ := newTaskHandlerForTests(t)

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodPost, "/api/tasks", map[string]any{
		"title":    "Buy groceries",
		"priority": "high",
		"tags":     []string{"Errands"},
	}))
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	var created model.Task
	decodeBody(t, rec, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, []string{"errands"}, created.Tags)

	rec = httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodGet, "/api/tasks", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view viewResponse
	decodeBody(t, rec, &view)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, created.ID, view.Tasks[0].ID)
	assert.Equal(t, StateReady, view.State)
}

func TestTasksRoot_CreateRejectsEmptyTitle(t *testing.T) {
	h, _ := newTaskHandlerForTests(t)

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodPost, "/api/tasks", map[string]any{"title": "   "}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTasksRoot_QueryControls(t *testing.T) {
	h, repo := newTaskHandlerForTests(t)

	for _, tc := range []struct {
		title    string
		priority model.Priority
		done     bool
	}{
		{"alpha", model.PriorityHigh, false},
		{"beta", model.PriorityLow, true},
		{"gamma", model.PriorityHigh, true},
	} {
		_, err := repo.Create(context.Background(), "default", model.Task{
			Title:     tc.title,
			Priority:  tc.priority,
			Completed: tc.done,
		})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	h.TasksRoot(rec, jsonReq(http.MethodGet, "/api/tasks?status=completed&priorities=high", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var view viewResponse
	decodeBody(t, rec, &view)
	require.Len(t, view.Tasks, 1)
	assert.Equal(t, "gamma", view.Tasks[0].Title)
	assert.Len(t, view.AllTasks, 3)
}

func TestTasksRoot_UsersAreIsolated(t *testing.T) {
	h, _ := newTaskHandlerForTests(t)

	req := jsonReq(http.MethodPost, "/api/tasks", map[string]any{"title": "alice task"})
	req.Header.Set("X-User-Id", "alice")
	rec := httptest.NewRecorder()
	h.TasksRoot(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = jsonReq(http.MethodGet, "/api/tasks", nil)
	req.Header.Set("X-User-Id", "bob")
	rec = httptest.NewRecorder()
	h.TasksRoot(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var view viewResponse
	decodeBody(t, rec, &view)
	assert.Empty(t, view.AllTasks)
}

func TestTasksSub_PatchAndDelete(t *testing.T) {
	h, repo := newTaskHandlerForTests(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "default", model.Task{Title: "original"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodPatch, "/api/tasks/"+string(created.ID), map[string]any{
		"title": "renamed",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var view viewResponse
	decodeBody(t, rec, &view)
	require.Len(t, view.AllTasks, 1)
	assert.Equal(t, "renamed", view.AllTasks[0].Title)

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodDelete, "/api/tasks/"+string(created.ID), nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodDelete, "/api/tasks/"+string(created.ID), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTasksSub_Toggle(t *testing.T) {
	h, repo := newTaskHandlerForTests(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "default", model.Task{
		Title:      "recurring",
		DueDate:    strPtr("2026-03-15"),
		Recurrence: model.RecurrenceDaily,
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodPost, "/api/tasks/"+string(created.ID)+"/toggle", map[string]any{
		"currentStatus": false,
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var view viewResponse
	decodeBody(t, rec, &view)
	assert.Len(t, view.AllTasks, 2, "completing a recurring task spawns the next occurrence")
}

func TestTasksSub_CalendarICS(t *testing.T) {
	h, repo := newTaskHandlerForTests(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "default", model.Task{
		Title:   "dated",
		DueDate: strPtr("2026-03-20"),
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(created.ID)+"/calendar.ics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "DTSTART;VALUE=DATE:20260320")

	undated, err := repo.Create(ctx, "default", model.Task{Title: "undated"})
	require.NoError(t, err)

	rec = httptest.NewRecorder()
	h.TasksSub(rec, jsonReq(http.MethodGet, "/api/tasks/"+string(undated.ID)+"/calendar.ics", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTasksBatch(t *testing.T) {
	h, repo := newTaskHandlerForTests(t)
	ctx := context.Background()

	var ids []string
	for _, title := range []string{"a", "b"} {
		created, err := repo.Create(ctx, "default", model.Task{Title: title})
		require.NoError(t, err)
		ids = append(ids, string(created.ID))
	}

	rec := httptest.NewRecorder()
	h.TasksBatch(rec, jsonReq(http.MethodPost, "/api/tasks/batch", map[string]any{
		"op":    "update",
		"ids":   ids,
		"patch": map[string]any{"completed": true},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		OK   bool         `json:"ok"`
		View viewResponse `json:"view"`
	}
	decodeBody(t, rec, &out)
	assert.True(t, out.OK)
	for _, tk := range out.View.AllTasks {
		assert.True(t, tk.Completed)
	}
}

func TestTasksBatch_PartialFailureReportsAggregate(t *testing.T) {
	h, repo := newTaskHandlerForTests(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, "default", model.Task{Title: "only"})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.TasksBatch(rec, jsonReq(http.MethodPost, "/api/tasks/batch", map[string]any{
		"op":  "delete",
		"ids": []string{string(created.ID), "task_missing"},
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var out struct {
		OK    bool         `json:"ok"`
		Error string       `json:"error"`
		View  viewResponse `json:"view"`
	}
	decodeBody(t, rec, &out)
	assert.False(t, out.OK)
	assert.Equal(t, "batch delete: 1 of 2 tasks failed", out.Error)
	assert.Empty(t, out.View.AllTasks, "the existing task was still deleted")
}

func TestTasksBatch_Validation(t *testing.T) {
	h, _ := newTaskHandlerForTests(t)

	tests := []struct {
		name string
		body map[string]any
	}{
		{"unknown op", map[string]any{"op": "archive", "ids": []string{"x"}}},
		{"no ids", map[string]any{"op": "delete", "ids": []string{}}},
		{"update without patch", map[string]any{"op": "update", "ids": []string{"x"}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.TasksBatch(rec, jsonReq(http.MethodPost, "/api/tasks/batch", tc.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestTasksReorder(t *testing.T) {
	h, _ := newTaskHandlerForTests(t)

	rec := httptest.NewRecorder()
	h.TasksReorder(rec, jsonReq(http.MethodPost, "/api/tasks/reorder", map[string]any{"from": 0}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "both indices are required")

	rec = httptest.NewRecorder()
	h.TasksReorder(rec, jsonReq(http.MethodPost, "/api/tasks/reorder", map[string]any{"from": 0, "to": 3}))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "out of range on an empty list")
}

func TestUserID_DefaultsWithoutHeader(t *testing.T) {
	req := jsonReq(http.MethodGet, "/api/tasks", nil)
	assert.Equal(t, "default", UserID(req))

	req.Header.Set("X-User-Id", " alice ")
	assert.Equal(t, "alice", UserID(req))
}
