package task

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"taskdeck/internal/model"
)

// Handler serves the task API over a per-user store. User scoping comes
// from the X-User-Id header (authentication itself lives outside this
// service); requests without the header fall back to the default user.
type Handler struct {
	stores        *StoreSet
	storeResolver func(*http.Request) *Store
}

func NewHandler(stores *StoreSet) *Handler {
	return &Handler{stores: stores}
}

// SetStoreResolver overrides per-request store selection, e.g. in tests.
func (h *Handler) SetStoreResolver(fn func(*http.Request) *Store) {
	h.storeResolver = fn
}

func (h *Handler) storeForRequest(r *http.Request) *Store {
	if h.storeResolver != nil {
		if st := h.storeResolver(r); st != nil {
			return st
		}
	}
	return h.stores.For(r.Context(), UserID(r))
}

func UserID(r *http.Request) string {
	uid := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if uid == "" {
		uid = "default"
	}
	return uid
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

func decodeJSON(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func errStatus(err error) int {
	switch {
	case err == ErrNotFound:
		return http.StatusNotFound
	case IsValidationErr(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

type viewResponse struct {
	Tasks    []model.Task    `json:"tasks"`
	AllTasks []model.Task    `json:"allTasks"`
	Status   StatusFilter    `json:"status"`
	Query    string          `json:"query"`
	SortBy   SortMode        `json:"sortBy"`
	Advanced AdvancedFilters `json:"advancedFilters"`
	State    StoreState      `json:"state"`
	Loading  bool            `json:"loading"`
	Error    string          `json:"error,omitempty"`
}

func toResponse(v View) viewResponse {
	return viewResponse{
		Tasks:    v.Tasks,
		AllTasks: v.AllTasks,
		Status:   v.Status,
		Query:    v.Query,
		SortBy:   v.SortBy,
		Advanced: v.Advanced,
		State:    v.State,
		Loading:  v.Loading,
		Error:    v.Err,
	}
}

// applyQueryControls pushes list controls from the query string into the
// store before deriving the view, so a GET is also how a client changes
// filter/sort state.
func applyQueryControls(st *Store, r *http.Request) {
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		st.SetStatusFilter(StatusFilter(v))
	}
	if q.Has("q") {
		st.SetQuery(q.Get("q"))
	}
	if v := q.Get("sort"); v != "" {
		st.SetSortMode(SortMode(v))
	}
	if q.Has("tags") || q.Has("priorities") || q.Has("from") || q.Has("to") {
		adv := AdvancedFilters{
			DateFrom: strings.TrimSpace(q.Get("from")),
			DateTo:   strings.TrimSpace(q.Get("to")),
		}
		for _, tag := range strings.Split(q.Get("tags"), ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				adv.Tags = append(adv.Tags, tag)
			}
		}
		for _, p := range strings.Split(q.Get("priorities"), ",") {
			if p = strings.TrimSpace(p); p != "" {
				adv.Priorities = append(adv.Priorities, model.Priority(p))
			}
		}
		st.SetAdvancedFilters(adv)
	}
}

// /api/tasks  (collection)
func (h *Handler) TasksRoot(w http.ResponseWriter, r *http.Request) {
	st := h.storeForRequest(r)

	switch r.Method {
	case http.MethodGet:
		// A fetch failure keeps the prior list; the view carries the
		// error message either way.
		_ = st.FetchAll(r.Context())
		applyQueryControls(st, r)
		writeJSON(w, http.StatusOK, toResponse(st.View()))
		return

	case http.MethodPost:
		var in model.Task
		if err := decodeJSON(r, &in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		created, err := st.Create(r.Context(), in)
		if err != nil {
			writeErr(w, errStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
}

// /api/tasks/batch
func (h *Handler) TasksBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st := h.storeForRequest(r)

	var in struct {
		Op    string   `json:"op"`
		IDs   []string `json:"ids"`
		Patch *Patch   `json:"patch,omitempty"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeErr(w, http.StatusBadRequest, "bad json")
		return
	}
	ids := make([]model.TaskID, 0, len(in.IDs))
	for _, id := range in.IDs {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, model.TaskID(id))
		}
	}
	if len(ids) == 0 {
		writeErr(w, http.StatusBadRequest, "no task ids")
		return
	}

	var err error
	switch in.Op {
	case "update":
		if in.Patch == nil {
			writeErr(w, http.StatusBadRequest, `missing field "patch"`)
			return
		}
		err = st.BatchUpdate(r.Context(), ids, *in.Patch)
	case "delete":
		err = st.BatchDelete(r.Context(), ids)
	default:
		writeErr(w, http.StatusBadRequest, "op must be update or delete")
		return
	}

	if err != nil {
		// Partial failures are aggregate-only; the resynced view shows
		// whatever subset actually persisted.
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":    false,
			"error": err.Error(),
			"view":  toResponse(st.View()),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"view": toResponse(st.View()),
	})
}

// /api/tasks/reorder
func (h *Handler) TasksReorder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	st := h.storeForRequest(r)

	var in struct {
		From *int `json:"from"`
		To   *int `json:"to"`
	}
	if err := decodeJSON(r, &in); err != nil || in.From == nil || in.To == nil {
		writeErr(w, http.StatusBadRequest, `fields "from" and "to" are required`)
		return
	}
	if err := st.Reorder(r.Context(), *in.From, *in.To); err != nil {
		writeErr(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toResponse(st.View()))
}

// /api/tasks/{id}
// /api/tasks/{id}/toggle
// /api/tasks/{id}/calendar.ics
func (h *Handler) TasksSub(w http.ResponseWriter, r *http.Request) {
	st := h.storeForRequest(r)

	tail := strings.TrimPrefix(r.URL.Path, "/api/tasks/")
	tail = strings.Trim(tail, "/")
	if tail == "" {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	parts := strings.Split(tail, "/")
	id := model.TaskID(parts[0])

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodPatch:
			var p Patch
			if err := decodeJSON(r, &p); err != nil {
				writeErr(w, http.StatusBadRequest, "bad json")
				return
			}
			if err := st.Update(r.Context(), id, p); err != nil {
				writeErr(w, errStatus(err), err.Error())
				return
			}
			writeJSON(w, http.StatusOK, toResponse(st.View()))
			return

		case http.MethodDelete:
			if err := st.Remove(r.Context(), id); err != nil {
				writeErr(w, errStatus(err), err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})
			return

		default:
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
	}

	if len(parts) == 2 && parts[1] == "toggle" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		var in struct {
			CurrentStatus bool `json:"currentStatus"`
		}
		if r.Body != nil {
			_ = decodeJSON(r, &in)
		}
		if err := st.ToggleComplete(r.Context(), id, in.CurrentStatus); err != nil {
			writeErr(w, errStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toResponse(st.View()))
		return
	}

	if len(parts) == 2 && parts[1] == "calendar.ics" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		cur, ok := st.find(id)
		if !ok {
			_ = st.FetchAll(r.Context())
			if cur, ok = st.find(id); !ok {
				writeErr(w, http.StatusNotFound, "not found")
				return
			}
		}
		ics, err := BuildTaskCalendarICS(cur, time.Now())
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="task.ics"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(ics))
		return
	}

	writeErr(w, http.StatusNotFound, "not found")
}
