package prefs

import (
	"encoding/json"
	"net/http"
	"strings"

	"taskdeck/internal/model"
	"taskdeck/internal/task"
)

type Handler struct {
	store  *FileStore
	stores *task.StoreSet
}

func NewHandler(store *FileStore, stores *task.StoreSet) *Handler {
	return &Handler{store: store, stores: stores}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]any{"error": msg})
}

// /api/views
func (h *Handler) Views(w http.ResponseWriter, r *http.Request) {
	uid := task.UserID(r)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.store.Views(uid))

	case http.MethodPost:
		var in SavedView
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		if err := h.store.SaveView(uid, in); err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, in)

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// /api/views/{name}
func (h *Handler) ViewsSub(w http.ResponseWriter, r *http.Request) {
	uid := task.UserID(r)
	name := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/views/"), "/")
	if name == "" {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}

	switch r.Method {
	case http.MethodDelete:
		if err := h.store.DeleteView(uid, name); err != nil {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})

	case http.MethodPost:
		// Load the view: push its filters into the user's store.
		for _, v := range h.store.Views(uid) {
			if v.Name == name {
				st := h.stores.For(r.Context(), uid)
				st.SetAdvancedFilters(v.Filters)
				writeJSON(w, http.StatusOK, v)
				return
			}
		}
		writeErr(w, http.StatusNotFound, "not found")

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// /api/templates
func (h *Handler) Templates(w http.ResponseWriter, r *http.Request) {
	uid := task.UserID(r)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.store.Templates(uid))

	case http.MethodPost:
		var in struct {
			Name string     `json:"name"`
			Data model.Task `json:"data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		tpl, err := h.store.SaveTemplate(uid, in.Name, in.Data)
		if err != nil {
			writeErr(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, tpl)

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// /api/templates/{id}
// /api/templates/{id}/create
func (h *Handler) TemplatesSub(w http.ResponseWriter, r *http.Request) {
	uid := task.UserID(r)
	tail := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/templates/"), "/")
	if tail == "" {
		writeErr(w, http.StatusNotFound, "not found")
		return
	}
	parts := strings.Split(tail, "/")
	id := parts[0]

	if len(parts) == 1 && r.Method == http.MethodDelete {
		if err := h.store.DeleteTemplate(uid, id); err != nil {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if len(parts) == 2 && parts[1] == "create" && r.Method == http.MethodPost {
		tpl, err := h.store.Template(uid, id)
		if err != nil {
			writeErr(w, http.StatusNotFound, err.Error())
			return
		}
		st := h.stores.For(r.Context(), uid)
		created, err := st.Create(r.Context(), tpl.Data)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, created)
		return
	}

	writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
}

// /api/settings/pomodoro
func (h *Handler) Pomodoro(w http.ResponseWriter, r *http.Request) {
	uid := task.UserID(r)

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.store.Pomodoro(uid))

	case http.MethodPut:
		var in PomodoroSettings
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			writeErr(w, http.StatusBadRequest, "bad json")
			return
		}
		if err := h.store.SetPomodoro(uid, in); err != nil {
			writeErr(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, in)

	default:
		writeErr(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}
