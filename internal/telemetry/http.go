package telemetry

import (
	"encoding/json"
	"net/http"
	"time"

	"taskdeck/internal/task"
)

type Handler struct {
	stores *task.StoreSet
}

func NewHandler(stores *task.StoreSet) *Handler {
	return &Handler{stores: stores}
}

// /api/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	st := h.stores.For(r.Context(), task.UserID(r))
	_ = st.FetchAll(r.Context())
	stats := CalculateStats(st.View().AllTasks, time.Now())

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(stats)
}
