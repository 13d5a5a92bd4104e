// Package serverapp assembles the HTTP handler: storage backend,
// per-user stores, route table, middleware chain.
package serverapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"taskdeck/internal/config"
	"taskdeck/internal/httpmw"
	"taskdeck/internal/prefs"
	"taskdeck/internal/task"
	"taskdeck/internal/telemetry"
)

type Options struct {
	Config  *config.Config
	DataDir string
	Logger  *log.Logger
}

func NewHandler(opts Options) (http.Handler, error) {
	if opts.Config == nil {
		return nil, errors.New("config is required")
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = opts.Config.Server.DataDir
	}
	if strings.TrimSpace(opts.DataDir) == "" {
		opts.DataDir = "data"
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	repo, err := openRepo(opts.Config, opts.DataDir)
	if err != nil {
		return nil, err
	}
	stores := task.NewStoreSet(repo)

	prefStore, err := prefs.NewFileStore(opts.DataDir)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "taskdeck",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if _, err := repo.List(r.Context(), "default"); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"ok":    false,
				"error": "task storage unavailable",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"ok":      true,
			"service": "taskdeck",
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	taskHandler := task.NewHandler(stores)
	mux.HandleFunc("/api/tasks", taskHandler.TasksRoot)
	mux.HandleFunc("/api/tasks/", taskHandler.TasksSub)
	mux.HandleFunc("/api/tasks/batch", taskHandler.TasksBatch)
	mux.HandleFunc("/api/tasks/reorder", taskHandler.TasksReorder)

	prefHandler := prefs.NewHandler(prefStore, stores)
	mux.HandleFunc("/api/views", prefHandler.Views)
	mux.HandleFunc("/api/views/", prefHandler.ViewsSub)
	mux.HandleFunc("/api/templates", prefHandler.Templates)
	mux.HandleFunc("/api/templates/", prefHandler.TemplatesSub)
	mux.HandleFunc("/api/settings/pomodoro", prefHandler.Pomodoro)

	statsHandler := telemetry.NewHandler(stores)
	mux.HandleFunc("/api/stats", statsHandler.Stats)

	mux.HandleFunc("/api/config", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(opts.Config); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})

	return httpmw.Chain(
		mux,
		httpmw.WithAccessLog(opts.Logger),
		httpmw.WithRequestID,
		httpmw.WithRecover(opts.Logger),
	), nil
}

func openRepo(cfg *config.Config, dataDir string) (task.Repo, error) {
	switch cfg.Storage.Backend {
	case "", "file":
		return task.NewFileRepo(dataDir)
	case "sqlite":
		return task.OpenSQLiteRepo(cfg.Storage.SQLitePath)
	case "memory":
		return task.NewMemoryRepo(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
