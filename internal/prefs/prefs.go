// Package prefs stores per-user preference blobs: saved filter views,
// task templates and pomodoro settings. Values are opaque JSON under named
// keys; the only guarantee is a lossless round-trip.
package prefs

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskdeck/internal/model"
	"taskdeck/internal/task"
)

var ErrNotFound = errors.New("preference entry not found")

type SavedView struct {
	Name    string               `json:"name"`
	Filters task.AdvancedFilters `json:"filters"`
}

type Template struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Data      model.Task `json:"data"`
	CreatedAt time.Time  `json:"createdAt"`
}

type PomodoroSettings struct {
	WorkDuration      int  `json:"workDuration"`
	BreakDuration     int  `json:"breakDuration"`
	LongBreakDuration int  `json:"longBreakDuration"`
	LongBreakInterval int  `json:"longBreakInterval"`
	AutoStart         bool `json:"autoStart"`
	SoundEnabled      bool `json:"soundEnabled"`
}

func DefaultPomodoro() PomodoroSettings {
	return PomodoroSettings{
		WorkDuration:      25,
		BreakDuration:     5,
		LongBreakDuration: 15,
		LongBreakInterval: 4,
	}
}

type userPrefs struct {
	Views     []SavedView       `json:"views"`
	Templates []Template        `json:"templates"`
	Pomodoro  *PomodoroSettings `json:"pomodoro,omitempty"`
}

type fileState struct {
	Users map[string]userPrefs `json:"users"`
}

// FileStore persists preferences as one JSON document, bucketed by user.
type FileStore struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewFileStore(dataDir string) (*FileStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	fs := &FileStore{
		path: filepath.Join(dataDir, "prefs.json"),
		s:    fileState{Users: map[string]userPrefs{}},
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (f *FileStore) load() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	b, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	if loaded.Users == nil {
		loaded.Users = map[string]userPrefs{}
	}
	f.s = loaded
	return nil
}

func (f *FileStore) saveLocked() error {
	b, err := json.MarshalIndent(f.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, b, 0o644)
}

func (f *FileStore) userLocked(userID string) userPrefs {
	return f.s.Users[userID]
}

func (f *FileStore) Views(userID string) []SavedView {
	f.mu.RLock()
	defer f.mu.RUnlock()
	up := f.s.Users[userID]
	out := make([]SavedView, len(up.Views))
	copy(out, up.Views)
	return out
}

// SaveView upserts by name.
func (f *FileStore) SaveView(userID string, v SavedView) error {
	v.Name = strings.TrimSpace(v.Name)
	if v.Name == "" {
		return errors.New("view name is required")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	up := f.userLocked(userID)
	replaced := false
	for i, have := range up.Views {
		if have.Name == v.Name {
			up.Views[i] = v
			replaced = true
			break
		}
	}
	if !replaced {
		up.Views = append(up.Views, v)
	}
	f.s.Users[userID] = up
	return f.saveLocked()
}

func (f *FileStore) DeleteView(userID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	up := f.userLocked(userID)
	for i, have := range up.Views {
		if have.Name == name {
			up.Views = append(up.Views[:i], up.Views[i+1:]...)
			f.s.Users[userID] = up
			return f.saveLocked()
		}
	}
	return ErrNotFound
}

func (f *FileStore) Templates(userID string) []Template {
	f.mu.RLock()
	defer f.mu.RUnlock()
	up := f.s.Users[userID]
	out := make([]Template, len(up.Templates))
	copy(out, up.Templates)
	return out
}

func (f *FileStore) SaveTemplate(userID string, name string, data model.Task) (Template, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Template{}, errors.New("template name is required")
	}
	if strings.TrimSpace(data.Title) == "" {
		return Template{}, errors.New("template task title is required")
	}
	data.Tags = model.NormalizeTags(data.Tags)

	tpl := Template{
		ID:        "tpl_" + uuid.NewString(),
		Name:      name,
		Data:      data,
		CreatedAt: time.Now(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	up := f.userLocked(userID)
	up.Templates = append(up.Templates, tpl)
	f.s.Users[userID] = up
	if err := f.saveLocked(); err != nil {
		return Template{}, err
	}
	return tpl, nil
}

func (f *FileStore) Template(userID, id string) (Template, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, tpl := range f.s.Users[userID].Templates {
		if tpl.ID == id {
			return tpl, nil
		}
	}
	return Template{}, ErrNotFound
}

func (f *FileStore) DeleteTemplate(userID, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	up := f.userLocked(userID)
	for i, tpl := range up.Templates {
		if tpl.ID == id {
			up.Templates = append(up.Templates[:i], up.Templates[i+1:]...)
			f.s.Users[userID] = up
			return f.saveLocked()
		}
	}
	return ErrNotFound
}

func (f *FileStore) Pomodoro(userID string) PomodoroSettings {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if p := f.s.Users[userID].Pomodoro; p != nil {
		return *p
	}
	return DefaultPomodoro()
}

func (f *FileStore) SetPomodoro(userID string, p PomodoroSettings) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	up := f.userLocked(userID)
	up.Pomodoro = &p
	f.s.Users[userID] = up
	return f.saveLocked()
}
