package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Version string        `yaml:"version" json:"version"`
	Server  ServerConfig  `yaml:"server" json:"server"`
	Storage StorageConfig `yaml:"storage" json:"storage"`
	Tasks   TasksConfig   `yaml:"tasks" json:"tasks"`
}

type ServerConfig struct {
	Addr    string `yaml:"addr" json:"addr"`
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

type StorageConfig struct {
	// Backend: "file" | "sqlite" | "memory"
	Backend    string `yaml:"backend" json:"backend"`
	SQLitePath string `yaml:"sqlite_path" json:"sqlite_path"`
}

type TasksConfig struct {
	Defaults   TaskDefaults   `yaml:"defaults" json:"defaults"`
	Recurrence TaskRecurrence `yaml:"recurrence" json:"recurrence"`
}

type TaskDefaults struct {
	Priority string `yaml:"priority" json:"priority"`
}

type TaskRecurrence struct {
	Supported []string `yaml:"supported" json:"supported"`
}

func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.DataDir == "" {
		c.Server.DataDir = "data"
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.SQLitePath == "" {
		c.Storage.SQLitePath = "data/taskdeck.db"
	}
	if c.Tasks.Defaults.Priority == "" {
		c.Tasks.Defaults.Priority = "medium"
	}
	if len(c.Tasks.Recurrence.Supported) == 0 {
		c.Tasks.Recurrence.Supported = []string{"daily", "weekly", "monthly"}
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	c.ApplyDefaults()
	return &c, nil
}

// LoadOrDefault reads path when it exists and otherwise returns defaults,
// so the server starts without a config file.
func LoadOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		var c Config
		c.ApplyDefaults()
		c.applyEnv()
		return &c, nil
	}
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	c.applyEnv()
	return c, nil
}

// applyEnv lets environment variables override file values.
func (c *Config) applyEnv() {
	if v := os.Getenv("TASKDECK_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("TASKDECK_DATA_DIR"); v != "" {
		c.Server.DataDir = v
	}
	if v := os.Getenv("TASKDECK_STORAGE"); v != "" {
		c.Storage.Backend = v
	}
	if v := os.Getenv("TASKDECK_SQLITE_PATH"); v != "" {
		c.Storage.SQLitePath = v
	}
}
