package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	BackendJSON   = "json"
	BackendSqlite = "sqlite"

	UIMenu = "menu"
	UITUI  = "tui"
)

type Config struct {
	DataPath   string `json:"data_path" yaml:"data_path"`
	Backend    string `json:"backend" yaml:"backend"`
	LogPath    string `json:"log_path" yaml:"log_path"`
	UI         string `json:"ui" yaml:"ui"`
	WebEnabled bool   `json:"web_enabled" yaml:"web_enabled"`
	WebPort    int    `json:"web_port" yaml:"web_port"`
}

func Default() Config {
	return Config{Backend: BackendJSON, UI: UIMenu, WebPort: 8080}
}

func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "lazytodo", "config.json"), nil
}

func EnsureDir(path string) error {
	dir := filepath.Dir(path)
	return os.MkdirAll(dir, 0o755)
}

// DefaultDataPath places the data file next to the config file.
func DefaultDataPath(configPath, backend string) string {
	name := "tasks.json"
	if backend == BackendSqlite {
		name = "tasks.db"
	}
	return filepath.Join(filepath.Dir(configPath), name)
}

func (c Config) Validate() error {
	switch c.Backend {
	case BackendJSON, BackendSqlite:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	switch c.UI {
	case UIMenu, UITUI:
	default:
		return fmt.Errorf("unknown ui %q", c.UI)
	}
	if c.WebPort < 0 || c.WebPort > 65535 {
		return fmt.Errorf("invalid web port %d", c.WebPort)
	}
	return nil
}

func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return Config{}, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, &config)
	} else {
		err = json.Unmarshal(data, &config)
	}
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if config.Backend == "" {
		config.Backend = BackendJSON
	}
	if config.UI == "" {
		config.UI = UIMenu
	}
	return config, nil
}

func Save(path string, cfg Config) error {
	if err := EnsureDir(path); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
