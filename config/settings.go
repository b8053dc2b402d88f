// Package config defines the application settings schema and the Manager
// that persists it as JSON on disk.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

// Settings represents the application configuration persisted to disk.
type Settings struct {
	Search    SearchSettings     `json:"search"`
	Providers []ProviderSettings `json:"providers"`
	Log       LogConfig          `json:"log"`
}

// SearchSettings bounds the aggregation sweep.
type SearchSettings struct {
	MaxConcurrentProviders int `json:"maxConcurrentProviders"`
	FetchTimeoutSeconds    int `json:"fetchTimeoutSeconds"`
	PollIntervalSeconds    int `json:"pollIntervalSeconds"`
}

// ProviderSettings configures one provider adapter. Credential fields are
// polymorphic per provider type: HTML sites use username/password (or raw
// cookies), API sites use username/passkey.
type ProviderSettings struct {
	Name                string   `json:"name"`
	Type                string   `json:"type"` // abnormal | iptorrents | ncore | norbits
	URL                 string   `json:"url,omitempty"`
	CustomURL           string   `json:"customUrl,omitempty"`
	Username            string   `json:"username,omitempty"`
	Password            string   `json:"password,omitempty"`
	Passkey             string   `json:"passkey,omitempty"`
	Cookies             string   `json:"cookies,omitempty"`
	MinSeeders          int      `json:"minSeeders"`
	MinLeechers         int      `json:"minLeechers"`
	FreeleechOnly       bool     `json:"freeleechOnly,omitempty"`
	ProperStrings       []string `json:"properStrings,omitempty"`
	MinCacheTimeMinutes int      `json:"minCacheTimeMinutes,omitempty"`
	Enabled             bool     `json:"enabled"`
}

// LogConfig represents file logging configuration.
type LogConfig struct {
	File       string `json:"file"`
	Level      string `json:"level"`
	MaxSize    int    `json:"maxSize"`
	MaxAge     int    `json:"maxAge"`
	MaxBackups int    `json:"maxBackups"`
	Compress   bool   `json:"compress"`
}

// DefaultSettings returns the settings written when no config file exists.
func DefaultSettings() Settings {
	return Settings{
		Search: SearchSettings{
			MaxConcurrentProviders: 4,
			FetchTimeoutSeconds:    30,
			PollIntervalSeconds:    900,
		},
		Providers: []ProviderSettings{},
		Log: LogConfig{
			MaxSize:    10,
			MaxAge:     14,
			MaxBackups: 3,
		},
	}
}

// Manager loads and persists settings to a JSON file.
type Manager struct {
	path string
	fs   afero.Fs
	mu   sync.Mutex
}

func NewManager(configPath string) *Manager {
	return NewManagerWithFs(configPath, afero.NewOsFs())
}

// NewManagerWithFs constructs a Manager over an explicit filesystem. Tests
// use an in-memory fs.
func NewManagerWithFs(configPath string, fsys afero.Fs) *Manager {
	return &Manager{path: configPath, fs: fsys}
}

// EnsureDir ensures the parent directory exists.
func (m *Manager) EnsureDir() error {
	dir := filepath.Dir(m.path)
	if dir == "." || dir == "" {
		return nil
	}
	return m.fs.MkdirAll(dir, 0o755)
}

// Load reads the settings file, creating it with defaults if missing.
func (m *Manager) Load() (Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.path == "" {
		return Settings{}, errors.New("config path not set")
	}

	if _, err := m.fs.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		defaults := DefaultSettings()
		if err := m.save(defaults); err != nil {
			return Settings{}, err
		}
		return defaults, nil
	}

	data, err := afero.ReadFile(m.fs, m.path)
	if err != nil {
		return Settings{}, err
	}

	var s Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}

	normalize(&s)
	return s, nil
}

// Save writes the provided settings to disk atomically.
func (m *Manager) Save(s Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.save(s)
}

func (m *Manager) save(s Settings) error {
	if m.path == "" {
		return errors.New("config path not set")
	}
	if err := m.EnsureDir(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	tmp := m.path + ".tmp"
	if err := afero.WriteFile(m.fs, tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	return m.fs.Rename(tmp, m.path)
}

// normalize fills gaps a hand-edited settings file commonly leaves.
func normalize(s *Settings) {
	if s.Search.MaxConcurrentProviders <= 0 {
		s.Search.MaxConcurrentProviders = 4
	}
	if s.Search.FetchTimeoutSeconds <= 0 {
		s.Search.FetchTimeoutSeconds = 30
	}
	if s.Search.PollIntervalSeconds <= 0 {
		s.Search.PollIntervalSeconds = 900
	}
	for i := range s.Providers {
		p := &s.Providers[i]
		p.Type = strings.ToLower(strings.TrimSpace(p.Type))
		if strings.TrimSpace(p.Name) == "" {
			p.Name = p.Type
		}
		if p.MinSeeders < 0 {
			p.MinSeeders = 0
		}
		if p.MinLeechers < 0 {
			p.MinLeechers = 0
		}
	}
}
