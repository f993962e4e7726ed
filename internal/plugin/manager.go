package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// ErrNotBuilt is returned by Load when the manifest's executable does not exist yet.
var ErrNotBuilt = errors.New("plugin executable not built")

// Manager keeps the plugins found in one directory.
type Manager struct {
	pluginDir string
	plugins   map[string]*Plugin
	mu        sync.RWMutex
}

// NewManager creates a new plugin Manager with the given plugin directory.
func NewManager(pluginDir string) *Manager {
	return &Manager{
		pluginDir: pluginDir,
		plugins:   make(map[string]*Plugin),
	}
}

// Discover rescans the plugin directory. Every subdirectory holding a valid
// manifest and a built executable becomes a plugin; anything else is skipped
// with a warning. A missing directory yields no plugins.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)

	entries, err := os.ReadDir(m.pluginDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		entries = nil
	case err != nil:
		return fmt.Errorf("scan plugins in %s: %w", m.pluginDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := Load(filepath.Join(m.pluginDir, entry.Name()))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			continue
		case err != nil:
			log.Warn().Err(err).Str("plugin", entry.Name()).Msg("skipping plugin")
			continue
		}
		if prev, dup := found[p.Manifest.Name]; dup {
			log.Warn().Str("plugin", p.Manifest.Name).Str("kept", prev.Path).Str("skipped", p.Path).Msg("duplicate plugin name")
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()
	return nil
}

// Load reads the plugin in dir. It returns an error wrapping fs.ErrNotExist
// when dir has no manifest, and ErrNotBuilt when the executable is missing.
func Load(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestFile, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", ManifestFile, err)
	}

	exe, err := resolveExecutable(filepath.Join(dir, manifest.Executable))
	if err != nil {
		return nil, err
	}
	return &Plugin{Manifest: manifest, Path: dir, Executable: exe}, nil
}

// resolveExecutable finds the built binary, adding .exe on Windows when the manifest omits it.
func resolveExecutable(path string) (string, error) {
	candidates := []string{path}
	if runtime.GOOS == "windows" && !strings.EqualFold(filepath.Ext(path), ".exe") {
		candidates = append(candidates, path+".exe")
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNotBuilt, path)
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.plugins[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return p, nil
}

// Find returns the first plugin, by name, that declares action.
func (m *Manager) Find(action string) (*Plugin, error) {
	for _, p := range m.List() {
		if p.Manifest.Supports(action) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: no plugin supports %s", ErrPluginNotFound, action)
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	plugins := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		plugins = append(plugins, p)
	}
	m.mu.RUnlock()

	slices.SortFunc(plugins, func(a, b *Plugin) int { return strings.Compare(a.Manifest.Name, b.Manifest.Name) })
	return plugins
}

// PluginDir returns the plugin directory path.
func (m *Manager) PluginDir() string {
	return m.pluginDir
}
