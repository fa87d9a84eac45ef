package config

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Manager holds the active configuration and swaps it on reload.
type Manager struct {
	path      string
	current   atomic.Pointer[Config]
	mu        sync.Mutex
	listeners []func(*Config)
}

// NewManager creates a Manager for a loaded config and the file it came from.
func NewManager(cfg *Config, path string) *Manager {
	m := &Manager{path: path}
	m.current.Store(cfg)
	return m
}

// Config returns the active configuration.
func (m *Manager) Config() *Config {
	return m.current.Load()
}

// Path returns the config file the manager reloads from.
func (m *Manager) Path() string {
	return m.path
}

// OnReload registers fn to be called with every newly loaded config.
func (m *Manager) OnReload(fn func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Reload re-reads the config file, swaps it in and notifies listeners.
// The active config is kept if the file cannot be loaded.
func (m *Manager) Reload() (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := LoadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload config: %w", err)
	}

	m.current.Store(cfg)
	for _, fn := range m.listeners {
		fn(cfg)
	}

	return cfg, nil
}
