// Package state persists extraction snapshots so past runs can be listed,
// inspected and exported without calling the memory service again.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for state storage backends
type Store interface {
	SaveRun(run *RunState) error
	GetRun(id string) (*RunState, error)
	ListRuns(limit int) ([]*RunState, error)
	DeleteRun(id string) error

	Close() error
}

// Manager manages extraction snapshots
type Manager struct {
	store     Store
	mu        sync.RWMutex
	activeRun *RunState
}

// NewManager creates a new state manager
func NewManager(driver, path string) (*Manager, error) {
	var store Store
	var err error

	switch driver {
	case "memory", "":
		store = NewMemoryStore()
	case "sqlite":
		store, err = NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite store: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported state driver: %s", driver)
	}

	return &Manager{store: store}, nil
}

// NewManagerWithStore wraps an existing store
func NewManagerWithStore(store Store) *Manager {
	return &Manager{store: store}
}

// Close closes the state manager
func (m *Manager) Close() error {
	return m.store.Close()
}

// StartRun creates and returns a new run state
func (m *Manager) StartRun(memoryID, region string) (*RunState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	run := NewRunState(uuid.New().String(), memoryID, region)

	if err := m.store.SaveRun(run); err != nil {
		return nil, fmt.Errorf("failed to save run: %w", err)
	}

	m.activeRun = run
	return run, nil
}

// CompleteRun marks the active run as complete and stores its results
func (m *Manager) CompleteRun(namespaces []NamespaceState, summary Summary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRun == nil {
		return fmt.Errorf("no active run")
	}

	m.activeRun.Status = StatusCompleted
	m.activeRun.CompletedAt = time.Now()
	m.activeRun.Namespaces = namespaces
	m.activeRun.Summary = summary

	if err := m.store.SaveRun(m.activeRun); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

// FailRun marks the active run as failed
func (m *Manager) FailRun(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.activeRun == nil {
		return fmt.Errorf("no active run")
	}

	m.activeRun.Status = StatusFailed
	m.activeRun.CompletedAt = time.Now()
	m.activeRun.Error = err.Error()

	if saveErr := m.store.SaveRun(m.activeRun); saveErr != nil {
		return fmt.Errorf("failed to save run: %w", saveErr)
	}

	return nil
}

// ActiveRun returns the run started by this manager, if any
func (m *Manager) ActiveRun() *RunState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeRun
}

// GetRun returns a saved run
func (m *Manager) GetRun(id string) (*RunState, error) {
	return m.store.GetRun(id)
}

// ListRuns lists recent runs
func (m *Manager) ListRuns(limit int) ([]*RunState, error) {
	return m.store.ListRuns(limit)
}

// DeleteRun removes a saved run
func (m *Manager) DeleteRun(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteRun(id); err != nil {
		return err
	}
	if m.activeRun != nil && m.activeRun.ID == id {
		m.activeRun = nil
	}
	return nil
}

// ExportRun writes a saved run to dir as <id>.json and returns the path
func (m *Manager) ExportRun(id, dir string) (string, error) {
	run, err := m.store.GetRun(id)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export dir: %w", err)
	}

	filename := filepath.Join(dir, run.ID+".json")
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal run: %w", err)
	}

	return filename, os.WriteFile(filename, data, 0644)
}
