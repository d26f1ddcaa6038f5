package state

import (
	"time"

	"github.com/cadre-oss/memex/internal/memory"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunState is a saved snapshot of one extraction
type RunState struct {
	ID          string           `json:"id"`
	MemoryID    string           `json:"memory_id"`
	Region      string           `json:"region,omitempty"`
	Status      string           `json:"status"` // running, completed, failed
	StartedAt   time.Time        `json:"started_at"`
	CompletedAt time.Time        `json:"completed_at,omitempty"`
	Error       string           `json:"error,omitempty"`
	Namespaces  []NamespaceState `json:"namespaces"`
	Summary     Summary          `json:"summary"`
}

// NamespaceState holds what one namespace returned
type NamespaceState struct {
	Namespace string          `json:"namespace"`
	Source    string          `json:"source"`          // list, search
	Query     string          `json:"query,omitempty"` // search query that produced the records
	Error     string          `json:"error,omitempty"`
	Records   []memory.Record `json:"records,omitempty"`
}

// Summary holds the totals of an extraction
type Summary struct {
	Records    int `json:"records"`
	Namespaces int `json:"namespaces"`
	Templates  int `json:"templates"`
	Strategies int `json:"strategies"`
	Actors     int `json:"actors"`
}

// NewRunState creates a new run state
func NewRunState(id, memoryID, region string) *RunState {
	return &RunState{
		ID:         id,
		MemoryID:   memoryID,
		Region:     region,
		Status:     StatusRunning,
		StartedAt:  time.Now(),
		Namespaces: []NamespaceState{},
	}
}

// GetNamespace returns a namespace state by name
func (r *RunState) GetNamespace(name string) *NamespaceState {
	for i := range r.Namespaces {
		if r.Namespaces[i].Namespace == name {
			return &r.Namespaces[i]
		}
	}
	return nil
}

// RecordCount sums records across namespaces
func (r *RunState) RecordCount() int {
	n := 0
	for _, ns := range r.Namespaces {
		n += len(ns.Records)
	}
	return n
}

// Duration returns how long the run took, or zero while it is running
func (r *RunState) Duration() time.Duration {
	if r.CompletedAt.IsZero() {
		return 0
	}
	return r.CompletedAt.Sub(r.StartedAt)
}
