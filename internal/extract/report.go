package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/namespace"
	"github.com/cadre-oss/memex/internal/state"
)

// Record sources.
const (
	SourceList   = "list"
	SourceSearch = "search"
)

// NamespaceResult is what one concrete namespace returned.
type NamespaceResult struct {
	Namespace string          `json:"namespace"`
	Source    string          `json:"source"`
	Query     string          `json:"query,omitempty"`
	Records   []memory.Record `json:"records"`
	Error     string          `json:"error,omitempty"`
	Err       error           `json:"-"`
}

// Failed reports whether listing this namespace failed.
func (r NamespaceResult) Failed() bool {
	return r.Error != ""
}

// Report is the outcome of an extraction.
type Report struct {
	RunID                  string                `json:"run_id,omitempty"`
	MemoryID               string                `json:"memory_id"`
	MemorySource           string                `json:"memory_source"` // explicit, first-listed
	Memory                 *memory.Memory        `json:"memory"`
	Actors                 []memory.Actor        `json:"actors"`
	ActorsError            string                `json:"actors_error,omitempty"`
	Templates              []string              `json:"templates"`
	UsedFallbackNamespaces bool                  `json:"used_fallback_namespaces,omitempty"`
	Resolution             *namespace.Resolution `json:"resolution"`
	Namespaces             []NamespaceResult     `json:"namespaces"`
	SearchUsed             bool                  `json:"search_used,omitempty"`
	SearchQueries          []string              `json:"-"`
	TotalRecords           int                   `json:"total_records"`
	Tips                   []string              `json:"tips,omitempty"`
	Duration               time.Duration         `json:"duration_ns"`
}

// Summary returns the totals of the report.
func (r *Report) Summary() state.Summary {
	s := state.Summary{
		Records:    r.TotalRecords,
		Namespaces: len(r.Namespaces),
		Templates:  len(r.Templates),
		Actors:     len(r.Actors),
	}
	if r.Memory != nil {
		s.Strategies = len(r.Memory.Strategies)
	}
	return s
}

// FailedNamespaces returns the namespaces whose listing failed.
func (r *Report) FailedNamespaces() []NamespaceResult {
	var out []NamespaceResult
	for _, ns := range r.Namespaces {
		if ns.Failed() {
			out = append(out, ns)
		}
	}
	return out
}

// NamespaceStates converts the results for the snapshot store.
func (r *Report) NamespaceStates() []state.NamespaceState {
	out := make([]state.NamespaceState, 0, len(r.Namespaces))
	for _, ns := range r.Namespaces {
		out = append(out, state.NamespaceState{
			Namespace: ns.Namespace,
			Source:    ns.Source,
			Query:     ns.Query,
			Error:     ns.Error,
			Records:   ns.Records,
		})
	}
	return out
}

// Tips returns troubleshooting hints for a report that found nothing or hit
// errors. A successful report with records gets none.
func Tips(r *Report) []string {
	var tips []string

	if failed := r.FailedNamespaces(); len(failed) > 0 {
		names := make([]string, 0, len(failed))
		for _, f := range failed {
			names = append(names, f.Namespace)
		}
		tips = append(tips, fmt.Sprintf("Listing failed for %d namespace(s): %s. Re-run with --verbose for details", len(failed), strings.Join(names, ", ")))
	}

	if r.TotalRecords > 0 {
		return tips
	}

	tips = append(tips,
		"Memory might be empty or still processing",
		"Check that events have been stored with CreateEvent",
		"Wait for long-term extraction to complete (2-3 minutes after storing events)",
	)

	if r.Memory != nil {
		var inactive []string
		for _, s := range r.Memory.Strategies {
			if s.Status != "" && !strings.EqualFold(s.Status, "ACTIVE") {
				inactive = append(inactive, fmt.Sprintf("%s (%s)", s.Name, s.Status))
			}
		}
		if len(inactive) > 0 {
			tips = append(tips, "Strategies not ACTIVE: "+strings.Join(inactive, ", "))
		} else {
			tips = append(tips, "Verify memory strategies are ACTIVE")
		}
		if len(r.Memory.Strategies) == 0 {
			tips = append(tips, "The memory has no long-term strategies, so nothing is extracted from events")
		}
	}

	if r.ActorsError != "" {
		tips = append(tips, "Actors could not be listed, so {actorId} templates fell back to their literal prefix")
	} else if len(r.Actors) == 0 {
		tips = append(tips, "No actors found; templates with {actorId} cannot be substituted")
	}

	if r.Resolution != nil {
		if empty := r.Resolution.Empty(); len(empty) > 0 {
			tips = append(tips, fmt.Sprintf("%d template(s) resolved to no namespace; add concrete prefixes under namespaces.extra", len(empty)))
		}
	}

	tips = append(tips, "Check that namespace patterns match your stored data")
	return tips
}
