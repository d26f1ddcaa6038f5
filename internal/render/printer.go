// Package render prints memory listings, extraction reports and saved runs
// for the terminal, or as JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/namespace"
	"github.com/cadre-oss/memex/internal/state"
)

const rule = "================================================================================"

// Printer writes human-readable output.
type Printer struct {
	w            io.Writer
	contentLimit int
}

// NewPrinter creates a Printer. contentLimit caps record content in runes;
// zero or less prints content in full.
func NewPrinter(w io.Writer, contentLimit int) *Printer {
	return &Printer{w: w, contentLimit: contentLimit}
}

// JSON writes v as indented JSON.
func JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Truncate shortens s to limit runes and appends "..." when it was cut.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}

func (p *Printer) printf(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) heading(title string) {
	p.printf("\n%s\n%s\n%s\n", rule, title, rule)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC3339)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

var memoryHeader = table.Row{
	"#",
	"ID",
	"Name",
	"Status",
	"Created At",
}

// Memories prints the memory listing.
func (p *Printer) Memories(memories []memory.MemorySummary) {
	if len(memories) == 0 {
		p.printf("No memories found.\n")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.AppendHeader(memoryHeader)
	for i, m := range memories {
		t.AppendRow(table.Row{i + 1, m.ID, orNA(m.Name), m.Status, formatTime(m.CreatedAt)})
	}
	t.Render()
}

var strategyHeader = table.Row{
	"#",
	"Strategy ID",
	"Name",
	"Type",
	"Status",
	"Namespaces",
}

// Memory prints a memory summary with its strategies.
func (p *Printer) Memory(m *memory.Memory) {
	p.heading("AGENTCORE MEMORY SUMMARY")
	p.printf("Memory ID:    %s\n", m.ID)
	p.printf("Name:         %s\n", orNA(m.Name))
	p.printf("Description:  %s\n", orNA(m.Description))
	p.printf("Status:       %s\n", m.Status)
	if m.FailureReason != "" {
		p.printf("Failure:      %s\n", m.FailureReason)
	}
	p.printf("Created:      %s\n", formatTime(m.CreatedAt))
	p.printf("Updated:      %s\n", formatTime(m.UpdatedAt))
	if m.EventExpiryDays > 0 {
		p.printf("Event Expiry: %d days\n", m.EventExpiryDays)
	}

	p.printf("\nMemory strategies (%d configured):\n", len(m.Strategies))
	if len(m.Strategies) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.AppendHeader(strategyHeader)
	for i, s := range m.Strategies {
		t.AppendRow(table.Row{i + 1, s.StrategyID, orNA(s.Name), orNA(s.Type), orNA(s.Status), strings.Join(s.Namespaces, "\n")})
	}
	t.Render()
}

// Actors prints the actor list.
func (p *Printer) Actors(actors []memory.Actor) {
	p.printf("\nActors (%d):\n", len(actors))
	for _, a := range actors {
		p.printf("  - %s\n", a.ActorID)
	}
}

var templateHeader = table.Row{
	"Template",
	"Outcome",
	"Namespaces",
}

// Resolution prints each template next to what it resolved to.
func (p *Printer) Resolution(res *namespace.Resolution) {
	p.printf("\nNamespace templates (%d) -> concrete namespaces (%d):\n", len(res.Templates), len(res.Namespaces))

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.AppendHeader(templateHeader)
	for _, tr := range res.Templates {
		t.AppendRow(table.Row{tr.Template, string(tr.Outcome), strings.Join(tr.Namespaces, "\n")})
	}
	t.Render()

	if empty := res.Empty(); len(empty) > 0 {
		p.printf("Templates that resolved to nothing:\n")
		for _, tr := range empty {
			p.printf("  - %s (%s)\n", tr.Template, tr.Outcome)
		}
	}
}

// Records prints a block per record under a title.
func (p *Printer) Records(title string, records []memory.Record) {
	p.heading(fmt.Sprintf("%s (%d records)", title, len(records)))
	if len(records) == 0 {
		p.printf("No memory records found.\n")
		return
	}

	for i, r := range records {
		p.printf("\nRecord %d:\n", i+1)
		p.printf("----------------------------------------\n")
		p.printf("Record ID:    %s\n", r.ID)
		p.printf("Strategy ID:  %s\n", orNA(r.StrategyID))
		if len(r.Namespaces) > 0 {
			p.printf("Namespaces:   %s\n", strings.Join(r.Namespaces, ", "))
		}
		p.printf("Created:      %s\n", formatTime(r.CreatedAt))
		if r.ContentType != "" {
			p.printf("Content Type: %s\n", r.ContentType)
		}
		p.printf("Content:      %s\n", Truncate(r.Content, p.contentLimit))
		if r.Score != nil {
			p.printf("Score: %.3f\n", *r.Score)
		}
	}
}

// Report prints a full extraction report.
func (p *Printer) Report(r *extract.Report) {
	if r.Memory != nil {
		p.Memory(r.Memory)
	}
	if r.UsedFallbackNamespaces {
		p.printf("\nNo namespaces declared by strategies; using fallback list.\n")
	}
	if r.ActorsError != "" {
		p.printf("\nActors could not be listed: %s\n", r.ActorsError)
	} else {
		p.Actors(r.Actors)
	}
	if r.Resolution != nil {
		p.Resolution(r.Resolution)
	}

	for _, ns := range r.Namespaces {
		switch {
		case ns.Failed():
			p.printf("\nNamespace %s: failed: %s\n", ns.Namespace, ns.Error)
		case ns.Source == extract.SourceSearch:
			p.Records(fmt.Sprintf("SEARCH %q IN %s", ns.Query, ns.Namespace), ns.Records)
		case len(ns.Records) > 0:
			p.Records("NAMESPACE "+ns.Namespace, ns.Records)
		default:
			p.printf("\nNo records found in namespace: %s\n", ns.Namespace)
		}
	}

	p.Summary(r)
}

// Summary prints totals and troubleshooting tips.
func (p *Printer) Summary(r *extract.Report) {
	s := r.Summary()
	p.heading("EXTRACTION SUMMARY")
	p.printf("Total Records Found:   %d\n", s.Records)
	p.printf("Concrete Namespaces:   %d\n", s.Namespaces)
	p.printf("Template Namespaces:   %d\n", s.Templates)
	p.printf("Strategies Configured: %d\n", s.Strategies)
	p.printf("Actors Found:          %d\n", s.Actors)
	if r.SearchUsed {
		p.printf("Search Fallback:       used\n")
	}
	if r.RunID != "" {
		p.printf("Saved Run:             %s\n", r.RunID)
	}

	if len(r.Tips) > 0 {
		p.printf("\nTroubleshooting:\n")
		for _, tip := range r.Tips {
			p.printf("- %s\n", tip)
		}
	} else if s.Records > 0 {
		p.printf("\nSuccessfully extracted %d memory records.\n", s.Records)
	}
}

var runHeader = table.Row{
	"Run ID",
	"Memory",
	"Status",
	"Started At",
	"Duration",
	"Records",
}

// Runs prints saved runs.
func (p *Printer) Runs(runs []*state.RunState) {
	if len(runs) == 0 {
		p.printf("No runs found.\n")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.w)
	t.AppendHeader(runHeader)
	for _, run := range runs {
		duration := "-"
		if d := run.Duration(); d > 0 {
			duration = d.Round(time.Millisecond).String()
		}
		t.AppendRow(table.Row{run.ID, run.MemoryID, statusIcon(run.Status) + " " + run.Status, formatTime(run.StartedAt), duration, run.RecordCount()})
	}
	t.Render()
}

// Run prints one saved run with its records.
func (p *Printer) Run(run *state.RunState) {
	p.printf("Run ID:    %s\n", run.ID)
	p.printf("Memory:    %s\n", run.MemoryID)
	p.printf("Region:    %s\n", orNA(run.Region))
	p.printf("Status:    %s %s\n", statusIcon(run.Status), run.Status)
	p.printf("Started:   %s\n", formatTime(run.StartedAt))
	if !run.CompletedAt.IsZero() {
		p.printf("Completed: %s (duration: %s)\n", formatTime(run.CompletedAt), run.Duration().Round(time.Millisecond))
	}
	if run.Error != "" {
		p.printf("Error:     %s\n", run.Error)
	}

	for _, ns := range run.Namespaces {
		switch {
		case ns.Error != "":
			p.printf("\nNamespace %s: failed: %s\n", ns.Namespace, ns.Error)
		case len(ns.Records) > 0:
			p.Records("NAMESPACE "+ns.Namespace, ns.Records)
		}
	}
}

func statusIcon(status string) string {
	switch status {
	case state.StatusCompleted:
		return "[ok]"
	case state.StatusFailed:
		return "[x]"
	case state.StatusRunning:
		return "[..]"
	default:
		return "[?]"
	}
}
