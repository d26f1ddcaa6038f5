// Package extract walks a memory resource end to end: it picks the memory,
// discovers strategies and actors, resolves namespace templates into concrete
// prefixes, lists the records under each prefix and falls back to semantic
// search when listing finds nothing.
package extract

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cadre-oss/memex/internal/config"
	memexErrors "github.com/cadre-oss/memex/internal/errors"
	"github.com/cadre-oss/memex/internal/event"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/namespace"
	"github.com/cadre-oss/memex/internal/state"
	"github.com/cadre-oss/memex/internal/telemetry"
)

// Options controls a single extraction.
type Options struct {
	MemoryID        string
	ExtraNamespaces []string
	Fallback        []string
	Policy          namespace.Policy
	MaxMemories     int
	MaxResults      int
	TopK            int
	Concurrency     int
	Search          bool
	SearchQueries   []string
	// Save persists the run through the extractor's state manager.
	Save bool
}

// OptionsFromConfig builds Options from the loaded configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		MemoryID:        cfg.Memory.ID,
		ExtraNamespaces: cfg.Namespaces.Extra,
		Fallback:        cfg.Namespaces.Fallback,
		Policy:          cfg.Namespaces.Policy(),
		MaxMemories:     cfg.Defaults.MaxMemories,
		MaxResults:      cfg.Defaults.MaxResults,
		TopK:            cfg.Defaults.TopK,
		Concurrency:     cfg.Defaults.Concurrency,
		Search:          cfg.Search.SearchEnabled(),
		SearchQueries:   cfg.Search.Queries,
	}
}

// Extractor runs extractions against a memory service.
type Extractor struct {
	svc      memory.Service
	logger   *telemetry.Logger
	metrics  *telemetry.Metrics
	stateMgr *state.Manager
	eventBus *event.Bus
	region   string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger.
func WithLogger(l *telemetry.Logger) Option {
	return func(e *Extractor) { e.logger = l }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// WithState enables saving runs.
func WithState(m *state.Manager) Option {
	return func(e *Extractor) { e.stateMgr = m }
}

// WithEventBus sets the lifecycle event bus.
func WithEventBus(b *event.Bus) Option {
	return func(e *Extractor) { e.eventBus = b }
}

// WithRegion records the region in saved runs.
func WithRegion(region string) Option {
	return func(e *Extractor) { e.region = region }
}

// New creates an Extractor.
func New(svc memory.Service, opts ...Option) *Extractor {
	e := &Extractor{svc: svc}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = telemetry.Discard()
	}
	if e.metrics == nil {
		e.metrics = telemetry.NewMetrics()
	}
	return e
}

// Run performs one extraction.
func (e *Extractor) Run(ctx context.Context, opts Options) (*Report, error) {
	start := time.Now()

	memoryID, err := e.resolveMemoryID(ctx, opts)
	if err != nil {
		return nil, err
	}

	var runID string
	if opts.Save && e.stateMgr != nil {
		run, err := e.stateMgr.StartRun(memoryID, e.region)
		if err != nil {
			return nil, fmt.Errorf("failed to start run: %w", err)
		}
		runID = run.ID
	}

	tc := telemetry.NewTraceContext(runID).WithMemory(memoryID)
	ctx = telemetry.ContextWithTrace(ctx, tc)
	log := e.logger.WithTrace(ctx)

	log.Info("Starting extraction", "memory_id", memoryID)
	e.emit(ctx, event.ExtractStarted, map[string]interface{}{"memory_id": memoryID})

	report, err := e.run(ctx, memoryID, opts)
	if err != nil {
		log.Error("Extraction failed", "error", err)
		e.emit(ctx, event.ExtractFailed, map[string]interface{}{"memory_id": memoryID, "error": err.Error()})
		if runID != "" {
			if ferr := e.stateMgr.FailRun(err); ferr != nil {
				log.Warn("Failed to save failed run", "error", ferr)
			}
		}
		e.metrics.Flush("extract.failed", map[string]string{"memory_id": memoryID})
		return nil, err
	}

	report.RunID = runID
	report.Duration = time.Since(start)

	if runID != "" {
		if err := e.stateMgr.CompleteRun(report.NamespaceStates(), report.Summary()); err != nil {
			log.Warn("Failed to save run", "error", err)
		} else {
			e.emit(ctx, event.RunSaved, map[string]interface{}{})
		}
	}

	log.Info("Extraction finished",
		"records", report.TotalRecords,
		"namespaces", len(report.Namespaces),
		"search_used", report.SearchUsed,
		"duration", report.Duration,
	)
	e.emit(ctx, event.ExtractCompleted, map[string]interface{}{
		"memory_id":  memoryID,
		"records":    report.TotalRecords,
		"namespaces": len(report.Namespaces),
	})
	e.metrics.Flush("extract.completed", map[string]string{"memory_id": memoryID})

	return report, nil
}

// Plan resolves the memory, its templates and actors into concrete
// namespaces without listing any records.
func (e *Extractor) Plan(ctx context.Context, opts Options) (*Report, error) {
	memoryID, err := e.resolveMemoryID(ctx, opts)
	if err != nil {
		return nil, err
	}
	return e.plan(ctx, memoryID, opts)
}

// ResolveMemoryID returns opts.MemoryID, or the first memory listed when it
// is empty.
func (e *Extractor) ResolveMemoryID(ctx context.Context, opts Options) (string, error) {
	return e.resolveMemoryID(ctx, opts)
}

func (e *Extractor) run(ctx context.Context, memoryID string, opts Options) (*Report, error) {
	report, err := e.plan(ctx, memoryID, opts)
	if err != nil {
		return nil, err
	}

	namespaces := append([]string(nil), report.Resolution.Namespaces...)
	sort.Strings(namespaces)

	results, err := e.fetchAll(ctx, memoryID, namespaces, opts)
	if err != nil {
		return nil, err
	}
	report.Namespaces = results
	report.TotalRecords = countRecords(results)

	if report.TotalRecords == 0 && opts.Search && len(opts.SearchQueries) > 0 {
		if err := e.searchFallback(ctx, memoryID, report, opts); err != nil {
			return nil, err
		}
	}

	report.Tips = Tips(report)
	return report, nil
}

func (e *Extractor) plan(ctx context.Context, memoryID string, opts Options) (*Report, error) {
	log := e.logger.WithTrace(ctx)

	mem, err := e.svc.GetMemory(ctx, memoryID)
	if err != nil {
		return nil, err
	}

	report := &Report{
		MemoryID:      memoryID,
		Memory:        mem,
		MemorySource:  opts.memorySource(),
		SearchQueries: opts.SearchQueries,
	}

	report.Templates = CollectTemplates(mem.Strategies, opts.ExtraNamespaces)
	if len(report.Templates) == 0 {
		report.Templates = dedupe(opts.Fallback)
		report.UsedFallbackNamespaces = true
		log.Warn("No namespaces declared by strategies, using fallback list", "count", len(report.Templates))
	}

	actors, err := e.svc.ListActors(ctx, memoryID)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("Could not list actors", "error", err)
		report.ActorsError = err.Error()
		actors = nil
	}
	report.Actors = actors

	resolver := namespace.NewResolver(opts.Policy)
	report.Resolution = resolver.ResolveDetailed(report.Templates, toActors(actors), toStrategies(mem.Strategies))
	return report, nil
}

// resolveMemoryID returns the explicit memory ID or the first one listed.
func (e *Extractor) resolveMemoryID(ctx context.Context, opts Options) (string, error) {
	if opts.MemoryID != "" {
		return opts.MemoryID, nil
	}

	memories, err := e.svc.ListMemories(ctx, opts.MaxMemories)
	if err != nil {
		return "", err
	}
	if len(memories) == 0 {
		return "", memexErrors.New(memexErrors.CodeNoMemories, "no memories found in this account and region").
			WithSuggestion("Create a memory with long-term strategies, or pass --region for the region that holds it")
	}

	e.logger.WithTrace(ctx).Info("No memory ID given, using the first memory", "memory_id", memories[0].ID, "available", len(memories))
	return memories[0].ID, nil
}

// fetchAll lists records for each namespace in parallel. Results keep the
// order of namespaces. A failing namespace is recorded, not returned.
func (e *Extractor) fetchAll(ctx context.Context, memoryID string, namespaces []string, opts Options) ([]NamespaceResult, error) {
	results := make([]NamespaceResult, len(namespaces))
	if len(namespaces) == 0 {
		return results, nil
	}

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, ns := range namespaces {
		g.Go(func() error {
			nctx := telemetry.ContextWithTrace(gctx, telemetry.TraceFromContext(gctx).ChildSpan().WithNamespace(ns))
			results[i] = e.fetchNamespace(nctx, memoryID, ns, opts.MaxResults)
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (e *Extractor) fetchNamespace(ctx context.Context, memoryID, ns string, maxResults int) NamespaceResult {
	log := e.logger.WithTrace(ctx)
	e.metrics.IncNamespacesQueried()

	result := NamespaceResult{Namespace: ns, Source: SourceList}
	records, err := e.svc.ListRecords(ctx, memoryID, memory.ListQuery{
		NamespacePrefix: ns,
		MaxResults:      maxResults,
	})
	if err != nil {
		e.metrics.IncNamespacesFailed()
		result.Err = err
		result.Error = err.Error()
		log.Warn("Failed to list records", "error", err)
		e.emit(ctx, event.NamespaceFailed, map[string]interface{}{"namespace": ns, "error": err.Error()})
		return result
	}

	result.Records = records
	e.metrics.AddRecordsFetched(len(records))
	log.Debug("Listed records", "count", len(records))
	e.emit(ctx, event.NamespaceFetched, map[string]interface{}{"namespace": ns, "records": len(records)})
	return result
}

// searchFallback tries each query against each namespace in order. The first
// query with hits is kept for a namespace, and the search stops at the first
// namespace with hits.
func (e *Extractor) searchFallback(ctx context.Context, memoryID string, report *Report, opts Options) error {
	log := e.logger.WithTrace(ctx)
	report.SearchUsed = true
	log.Info("No records listed, trying semantic search", "namespaces", len(report.Namespaces), "queries", len(opts.SearchQueries))

	byName := make(map[string]*NamespaceResult, len(report.Namespaces))
	for i := range report.Namespaces {
		byName[report.Namespaces[i].Namespace] = &report.Namespaces[i]
	}

	// Namespaces are searched in resolution order, not the sorted fetch order.
	for _, name := range report.Resolution.Namespaces {
		ns, ok := byName[name]
		if !ok {
			continue
		}
		for _, query := range opts.SearchQueries {
			hits, err := e.svc.SearchRecords(ctx, memoryID, memory.SearchQuery{
				Query:           query,
				NamespacePrefix: ns.Namespace,
				TopK:            opts.TopK,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Debug("Search failed", "namespace", ns.Namespace, "query", query, "error", err)
				continue
			}
			if len(hits) == 0 {
				continue
			}

			ns.Source = SourceSearch
			ns.Query = query
			ns.Records = hits
			report.TotalRecords += len(hits)
			e.metrics.AddSearchHits(len(hits))
			e.emit(ctx, event.SearchHit, map[string]interface{}{
				"namespace": ns.Namespace,
				"query":     query,
				"records":   len(hits),
			})
			log.Info("Search found records", "namespace", ns.Namespace, "query", query, "count", len(hits))
			return nil
		}
	}
	return nil
}

// emit dispatches an event tagged with the run and trace IDs of ctx. Emit
// errors only come from blocking hooks and are logged.
func (e *Extractor) emit(ctx context.Context, t event.EventType, data map[string]interface{}) {
	if tc := telemetry.TraceFromContext(ctx); tc != nil {
		if tc.RunID != "" {
			data["run_id"] = tc.RunID
		}
		data["trace_id"] = tc.TraceID
	}
	if err := e.eventBus.Emit(event.NewEvent(t, data)); err != nil {
		e.logger.Warn("Event hook failed", "event", string(t), "error", err)
	}
}

func (o Options) memorySource() string {
	if o.MemoryID != "" {
		return "explicit"
	}
	return "first-listed"
}

// CollectTemplates gathers strategy namespaces in first-seen order, followed
// by extra, without duplicates.
func CollectTemplates(strategies []memory.Strategy, extra []string) []string {
	var all []string
	for _, s := range strategies {
		all = append(all, s.Namespaces...)
	}
	all = append(all, extra...)
	return dedupe(all)
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func toActors(actors []memory.Actor) []namespace.Actor {
	out := make([]namespace.Actor, 0, len(actors))
	for _, a := range actors {
		out = append(out, namespace.Actor{ID: a.ActorID})
	}
	return out
}

func toStrategies(strategies []memory.Strategy) []namespace.Strategy {
	out := make([]namespace.Strategy, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, namespace.Strategy{StrategyID: s.StrategyID, MemoryStrategyID: s.MemoryStrategyID})
	}
	return out
}

func countRecords(results []NamespaceResult) int {
	n := 0
	for _, r := range results {
		n += len(r.Records)
	}
	return n
}
