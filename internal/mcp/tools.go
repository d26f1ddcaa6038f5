package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/namespace"
)

// ToolDef describes an MCP tool for tools/list.
type ToolDef struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

func stringProp(desc string) map[string]any {
	return map[string]any{"type": "string", "description": desc}
}

func stringListProp(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

func intProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "description": desc}
}

// AllTools returns the memex tool definitions.
func AllTools() []ToolDef {
	return []ToolDef{
		{
			Name:        "memex_list_memories",
			Description: "List the AgentCore memory resources in the configured region",
			InputSchema: map[string]any{
				"type":       "object",
				"properties": map[string]any{},
			},
		},
		{
			Name:        "memex_get_memory",
			Description: "Get a memory resource with its strategies and namespace templates",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"memory_id": stringProp("Memory ID (default: configured or first listed)"),
				},
			},
		},
		{
			Name:        "memex_resolve_namespaces",
			Description: "Expand namespace templates into concrete namespaces for the given actors and strategies",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"templates":    stringListProp("Namespace templates, e.g. /users/{actorId}/preferences"),
					"actor_ids":    stringListProp("Actor IDs substituted for {actorId}"),
					"strategy_ids": stringListProp("Strategy IDs substituted for {memoryStrategyId}"),
					"strategies": map[string]any{
						"type":        "array",
						"description": "Strategies carrying both strategy_id and the alternate memory_strategy_id",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"strategy_id":        stringProp("Primary strategy ID"),
								"memory_strategy_id": stringProp("Alternate strategy ID"),
							},
						},
					},
				},
				"required": []string{"templates"},
			},
		},
		{
			Name:        "memex_list_records",
			Description: "List long-term memory records under a namespace prefix",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"memory_id":   stringProp("Memory ID (default: configured or first listed)"),
					"namespace":   stringProp("Namespace prefix to list"),
					"strategy_id": stringProp("Only records written by this strategy"),
					"max_results": intProp("Maximum records to return"),
				},
				"required": []string{"namespace"},
			},
		},
		{
			Name:        "memex_search_records",
			Description: "Semantic search over memory records under a namespace prefix",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"memory_id": stringProp("Memory ID (default: configured or first listed)"),
					"query":     stringProp("Search text"),
					"namespace": stringProp("Namespace prefix to search"),
					"top_k":     intProp("Results to return"),
				},
				"required": []string{"query", "namespace"},
			},
		},
		{
			Name:        "memex_extract",
			Description: "Extract every long-term record of a memory across all resolved namespaces",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"memory_id": stringProp("Memory ID (default: configured or first listed)"),
					"search":    map[string]any{"type": "boolean", "description": "Fall back to semantic search when listing finds nothing (default true)"},
				},
			},
		},
	}
}

// ToolHandler dispatches tool calls to the memory service.
type ToolHandler struct {
	svc       memory.Service
	extractor *extract.Extractor
	defaults  extract.Options
}

// NewToolHandler creates a handler. defaults supplies the memory ID,
// limits and search settings when a call leaves them out.
func NewToolHandler(svc memory.Service, extractor *extract.Extractor, defaults extract.Options) *ToolHandler {
	return &ToolHandler{svc: svc, extractor: extractor, defaults: defaults}
}

// Call dispatches a tool call by name with the given arguments.
func (h *ToolHandler) Call(ctx context.Context, name string, args json.RawMessage) (any, error) {
	switch name {
	case "memex_list_memories":
		return h.listMemories(ctx)
	case "memex_get_memory":
		return h.getMemory(ctx, args)
	case "memex_resolve_namespaces":
		return h.resolveNamespaces(args)
	case "memex_list_records":
		return h.listRecords(ctx, args)
	case "memex_search_records":
		return h.searchRecords(ctx, args)
	case "memex_extract":
		return h.extract(ctx, args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

func (h *ToolHandler) memoryID(ctx context.Context, id string) (string, error) {
	opts := h.defaults
	if id != "" {
		opts.MemoryID = id
	}
	return h.extractor.ResolveMemoryID(ctx, opts)
}

func (h *ToolHandler) listMemories(ctx context.Context) (any, error) {
	memories, err := h.svc.ListMemories(ctx, h.defaults.MaxMemories)
	if err != nil {
		return nil, err
	}
	if memories == nil {
		memories = []memory.MemorySummary{}
	}
	return map[string]any{"memories": memories, "count": len(memories)}, nil
}

func (h *ToolHandler) getMemory(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		MemoryID string `json:"memory_id"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	id, err := h.memoryID(ctx, params.MemoryID)
	if err != nil {
		return nil, err
	}
	return h.svc.GetMemory(ctx, id)
}

func (h *ToolHandler) resolveNamespaces(args json.RawMessage) (any, error) {
	var params struct {
		Templates   []string `json:"templates"`
		ActorIDs    []string `json:"actor_ids"`
		StrategyIDs []string `json:"strategy_ids"`
		Strategies  []struct {
			StrategyID       string `json:"strategy_id"`
			MemoryStrategyID string `json:"memory_strategy_id"`
		} `json:"strategies"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if len(params.Templates) == 0 {
		return nil, fmt.Errorf("templates is required")
	}

	actors := make([]namespace.Actor, 0, len(params.ActorIDs))
	for _, id := range params.ActorIDs {
		actors = append(actors, namespace.Actor{ID: id})
	}
	strategies := make([]namespace.Strategy, 0, len(params.StrategyIDs)+len(params.Strategies))
	for _, id := range params.StrategyIDs {
		strategies = append(strategies, namespace.Strategy{StrategyID: id})
	}
	for _, st := range params.Strategies {
		strategies = append(strategies, namespace.Strategy{StrategyID: st.StrategyID, MemoryStrategyID: st.MemoryStrategyID})
	}

	return namespace.NewResolver(h.defaults.Policy).ResolveDetailed(params.Templates, actors, strategies), nil
}

func (h *ToolHandler) listRecords(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		MemoryID   string `json:"memory_id"`
		Namespace  string `json:"namespace"`
		StrategyID string `json:"strategy_id"`
		MaxResults int    `json:"max_results"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if params.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if params.MaxResults <= 0 {
		params.MaxResults = h.defaults.MaxResults
	}

	id, err := h.memoryID(ctx, params.MemoryID)
	if err != nil {
		return nil, err
	}
	records, err := h.svc.ListRecords(ctx, id, memory.ListQuery{
		NamespacePrefix: params.Namespace,
		StrategyID:      params.StrategyID,
		MaxResults:      params.MaxResults,
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []memory.Record{}
	}
	return map[string]any{"namespace": params.Namespace, "records": records, "count": len(records)}, nil
}

func (h *ToolHandler) searchRecords(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		MemoryID  string `json:"memory_id"`
		Query     string `json:"query"`
		Namespace string `json:"namespace"`
		TopK      int    `json:"top_k"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}
	if params.Query == "" || params.Namespace == "" {
		return nil, fmt.Errorf("query and namespace are required")
	}
	if params.TopK <= 0 {
		params.TopK = h.defaults.TopK
	}

	id, err := h.memoryID(ctx, params.MemoryID)
	if err != nil {
		return nil, err
	}
	records, err := h.svc.SearchRecords(ctx, id, memory.SearchQuery{
		Query:           params.Query,
		NamespacePrefix: params.Namespace,
		TopK:            params.TopK,
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []memory.Record{}
	}
	return map[string]any{"namespace": params.Namespace, "query": params.Query, "records": records, "count": len(records)}, nil
}

func (h *ToolHandler) extract(ctx context.Context, args json.RawMessage) (any, error) {
	var params struct {
		MemoryID string `json:"memory_id"`
		Search   *bool  `json:"search"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, fmt.Errorf("parse args: %w", err)
	}

	opts := h.defaults
	if params.MemoryID != "" {
		opts.MemoryID = params.MemoryID
	}
	if params.Search != nil {
		opts.Search = *params.Search
	}
	opts.Save = false
	return h.extractor.Run(ctx, opts)
}
