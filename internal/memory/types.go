package memory

import "time"

// MemorySummary is one entry of a memory resource listing.
type MemorySummary struct {
	ID        string    `json:"id"`
	ARN       string    `json:"arn,omitempty"`
	Name      string    `json:"name,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Memory is a memory resource with its configured strategies.
type Memory struct {
	ID              string     `json:"id"`
	ARN             string     `json:"arn,omitempty"`
	Name            string     `json:"name"`
	Description     string     `json:"description,omitempty"`
	Status          string     `json:"status"`
	FailureReason   string     `json:"failure_reason,omitempty"`
	EventExpiryDays int        `json:"event_expiry_days,omitempty"`
	CreatedAt       time.Time  `json:"created_at,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at,omitempty"`
	Strategies      []Strategy `json:"strategies"`
}

// Strategy is a long-term memory strategy and the namespace templates it
// writes into.
type Strategy struct {
	StrategyID string `json:"strategy_id"`
	// MemoryStrategyID is the alternate ID some services report next to or
	// instead of StrategyID. The AgentCore control plane only sets StrategyID.
	MemoryStrategyID string   `json:"memory_strategy_id,omitempty"`
	Name             string   `json:"name"`
	Type             string   `json:"type"`
	Status           string   `json:"status,omitempty"`
	Description      string   `json:"description,omitempty"`
	Namespaces       []string `json:"namespaces"`
}

// Actor is an entity that owns events and records in a memory.
type Actor struct {
	ActorID string `json:"actor_id"`
}

// Record is a long-term memory record.
type Record struct {
	ID          string    `json:"id"`
	StrategyID  string    `json:"strategy_id,omitempty"`
	Namespaces  []string  `json:"namespaces,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	// Score is set for search results only.
	Score *float64 `json:"score,omitempty"`
}

// ListQuery selects records under a namespace prefix.
type ListQuery struct {
	NamespacePrefix string
	StrategyID      string
	MaxResults      int
}

// SearchQuery runs a semantic search under a namespace prefix.
type SearchQuery struct {
	Query           string
	NamespacePrefix string
	StrategyID      string
	TopK            int
}
