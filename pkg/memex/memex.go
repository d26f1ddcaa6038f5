// Package memex provides a public API for extracting long-term records from
// AgentCore Memory.
//
// Example usage:
//
//	import "github.com/cadre-oss/memex/pkg/memex"
//
//	// Extract every record of a memory, using ./memex.yaml
//	report, err := memex.Extract("mem-abc123")
//
//	// Expand namespace templates without calling AWS
//	namespaces := memex.ResolveNamespaces(
//		[]string{"/users/{actorId}/preferences"},
//		[]memex.Actor{{ID: "cust-1"}},
//		nil,
//	)
package memex

import (
	"context"

	"github.com/cadre-oss/memex/internal/config"
	"github.com/cadre-oss/memex/internal/extract"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/namespace"
	"github.com/cadre-oss/memex/internal/telemetry"
)

// Report is the outcome of an extraction.
type Report = extract.Report

// Actor is an actor ID used for {actorId} substitution.
type Actor = namespace.Actor

// Strategy is a strategy ID used for {memoryStrategyId} and {strategyId}
// substitution.
type Strategy = namespace.Strategy

// MemorySummary is one entry of a memory listing.
type MemorySummary = memory.MemorySummary

// Extract runs an extraction against memoryID, or against the first memory
// listed when memoryID is empty.
func Extract(memoryID string) (*Report, error) {
	return ExtractWithContext(context.Background(), memoryID)
}

// ExtractWithContext runs an extraction with a context.
func ExtractWithContext(ctx context.Context, memoryID string) (*Report, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	svc, err := newService(ctx, cfg, telemetry.NewMetrics())
	if err != nil {
		return nil, err
	}

	opts := extract.OptionsFromConfig(cfg)
	if memoryID != "" {
		opts.MemoryID = memoryID
	}

	return extract.New(svc, extract.WithRegion(cfg.AWS.Region)).Run(ctx, opts)
}

// ListMemories returns the memories visible with the configured credentials.
func ListMemories(ctx context.Context) ([]MemorySummary, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	svc, err := newService(ctx, cfg, telemetry.NewMetrics())
	if err != nil {
		return nil, err
	}
	return svc.ListMemories(ctx, cfg.Defaults.MaxMemories)
}

// ResolveNamespaces expands templates into concrete namespace prefixes
// using the default session policy.
func ResolveNamespaces(templates []string, actors []Actor, strategies []Strategy) []string {
	return namespace.Resolve(templates, actors, strategies)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(".")
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newService(ctx context.Context, cfg *config.Config, metrics *telemetry.Metrics) (memory.Service, error) {
	inner, err := memory.NewAgentCoreService(ctx, memory.ClientConfig{
		Region:          cfg.AWS.Region,
		Profile:         cfg.AWS.Profile,
		AccessKeyID:     cfg.AWS.AccessKeyID,
		SecretAccessKey: cfg.AWS.SecretAccessKey,
		SessionToken:    cfg.AWS.SessionToken,
		Endpoint:        cfg.AWS.Endpoint,
		ControlEndpoint: cfg.AWS.ControlEndpoint,
	})
	if err != nil {
		return nil, err
	}

	retry := memory.DefaultRetryConfig()
	retry.MaxRetries = cfg.Defaults.MaxRetries
	return memory.Stack(inner, memory.StackOptions{
		Retry:             retry,
		RequestsPerSecond: cfg.Defaults.RequestsPerSecond,
		Burst:             cfg.Defaults.Concurrency,
		Metrics:           metrics,
		Logger:            telemetry.Discard(),
	}), nil
}
