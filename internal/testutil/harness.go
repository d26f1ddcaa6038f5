package testutil

import (
	"testing"

	"github.com/cadre-oss/memex/internal/config"
	"github.com/cadre-oss/memex/internal/memory"
	"github.com/cadre-oss/memex/internal/state"
	"github.com/cadre-oss/memex/internal/telemetry"
)

// TestHarness provides everything needed for integration tests:
// config, state, metrics, a fake memory service and assertion helpers.
type TestHarness struct {
	T        *testing.T
	Config   *config.Config
	StateMgr *state.Manager
	Logger   *telemetry.Logger
	Metrics  *telemetry.Metrics
	Service  *FakeService
}

// NewTestHarness creates a test harness with default configuration.
func NewTestHarness(t *testing.T) *TestHarness {
	t.Helper()

	stateMgr, err := state.NewManager("memory", "")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { stateMgr.Close() })

	return &TestHarness{
		T:        t,
		Config:   TestConfig(),
		StateMgr: stateMgr,
		Logger:   TestLogger(),
		Metrics:  telemetry.NewMetrics(),
		Service:  NewFakeService(),
	}
}

// SeedSupportMemory registers a memory with one user-preference strategy
// writing to /users/{actorId}/preferences and one semantic strategy writing
// to /facts/{actorId}/{memoryStrategyId}, plus two actors.
func (h *TestHarness) SeedSupportMemory(id string) *memory.Memory {
	m := &memory.Memory{
		ID:     id,
		Name:   "support-agent",
		Status: "ACTIVE",
		Strategies: []memory.Strategy{
			{
				StrategyID: "prefs-1",
				Name:       "preferences",
				Type:       "USER_PREFERENCE",
				Namespaces: []string{"/users/{actorId}/preferences"},
			},
			{
				StrategyID: "facts-1",
				Name:       "facts",
				Type:       "SEMANTIC",
				Namespaces: []string{"/facts/{actorId}/{memoryStrategyId}"},
			},
		},
	}
	h.Service.AddMemory(m)
	h.Service.Actors = []memory.Actor{{ActorID: "cust-1"}, {ActorID: "cust-2"}}
	return m
}

// AssertCalled checks that op was called at least once.
func (h *TestHarness) AssertCalled(op string) {
	h.T.Helper()
	if len(h.Service.CallsFor(op)) == 0 {
		h.T.Errorf("expected %s to be called", op)
	}
}

// AssertNotCalled checks that op was never called.
func (h *TestHarness) AssertNotCalled(op string) {
	h.T.Helper()
	if n := len(h.Service.CallsFor(op)); n > 0 {
		h.T.Errorf("expected %s not to be called, got %d calls", op, n)
	}
}
