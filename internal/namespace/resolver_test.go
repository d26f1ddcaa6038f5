package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve_ConcreteTemplatesPassThrough(t *testing.T) {
	got := Resolve([]string{"semantic", "support/facts", "semantic"}, nil, nil)
	assert.Equal(t, []string{"semantic", "support/facts"}, got)
}

func TestResolve_StripsTrailingSessionWildcard(t *testing.T) {
	got := Resolve(
		[]string{"support/{actorId}/{memoryStrategyId}/sessions/{sessionId}"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}},
	)
	assert.Equal(t, []string{"support/A1/S1"}, got)
}

func TestResolve_TruncatesWhenNoActors(t *testing.T) {
	got := Resolve([]string{"facts/{actorId}"}, nil, []Strategy{{StrategyID: "S1"}})
	assert.Equal(t, []string{"facts"}, got)
}

func TestResolve_LeadingPlaceholderYieldsNothing(t *testing.T) {
	got := Resolve([]string{"{actorId}"}, nil, nil)
	assert.Empty(t, got)
}

func TestResolve_EmptyTemplates(t *testing.T) {
	got := Resolve(nil, []Actor{{ID: "A1"}}, []Strategy{{StrategyID: "S1"}})
	assert.Empty(t, got)
}

func TestResolve_DeduplicatesAcrossTemplates(t *testing.T) {
	got := Resolve(
		[]string{"users/{actorId}", "users/{actorId}/sessions/{sessionId}"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}, {StrategyID: "S2"}},
	)
	// The second template only reproduces "users/A1", so it adds nothing new
	// by substitution and contributes its literal prefix instead.
	assert.Equal(t, []string{"users/A1", "users"}, got)
}

func TestResolve_PreservesTemplateOrder(t *testing.T) {
	got := Resolve(
		[]string{"semantic", "facts/{actorId}"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}},
	)
	assert.Equal(t, []string{"semantic", "facts/A1"}, got)
}

func TestResolve_ActorOuterStrategyInner(t *testing.T) {
	got := Resolve(
		[]string{"m/{actorId}/{memoryStrategyId}"},
		[]Actor{{ID: "A1"}, {ID: "A2"}},
		[]Strategy{{StrategyID: "S1"}, {StrategyID: "S2"}},
	)
	assert.Equal(t, []string{"m/A1/S1", "m/A1/S2", "m/A2/S1", "m/A2/S2"}, got)
}

func TestResolve_SkipsEmptyActorsAndStrategies(t *testing.T) {
	got := Resolve(
		[]string{"m/{actorId}/{memoryStrategyId}"},
		[]Actor{{ID: ""}, {ID: "A1"}},
		[]Strategy{{}, {MemoryStrategyID: "S9"}},
	)
	assert.Equal(t, []string{"m/A1/S9"}, got)
}

func TestResolve_StrategyIDFallbackOrder(t *testing.T) {
	strategies := []Strategy{{StrategyID: "primary", MemoryStrategyID: "alternate"}}
	actors := []Actor{{ID: "A1"}}

	assert.Equal(t, []string{"x/primary"},
		Resolve([]string{"x/{memoryStrategyId}"}, actors, strategies))

	r := NewResolver(Policy{PreferAlternateStrategyID: true})
	assert.Equal(t, []string{"x/alternate"},
		r.Resolve([]string{"x/{memoryStrategyId}"}, actors, strategies))
}

func TestResolve_UnknownPlaceholderFallsBackToPrefix(t *testing.T) {
	got := Resolve(
		[]string{"org/{tenantId}/{actorId}"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}},
	)
	assert.Equal(t, []string{"org"}, got)
}

func TestResolve_MalformedTemplate(t *testing.T) {
	got := Resolve(
		[]string{"org/{actorId", "team}/x"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}},
	)
	assert.Equal(t, []string{"org"}, got)
}

func TestResolve_ActorOnlyTemplateNeedsAStrategy(t *testing.T) {
	got := Resolve([]string{"prefs/{actorId}"}, []Actor{{ID: "A1"}}, nil)
	assert.Equal(t, []string{"prefs"}, got)
}

func TestResolve_SessionKeepPolicy(t *testing.T) {
	r := NewResolver(Policy{Session: SessionKeep})
	got := r.Resolve(
		[]string{"support/{actorId}/sessions/{sessionId}"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}},
	)
	assert.Equal(t, []string{"support/A1/sessions/*"}, got)
}

func TestResolve_MidPathSessionWildcardIsKept(t *testing.T) {
	got := Resolve(
		[]string{"s/{sessionId}/{actorId}"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}},
	)
	assert.Equal(t, []string{"s/*/A1"}, got)
}

func TestResolve_Idempotent(t *testing.T) {
	templates := []string{"semantic", "a/{actorId}/{memoryStrategyId}", "{sessionId}", "b/{actorId}/c"}
	actors := []Actor{{ID: "A2"}, {ID: "A1"}}
	strategies := []Strategy{{StrategyID: "S1"}, {MemoryStrategyID: "S2"}}

	first := Resolve(templates, actors, strategies)
	second := Resolve(templates, actors, strategies)
	assert.Equal(t, first, second)
}

func TestResolve_NeverEmitsBraces(t *testing.T) {
	got := Resolve(
		[]string{"a/{actorId}", "b/{x}/c", "{y}", "d"},
		[]Actor{{ID: "{evil}"}},
		[]Strategy{{StrategyID: "S1"}},
	)
	for _, ns := range got {
		assert.NotContains(t, ns, "{")
		assert.NotContains(t, ns, "}")
	}
	assert.Equal(t, []string{"a", "b", "d"}, got)
}

func TestResolveDetailed_Outcomes(t *testing.T) {
	r := NewResolver(DefaultPolicy())
	res := r.ResolveDetailed(
		[]string{"semantic", "facts/{actorId}/{memoryStrategyId}", "x/{tenantId}", "{tenantId}/y"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}},
	)

	require.Len(t, res.Templates, 4)
	assert.Equal(t, OutcomeConcrete, res.Templates[0].Outcome)
	assert.Equal(t, OutcomeSubstituted, res.Templates[1].Outcome)
	assert.Equal(t, []string{"facts/A1/S1"}, res.Templates[1].Namespaces)
	assert.Equal(t, OutcomeTruncated, res.Templates[2].Outcome)
	assert.Equal(t, []string{"x"}, res.Templates[2].Namespaces)
	assert.Equal(t, OutcomeUnresolved, res.Templates[3].Outcome)

	empty := res.Empty()
	require.Len(t, empty, 1)
	assert.Equal(t, "{tenantId}/y", empty[0].Template)

	assert.Equal(t, []string{"semantic", "facts/A1/S1", "x"}, res.Namespaces)
}

func TestResolveDetailed_DuplicateSubstitutionFallsBack(t *testing.T) {
	res := NewResolver(DefaultPolicy()).ResolveDetailed(
		[]string{"facts/A1", "facts/{actorId}"},
		[]Actor{{ID: "A1"}},
		[]Strategy{{StrategyID: "S1"}},
	)
	assert.Equal(t, []string{"facts/A1", "facts"}, res.Namespaces)
	require.Len(t, res.Templates, 2)
	assert.Equal(t, OutcomeTruncated, res.Templates[1].Outcome)
}
