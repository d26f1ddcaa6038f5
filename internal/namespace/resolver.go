package namespace

import "strings"

// SessionWildcard is substituted for {sessionId}.
const SessionWildcard = "*"

const sessionsSuffix = "/sessions/" + SessionWildcard

// SessionPolicy controls what happens to a wildcarded session segment.
type SessionPolicy string

const (
	// SessionStrip removes a trailing "/sessions/*" so the namespace names the
	// container of all sessions.
	SessionStrip SessionPolicy = "strip"
	// SessionKeep leaves the "*" in place.
	SessionKeep SessionPolicy = "wildcard"
)

// Policy configures template resolution.
type Policy struct {
	Session SessionPolicy
	// PreferAlternateStrategyID reads Strategy.MemoryStrategyID before
	// Strategy.StrategyID.
	PreferAlternateStrategyID bool
}

// DefaultPolicy strips session wildcards and reads StrategyID first.
func DefaultPolicy() Policy {
	return Policy{Session: SessionStrip}
}

// Actor is a substitution source for {actorId}.
type Actor struct {
	ID string
}

// Strategy is a substitution source for {memoryStrategyId}. Services disagree
// on the field name, so both are carried.
type Strategy struct {
	StrategyID       string
	MemoryStrategyID string
}

// Outcome describes how a single template was handled.
type Outcome string

const (
	OutcomeConcrete    Outcome = "concrete"
	OutcomeSubstituted Outcome = "substituted"
	OutcomeTruncated   Outcome = "truncated"
	OutcomeUnresolved  Outcome = "unresolved"
)

// TemplateResult records what one template contributed to a Resolution.
type TemplateResult struct {
	Template   string   `json:"template"`
	Outcome    Outcome  `json:"outcome"`
	Namespaces []string `json:"namespaces,omitempty"`
}

// Resolution is the output of ResolveDetailed.
type Resolution struct {
	Namespaces []string         `json:"namespaces"`
	Templates  []TemplateResult `json:"templates"`
}

// Empty returns the templates that contributed no namespace.
func (r *Resolution) Empty() []TemplateResult {
	var out []TemplateResult
	for _, t := range r.Templates {
		if len(t.Namespaces) == 0 {
			out = append(out, t)
		}
	}
	return out
}

// Resolver turns namespace templates into concrete namespace prefixes.
type Resolver struct {
	policy Policy
}

// NewResolver creates a Resolver with the given policy.
func NewResolver(policy Policy) *Resolver {
	if policy.Session == "" {
		policy.Session = SessionStrip
	}
	return &Resolver{policy: policy}
}

// Resolve resolves templates with the default policy.
func Resolve(templates []string, actors []Actor, strategies []Strategy) []string {
	return NewResolver(DefaultPolicy()).Resolve(templates, actors, strategies)
}

// Resolve returns the deduplicated concrete namespaces for templates.
func (r *Resolver) Resolve(templates []string, actors []Actor, strategies []Strategy) []string {
	return r.ResolveDetailed(templates, actors, strategies).Namespaces
}

// ResolveDetailed resolves each template in order and reports per-template
// outcomes. Namespaces keep first-seen order and are never repeated.
func (r *Resolver) ResolveDetailed(templates []string, actors []Actor, strategies []Strategy) *Resolution {
	res := &Resolution{Namespaces: []string{}}
	seen := make(map[string]bool)

	add := func(tr *TemplateResult, ns string) bool {
		if seen[ns] {
			return false
		}
		seen[ns] = true
		res.Namespaces = append(res.Namespaces, ns)
		tr.Namespaces = append(tr.Namespaces, ns)
		return true
	}

	for _, raw := range templates {
		tpl := Parse(raw)
		tr := TemplateResult{Template: raw}

		if tpl.IsConcrete() {
			tr.Outcome = OutcomeConcrete
			add(&tr, raw)
			res.Templates = append(res.Templates, tr)
			continue
		}

		resolved := false
		for _, actor := range actors {
			if actor.ID == "" {
				continue
			}
			for _, strategy := range strategies {
				strategyID := r.strategyID(strategy)
				if strategyID == "" {
					continue
				}

				ns, ok := r.substitute(tpl, actor.ID, strategyID)
				if !ok {
					continue
				}
				if add(&tr, ns) {
					resolved = true
				}
			}
		}

		if resolved {
			tr.Outcome = OutcomeSubstituted
		} else if base := tpl.LiteralPrefix(); base != "" {
			tr.Outcome = OutcomeTruncated
			add(&tr, base)
		} else {
			tr.Outcome = OutcomeUnresolved
		}
		res.Templates = append(res.Templates, tr)
	}

	return res
}

func (r *Resolver) strategyID(s Strategy) string {
	first, second := s.StrategyID, s.MemoryStrategyID
	if r.policy.PreferAlternateStrategyID {
		first, second = second, first
	}
	if first != "" {
		return first
	}
	return second
}

func (r *Resolver) substitute(tpl Template, actorID, strategyID string) (string, bool) {
	ns, ok := tpl.Substitute(map[Placeholder]string{
		PlaceholderActorID:          actorID,
		PlaceholderMemoryStrategyID: strategyID,
		PlaceholderSessionID:        SessionWildcard,
	})
	if !ok {
		return "", false
	}

	if r.policy.Session == SessionStrip && strings.HasSuffix(ns, sessionsSuffix) {
		ns = strings.TrimSuffix(ns, sessionsSuffix)
	}

	// Substituted values could themselves carry braces.
	if hasBraces(ns) {
		return "", false
	}
	return ns, true
}
