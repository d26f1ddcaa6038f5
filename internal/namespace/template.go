package namespace

import "strings"

// Placeholder identifies a variable a namespace template may reference.
type Placeholder int

const (
	// PlaceholderUnknown is any {name} outside the recognized set.
	PlaceholderUnknown Placeholder = iota
	PlaceholderActorID
	PlaceholderMemoryStrategyID
	PlaceholderSessionID
)

var placeholderNames = map[string]Placeholder{
	"actorId":          PlaceholderActorID,
	"memoryStrategyId": PlaceholderMemoryStrategyID,
	"sessionId":        PlaceholderSessionID,
}

// String returns the token name as it appears inside braces.
func (p Placeholder) String() string {
	switch p {
	case PlaceholderActorID:
		return "actorId"
	case PlaceholderMemoryStrategyID:
		return "memoryStrategyId"
	case PlaceholderSessionID:
		return "sessionId"
	default:
		return "unknown"
	}
}

// part is either a literal run of text or a placeholder token.
type part struct {
	literal     string
	placeholder Placeholder
	name        string
	isToken     bool
}

// Template is a parsed namespace template.
type Template struct {
	raw       string
	parts     []part
	malformed bool
}

// Parse splits raw into literal text and {placeholder} tokens. Parsing never
// fails; unbalanced braces mark the template as malformed so that
// substitution reports it as unresolvable.
func Parse(raw string) Template {
	t := Template{raw: raw}

	rest := raw
	for len(rest) > 0 {
		open := strings.IndexAny(rest, "{}")
		if open < 0 {
			t.parts = append(t.parts, part{literal: rest})
			break
		}
		if rest[open] == '}' {
			t.malformed = true
			t.parts = append(t.parts, part{literal: rest})
			break
		}
		if open > 0 {
			t.parts = append(t.parts, part{literal: rest[:open]})
		}

		end := strings.IndexAny(rest[open+1:], "{}")
		if end < 0 || rest[open+1+end] == '{' {
			t.malformed = true
			t.parts = append(t.parts, part{literal: rest[open:]})
			break
		}

		name := rest[open+1 : open+1+end]
		t.parts = append(t.parts, part{
			name:        name,
			placeholder: placeholderNames[name],
			isToken:     true,
		})
		rest = rest[open+1+end+1:]
	}

	return t
}

// Raw returns the template text as given.
func (t Template) Raw() string {
	return t.raw
}

// IsConcrete reports whether the template has no placeholder syntax at all.
func (t Template) IsConcrete() bool {
	return !hasBraces(t.raw)
}

// Placeholders returns the tokens referenced by the template in order of
// appearance, including unknown ones.
func (t Template) Placeholders() []Placeholder {
	var out []Placeholder
	for _, p := range t.parts {
		if p.isToken {
			out = append(out, p.placeholder)
		}
	}
	return out
}

// Substitute replaces every recognized token with its value. It returns false
// when the template is malformed, references an unknown token, or a token has
// no value.
func (t Template) Substitute(values map[Placeholder]string) (string, bool) {
	if t.malformed {
		return "", false
	}

	var b strings.Builder
	for _, p := range t.parts {
		if !p.isToken {
			b.WriteString(p.literal)
			continue
		}
		if p.placeholder == PlaceholderUnknown {
			return "", false
		}
		v, ok := values[p.placeholder]
		if !ok {
			return "", false
		}
		b.WriteString(v)
	}
	return b.String(), true
}

// LiteralPrefix returns the longest leading run of "/"-separated segments that
// carry no placeholder syntax, joined with "/". It is empty when the first
// segment is already templated.
func (t Template) LiteralPrefix() string {
	segments := strings.Split(t.raw, "/")
	var kept []string
	for _, seg := range segments {
		if hasBraces(seg) {
			break
		}
		kept = append(kept, seg)
	}
	return strings.Join(kept, "/")
}

func hasBraces(s string) bool {
	return strings.ContainsAny(s, "{}")
}
