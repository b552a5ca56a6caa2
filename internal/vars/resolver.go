package vars

import (
	"crypto/rand"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vortexhq/vortex/internal/entity"
)

// Scope is one named variable source in the resolution chain. Lookups are
// case-insensitive; disabled variables behave as if they were absent.
type Scope struct {
	label  string
	values map[string]entity.Variable
}

func NewScope(label string, values map[string]entity.Variable) Scope {
	normalized := make(map[string]entity.Variable, len(values))
	for name, variable := range values {
		normalized[strings.ToLower(name)] = variable
	}
	return Scope{label: label, values: normalized}
}

// ValueScope wraps a plain string map as an always-enabled scope. Secrets
// stores have no enabled flag, so they come in through here.
func ValueScope(label string, values map[string]string) Scope {
	wrapped := make(map[string]entity.Variable, len(values))
	for name, value := range values {
		wrapped[name] = entity.Variable{Enabled: true, Value: value}
	}
	return NewScope(label, wrapped)
}

func (s Scope) Label() string {
	return s.label
}

func (s Scope) lookup(name string) (string, bool) {
	variable, ok := s.values[strings.ToLower(name)]
	if !ok || !variable.Enabled {
		return "", false
	}
	return variable.Value, true
}

// Context is an ordered scope chain, highest precedence first. It is built
// fresh per resolution call and never mutated afterwards.
type Context struct {
	scopes []Scope
}

func NewContext(scopes ...Scope) *Context {
	return &Context{scopes: scopes}
}

// Lookup returns the first scope's value for name, scanning in precedence
// order. The name is trimmed before lookup so "{{ token }}" and "{{token}}"
// address the same variable.
func (c *Context) Lookup(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || c == nil {
		return "", false
	}
	for _, scope := range c.scopes {
		if value, ok := scope.lookup(trimmed); ok {
			return value, true
		}
	}
	return "", false
}

type Result struct {
	Resolved   string
	Unresolved []string
}

// Resolve substitutes every reference it can and leaves the rest as their
// original {{name}} text. The output is assembled in a single pass over the
// parsed spans, so substituted values are never re-scanned and expansion can
// not loop. Unresolved names are reported, deduplicated, in order of first
// appearance; they are not an error.
//
// A $-prefixed name that no scope defines is handed to the builtin generator,
// which produces a fresh value per occurrence - two {{$uuid}} in one template
// yield two different UUIDs. Scope values shadow builtins.
func (c *Context) Resolve(template string) Result {
	refs := ParseVariables(template)
	if len(refs) == 0 {
		return Result{Resolved: template}
	}

	var b strings.Builder
	b.Grow(len(template))

	var unresolved []string
	seen := make(map[string]struct{})
	last := 0
	for _, ref := range refs {
		b.WriteString(template[last:ref.Start])
		last = ref.End

		if value, ok := c.Lookup(ref.Name); ok {
			b.WriteString(value)
			continue
		}
		if ref.Builtin {
			if value, ok := generateBuiltin(ref.Name); ok {
				b.WriteString(value)
				continue
			}
		}

		b.WriteString(template[ref.Start:ref.End])
		if _, dup := seen[ref.Name]; !dup {
			seen[ref.Name] = struct{}{}
			unresolved = append(unresolved, ref.Name)
		}
	}
	b.WriteString(template[last:])

	return Result{Resolved: b.String(), Unresolved: unresolved}
}

// generateBuiltin produces a dynamic value for a recognized $-name. Matching
// is case-insensitive and every call generates anew; builtins are "make a
// fresh value now", not cached lookups.
func generateBuiltin(name string) (string, bool) {
	switch strings.ToLower(name) {
	case "$uuid", "$guid":
		return uuid.NewString(), true
	case "$timestamp":
		return strconv.FormatInt(time.Now().Unix(), 10), true
	case "$timestampiso8601":
		return time.Now().UTC().Format(time.RFC3339), true
	case "$randomint":
		n, err := rand.Int(rand.Reader, big.NewInt(1<<62))
		if err != nil {
			return "", false
		}
		return n.String(), true
	default:
		return "", false
	}
}
