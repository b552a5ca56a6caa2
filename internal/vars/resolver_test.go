package vars

import (
	"reflect"
	"regexp"
	"strings"
	"testing"

	"github.com/vortexhq/vortex/internal/entity"
)

func enabled(value string) entity.Variable {
	return entity.Variable{Enabled: true, Value: value}
}

func TestResolvePrecedence(t *testing.T) {
	t.Parallel()

	rc := NewContext(
		NewScope("environment", map[string]entity.Variable{
			"base_url": enabled("https://staging.example.com"),
		}),
		NewScope("globals", map[string]entity.Variable{
			"base_url": enabled("https://example.com"),
			"version":  enabled("v1"),
		}),
	)

	result := rc.Resolve("{{base_url}}/api/{{version}}")
	if result.Resolved != "https://staging.example.com/api/v1" {
		t.Fatalf("resolved = %q", result.Resolved)
	}
	if len(result.Unresolved) != 0 {
		t.Fatalf("unexpected unresolved names: %v", result.Unresolved)
	}
}

func TestResolveLeavesUnknownReferencesIntact(t *testing.T) {
	t.Parallel()

	rc := NewContext(NewScope("globals", map[string]entity.Variable{
		"known": enabled("yes"),
	}))

	result := rc.Resolve("{{known}}-{{unknown}}-{{unknown}}-{{other}}")
	if result.Resolved != "yes-{{unknown}}-{{unknown}}-{{other}}" {
		t.Fatalf("resolved = %q", result.Resolved)
	}
	want := []string{"unknown", "other"}
	if !reflect.DeepEqual(result.Unresolved, want) {
		t.Fatalf("unresolved = %v, want %v (deduped, first-appearance order)", result.Unresolved, want)
	}
}

func TestResolveDisabledVariableIsAbsent(t *testing.T) {
	t.Parallel()

	rc := NewContext(
		NewScope("environment", map[string]entity.Variable{
			"token": {Enabled: false, Value: "env-token"},
		}),
		NewScope("globals", map[string]entity.Variable{
			"token": enabled("global-token"),
		}),
	)

	result := rc.Resolve("{{token}}")
	if result.Resolved != "global-token" {
		t.Fatalf("disabled variable should fall through to the next scope, got %q", result.Resolved)
	}
}

func TestResolveCaseInsensitiveLookup(t *testing.T) {
	t.Parallel()

	rc := NewContext(NewScope("globals", map[string]entity.Variable{
		"Base_URL": enabled("https://example.com"),
	}))

	if result := rc.Resolve("{{base_url}}"); result.Resolved != "https://example.com" {
		t.Fatalf("resolved = %q", result.Resolved)
	}
	if result := rc.Resolve("{{BASE_URL}}"); result.Resolved != "https://example.com" {
		t.Fatalf("resolved = %q", result.Resolved)
	}
}

func TestResolveSubstitutedValuesAreNotRescanned(t *testing.T) {
	t.Parallel()

	rc := NewContext(NewScope("globals", map[string]entity.Variable{
		"outer": enabled("{{inner}}"),
		"inner": enabled("should-not-appear"),
	}))

	result := rc.Resolve("{{outer}}")
	if result.Resolved != "{{inner}}" {
		t.Fatalf("substituted value was re-expanded: %q", result.Resolved)
	}
	if len(result.Unresolved) != 0 {
		t.Fatalf("unexpected unresolved names: %v", result.Unresolved)
	}
}

var uuidPattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

func TestResolveBuiltinFreshPerOccurrence(t *testing.T) {
	t.Parallel()

	rc := NewContext()
	result := rc.Resolve("{{$uuid}}:{{$uuid}}")
	if len(result.Unresolved) != 0 {
		t.Fatalf("builtins should always resolve, got unresolved %v", result.Unresolved)
	}

	parts := strings.Split(result.Resolved, ":")
	if len(parts) != 2 {
		t.Fatalf("resolved = %q", result.Resolved)
	}
	for _, part := range parts {
		if !uuidPattern.MatchString(part) {
			t.Fatalf("%q is not a uuid", part)
		}
	}
	if parts[0] == parts[1] {
		t.Fatalf("two {{$uuid}} occurrences produced the same value %q", parts[0])
	}
}

func TestResolveScopeShadowsBuiltin(t *testing.T) {
	t.Parallel()

	rc := NewContext(NewScope("globals", map[string]entity.Variable{
		"$uuid": enabled("pinned"),
	}))

	if result := rc.Resolve("{{$uuid}}"); result.Resolved != "pinned" {
		t.Fatalf("scope value should shadow the builtin, got %q", result.Resolved)
	}
}

func TestResolveUnknownBuiltinReportedUnresolved(t *testing.T) {
	t.Parallel()

	rc := NewContext()
	result := rc.Resolve("{{$nosuch}}")
	if result.Resolved != "{{$nosuch}}" {
		t.Fatalf("resolved = %q", result.Resolved)
	}
	if !reflect.DeepEqual(result.Unresolved, []string{"$nosuch"}) {
		t.Fatalf("unresolved = %v", result.Unresolved)
	}
}

func TestValueScopeAlwaysEnabled(t *testing.T) {
	t.Parallel()

	rc := NewContext(ValueScope("secrets", map[string]string{"API_KEY": "s3cret"}))
	if result := rc.Resolve("{{api_key}}"); result.Resolved != "s3cret" {
		t.Fatalf("resolved = %q", result.Resolved)
	}
}

func TestScopeLabel(t *testing.T) {
	t.Parallel()

	if label := NewScope("environment", nil).Label(); label != "environment" {
		t.Fatalf("label = %q", label)
	}
	if label := ValueScope("secrets", nil).Label(); label != "secrets" {
		t.Fatalf("label = %q", label)
	}
}

func TestLookupTrimsName(t *testing.T) {
	t.Parallel()

	rc := NewContext(NewScope("globals", map[string]entity.Variable{
		"token": enabled("abc"),
	}))
	value, ok := rc.Lookup("  token  ")
	if !ok || value != "abc" {
		t.Fatalf("Lookup = %q, %v", value, ok)
	}
	if _, ok := rc.Lookup("   "); ok {
		t.Fatalf("blank name must not resolve")
	}
}

func TestResolveNoReferencesReturnsInputUnchanged(t *testing.T) {
	t.Parallel()

	rc := NewContext()
	input := "https://example.com/plain"
	if result := rc.Resolve(input); result.Resolved != input || result.Unresolved != nil {
		t.Fatalf("Resolve(%q) = %#v", input, result)
	}
}
