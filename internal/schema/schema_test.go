package schema

import (
	"testing"

	"github.com/vortexhq/vortex/internal/errdef"
)

func TestVerifyManifest(t *testing.T) {
	t.Parallel()

	good := `{"collections": [], "name": "ws", "schema_version": 1}`
	if err := VerifyManifest([]byte(good)); err != nil {
		t.Fatalf("valid manifest rejected: %v", err)
	}

	bad := []string{
		`{"collections": [], "name": "ws", "schema_version": "1"}`,
		`{"collections": {}, "name": "ws", "schema_version": 1}`,
		`{"name": "ws", "schema_version": 1}`,
		`{"collections": [], "name": "", "schema_version": 1}`,
		`not json`,
	}
	for _, doc := range bad {
		if err := VerifyManifest([]byte(doc)); !errdef.IsCode(err, errdef.CodeSerialization) {
			t.Fatalf("expected serialization error for %s, got %v", doc, err)
		}
	}
}

func TestVerifyCollection(t *testing.T) {
	t.Parallel()

	good := `{
  "id": "c1",
  "name": "My API",
  "schema_version": 1,
  "variables": {"base_url": {"enabled": true, "value": "https://example.com"}}
}`
	if err := VerifyCollection([]byte(good)); err != nil {
		t.Fatalf("valid collection rejected: %v", err)
	}

	missingEnabled := `{
  "id": "c1",
  "name": "My API",
  "schema_version": 1,
  "variables": {"base_url": {"value": "x"}}
}`
	if err := VerifyCollection([]byte(missingEnabled)); !errdef.IsCode(err, errdef.CodeSerialization) {
		t.Fatalf("expected serialization error, got %v", err)
	}
}

func TestVerifyRequest(t *testing.T) {
	t.Parallel()

	good := `{
  "headers": {},
  "id": "r1",
  "method": "GET",
  "name": "Get Users",
  "query_params": {},
  "schema_version": 1,
  "url": "https://example.com/users"
}`
	if err := VerifyRequest([]byte(good)); err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}

	missingURL := `{
  "headers": {},
  "id": "r1",
  "method": "GET",
  "name": "Get Users",
  "query_params": {},
  "schema_version": 1
}`
	if err := VerifyRequest([]byte(missingURL)); !errdef.IsCode(err, errdef.CodeSerialization) {
		t.Fatalf("expected serialization error, got %v", err)
	}
}
