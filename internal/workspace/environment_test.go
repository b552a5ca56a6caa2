package workspace

import (
	"context"
	"reflect"
	"testing"

	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
)

func TestEnvironmentNamesAreCaseFolded(t *testing.T) {
	t.Parallel()
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createTestWorkspace(t, repo)

	env := entity.Environment{
		Name:          "Staging",
		SchemaVersion: 1,
		Variables:     map[string]entity.Variable{"token": {Enabled: true, Value: "t"}},
	}
	if err := repo.SaveEnvironment(ctx, env); err != nil {
		t.Fatalf("save environment: %v", err)
	}

	for _, name := range []string{"staging", "Staging", "STAGING", "  staging  "} {
		loaded, err := repo.LoadEnvironment(ctx, name)
		if err != nil {
			t.Fatalf("load environment %q: %v", name, err)
		}
		if loaded.Variables["token"].Value != "t" {
			t.Fatalf("loaded %q mismatch: %#v", name, loaded)
		}
	}

	names, err := repo.Environments(ctx)
	if err != nil {
		t.Fatalf("list environments: %v", err)
	}
	if !reflect.DeepEqual(names, []string{"staging"}) {
		t.Fatalf("environments = %v", names)
	}
}

func TestDeleteEnvironment(t *testing.T) {
	t.Parallel()
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createTestWorkspace(t, repo)

	env := entity.Environment{Name: "dev", SchemaVersion: 1, Variables: map[string]entity.Variable{}}
	if err := repo.SaveEnvironment(ctx, env); err != nil {
		t.Fatalf("save environment: %v", err)
	}
	if err := repo.DeleteEnvironment(ctx, "DEV"); err != nil {
		t.Fatalf("delete environment: %v", err)
	}
	if err := repo.DeleteEnvironment(ctx, "dev"); !errdef.IsCode(err, errdef.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestLoadEnvironmentRejectsNewerSchema(t *testing.T) {
	t.Parallel()
	repo, mem := newTestRepo(t)
	ctx := context.Background()
	createTestWorkspace(t, repo)

	doc := `{"name": "dev", "schema_version": 99, "variables": {}}`
	if err := mem.WriteFile(ctx, "ws/environments/dev.json", []byte(doc), 0o644); err != nil {
		t.Fatalf("write environment: %v", err)
	}

	_, err := repo.LoadEnvironment(ctx, "dev")
	if !errdef.IsCode(err, errdef.CodeSchema) {
		t.Fatalf("expected schema error, got %v", err)
	}
}

func TestSecretsCaseFolding(t *testing.T) {
	t.Parallel()
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createTestWorkspace(t, repo)

	if err := repo.SetSecret(ctx, "Production", "api_key", "s3cret"); err != nil {
		t.Fatalf("set secret: %v", err)
	}

	values, err := repo.SecretsFor(ctx, "PRODUCTION")
	if err != nil {
		t.Fatalf("secrets for: %v", err)
	}
	if values["api_key"] != "s3cret" {
		t.Fatalf("secrets = %v", values)
	}

	store, err := repo.LoadSecrets(ctx)
	if err != nil {
		t.Fatalf("load secrets: %v", err)
	}
	if _, ok := store.Secrets["production"]; !ok {
		t.Fatalf("bucket key should be folded to lowercase: %v", store.Secrets)
	}
}

func TestSecretsMissingFileIsEmptyStore(t *testing.T) {
	t.Parallel()
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createTestWorkspace(t, repo)

	store, err := repo.LoadSecrets(ctx)
	if err != nil {
		t.Fatalf("load secrets: %v", err)
	}
	if store.SchemaVersion != entity.CurrentSchemaVersion || len(store.Secrets) != 0 {
		t.Fatalf("empty store expected, got %#v", store)
	}
}

func TestDeleteSecret(t *testing.T) {
	t.Parallel()
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createTestWorkspace(t, repo)

	if err := repo.SetSecret(ctx, "dev", "a", "1"); err != nil {
		t.Fatalf("set secret: %v", err)
	}
	if err := repo.DeleteSecret(ctx, "dev", "a"); err != nil {
		t.Fatalf("delete secret: %v", err)
	}
	if err := repo.DeleteSecret(ctx, "dev", "a"); !errdef.IsCode(err, errdef.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if err := repo.DeleteSecret(ctx, "ghost", "a"); !errdef.IsCode(err, errdef.CodeNotFound) {
		t.Fatalf("expected not-found for unknown environment, got %v", err)
	}
}

func TestBuildContextPrecedence(t *testing.T) {
	t.Parallel()
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createTestWorkspace(t, repo)

	globals := entity.Environment{
		Name:          GlobalsName,
		SchemaVersion: 1,
		Variables: map[string]entity.Variable{
			"base_url": {Enabled: true, Value: "https://global.example.com"},
			"shared":   {Enabled: true, Value: "from-globals"},
		},
	}
	if err := repo.SaveEnvironment(ctx, globals); err != nil {
		t.Fatalf("save globals: %v", err)
	}

	env := entity.Environment{
		Name:          "staging",
		SchemaVersion: 1,
		Variables: map[string]entity.Variable{
			"base_url": {Enabled: true, Value: "https://staging.example.com"},
		},
	}
	if err := repo.SaveEnvironment(ctx, env); err != nil {
		t.Fatalf("save environment: %v", err)
	}

	if err := repo.SetSecret(ctx, "staging", "base_url", "https://secret.example.com"); err != nil {
		t.Fatalf("set secret: %v", err)
	}

	col := entity.Collection{
		ID: "c1", Name: "My API", SchemaVersion: 1,
		Variables: map[string]entity.Variable{
			"shared":  {Enabled: true, Value: "from-collection"},
			"colonly": {Enabled: true, Value: "col"},
		},
	}

	rc, err := repo.BuildContext(ctx, "staging", &col)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}

	// secrets beat the environment
	if result := rc.Resolve("{{base_url}}"); result.Resolved != "https://secret.example.com" {
		t.Fatalf("base_url = %q", result.Resolved)
	}
	// collection beats globals
	if result := rc.Resolve("{{shared}}"); result.Resolved != "from-collection" {
		t.Fatalf("shared = %q", result.Resolved)
	}
	if result := rc.Resolve("{{colonly}}-{{missing}}"); result.Resolved != "col-{{missing}}" {
		t.Fatalf("resolved = %q", result.Resolved)
	}
}

func TestBuildContextMissingEnvironmentIsEmptyScope(t *testing.T) {
	t.Parallel()
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	createTestWorkspace(t, repo)

	rc, err := repo.BuildContext(ctx, "nonexistent", nil)
	if err != nil {
		t.Fatalf("build context: %v", err)
	}
	result := rc.Resolve("{{anything}}")
	if result.Resolved != "{{anything}}" || len(result.Unresolved) != 1 {
		t.Fatalf("result = %#v", result)
	}
}
