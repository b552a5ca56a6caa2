package workspace

import (
	"context"
	"strings"

	"github.com/vortexhq/vortex/internal/canonical"
	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
)

// GlobalsName is the reserved environment holding workspace-wide variables.
// It sits at the bottom of the resolution precedence chain.
const GlobalsName = "globals"

// envKey case-folds an environment name; "Development" and "development"
// address the same file and the same secrets bucket.
func envKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *Repo) envPath(name string) string {
	return r.join(environmentsDir, Slugify(envKey(name))+jsonExt)
}

// SaveEnvironment writes the environment under environments/<slug>.json,
// creating it when absent.
func (r *Repo) SaveEnvironment(ctx context.Context, env entity.Environment) error {
	if err := env.Validate(); err != nil {
		return errdef.Wrap(errdef.CodeInvalid, err, "validate environment")
	}
	if Slugify(envKey(env.Name)) == "" {
		return errdef.New(errdef.CodeInvalid, "environment name %q produces an empty slug", env.Name)
	}
	return r.writeDoc(ctx, r.envPath(env.Name), env)
}

func (r *Repo) LoadEnvironment(ctx context.Context, name string) (entity.Environment, error) {
	data, err := r.fs.ReadFile(ctx, r.envPath(name))
	if err != nil {
		if errdef.IsCode(err, errdef.CodeNotFound) {
			return entity.Environment{}, errdef.Wrap(errdef.CodeNotFound, err, "environment not found: %s", name)
		}
		return entity.Environment{}, err
	}
	var env entity.Environment
	if err := canonical.Unmarshal(data, &env); err != nil {
		return entity.Environment{}, err
	}
	if env.SchemaVersion > entity.CurrentSchemaVersion {
		return entity.Environment{}, errdef.New(
			errdef.CodeSchema,
			"environment %s schema version %d is newer than supported version %d",
			name,
			env.SchemaVersion,
			entity.CurrentSchemaVersion,
		)
	}
	return env, nil
}

func (r *Repo) DeleteEnvironment(ctx context.Context, name string) error {
	target := r.envPath(name)
	exists, err := r.fs.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return errdef.New(errdef.CodeNotFound, "environment not found: %s", name)
	}
	return r.fs.Remove(ctx, target)
}

// Environments lists environment slugs on disk, sorted.
func (r *Repo) Environments(ctx context.Context) ([]string, error) {
	entries, err := r.fs.ReadDir(ctx, r.join(environmentsDir))
	if err != nil {
		if errdef.IsCode(err, errdef.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if entry.Dir || !strings.HasSuffix(entry.Name, jsonExt) {
			continue
		}
		names = append(names, strings.TrimSuffix(entry.Name, jsonExt))
	}
	return names, nil
}
