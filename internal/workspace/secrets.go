package workspace

import (
	"context"

	"github.com/vortexhq/vortex/internal/canonical"
	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
)

func (r *Repo) secretsPath() string {
	return r.join(internalDir, secretsFile)
}

// LoadSecrets reads the workspace secret store. A missing file is an empty
// store, not an error; the store only materializes on first write.
func (r *Repo) LoadSecrets(ctx context.Context) (entity.Secrets, error) {
	data, err := r.fs.ReadFile(ctx, r.secretsPath())
	if err != nil {
		if errdef.IsCode(err, errdef.CodeNotFound) {
			return entity.Secrets{
				SchemaVersion: entity.CurrentSchemaVersion,
				Secrets:       map[string]map[string]string{},
			}, nil
		}
		return entity.Secrets{}, err
	}

	var store entity.Secrets
	if err := canonical.Unmarshal(data, &store); err != nil {
		return entity.Secrets{}, err
	}
	if store.SchemaVersion > entity.CurrentSchemaVersion {
		return entity.Secrets{}, errdef.New(
			errdef.CodeSchema,
			"secrets schema version %d is newer than supported version %d",
			store.SchemaVersion,
			entity.CurrentSchemaVersion,
		)
	}
	if store.Secrets == nil {
		store.Secrets = map[string]map[string]string{}
	}
	return store, nil
}

func (r *Repo) SaveSecrets(ctx context.Context, store entity.Secrets) error {
	if err := r.fs.MkdirAll(ctx, r.join(internalDir), dirPerm); err != nil {
		return err
	}
	// environment keys are case-folded at every write boundary
	folded := make(map[string]map[string]string, len(store.Secrets))
	for env, values := range store.Secrets {
		folded[envKey(env)] = values
	}
	store.Secrets = folded
	return r.writeDoc(ctx, r.secretsPath(), store)
}

// SetSecret stores one secret for an environment, creating buckets on demand.
func (r *Repo) SetSecret(ctx context.Context, envName, name, value string) error {
	store, err := r.LoadSecrets(ctx)
	if err != nil {
		return err
	}
	key := envKey(envName)
	if store.Secrets[key] == nil {
		store.Secrets[key] = map[string]string{}
	}
	store.Secrets[key][name] = value
	return r.SaveSecrets(ctx, store)
}

func (r *Repo) DeleteSecret(ctx context.Context, envName, name string) error {
	store, err := r.LoadSecrets(ctx)
	if err != nil {
		return err
	}
	key := envKey(envName)
	bucket, ok := store.Secrets[key]
	if !ok {
		return errdef.New(errdef.CodeNotFound, "no secrets for environment %q", envName)
	}
	if _, ok := bucket[name]; !ok {
		return errdef.New(errdef.CodeNotFound, "secret %q not found in environment %q", name, envName)
	}
	delete(bucket, name)
	if len(bucket) == 0 {
		delete(store.Secrets, key)
	}
	return r.SaveSecrets(ctx, store)
}

// SecretsFor returns the secret values for one environment, case-folded.
func (r *Repo) SecretsFor(ctx context.Context, envName string) (map[string]string, error) {
	store, err := r.LoadSecrets(ctx)
	if err != nil {
		return nil, err
	}
	values := store.Secrets[envKey(envName)]
	out := make(map[string]string, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, nil
}
