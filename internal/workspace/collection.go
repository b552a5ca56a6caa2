package workspace

import (
	"context"
	"path"

	"github.com/vortexhq/vortex/internal/canonical"
	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
)

// CreateCollection materializes a collection directory named after the
// collection's slug and returns the manifest-relative path
// ("collections/<slug>"). An existing directory of that name is a conflict.
func (r *Repo) CreateCollection(ctx context.Context, col entity.Collection) (string, error) {
	if err := col.Validate(); err != nil {
		return "", errdef.Wrap(errdef.CodeInvalid, err, "validate collection")
	}

	slug := Slugify(col.Name)
	if slug == "" {
		return "", errdef.New(errdef.CodeInvalid, "collection name %q produces an empty slug", col.Name)
	}

	dir := r.join(collectionsDir, slug)
	exists, err := r.fs.Exists(ctx, dir)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errdef.New(errdef.CodeExists, "collection %q already exists", col.Name)
	}

	if err := r.fs.MkdirAll(ctx, path.Join(dir, requestsDir), dirPerm); err != nil {
		return "", err
	}
	if err := r.writeDoc(ctx, path.Join(dir, collectionFile), col); err != nil {
		return "", err
	}

	r.logger.Info("created collection", "name", col.Name, "id", col.ID)
	return path.Join(collectionsDir, slug), nil
}

// LoadCollection reads collection.json for the collection directory slug.
func (r *Repo) LoadCollection(ctx context.Context, dir string) (entity.Collection, error) {
	data, err := r.fs.ReadFile(ctx, r.join(collectionsDir, dir, collectionFile))
	if err != nil {
		if errdef.IsCode(err, errdef.CodeNotFound) {
			return entity.Collection{}, errdef.Wrap(errdef.CodeNotFound, err, "collection not found: %s", dir)
		}
		return entity.Collection{}, err
	}

	var col entity.Collection
	if err := canonical.Unmarshal(data, &col); err != nil {
		return entity.Collection{}, err
	}
	if col.SchemaVersion > entity.CurrentSchemaVersion {
		return entity.Collection{}, errdef.New(
			errdef.CodeSchema,
			"collection %s schema version %d is newer than supported version %d",
			dir,
			col.SchemaVersion,
			entity.CurrentSchemaVersion,
		)
	}
	return col, nil
}

func (r *Repo) SaveCollection(ctx context.Context, dir string, col entity.Collection) error {
	if err := col.Validate(); err != nil {
		return errdef.Wrap(errdef.CodeInvalid, err, "validate collection")
	}
	exists, err := r.fs.Exists(ctx, r.join(collectionsDir, dir))
	if err != nil {
		return err
	}
	if !exists {
		return errdef.New(errdef.CodeNotFound, "collection not found: %s", dir)
	}
	return r.writeDoc(ctx, r.join(collectionsDir, dir, collectionFile), col)
}

func (r *Repo) DeleteCollection(ctx context.Context, dir string) error {
	target := r.join(collectionsDir, dir)
	exists, err := r.fs.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return errdef.New(errdef.CodeNotFound, "collection not found: %s", dir)
	}
	if err := r.removeAll(ctx, target); err != nil {
		return err
	}
	r.logger.Info("deleted collection", "dir", dir)
	return nil
}

// Collections lists collection directory slugs present on disk, sorted. The
// listing is storage truth; the manifest's collection list may lag behind it.
func (r *Repo) Collections(ctx context.Context) ([]string, error) {
	entries, err := r.fs.ReadDir(ctx, r.join(collectionsDir))
	if err != nil {
		if errdef.IsCode(err, errdef.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.Dir {
			dirs = append(dirs, entry.Name)
		}
	}
	return dirs, nil
}
