package workspace

import (
	"context"
	"path"

	"github.com/vortexhq/vortex/internal/canonical"
	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
)

// CreateFolder makes a folder directory under requests/ (or under parentRel
// for nesting) with its folder.json metadata, returning the folder's
// requests/-relative path.
func (r *Repo) CreateFolder(ctx context.Context, collectionDir, parentRel string, folder entity.Folder) (string, error) {
	if err := folder.Validate(); err != nil {
		return "", errdef.Wrap(errdef.CodeInvalid, err, "validate folder")
	}

	slug := Slugify(folder.Name)
	if slug == "" {
		return "", errdef.New(errdef.CodeInvalid, "folder name %q produces an empty slug", folder.Name)
	}

	parent, err := r.requestParent(ctx, collectionDir, parentRel)
	if err != nil {
		return "", err
	}

	dir := path.Join(parent, slug)
	exists, err := r.fs.Exists(ctx, dir)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errdef.New(errdef.CodeExists, "folder %q already exists in %s", folder.Name, path.Join(collectionDir, parentRel))
	}

	if err := r.fs.MkdirAll(ctx, dir, dirPerm); err != nil {
		return "", err
	}
	if err := r.writeDoc(ctx, path.Join(dir, folderFile), folder); err != nil {
		return "", err
	}
	r.logger.Debug("created folder", "name", folder.Name, "collection", collectionDir, "parent", parentRel)
	return path.Join(parentRel, slug), nil
}

// LoadFolder reads folder.json for a requests/-relative folder path.
func (r *Repo) LoadFolder(ctx context.Context, collectionDir, rel string) (entity.Folder, error) {
	data, err := r.fs.ReadFile(ctx, r.join(collectionsDir, collectionDir, requestsDir, rel, folderFile))
	if err != nil {
		if errdef.IsCode(err, errdef.CodeNotFound) {
			return entity.Folder{}, errdef.Wrap(errdef.CodeNotFound, err, "folder not found: %s", rel)
		}
		return entity.Folder{}, err
	}
	var folder entity.Folder
	if err := canonical.Unmarshal(data, &folder); err != nil {
		return entity.Folder{}, err
	}
	return folder, nil
}

func (r *Repo) SaveFolder(ctx context.Context, collectionDir, rel string, folder entity.Folder) error {
	if err := folder.Validate(); err != nil {
		return errdef.Wrap(errdef.CodeInvalid, err, "validate folder")
	}
	dir := r.join(collectionsDir, collectionDir, requestsDir, rel)
	exists, err := r.fs.Exists(ctx, dir)
	if err != nil {
		return err
	}
	if !exists {
		return errdef.New(errdef.CodeNotFound, "folder not found: %s", rel)
	}
	return r.writeDoc(ctx, path.Join(dir, folderFile), folder)
}

func (r *Repo) DeleteFolder(ctx context.Context, collectionDir, rel string) error {
	dir := r.join(collectionsDir, collectionDir, requestsDir, rel)
	exists, err := r.fs.Exists(ctx, dir)
	if err != nil {
		return err
	}
	if !exists {
		return errdef.New(errdef.CodeNotFound, "folder not found: %s", rel)
	}
	return r.removeAll(ctx, dir)
}
