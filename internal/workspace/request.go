package workspace

import (
	"context"
	"path"
	"strings"

	"github.com/vortexhq/vortex/internal/canonical"
	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
)

// requestParent resolves the directory a request or folder path lives in and
// fails with an invalid-structure error when the parent is missing.
func (r *Repo) requestParent(ctx context.Context, collectionDir, folderRel string) (string, error) {
	parent := r.join(collectionsDir, collectionDir, requestsDir)
	if folderRel != "" {
		parent = path.Join(parent, folderRel)
	}
	exists, err := r.fs.Exists(ctx, parent)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", errdef.New(
			errdef.CodeInvalid,
			"request location %q does not exist in collection %s",
			folderRel,
			collectionDir,
		)
	}
	return parent, nil
}

// CreateRequest writes a new request file named after the request's slug,
// either directly under requests/ or under the given folder-relative path.
// A duplicate slug in the same directory is a caller-visible conflict, never
// silently suffixed.
func (r *Repo) CreateRequest(ctx context.Context, collectionDir, folderRel string, req entity.Request) (string, error) {
	if err := req.Validate(); err != nil {
		return "", errdef.Wrap(errdef.CodeInvalid, err, "validate request")
	}

	slug := Slugify(req.Name)
	if slug == "" {
		return "", errdef.New(errdef.CodeInvalid, "request name %q produces an empty slug", req.Name)
	}

	parent, err := r.requestParent(ctx, collectionDir, folderRel)
	if err != nil {
		return "", err
	}

	target := path.Join(parent, slug+jsonExt)
	exists, err := r.fs.Exists(ctx, target)
	if err != nil {
		return "", err
	}
	if exists {
		return "", errdef.New(errdef.CodeExists, "request %q already exists in %s", req.Name, path.Join(collectionDir, folderRel))
	}

	if err := r.writeDoc(ctx, target, req); err != nil {
		return "", err
	}
	r.logger.Debug("created request", "name", req.Name, "collection", collectionDir, "folder", folderRel)
	return path.Join(folderRel, slug+jsonExt), nil
}

// LoadRequest reads a request by its requests/-relative path
// (e.g. "get-users.json" or "users/get-users.json").
func (r *Repo) LoadRequest(ctx context.Context, collectionDir, rel string) (entity.Request, error) {
	data, err := r.fs.ReadFile(ctx, r.join(collectionsDir, collectionDir, requestsDir, rel))
	if err != nil {
		if errdef.IsCode(err, errdef.CodeNotFound) {
			return entity.Request{}, errdef.Wrap(errdef.CodeNotFound, err, "request not found: %s", rel)
		}
		return entity.Request{}, err
	}
	var req entity.Request
	if err := canonical.Unmarshal(data, &req); err != nil {
		return entity.Request{}, err
	}
	return req, nil
}

// UpdateRequest overwrites a saved request. With renameFile set and a name
// whose slug differs from the current filename, the new file is written
// before the old one is removed, so a crash in between can leave a duplicate
// but never zero copies of the request.
func (r *Repo) UpdateRequest(ctx context.Context, collectionDir, rel string, req entity.Request, renameFile bool) (string, error) {
	if err := req.Validate(); err != nil {
		return "", errdef.Wrap(errdef.CodeInvalid, err, "validate request")
	}

	oldPath := r.join(collectionsDir, collectionDir, requestsDir, rel)
	exists, err := r.fs.Exists(ctx, oldPath)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", errdef.New(errdef.CodeNotFound, "request not found: %s", rel)
	}

	newRel := rel
	if renameFile {
		slug := Slugify(req.Name)
		if slug == "" {
			return "", errdef.New(errdef.CodeInvalid, "request name %q produces an empty slug", req.Name)
		}
		newRel = path.Join(path.Dir(rel), slug+jsonExt)
		if newRel == "." || strings.HasPrefix(newRel, "..") {
			return "", errdef.New(errdef.CodeInvalid, "request path %q escapes the collection", rel)
		}
	}

	newPath := r.join(collectionsDir, collectionDir, requestsDir, newRel)
	if newRel != rel {
		clash, err := r.fs.Exists(ctx, newPath)
		if err != nil {
			return "", err
		}
		if clash {
			return "", errdef.New(errdef.CodeExists, "request %q already exists in %s", req.Name, path.Dir(newRel))
		}
	}

	if err := r.writeDoc(ctx, newPath, req); err != nil {
		return "", err
	}
	if newRel != rel {
		if err := r.fs.Remove(ctx, oldPath); err != nil {
			return "", err
		}
	}
	return newRel, nil
}

func (r *Repo) DeleteRequest(ctx context.Context, collectionDir, rel string) error {
	target := r.join(collectionsDir, collectionDir, requestsDir, rel)
	exists, err := r.fs.Exists(ctx, target)
	if err != nil {
		return err
	}
	if !exists {
		return errdef.New(errdef.CodeNotFound, "request not found: %s", rel)
	}
	return r.fs.Remove(ctx, target)
}
