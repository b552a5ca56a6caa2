package workspace

import (
	"context"
	"path"
	"strings"

	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
)

// CollectionTree is a fully loaded collection: root-level requests plus the
// recursive folder structure underneath requests/.
type CollectionTree struct {
	Collection entity.Collection
	Requests   []entity.Request
	Folders    []FolderTree
}

// FolderTree is one folder node. Path is the folder's requests/-relative
// location.
type FolderTree struct {
	Folder     entity.Folder
	Requests   []entity.Request
	Subfolders []FolderTree
	Path       string
}

// LoadTree walks the collection's requests/ directory recursively. Files
// directly under requests/ become root-level requests; every subdirectory is
// a folder whose folder.json supplies metadata. Directory entries arrive
// sorted from the FS port, so the resulting tree shape is reproducible
// regardless of the underlying storage's native listing order.
func (r *Repo) LoadTree(ctx context.Context, collectionDir string) (CollectionTree, error) {
	col, err := r.LoadCollection(ctx, collectionDir)
	if err != nil {
		return CollectionTree{}, err
	}

	requests, folders, err := r.loadLevel(ctx, collectionDir, "")
	if err != nil {
		return CollectionTree{}, err
	}
	return CollectionTree{Collection: col, Requests: requests, Folders: folders}, nil
}

func (r *Repo) loadLevel(ctx context.Context, collectionDir, rel string) ([]entity.Request, []FolderTree, error) {
	entries, err := r.fs.ReadDir(ctx, r.join(collectionsDir, collectionDir, requestsDir, rel))
	if err != nil {
		return nil, nil, err
	}

	var requests []entity.Request
	var folders []FolderTree
	for _, entry := range entries {
		childRel := path.Join(rel, entry.Name)
		if entry.Dir {
			folder, err := r.LoadFolder(ctx, collectionDir, childRel)
			if err != nil {
				// a directory without folder.json is a malformed tree, not a
				// missing document
				if errdef.IsCode(err, errdef.CodeNotFound) {
					return nil, nil, errdef.Wrap(errdef.CodeInvalid, err, "folder %s has no %s", childRel, folderFile)
				}
				return nil, nil, err
			}
			subRequests, subFolders, err := r.loadLevel(ctx, collectionDir, childRel)
			if err != nil {
				return nil, nil, err
			}
			folders = append(folders, FolderTree{
				Folder:     folder,
				Requests:   subRequests,
				Subfolders: subFolders,
				Path:       childRel,
			})
			continue
		}
		if entry.Name == folderFile || !strings.HasSuffix(entry.Name, jsonExt) {
			continue
		}
		req, err := r.LoadRequest(ctx, collectionDir, childRel)
		if err != nil {
			return nil, nil, err
		}
		requests = append(requests, req)
	}
	return requests, folders, nil
}
