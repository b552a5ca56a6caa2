// Package workspace maps the entity model onto a concrete directory tree:
//
//	<root>/vortex.json
//	<root>/collections/<collection-slug>/collection.json
//	<root>/collections/<collection-slug>/requests/<slug>.json
//	<root>/collections/<collection-slug>/requests/<folder-slug>/folder.json
//	<root>/environments/<slug>.json
//	<root>/.vortex/secrets.json
//	<root>/.vortex/history.json
//
// All documents are written in canonical JSON through an atomic temp+rename,
// so a crash never leaves a partial file behind. The repository holds no
// locks: writes to the same workspace must be serialized by the caller, which
// matches single-writer desktop usage.
package workspace

import (
	"context"
	"io/fs"
	"path"
	"sort"

	"github.com/hashicorp/go-hclog"

	"github.com/vortexhq/vortex/internal/canonical"
	"github.com/vortexhq/vortex/internal/entity"
	"github.com/vortexhq/vortex/internal/errdef"
	"github.com/vortexhq/vortex/internal/fsio"
	"github.com/vortexhq/vortex/internal/schema"
	"github.com/vortexhq/vortex/internal/util"
)

const (
	manifestFile    = "vortex.json"
	collectionsDir  = "collections"
	environmentsDir = "environments"
	internalDir     = ".vortex"
	secretsFile     = "secrets.json"
	historyFile     = "history.json"
	requestsDir     = "requests"
	collectionFile  = "collection.json"
	folderFile      = "folder.json"
	jsonExt         = ".json"

	dirPerm  fs.FileMode = 0o755
	filePerm fs.FileMode = 0o644
)

type Repo struct {
	fs     fsio.FS
	root   string
	logger hclog.Logger
}

type Option func(*Repo)

func WithFS(fsys fsio.FS) Option {
	return func(r *Repo) {
		if fsys != nil {
			r.fs = fsys
		}
	}
}

func WithLogger(logger hclog.Logger) Option {
	return func(r *Repo) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New returns a repository rooted at the given workspace directory. The
// directory is injected explicitly; the repository never consults process
// globals to find its data.
func New(root string, opts ...Option) *Repo {
	r := &Repo{
		fs:     fsio.OS{},
		root:   root,
		logger: hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repo) Root() string {
	return r.root
}

// HistoryPath is where the execution history store lives for this workspace.
func (r *Repo) HistoryPath() string {
	return r.join(internalDir, historyFile)
}

func (r *Repo) join(parts ...string) string {
	return path.Join(append([]string{r.root}, parts...)...)
}

// Create initializes a new workspace. It fails with an already-exists error
// when a manifest is already present rather than silently overwriting.
func (r *Repo) Create(ctx context.Context, name string) (entity.Manifest, error) {
	manifestPath := r.join(manifestFile)
	exists, err := r.fs.Exists(ctx, manifestPath)
	if err != nil {
		return entity.Manifest{}, err
	}
	if exists {
		return entity.Manifest{}, errdef.New(errdef.CodeExists, "workspace already exists at %s", r.root)
	}

	for _, dir := range []string{"", collectionsDir, environmentsDir, internalDir} {
		if err := r.fs.MkdirAll(ctx, r.join(dir), dirPerm); err != nil {
			return entity.Manifest{}, err
		}
	}

	manifest := entity.Manifest{
		Collections:   []string{},
		Name:          name,
		SchemaVersion: entity.CurrentSchemaVersion,
	}
	if err := manifest.Validate(); err != nil {
		return entity.Manifest{}, errdef.Wrap(errdef.CodeInvalid, err, "validate workspace manifest")
	}
	if err := r.writeDoc(ctx, manifestPath, manifest); err != nil {
		return entity.Manifest{}, err
	}

	r.logger.Info("created workspace", "name", name, "root", r.root)
	return manifest, nil
}

// Open loads and gates the manifest. A schema_version newer than this build
// supports blocks the workspace with a schema-mismatch error instead of
// attempting a lossy downgrade-read.
func (r *Repo) Open(ctx context.Context) (entity.Manifest, error) {
	data, err := r.fs.ReadFile(ctx, r.join(manifestFile))
	if err != nil {
		if errdef.IsCode(err, errdef.CodeNotFound) {
			return entity.Manifest{}, errdef.Wrap(errdef.CodeNotFound, err, "workspace not found at %s", r.root)
		}
		return entity.Manifest{}, err
	}

	if err := schema.VerifyManifest(data); err != nil {
		return entity.Manifest{}, err
	}

	var manifest entity.Manifest
	if err := canonical.Unmarshal(data, &manifest); err != nil {
		return entity.Manifest{}, err
	}
	if manifest.SchemaVersion > entity.CurrentSchemaVersion {
		return entity.Manifest{}, errdef.New(
			errdef.CodeSchema,
			"workspace schema version %d is newer than supported version %d",
			manifest.SchemaVersion,
			entity.CurrentSchemaVersion,
		)
	}
	return manifest, nil
}

func (r *Repo) SaveManifest(ctx context.Context, manifest entity.Manifest) error {
	if err := manifest.Validate(); err != nil {
		return errdef.Wrap(errdef.CodeInvalid, err, "validate workspace manifest")
	}
	return r.writeDoc(ctx, r.join(manifestFile), manifest)
}

// AddCollectionPath records a collection's relative path in the manifest,
// deduplicated and sorted, and persists the result.
func (r *Repo) AddCollectionPath(ctx context.Context, manifest entity.Manifest, rel string) (entity.Manifest, error) {
	manifest.Collections = util.DedupeNonEmptyStrings(append(manifest.Collections, rel))
	sort.Strings(manifest.Collections)
	if err := r.SaveManifest(ctx, manifest); err != nil {
		return entity.Manifest{}, err
	}
	return manifest, nil
}

func (r *Repo) RemoveCollectionPath(ctx context.Context, manifest entity.Manifest, rel string) (entity.Manifest, error) {
	kept := make([]string, 0, len(manifest.Collections))
	for _, p := range manifest.Collections {
		if p != rel {
			kept = append(kept, p)
		}
	}
	manifest.Collections = kept
	if err := r.SaveManifest(ctx, manifest); err != nil {
		return entity.Manifest{}, err
	}
	return manifest, nil
}

// writeDoc renders a document canonically and writes it atomically.
func (r *Repo) writeDoc(ctx context.Context, name string, v any) error {
	data, err := canonical.Marshal(v)
	if err != nil {
		return err
	}
	return fsio.WriteFileAtomic(ctx, r.fs, name, data, filePerm)
}

// removeAll removes a file, or a directory tree bottom-up through the FS port.
func (r *Repo) removeAll(ctx context.Context, name string) error {
	entries, err := r.fs.ReadDir(ctx, name)
	if err != nil {
		// plain file, or already gone; Remove reports either precisely
		return r.fs.Remove(ctx, name)
	}
	for _, entry := range entries {
		child := path.Join(name, entry.Name)
		if entry.Dir {
			if err := r.removeAll(ctx, child); err != nil {
				return err
			}
			continue
		}
		if err := r.fs.Remove(ctx, child); err != nil {
			return err
		}
	}
	return r.fs.Remove(ctx, name)
}
