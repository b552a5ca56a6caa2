// Package fsio defines the filesystem and clock capability ports the
// repositories depend on, plus the OS-backed adapters. Failures carry errdef
// codes so callers can tell not-found from permission trouble without
// touching os internals.
package fsio

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/vortexhq/vortex/internal/errdef"
)

// Entry is one directory listing row.
type Entry struct {
	Name string
	Dir  bool
}

// FS is the filesystem capability. Every method observes ctx before touching
// the disk; ReadDir results are sorted by name so directory-order never leaks
// into callers.
type FS interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	WriteFile(ctx context.Context, name string, data []byte, perm fs.FileMode) error
	Exists(ctx context.Context, name string) (bool, error)
	MkdirAll(ctx context.Context, name string, perm fs.FileMode) error
	ReadDir(ctx context.Context, name string) ([]Entry, error)
	Remove(ctx context.Context, name string) error
	Rename(ctx context.Context, oldPath, newPath string) error
}

// Clock abstracts time for history stamping and tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// OS is the production FS adapter.
type OS struct{}

func (OS) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, classify(err, "read %s", name)
	}
	return data, nil
}

func (OS) WriteFile(ctx context.Context, name string, data []byte, perm fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.WriteFile(name, data, perm); err != nil {
		return classify(err, "write %s", name)
	}
	return nil
}

func (OS) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := os.Stat(name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, classify(err, "stat %s", name)
}

func (OS) MkdirAll(ctx context.Context, name string, perm fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(name, perm); err != nil {
		return classify(err, "create dir %s", name)
	}
	return nil
}

func (OS) ReadDir(ctx context.Context, name string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadDir(name)
	if err != nil {
		return nil, classify(err, "list dir %s", name)
	}
	entries := make([]Entry, 0, len(raw))
	for _, e := range raw {
		entries = append(entries, Entry{Name: e.Name(), Dir: e.IsDir()})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (OS) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(name); err != nil {
		return classify(err, "remove %s", name)
	}
	return nil
}

func (OS) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		return classify(err, "rename %s", oldPath)
	}
	return nil
}

// WriteFileAtomic writes through a temp file in the destination directory and
// renames it into place, so readers never observe a partial document.
func WriteFileAtomic(ctx context.Context, fsys FS, name string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(name)
	tmp := filepath.Join(dir, "."+filepath.Base(name)+".tmp")
	if err := fsys.WriteFile(ctx, tmp, data, perm); err != nil {
		return err
	}
	if err := fsys.Rename(ctx, tmp, name); err != nil {
		_ = fsys.Remove(ctx, tmp)
		return err
	}
	return nil
}

func classify(err error, format string, args ...any) error {
	code := errdef.CodeFilesystem
	switch {
	case errors.Is(err, fs.ErrNotExist):
		code = errdef.CodeNotFound
	case errors.Is(err, fs.ErrExist):
		code = errdef.CodeExists
	}
	return errdef.Wrap(code, err, format, args...)
}
