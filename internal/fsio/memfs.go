package fsio

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vortexhq/vortex/internal/errdef"
)

// Mem is an in-memory FS for tests. Paths are slash-normalized; directories
// exist implicitly once a file or an explicit MkdirAll creates them.
type Mem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

func NewMem() *Mem {
	return &Mem{
		files: make(map[string][]byte),
		dirs:  map[string]struct{}{".": {}},
	}
}

func normalize(name string) string {
	cleaned := path.Clean(strings.ReplaceAll(name, "\\", "/"))
	return strings.TrimPrefix(cleaned, "/")
}

func (m *Mem) ReadFile(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[normalize(name)]
	if !ok {
		return nil, errdef.New(errdef.CodeNotFound, "read %s: no such file", name)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m *Mem) WriteFile(ctx context.Context, name string, data []byte, _ fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := normalize(name)
	stored := make([]byte, len(data))
	copy(stored, data)
	m.files[key] = stored
	m.trackParents(key)
	return nil
}

func (m *Mem) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := normalize(name)
	if _, ok := m.files[key]; ok {
		return true, nil
	}
	_, ok := m.dirs[key]
	return ok, nil
}

func (m *Mem) MkdirAll(ctx context.Context, name string, _ fs.FileMode) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := normalize(name)
	m.dirs[key] = struct{}{}
	m.trackParents(key + "/x")
	return nil
}

func (m *Mem) ReadDir(ctx context.Context, name string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	key := normalize(name)
	if _, ok := m.dirs[key]; !ok {
		return nil, errdef.New(errdef.CodeNotFound, "list dir %s: no such directory", name)
	}

	seen := make(map[string]bool)
	prefix := key + "/"
	if key == "." {
		prefix = ""
	}
	add := func(child string, dir bool) {
		if child == "" {
			return
		}
		if idx := strings.IndexByte(child, '/'); idx >= 0 {
			seen[child[:idx]] = true
			return
		}
		if dir {
			seen[child] = true
		} else if _, ok := seen[child]; !ok {
			seen[child] = false
		}
	}
	for file := range m.files {
		if strings.HasPrefix(file, prefix) {
			add(strings.TrimPrefix(file, prefix), false)
		}
	}
	for dir := range m.dirs {
		if dir != key && strings.HasPrefix(dir, prefix) {
			add(strings.TrimPrefix(dir, prefix), true)
		}
	}

	entries := make([]Entry, 0, len(seen))
	for name, dir := range seen {
		entries = append(entries, Entry{Name: name, Dir: dir})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries, nil
}

func (m *Mem) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := normalize(name)
	if _, ok := m.files[key]; ok {
		delete(m.files, key)
		return nil
	}
	if _, ok := m.dirs[key]; ok {
		delete(m.dirs, key)
		return nil
	}
	return errdef.New(errdef.CodeNotFound, "remove %s: no such file", name)
}

func (m *Mem) Rename(ctx context.Context, oldPath, newPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	oldKey, newKey := normalize(oldPath), normalize(newPath)
	data, ok := m.files[oldKey]
	if !ok {
		return errdef.New(errdef.CodeNotFound, "rename %s: no such file", oldPath)
	}
	delete(m.files, oldKey)
	m.files[newKey] = data
	m.trackParents(newKey)
	return nil
}

// trackParents registers every ancestor directory of a file path.
func (m *Mem) trackParents(file string) {
	dir := path.Dir(file)
	for dir != "." && dir != "/" {
		m.dirs[dir] = struct{}{}
		dir = path.Dir(dir)
	}
	m.dirs["."] = struct{}{}
}

// FixedClock always reports the same instant; handy in history tests.
type FixedClock struct {
	At time.Time
}

func (c FixedClock) Now() time.Time {
	return c.At
}
