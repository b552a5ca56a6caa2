package fsio

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vortexhq/vortex/internal/errdef"
)

func TestOSReadFileNotFound(t *testing.T) {
	t.Parallel()

	_, err := OS{}.ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.json"))
	if !errdef.IsCode(err, errdef.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestOSReadDirSorted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	for _, name := range []string{"zeta.json", "alpha.json", "mid.json"} {
		if err := (OS{}).WriteFile(ctx, filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	entries, err := OS{}.ReadDir(ctx, dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	want := []string{"alpha.json", "mid.json", "zeta.json"}
	if len(entries) != len(want) {
		t.Fatalf("entries = %#v", entries)
	}
	for i, entry := range entries {
		if entry.Name != want[i] {
			t.Fatalf("entries[%d] = %q, want %q", i, entry.Name, want[i])
		}
	}
}

func TestOSRespectsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := (OS{}).ReadFile(ctx, "whatever"); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := (OS{}).WriteFile(ctx, "whatever", nil, 0o644); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWriteFileAtomic(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()
	target := filepath.Join(dir, "doc.json")

	if err := WriteFileAtomic(ctx, OS{}, target, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("atomic write: %v", err)
	}

	data, err := OS{}.ReadFile(ctx, target)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "{}\n" {
		t.Fatalf("content = %q", data)
	}

	// no temp file left behind
	entries, err := OS{}.ReadDir(ctx, dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the target file, got %#v", entries)
	}
}

func TestMemFS(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := NewMem()

	if err := mem.MkdirAll(ctx, "a/b", 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := mem.WriteFile(ctx, "a/b/z.json", []byte("z"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mem.WriteFile(ctx, "a/b/a.json", []byte("a"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	entries, err := mem.ReadDir(ctx, "a/b")
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "a.json" || entries[1].Name != "z.json" {
		t.Fatalf("entries = %#v", entries)
	}

	if err := mem.Rename(ctx, "a/b/a.json", "a/b/renamed.json"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if exists, _ := mem.Exists(ctx, "a/b/a.json"); exists {
		t.Fatalf("old name should be gone")
	}
	data, err := mem.ReadFile(ctx, "a/b/renamed.json")
	if err != nil || string(data) != "a" {
		t.Fatalf("read renamed: %q, %v", data, err)
	}

	if err := mem.Remove(ctx, "a/b/missing.json"); !errdef.IsCode(err, errdef.CodeNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
	if _, err := mem.ReadDir(ctx, "a/b/renamed.json"); !errdef.IsCode(err, errdef.CodeNotFound) {
		t.Fatalf("listing a file should be not-found, got %v", err)
	}
}

func TestMemParentDirsTracked(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mem := NewMem()

	if err := mem.WriteFile(ctx, "x/y/z/file.json", []byte("{}"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, dir := range []string{"x", "x/y", "x/y/z"} {
		exists, err := mem.Exists(ctx, dir)
		if err != nil || !exists {
			t.Fatalf("expected implicit dir %s (err=%v)", dir, err)
		}
	}

	entries, err := mem.ReadDir(ctx, "x")
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "y" || !entries[0].Dir {
		t.Fatalf("entries = %#v", entries)
	}
}
