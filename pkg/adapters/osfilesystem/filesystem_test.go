package osfilesystem

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileSystem_WriteFile(t *testing.T) {
	tests := []struct {
		name string
		rel  string
	}{
		{"debug frame", "frames/decoded/frame-000001.png"},
		{"probe report", "probe.json"},
		{"nested export", "export/a4c/panel/tick-000010.png"},
	}

	fs := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), tt.rel)
			want := []byte(tt.name)

			if err := fs.WriteFile(path, want); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			got, err := fs.ReadFile(path)
			if err != nil {
				t.Fatalf("ReadFile: %v", err)
			}
			if !bytes.Equal(got, want) {
				t.Errorf("read %q, want %q", got, want)
			}
			if size, err := fs.Size(path); err != nil || size != int64(len(want)) {
				t.Errorf("Size = %d, %v; want %d", size, err, len(want))
			}
		})
	}
}

func TestFileSystem_Size(t *testing.T) {
	fs := New()
	dir := t.TempDir()

	if _, err := fs.Size(dir); err == nil {
		t.Error("expected error for a directory")
	}
	if _, err := fs.Size(filepath.Join(dir, "missing.mp4")); !os.IsNotExist(err) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}

func TestFileSystem_ExistsAndRemove(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	clip := filepath.Join(dir, "converted", "clip.mp4")

	if err := fs.MkdirAll(filepath.Dir(clip)); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := fs.WriteFile(clip, []byte("mp4")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	for _, p := range []string{filepath.Dir(clip), clip} {
		if ok, err := fs.Exists(p); err != nil || !ok {
			t.Errorf("Exists(%s) = %v, %v", p, ok, err)
		}
	}

	if err := fs.Remove(clip); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if ok, err := fs.Exists(clip); err != nil || ok {
		t.Errorf("Exists after Remove = %v, %v", ok, err)
	}
	if err := fs.Remove(clip); err == nil {
		t.Error("expected error removing a missing file")
	}
}

func TestFileSystem_WriteFileReplaces(t *testing.T) {
	fs := New()
	dir := t.TempDir()
	path := filepath.Join(dir, "probe.json")

	for _, content := range []string{`{"first": true}`, `{}`} {
		if err := fs.WriteFile(path, []byte(content)); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
		got, err := fs.ReadFile(path)
		if err != nil || string(got) != content {
			t.Fatalf("ReadFile = %q, %v; want %q", got, err, content)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected no temporary files left, found %d entries", len(entries))
	}
}
