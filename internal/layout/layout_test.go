package layout

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/Pengchengistaken/ocmirror/internal/remote"
)

func TestResolve(t *testing.T) {
	root := t.TempDir()
	m, err := NewMapper(root)
	if err != nil {
		t.Fatalf("NewMapper: %v", err)
	}

	tests := []struct {
		name     string
		segments []string
		want     string // relative to root; "" = expect error
	}{
		{"root itself", nil, "."},
		{"single file", []string{"readme.txt"}, "readme.txt"},
		{"nested", []string{"docs", "img", "photo.jpg"}, filepath.Join("docs", "img", "photo.jpg")},
		{"dotdot segment", []string{"..", "etc", "passwd"}, ""},
		{"hidden dotdot", []string{"docs", "..", "..", "escape"}, ""},
		{"empty segment", []string{"docs", ""}, ""},
		{"dot segment", []string{"."}, ""},
		{"slash in name", []string{"a/b"}, ""},
		{"backslash in name", []string{`a\b`}, ""},
		{"nul in name", []string{"a\x00b"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Resolve(tt.segments)
			if tt.want == "" {
				if err == nil {
					t.Fatalf("Resolve(%q) = %q, want error", tt.segments, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve(%q): %v", tt.segments, err)
			}
			want := filepath.Clean(filepath.Join(root, tt.want))
			if got != want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.segments, got, want)
			}
		})
	}
}

func TestEnsureDirIdempotent(t *testing.T) {
	root := t.TempDir()
	m, _ := NewMapper(root)

	dir := filepath.Join(root, "a", "b", "c")
	if err := m.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir: %v", err)
	}
	if err := m.EnsureDir(dir); err != nil {
		t.Fatalf("EnsureDir (second call): %v", err)
	}

	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}
}

func TestOracleIsComplete(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "file.bin")
	if err := os.WriteFile(path, []byte("0123456789"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		node remote.Node
		path string
		want bool
	}{
		{"present, size matches", remote.Node{Size: 10}, path, true},
		{"present, no remote size", remote.Node{Size: -1}, path, true},
		{"present, remote larger", remote.Node{Size: 11}, path, false},
		{"present, remote smaller", remote.Node{Size: 9}, path, false},
		{"absent", remote.Node{Size: 10}, filepath.Join(dir, "missing"), false},
		{"directory, not file", remote.Node{Size: -1}, dir, false},
	}

	var o Oracle
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := o.IsComplete(tt.node, tt.path); got != tt.want {
				t.Errorf("IsComplete = %v, want %v", got, tt.want)
			}
		})
	}
}
