package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Pengchengistaken/ocmirror/internal/engine"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	r := &Reporter{
		Dir: dir,
		Now: func() time.Time { return time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC) },
	}

	path, err := r.Write([]engine.FailedFile{
		{RemotePath: "docs/handbook.pdf", LocalPath: "/data/docs/handbook.pdf"},
		{RemotePath: "photos/trip 2023/img 001.jpg", LocalPath: "/data/photos/trip 2023/img 001.jpg"},
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if path != filepath.Join(dir, FileName) {
		t.Errorf("report path = %q, want it under %q as %s", path, dir, FileName)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	text := string(content)

	for _, want := range []string{
		"ocmirror failure report",
		"generated: 2024-03-01 12:30:00",
		"failed files: 2",
		"1. docs/handbook.pdf",
		"2. photos/trip 2023/img 001.jpg",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report missing %q:\n%s", want, text)
		}
	}
}

func TestWriteEmpty(t *testing.T) {
	dir := t.TempDir()
	r := &Reporter{Dir: dir}

	path, err := r.Write(nil)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if !strings.Contains(string(content), "failed files: 0") {
		t.Errorf("empty report does not state zero failures:\n%s", content)
	}
}

func TestWriteReplacesPrevious(t *testing.T) {
	dir := t.TempDir()
	r := &Reporter{Dir: dir}

	if _, err := r.Write([]engine.FailedFile{{RemotePath: "a.txt"}, {RemotePath: "b.txt"}}); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := r.Write([]engine.FailedFile{{RemotePath: "b.txt"}}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("reading report: %v", err)
	}
	if strings.Contains(string(content), "a.txt") {
		t.Errorf("report still lists a file from the previous run:\n%s", content)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("listing report dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("report dir has %d entries, want only the report", len(entries))
	}
}
