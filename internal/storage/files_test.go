package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalSavePathRemove(t *testing.T) {
	l := NewLocal(t.TempDir())

	rel, err := l.Save(strings.NewReader("hello world"), "projects/abc", "contract.pdf", 5)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if rel != "projects/abc/contract.pdf" {
		t.Errorf("rel = %q", rel)
	}
	abs, err := l.Path(rel)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "hello" {
		t.Errorf("content = %q, want size-limited %q", b, "hello")
	}

	if err := l.Remove(rel); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := l.Path(rel); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Path after remove = %v, want ErrFileNotFound", err)
	}
	if err := l.Remove(rel); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestLocalRejectsEscapingPaths(t *testing.T) {
	l := NewLocal(t.TempDir())
	if _, err := l.Save(strings.NewReader("x"), "../outside", "f.txt", 0); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Save outside root = %v", err)
	}
	if _, err := l.Path("../../etc/passwd"); !errors.Is(err, ErrFileNotFound) {
		t.Errorf("Path outside root = %v", err)
	}
}

func TestExt(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Contract.PDF", "pdf"},
		{"a.b.docx", "docx"},
		{"noext", ""},
	}
	for _, tt := range tests {
		if got := Ext(tt.in); got != tt.want {
			t.Errorf("Ext(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

type brokenReader struct{ n int }

func (r *brokenReader) Read(p []byte) (int, error) {
	if r.n == 0 {
		return 0, errors.New("connection reset")
	}
	n := copy(p, strings.Repeat("z", r.n))
	r.n -= n
	return n, nil
}

func TestLocalSaveKeepsOldFileOnFailedCopy(t *testing.T) {
	root := t.TempDir()
	l := NewLocal(root)

	rel, err := l.Save(strings.NewReader("signed v1"), "projects/abc", "contract.pdf", 0)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := l.Save(&brokenReader{n: 3}, "projects/abc", "contract.pdf", 0); err == nil {
		t.Fatal("expected copy error")
	}

	abs, err := l.Path(rel)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	b, err := os.ReadFile(abs)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "signed v1" {
		t.Errorf("content = %q, want the previous file untouched", b)
	}
	entries, err := os.ReadDir(filepath.Join(root, "projects", "abc"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("dir has %d entries, want only the contract", len(entries))
	}

	if _, err := l.Save(strings.NewReader("signed v2"), "projects/abc", "contract.pdf", 0); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if b, _ := os.ReadFile(abs); string(b) != "signed v2" {
		t.Errorf("content after replace = %q", b)
	}
}
