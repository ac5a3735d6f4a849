// Local disk storage for contract documents and generated reports.
// Paths stored in the DB are relative to the storage root.
package storage

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
)

var (
	ErrFileRequired    = domain.Invalid("file", "error.file_required")
	ErrFileTooLarge    = domain.Invalid("file", "error.file_too_large")
	ErrInvalidFileType = domain.Invalid("file", "error.invalid_file_type")
	ErrFileNotFound    = domain.NewError(domain.ErrNotFound, "error.file_not_found")
)

// ContractExtensions are the accepted contract document types.
var ContractExtensions = map[string]bool{"pdf": true, "doc": true, "docx": true}

type Local struct {
	root string
}

func NewLocal(root string) *Local {
	return &Local{root: root}
}

func Ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// ValidateUpload checks size and extension without saving.
func ValidateUpload(file *multipart.FileHeader, maxBytes int64, allowed map[string]bool) error {
	if file == nil || file.Size <= 0 {
		return ErrFileRequired
	}
	if file.Size > maxBytes {
		return ErrFileTooLarge
	}
	if ext := Ext(file.Filename); ext == "" || !allowed[ext] {
		return ErrInvalidFileType
	}
	return nil
}

// SaveUpload stores a multipart file as dir/baseName.<ext> and returns the relative path.
func (l *Local) SaveUpload(file *multipart.FileHeader, dir, baseName string, maxBytes int64) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()
	return l.Save(src, dir, baseName+"."+Ext(file.Filename), maxBytes)
}

// Save copies at most maxBytes from src into dir/name under the root. The
// data goes to a temp file first and is renamed into place, so a failed copy
// never leaves a truncated file at the final path.
func (l *Local) Save(src io.Reader, dir, name string, maxBytes int64) (string, error) {
	rel := filepath.Join(dir, name)
	abs, ok := l.resolve(rel)
	if !ok {
		return "", ErrFileNotFound
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(abs), "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())
	if maxBytes > 0 {
		src = io.LimitReader(src, maxBytes)
	}
	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), abs); err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Path returns the absolute path of an existing stored file.
func (l *Local) Path(rel string) (string, error) {
	if rel == "" {
		return "", ErrFileNotFound
	}
	abs, ok := l.resolve(rel)
	if !ok {
		return "", ErrFileNotFound
	}
	if _, err := os.Stat(abs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrFileNotFound
		}
		return "", err
	}
	return abs, nil
}

// Remove deletes a stored file; a missing file is not an error.
func (l *Local) Remove(rel string) error {
	if rel == "" {
		return nil
	}
	abs, ok := l.resolve(rel)
	if !ok {
		return nil
	}
	if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// resolve joins rel to the root and refuses paths escaping it.
func (l *Local) resolve(rel string) (string, bool) {
	root := filepath.Clean(l.root)
	abs := filepath.Clean(filepath.Join(root, filepath.FromSlash(rel)))
	if abs != root && !strings.HasPrefix(abs, root+string(filepath.Separator)) {
		return "", false
	}
	return abs, true
}
