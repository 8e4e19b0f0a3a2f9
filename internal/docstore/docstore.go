// Package docstore stores uploaded loan documents on disk. It holds file
// bytes only; document metadata lives in the database.
package docstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/loanworks/loan-service/internal/lmserr"
)

var allowedExtensions = map[string]bool{
	"txt": true, "pdf": true, "png": true, "jpg": true,
	"jpeg": true, "gif": true, "doc": true, "docx": true,
}

// Store saves and opens uploaded files under a base directory.
type Store struct {
	dir string
}

// NewStore creates the upload directory if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Saved describes a stored file.
type Saved struct {
	Filename string
	Path     string
	Type     string
	Size     int64
}

// Save writes the uploaded content to disk under a unique name derived
// from the original filename. Disallowed extensions are rejected before
// anything is written.
func (s *Store) Save(originalName string, content io.Reader) (*Saved, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
	if !allowedExtensions[ext] {
		return nil, lmserr.Validationf("file type %q is not allowed", ext)
	}

	name := fmt.Sprintf("%s_%s", uuid.New(), filepath.Base(originalName))
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, content)
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write file: %w", err)
	}

	return &Saved{Filename: name, Path: path, Type: ext, Size: size}, nil
}

// Open returns a reader over a stored file.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stored file: %w", err)
	}
	return f, nil
}
