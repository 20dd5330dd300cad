// Package storage keeps uploaded map packages and preview images on local disk.
// Callers only ever see relative references; Path resolves them under the root.
package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrTooLarge        = errors.New("file too large")
	ErrInvalidRef      = errors.New("invalid file reference")
)

const (
	mapsDir     = "maps"
	previewsDir = "previews"
)

// Store is the file collaborator used by the map and account services.
type Store interface {
	SaveMap(originalName string, r io.Reader) (ref string, err error)
	SavePreview(mapID int64, r io.Reader) (ref string, err error)
	Path(ref string) (string, error)
	Delete(ref string) error
}

type FileStore struct {
	root       string
	maxSize    int64
	extensions []string
}

// NewFileStore creates root if needed. extensions are matched case-insensitively
// and must include the leading dot.
func NewFileStore(root string, maxSize int64, extensions []string) (*FileStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	exts := make([]string, 0, len(extensions))
	for _, e := range extensions {
		exts = append(exts, strings.ToLower(e))
	}
	return &FileStore{root: root, maxSize: maxSize, extensions: exts}, nil
}

// AllowedExtension reports whether name carries one of the configured extensions.
func (s *FileStore) AllowedExtension(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range s.extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// SaveMap writes a map package under maps/ with a fresh uuid name that keeps the
// original extension. Nothing is left on disk when it fails.
func (s *FileStore) SaveMap(originalName string, r io.Reader) (string, error) {
	if !s.AllowedExtension(originalName) {
		return "", fmt.Errorf("%w: allowed types: %s", ErrUnsupportedType, strings.Join(s.extensions, ", "))
	}
	ref := filepath.ToSlash(filepath.Join(mapsDir, uuid.New().String()+strings.ToLower(filepath.Ext(originalName))))
	if err := s.write(ref, r, s.maxSize); err != nil {
		return "", err
	}
	return ref, nil
}

// SavePreview writes previews/map_<id>.png, replacing any earlier preview.
func (s *FileStore) SavePreview(mapID int64, r io.Reader) (string, error) {
	ref := fmt.Sprintf("%s/map_%d.png", previewsDir, mapID)
	if err := s.write(ref, r, s.maxSize); err != nil {
		return "", err
	}
	return ref, nil
}

func (s *FileStore) write(ref string, r io.Reader, limit int64) error {
	full, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	f, err := os.Create(full)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	// one extra byte tells an exact-limit file from an oversized one
	n, err := io.Copy(f, io.LimitReader(r, limit+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > limit {
		err = fmt.Errorf("%w: maximum size is %d bytes", ErrTooLarge, limit)
	}
	if err != nil {
		_ = os.Remove(full)
		if errors.Is(err, ErrTooLarge) {
			return err
		}
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// Path resolves ref to an absolute location under the store root. References
// that would escape the root are rejected.
func (s *FileStore) Path(ref string) (string, error) {
	if ref == "" || filepath.IsAbs(ref) {
		return "", ErrInvalidRef
	}
	clean := filepath.Clean(filepath.FromSlash(ref))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.root, clean), nil
}

// Delete removes the file behind ref. A file that is already gone is not an error.
func (s *FileStore) Delete(ref string) error {
	full, err := s.Path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}
