package storage

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// LocalStorage persists uploaded media on disk and maps stored files to public URLs.
type LocalStorage struct {
	baseDir string
	baseURL string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
func NewLocalStorage(baseDir, baseURL string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./media"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create media directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Save writes r under folder with a random file name keeping ext, and returns
// the path relative to the base directory.
func (s *LocalStorage) Save(folder, ext string, r io.Reader) (string, error) {
	folder = strings.Trim(path.Clean("/"+folder), "/")
	rel := path.Join(folder, uuid.NewString()+strings.ToLower(ext))
	target, err := s.resolve(rel)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("prepare media directory: %w", err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	defer file.Close() //nolint:errcheck
	if _, err := io.Copy(file, r); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write media file: %w", err)
	}
	return rel, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(rel string) (*os.File, error) {
	target, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(target)
	if err != nil {
		return nil, fmt.Errorf("open media file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(rel string) error {
	target, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete media file: %w", err)
	}
	return nil
}

// PublicURL returns the URL the static file route serves rel from.
func (s *LocalStorage) PublicURL(rel string) string {
	return s.baseURL + "/" + strings.TrimLeft(filepath.ToSlash(rel), "/")
}

// Dir exposes the base directory for the static file route.
func (s *LocalStorage) Dir() string {
	return s.baseDir
}

func (s *LocalStorage) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid media path %q", rel)
	}
	return filepath.Join(s.baseDir, clean), nil
}
