// Package uploads stores user-uploaded documents on disk.
package uploads

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/research-copilot/copilot/pkg/config"
)

var (
	// ErrDisallowedType is returned for file types outside the allowlist.
	ErrDisallowedType = errors.New("file type is not allowed")

	// ErrNotFound is returned when a stored document doesn't exist.
	ErrNotFound = errors.New("uploaded file not found")
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Store manages the upload directory.
type Store struct {
	dir     string
	allowed map[string]bool
	maxSize int64

	// Serializes collision resolution so concurrent uploads of the
	// same name get distinct suffixes.
	mu sync.Mutex
}

// NewStore creates the upload directory if needed.
func NewStore(cfg *config.UploadsConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	allowed := make(map[string]bool, len(cfg.AllowedExtensions))
	for _, ext := range cfg.AllowedExtensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	return &Store{
		dir:     cfg.Dir,
		allowed: allowed,
		maxSize: cfg.MaxFileSize,
	}, nil
}

// Dir returns the upload directory path.
func (s *Store) Dir() string { return s.dir }

// MaxFileSize returns the per-file size limit in bytes.
func (s *Store) MaxFileSize() int64 { return s.maxSize }

// Allowed reports whether the filename's extension is on the allowlist.
func (s *Store) Allowed(filename string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext != "" && s.allowed[ext]
}

// Save writes an uploaded file, returning the name it was stored
// under. Name collisions are resolved with numeric suffixes, so a
// second report.pdf becomes report_1.pdf.
func (s *Store) Save(r io.Reader, filename string) (string, error) {
	name := SanitizeFilename(filename)
	if name == "" {
		return "", fmt.Errorf("invalid filename: %q", filename)
	}
	if !s.Allowed(name) {
		return "", fmt.Errorf("%w: %s", ErrDisallowedType, filepath.Ext(name))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	name, err := s.resolveCollision(name)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return name, nil
}

// Path resolves a stored document name to its on-disk path.
// Rejects anything that would escape the upload directory.
func (s *Store) Path(name string) (string, error) {
	if name != filepath.Base(name) || name == "." || name == ".." {
		return "", fmt.Errorf("invalid document name: %q", name)
	}

	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	return path, nil
}

func (s *Store) resolveCollision(name string) (string, error) {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	candidate := name
	for i := 1; ; i++ {
		if _, err := os.Stat(filepath.Join(s.dir, candidate)); os.IsNotExist(err) {
			return candidate, nil
		} else if err != nil && !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to stat file: %w", err)
		}
		candidate = fmt.Sprintf("%s_%d%s", base, i, ext)
	}
}

// SanitizeFilename strips path components and unsafe characters.
func SanitizeFilename(filename string) string {
	name := filepath.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeChars.ReplaceAllString(name, "")
	name = strings.Trim(name, "._")
	if name == "" {
		return ""
	}
	return name
}
