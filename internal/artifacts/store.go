// Package artifacts stores generated outputs (documents, audio, images) on
// the filesystem under opaque references. References are plain file names so
// they stay portable across API responses and notifications.
package artifacts

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"litany/internal/services"
)

// Kind labels what an artifact holds.
type Kind string

const (
	KindDocument Kind = "document"
	KindAudio    Kind = "audio"
	KindImage    Kind = "image"
)

// Store persists artifacts under a single directory.
type Store struct {
	root string
}

// New creates the artifact directory if needed and returns the store.
func New(root string) (*Store, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("artifact store: root directory required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("artifact store: create root: %w", err)
	}
	return &Store{root: root}, nil
}

// Root returns the backing directory.
func (s *Store) Root() string {
	return s.root
}

// Put writes data and returns an opaque reference for later retrieval.
func (s *Store) Put(processID string, kind Kind, ext string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("artifact store: empty data")
	}
	ext = strings.TrimPrefix(strings.TrimSpace(ext), ".")
	name := fmt.Sprintf("%s-%s-%s", sanitizeComponent(processID), kind, uuid.NewString()[:8])
	if ext != "" {
		name += "." + ext
	}
	path := filepath.Join(s.root, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("artifact store: write %s: %w", name, err)
	}
	return name, nil
}

// Get reads an artifact back by reference.
func (s *Store) Get(ref string) ([]byte, error) {
	path, err := s.Path(ref)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, services.Wrap(services.ErrNotFound, "", "get artifact", ref, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("artifact store: read %s: %w", ref, err)
	}
	return data, nil
}

// Path resolves a reference to its absolute location, rejecting anything
// that could escape the root directory.
func (s *Store) Path(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" || ref != filepath.Base(ref) || strings.HasPrefix(ref, ".") {
		return "", services.Wrap(services.ErrValidation, "", "resolve artifact", fmt.Sprintf("invalid reference %q", ref), nil)
	}
	return filepath.Join(s.root, ref), nil
}

func sanitizeComponent(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "anon"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
