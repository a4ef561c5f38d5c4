package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/timevault-dev/timevault/internal/domain"
	"github.com/timevault-dev/timevault/internal/service"
)

// Storage keeps capsule images on the local filesystem under
// root/<capsuleId>/<imageName>.
type Storage struct {
	rootPath string
}

// Ensure Storage implements the interface at compile time.
var _ service.MediaStorage = (*Storage)(nil)

func New(rootPath string) (*Storage, error) {
	// filepath.Clean prevents path traversal like "media/../"
	p := filepath.Clean(rootPath)

	if err := os.MkdirAll(p, 0755); err != nil {
		return nil, fmt.Errorf("failed to create root storage directory %s: %w", p, err)
	}

	return &Storage{rootPath: p}, nil
}

func (s *Storage) Save(_ context.Context, capsuleId domain.CapsuleId, name string, data io.Reader) error {
	fullPath, err := s.objectPath(capsuleId, name)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create capsule directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, data); err != nil {
		os.Remove(fullPath) // Best effort, ignore error here.
		return fmt.Errorf("failed to copy file data: %w", err)
	}
	return nil
}

func (s *Storage) Read(_ context.Context, capsuleId domain.CapsuleId, name string) (io.ReadCloser, error) {
	fullPath, err := s.objectPath(capsuleId, name)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, service.ErrMediaNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *Storage) Delete(_ context.Context, capsuleId domain.CapsuleId, name string) error {
	fullPath, err := s.objectPath(capsuleId, name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		// already-gone is fine, cleanup is idempotent
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// objectPath refuses any id/name combination that would resolve outside
// rootPath. The service validates names on write, but ids and names also
// flow in from the database and the cleanup queue, so the check lives
// here too.
func (s *Storage) objectPath(capsuleId domain.CapsuleId, name string) (string, error) {
	fullPath := filepath.Join(s.rootPath, capsuleId, name)
	if !strings.HasPrefix(fullPath, s.rootPath+string(filepath.Separator)) {
		return "", fmt.Errorf("object %s/%s escapes the storage root", capsuleId, name)
	}
	return fullPath, nil
}
