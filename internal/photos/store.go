// Package photos keeps inspection photos on the local filesystem.
package photos

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"beespeak/internal/ports"
)

var ErrEmptyPhoto = errors.New("photo data is empty")

// Store writes photos as <hiveID>_<uuid>.jpg under dir.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

func (s *Store) Dir() string {
	return s.dir
}

// Save writes data and returns the absolute path of the new file.
func (s *Store) Save(hiveID uuid.UUID, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyPhoto
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create photo dir: %w", err)
	}

	name := fmt.Sprintf("%s_%s.jpg", hiveID, uuid.New())
	path, err := filepath.Abs(filepath.Join(s.dir, name))
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write photo: %w", err)
	}
	return path, nil
}

// Delete removes the photo. A file that is already gone is not an error.
func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

var _ ports.PhotoStore = (*Store)(nil)
