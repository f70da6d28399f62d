// Package attachments stores uploaded image bytes on a filesystem. The
// database keeps only the resulting path; this package owns the files.
package attachments

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultExtension is used when the uploaded filename has none.
const DefaultExtension = "png"

// FileStore writes attachment files under a single directory.
type FileStore struct {
	fs  afero.Fs
	dir string
}

// NewFileStore returns a FileStore rooted at dir on fs. The directory is
// created on first Save.
func NewFileStore(fs afero.Fs, dir string) *FileStore {
	return &FileStore{fs: fs, dir: dir}
}

// NewOSFileStore returns a FileStore on the real filesystem.
func NewOSFileStore(dir string) *FileStore {
	return NewFileStore(afero.NewOsFs(), dir)
}

// Dir is the directory files are written to.
func (s *FileStore) Dir() string { return s.dir }

// StoredName builds the on-disk name for an upload: the attachment id, the
// original name with every '.' turned into '_', and the original extension.
//
//	StoredName("abc", "photo.jpg") == "abc_photo_jpg.jpg"
func StoredName(id, filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		ext = DefaultExtension
	}
	return fmt.Sprintf("%s_%s.%s", id, strings.ReplaceAll(filename, ".", "_"), ext)
}

// Save writes data for attachment id and returns the full path and stored
// file name.
func (s *FileStore) Save(id, filename string, data []byte) (path, stored string, err error) {
	if id == "" {
		return "", "", fmt.Errorf("save attachment: empty id")
	}
	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("create attachment dir: %w", err)
	}
	stored = StoredName(id, filepath.Base(filename))
	path = filepath.Join(s.dir, stored)
	if err := afero.WriteFile(s.fs, path, data, 0o644); err != nil {
		return "", "", fmt.Errorf("write attachment %s: %w", stored, err)
	}
	return path, stored, nil
}

// Read returns the bytes of the file at path.
func (s *FileStore) Read(path string) ([]byte, error) {
	data, err := afero.ReadFile(s.fs, path)
	if err != nil {
		return nil, fmt.Errorf("read attachment: %w", err)
	}
	return data, nil
}

// Remove deletes the file at path. A file that is already gone is not an
// error.
func (s *FileStore) Remove(path string) error {
	if path == "" {
		return nil
	}
	err := s.fs.Remove(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("remove attachment: %w", err)
}
