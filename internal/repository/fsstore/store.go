package fsstore

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Store defines the filesystem operations the stager needs.
type Store interface {
	// Exists reports whether path names an existing entry.
	Exists(path string) (bool, error)
	// IsDir reports whether path names an existing directory.
	IsDir(path string) (bool, error)
	// Copy writes the bytes of src to a new file at dst.
	Copy(src, dst string) (int64, error)
}

// FileStore implements Store on an afero filesystem.
type FileStore struct {
	// fs is the underlying filesystem.
	fs afero.Fs
}

// DefaultFileMode is used for files created by Copy.
const DefaultFileMode os.FileMode = 0o644

// ErrNotRegularFile is returned when a copy source is a directory or a special file.
var ErrNotRegularFile = errors.New("not a regular file")

// New wraps fs in a FileStore.
func New(fs afero.Fs) *FileStore {
	return &FileStore{
		fs: fs,
	}
}

// NewOS returns a FileStore on the real filesystem.
func NewOS() *FileStore {
	return New(afero.NewOsFs())
}

// Exists reports whether path exists. Errors other than "not exist" are returned as is.
func (s *FileStore) Exists(path string) (bool, error) {
	_, err := s.fs.Stat(filepath.Clean(path))
	if err == nil {
		return true, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w", path, err)
}

// IsDir reports whether path exists and is a directory.
func (s *FileStore) IsDir(path string) (bool, error) {
	ok, err := afero.IsDir(s.fs, filepath.Clean(path))
	if err == nil {
		return ok, nil
	}

	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}

	return false, fmt.Errorf("stat %s: %w", path, err)
}

// Copy streams src into a newly created dst and returns the number of bytes written.
// An existing dst is never truncated: creation fails with os.ErrExist instead.
func (s *FileStore) Copy(src, dst string) (written int64, err error) {
	info, err := s.fs.Stat(filepath.Clean(src))
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", src, err)
	}

	if !info.Mode().IsRegular() {
		return 0, fmt.Errorf("%s: %w", src, ErrNotRegularFile)
	}

	in, err := s.fs.Open(filepath.Clean(src))
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", src, err)
	}

	defer multierr.AppendInvoke(&err, multierr.Close(in))

	out, err := s.fs.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_EXCL, DefaultFileMode)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", dst, err)
	}

	written, err = io.Copy(out, in)
	err = multierr.Append(err, out.Close())

	if err != nil {
		// A truncated dst would be skipped as already staged on the next run.
		_ = s.fs.Remove(filepath.Clean(dst))

		return written, fmt.Errorf("copy %s to %s: %w", src, dst, err)
	}

	return written, nil
}
