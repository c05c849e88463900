package artifact

import (
	"io"
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/housing/pkg/errors"
)

// FileStore keeps each artifact as a file in Dir.
type FileStore struct {
	Dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on
// the first Save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

// Location returns the store directory.
func (s *FileStore) Location() string { return s.Dir }

func (s *FileStore) path(name string) string {
	return filepath.Join(s.Dir, name)
}

// Exists reports whether the artifact file is present.
func (s *FileStore) Exists(name string) (bool, error) {
	_, err := os.Stat(s.path(name))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, errors.Wrapf(err, "stat %s", s.path(name))
	}
}

// Open opens the artifact file for reading.
func (s *FileStore) Open(name string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewArtifactNotFoundError(name, s.Dir)
		}
		return nil, errors.Wrapf(err, "open %s", s.path(name))
	}
	return f, nil
}

// Save writes to a temporary file in Dir and renames it over name.
func (s *FileStore) Save(name string, write func(io.Writer) error) (err error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrapf(err, "create %s", s.Dir)
	}
	tmp, err := os.CreateTemp(s.Dir, name+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "create temp file for %s", name)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if err := write(tmp); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrapf(err, "sync %s", name)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "close %s", name)
	}
	if err := os.Rename(tmp.Name(), s.path(name)); err != nil {
		return errors.Wrapf(err, "rename %s", name)
	}
	return nil
}
