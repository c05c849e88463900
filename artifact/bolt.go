package artifact

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/YuminosukeSato/housing/pkg/errors"
)

// Bucket names used by Open.
const (
	ModelsBucket = "models"
	DataBucket   = "model_data"
)

// openTimeout bounds the wait for the file lock held by another process.
const openTimeout = 5 * time.Second

// BoltDB is a bbolt database holding one bucket per Store.
type BoltDB struct {
	db   *bolt.DB
	path string
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*BoltDB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "create %s", dir)
		}
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: openTimeout})
	if err != nil {
		return nil, errors.Wrapf(err, "open bolt database %s", path)
	}
	return &BoltDB{db: db, path: path}, nil
}

// Bucket returns a Store backed by the named bucket, creating it if needed.
func (b *BoltDB) Bucket(name string) (*BoltStore, error) {
	err := b.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(name))
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "create bucket %s", name)
	}
	return &BoltStore{db: b.db, bucket: []byte(name), location: b.path + ":" + name}, nil
}

// Close closes the database.
func (b *BoltDB) Close() error {
	if err := b.db.Close(); err != nil {
		return errors.Wrapf(err, "close bolt database %s", b.path)
	}
	return nil
}

// BoltStore keeps artifacts as values in one bucket.
type BoltStore struct {
	db       *bolt.DB
	bucket   []byte
	location string
}

// Location returns "<db path>:<bucket>".
func (s *BoltStore) Location() string { return s.location }

// Exists reports whether the key is present.
func (s *BoltStore) Exists(name string) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		found = tx.Bucket(s.bucket).Get([]byte(name)) != nil
		return nil
	})
	return found, err
}

// Open returns a copy of the stored value.
func (s *BoltStore) Open(name string) (io.ReadCloser, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(s.bucket).Get([]byte(name))
		if v == nil {
			return errors.NewArtifactNotFoundError(name, s.location)
		}
		// v is only valid inside the transaction
		data = bytes.Clone(v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Save buffers the artifact and stores it in a single transaction.
func (s *BoltStore) Save(name string, write func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		return errors.Wrapf(err, "write %s", name)
	}
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put([]byte(name), buf.Bytes())
	})
	if err != nil {
		return errors.Wrapf(err, "put %s", name)
	}
	return nil
}
