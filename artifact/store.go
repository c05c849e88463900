// Package artifact persists the versioned outputs of the pipeline: the
// fitted preprocessor, the trained model and the train/test partitions.
//
// Artifacts are named by kind and version (imputer_v1, model_v1,
// train_v1.csv, test_v1.csv). A Store only moves bytes; encoding is done by
// the helpers in codec.go.
package artifact

import (
	"io"

	"github.com/YuminosukeSato/housing/config"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// Store is a flat namespace of named artifacts.
type Store interface {
	// Exists reports whether name has been saved.
	Exists(name string) (bool, error)
	// Open returns the content of name. A missing artifact yields an
	// *errors.ArtifactNotFoundError.
	Open(name string) (io.ReadCloser, error)
	// Save replaces name with what write produces. Readers never observe a
	// partially written artifact.
	Save(name string, write func(io.Writer) error) error
	// Location describes where the store lives, for logs and errors.
	Location() string
}

// ImputerName is the name of the fitted preprocessor for version.
func ImputerName(version string) string { return "imputer_" + version }

// ModelName is the name of the trained model for version.
func ModelName(version string) string { return "model_" + version }

// TrainName is the name of the training partition for version.
func TrainName(version string) string { return "train_" + version + ".csv" }

// TestName is the name of the test partition for version.
func TestName(version string) string { return "test_" + version + ".csv" }

// Stores pairs the model store with the partition store.
type Stores struct {
	Models Store // imputer_<v>, model_<v>
	Data   Store // train_<v>.csv, test_<v>.csv

	closer io.Closer
}

// Open builds the stores selected by cfg. With the file backend, models go
// under paths.ModelsPath and partitions under paths.ModelDataPath. With the
// bolt backend both live in one database file as separate buckets.
func Open(cfg config.StoreConfig, paths config.Paths) (*Stores, error) {
	switch cfg.Kind {
	case config.FileStore:
		return &Stores{
			Models: NewFileStore(paths.ModelsPath),
			Data:   NewFileStore(paths.ModelDataPath),
		}, nil
	case config.BoltStore:
		db, err := OpenBolt(cfg.BoltPath)
		if err != nil {
			return nil, err
		}
		models, err := db.Bucket(ModelsBucket)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		data, err := db.Bucket(DataBucket)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		return &Stores{Models: models, Data: data, closer: db}, nil
	default:
		return nil, errors.NewConfigError("artifact_store", cfg.Kind.String(), "unknown artifact store")
	}
}

// Close releases the backend. It is a no-op for the file backend.
func (s *Stores) Close() error {
	if s == nil || s.closer == nil {
		return nil
	}
	return s.closer.Close()
}
