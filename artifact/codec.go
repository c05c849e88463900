package artifact

import (
	"io"

	"github.com/YuminosukeSato/housing/core/model"
	"github.com/YuminosukeSato/housing/dataset"
	"github.com/YuminosukeSato/housing/pkg/errors"
)

// SaveGob encodes v with gob under name.
func SaveGob(s Store, name string, v interface{}) error {
	return s.Save(name, func(w io.Writer) error {
		return model.SaveModelToWriter(v, w)
	})
}

// LoadGob decodes name into v, which must be a pointer.
func LoadGob(s Store, name string, v interface{}) (err error) {
	rc, err := s.Open(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", name)
		}
	}()
	if err := model.LoadModelFromReader(v, rc); err != nil {
		return errors.Wrapf(err, "decode %s from %s", name, s.Location())
	}
	return nil
}

// SaveFrame writes f as CSV under name.
func SaveFrame(s Store, name string, f *dataset.Frame) error {
	return s.Save(name, f.WriteCSV)
}

// LoadFrame reads the CSV artifact name.
func LoadFrame(s Store, name string) (_ *dataset.Frame, err error) {
	rc, err := s.Open(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", name)
		}
	}()
	f, err := dataset.ReadCSV(rc)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s from %s", name, s.Location())
	}
	return f, nil
}
