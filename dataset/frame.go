// Package dataset provides the column-typed tabular container the pipeline
// moves between stages.
//
// A Frame is an ordered list of named columns of equal length. Numeric
// columns hold float64 values with NaN marking a missing entry; categorical
// columns hold strings with the empty string marking a missing entry.
// Frames are treated as values: every operation returns a new Frame and
// never mutates its receiver.
package dataset

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/housing/pkg/errors"
)

// Kind is the element type of a column.
type Kind int

const (
	// Numeric columns store float64 values, NaN is missing.
	Numeric Kind = iota
	// Categorical columns store strings, "" is missing.
	Categorical
)

// String returns the dtype name of the kind.
func (k Kind) String() string {
	switch k {
	case Numeric:
		return "float64"
	case Categorical:
		return "object"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Missing is the categorical missing marker.
const Missing = ""

// Column is a single named, typed column.
type Column struct {
	Name string
	Kind Kind
	Num  []float64
	Str  []string
}

// NewNumeric returns a numeric column. The slice is not copied.
func NewNumeric(name string, values []float64) *Column {
	return &Column{Name: name, Kind: Numeric, Num: values}
}

// NewCategorical returns a categorical column. The slice is not copied.
func NewCategorical(name string, values []string) *Column {
	return &Column{Name: name, Kind: Categorical, Str: values}
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Num)
	}
	return len(c.Str)
}

// IsMissing reports whether row i is missing.
func (c *Column) IsMissing(i int) bool {
	if c.Kind == Numeric {
		return math.IsNaN(c.Num[i])
	}
	return c.Str[i] == Missing
}

// MissingCount returns the number of missing entries.
func (c *Column) MissingCount() int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// Clone returns a deep copy of the column.
func (c *Column) Clone() *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Num != nil {
		out.Num = append([]float64(nil), c.Num...)
	}
	if c.Str != nil {
		out.Str = append([]string(nil), c.Str...)
	}
	return out
}

// Renamed returns a shallow copy of the column under a new name.
func (c *Column) Renamed(name string) *Column {
	return &Column{Name: name, Kind: c.Kind, Num: c.Num, Str: c.Str}
}

func (c *Column) take(rows []int) *Column {
	out := &Column{Name: c.Name, Kind: c.Kind}
	if c.Kind == Numeric {
		out.Num = make([]float64, len(rows))
		for i, r := range rows {
			out.Num[i] = c.Num[r]
		}
		return out
	}
	out.Str = make([]string, len(rows))
	for i, r := range rows {
		out.Str[i] = c.Str[r]
	}
	return out
}

// Frame is an ordered collection of equally sized columns.
type Frame struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// New builds a frame from columns. Column names must be unique and all
// columns must have the same length.
func New(columns ...*Column) (*Frame, error) {
	f := &Frame{
		columns: make([]*Column, 0, len(columns)),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range columns {
		if c == nil {
			return nil, errors.NewValueError("dataset.New", fmt.Sprintf("column %d is nil", i))
		}
		if _, dup := f.index[c.Name]; dup {
			return nil, errors.NewColumnSchemaError("dataset.New", c.Name, "duplicate column")
		}
		if i == 0 {
			f.rows = c.Len()
		} else if c.Len() != f.rows {
			return nil, errors.NewDimensionError("dataset.New", f.rows, c.Len(), 0)
		}
		f.index[c.Name] = len(f.columns)
		f.columns = append(f.columns, c)
	}
	return f, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(columns ...*Column) *Frame {
	f, err := New(columns...)
	if err != nil {
		panic(err)
	}
	return f
}

// Len returns the number of rows.
func (f *Frame) Len() int { return f.rows }

// Width returns the number of columns.
func (f *Frame) Width() int { return len(f.columns) }

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	names := make([]string, len(f.columns))
	for i, c := range f.columns {
		names[i] = c.Name
	}
	return names
}

// Column returns the named column.
func (f *Frame) Column(name string) (*Column, bool) {
	i, ok := f.index[name]
	if !ok {
		return nil, false
	}
	return f.columns[i], true
}

// Has reports whether the frame has the named column.
func (f *Frame) Has(name string) bool {
	_, ok := f.index[name]
	return ok
}

// At returns the i-th column.
func (f *Frame) At(i int) *Column { return f.columns[i] }

// Kinds returns the kind of every column keyed by name.
func (f *Frame) Kinds() map[string]Kind {
	kinds := make(map[string]Kind, len(f.columns))
	for _, c := range f.columns {
		kinds[c.Name] = c.Kind
	}
	return kinds
}

// NamesOf returns the names of columns with the given kind, in frame order.
func (f *Frame) NamesOf(kind Kind) []string {
	var names []string
	for _, c := range f.columns {
		if c.Kind == kind {
			names = append(names, c.Name)
		}
	}
	return names
}

// Numeric returns the values of a numeric column.
func (f *Frame) Numeric(name string) ([]float64, error) {
	c, ok := f.Column(name)
	if !ok {
		return nil, errors.NewColumnSchemaError("dataset.Numeric", name, "column not found")
	}
	if c.Kind != Numeric {
		return nil, errors.NewColumnSchemaError("dataset.Numeric", name, "column is not numeric")
	}
	return c.Num, nil
}

// Select returns a frame holding the named columns in the given order.
func (f *Frame) Select(names ...string) (*Frame, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c, ok := f.Column(n)
		if !ok {
			return nil, errors.NewColumnSchemaError("dataset.Select", n, "column not found")
		}
		cols = append(cols, c)
	}
	return New(cols...)
}

// Drop returns a frame without the named columns. Unknown names are ignored.
func (f *Frame) Drop(names ...string) *Frame {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	cols := make([]*Column, 0, len(f.columns))
	for _, c := range f.columns {
		if _, ok := drop[c.Name]; !ok {
			cols = append(cols, c)
		}
	}
	out, _ := New(cols...)
	if len(cols) == 0 {
		out.rows = f.rows
	}
	return out
}

// With returns a frame with the column appended, or replaced in place when
// a column of the same name exists.
func (f *Frame) With(col *Column) (*Frame, error) {
	cols := append([]*Column(nil), f.columns...)
	if i, ok := f.index[col.Name]; ok {
		cols[i] = col
	} else {
		cols = append(cols, col)
	}
	return New(cols...)
}

// Take returns the given rows in the given order. The result is indexed
// from zero, the original row positions are not carried over.
func (f *Frame) Take(rows []int) (*Frame, error) {
	for _, r := range rows {
		if r < 0 || r >= f.rows {
			return nil, errors.NewValueError("dataset.Take", fmt.Sprintf("row %d out of range [0,%d)", r, f.rows))
		}
	}
	cols := make([]*Column, len(f.columns))
	for i, c := range f.columns {
		cols[i] = c.take(rows)
	}
	out, err := New(cols...)
	if err != nil {
		return nil, err
	}
	out.rows = len(rows)
	return out, nil
}

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() *Frame {
	cols := make([]*Column, len(f.columns))
	for i, c := range f.columns {
		cols[i] = c.Clone()
	}
	out, _ := New(cols...)
	out.rows = f.rows
	return out
}

// MissingCount returns the number of missing cells across all columns.
func (f *Frame) MissingCount() int {
	n := 0
	for _, c := range f.columns {
		n += c.MissingCount()
	}
	return n
}

// Matrix returns the frame as a dense rows x columns matrix. Every column
// must be numeric.
func (f *Frame) Matrix() (*mat.Dense, error) {
	if f.rows == 0 || len(f.columns) == 0 {
		return nil, errors.ErrEmptyData
	}
	data := make([]float64, f.rows*len(f.columns))
	for j, c := range f.columns {
		if c.Kind != Numeric {
			return nil, errors.NewColumnSchemaError("dataset.Matrix", c.Name, "column is not numeric")
		}
		for i, v := range c.Num {
			data[i*len(f.columns)+j] = v
		}
	}
	return mat.NewDense(f.rows, len(f.columns), data), nil
}

// Equal reports whether two frames have the same columns, kinds and values.
// NaN compares equal to NaN.
func (f *Frame) Equal(other *Frame) bool {
	if f.rows != other.rows || len(f.columns) != len(other.columns) {
		return false
	}
	for i, c := range f.columns {
		o := other.columns[i]
		if c.Name != o.Name || c.Kind != o.Kind {
			return false
		}
		if c.Kind == Numeric {
			for r := range c.Num {
				a, b := c.Num[r], o.Num[r]
				if a != b && !(math.IsNaN(a) && math.IsNaN(b)) {
					return false
				}
			}
			continue
		}
		for r := range c.Str {
			if c.Str[r] != o.Str[r] {
				return false
			}
		}
	}
	return true
}
