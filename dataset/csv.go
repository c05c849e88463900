package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/housing/pkg/errors"
)

// missingTokens are the cell values read as missing, matching the defaults
// of common CSV writers.
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"NULL": {},
	"null": {},
}

func isMissingToken(s string) bool {
	_, ok := missingTokens[s]
	return ok
}

// ReadCSV reads a frame from CSV with a header row.
//
// A column is numeric when every non-missing cell parses as a float,
// otherwise it is categorical. A column with no values at all is numeric.
func ReadCSV(r io.Reader) (*Frame, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = false

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.ErrEmptyData
	}
	if err != nil {
		return nil, errors.Wrap(err, "read csv header")
	}

	raw := make([][]string, len(header))
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "read csv record")
		}
		for j := range header {
			raw[j] = append(raw[j], strings.TrimSpace(rec[j]))
		}
	}

	cols := make([]*Column, len(header))
	for j, name := range header {
		cols[j] = inferColumn(strings.TrimSpace(name), raw[j])
	}
	return New(cols...)
}

func inferColumn(name string, cells []string) *Column {
	nums := make([]float64, len(cells))
	for i, s := range cells {
		if isMissingToken(s) {
			nums[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			strs := make([]string, len(cells))
			for k, c := range cells {
				if !isMissingToken(c) {
					strs[k] = c
				}
			}
			return NewCategorical(name, strs)
		}
		nums[i] = v
	}
	return NewNumeric(name, nums)
}

// WriteCSV writes the frame as CSV with a header row. Missing values are
// written as empty cells.
func (f *Frame) WriteCSV(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(f.Columns()); err != nil {
		return errors.Wrap(err, "write csv header")
	}
	rec := make([]string, len(f.columns))
	for i := 0; i < f.rows; i++ {
		for j, c := range f.columns {
			rec[j] = c.Format(i)
		}
		if err := writer.Write(rec); err != nil {
			return errors.Wrapf(err, "write csv row %d", i)
		}
	}
	writer.Flush()
	return errors.Wrap(writer.Error(), "flush csv")
}

// Format renders row i as a string, "" for missing.
func (c *Column) Format(i int) string {
	if c.Kind == Categorical {
		return c.Str[i]
	}
	v := c.Num[i]
	if math.IsNaN(v) {
		return Missing
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ParseNumeric converts a categorical column to numeric. Cells that fail to
// parse are reported in the error.
func (c *Column) ParseNumeric() (*Column, error) {
	if c.Kind == Numeric {
		return c, nil
	}
	out := make([]float64, len(c.Str))
	for i, s := range c.Str {
		if isMissingToken(s) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, errors.NewColumnSchemaError("dataset.ParseNumeric", c.Name, "value "+strconv.Quote(s)+" is not numeric")
		}
		out[i] = v
	}
	return NewNumeric(c.Name, out), nil
}

// FormatCategorical converts a numeric column to categorical.
func (c *Column) FormatCategorical() *Column {
	if c.Kind == Categorical {
		return c
	}
	out := make([]string, len(c.Num))
	for i := range c.Num {
		out[i] = c.Format(i)
	}
	return NewCategorical(c.Name, out)
}
