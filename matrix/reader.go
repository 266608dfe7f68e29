// Package matrix reads and writes labelled numeric matrices stored as
// delimited text.
package matrix

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/ar90n/modica"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a parsed input matrix. Labels[i] names row i of Data.
type Dataset struct {
	Data   *mat.Dense
	Labels []string
}

func parseError(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), modica.ErrParse)
}

func newReader(r io.Reader, delim rune) *csv.Reader {
	cr := csv.NewReader(r)
	cr.Comma = delim
	cr.FieldsPerRecord = 0
	cr.LazyQuotes = true
	cr.ReuseRecord = true
	return cr
}

// Read parses tab-delimited rows of the form label<TAB>v1<TAB>v2...
// Every row must have the same width. Any malformed value fails the whole
// read.
func Read(r io.Reader) (*Dataset, error) {
	cr := newReader(r, '\t')

	var labels []string
	var values []float64
	cols := -1
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "line %d", line), modica.ErrParse)
		}

		if cols < 0 {
			cols = len(record) - 1
			if cols == 0 {
				return nil, parseError("line %d: no numeric columns", line)
			}
		}

		labels = append(labels, record[0])
		for j, text := range record[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "line %d column %d", line, j+2), modica.ErrParse)
			}
			values = append(values, v)
		}
	}

	if len(labels) == 0 {
		return nil, parseError("empty matrix")
	}

	return &Dataset{
		Data:   mat.NewDense(len(labels), cols, values),
		Labels: labels,
	}, nil
}

// ReadFile reads a labelled matrix from path. Compressed files are handled
// by extension.
func ReadFile(path string) (*Dataset, error) {
	r, err := modica.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	ds, err := Read(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return ds, nil
}

// ReadFileWithAudit reads path and dumps the parsed matrix and labels to
// matrixPath and labelsPath.
func ReadFileWithAudit(path, matrixPath, labelsPath string) (*Dataset, error) {
	ds, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	mw, err := modica.Create(matrixPath)
	if err != nil {
		return nil, err
	}
	lw, err := modica.Create(labelsPath)
	if err != nil {
		mw.Close()
		return nil, err
	}

	err = WriteAudit(ds, mw, lw)
	err = errors.CombineErrors(err, modica.MarkIO(mw.Close(), "close %s", matrixPath))
	err = errors.CombineErrors(err, modica.MarkIO(lw.Close(), "close %s", labelsPath))
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// ReadDense parses an unlabelled matrix. Runs of spaces are accepted when
// delim is ' '.
func ReadDense(r io.Reader, delim rune) (*mat.Dense, error) {
	cr := newReader(r, delim)
	if delim == ' ' {
		cr.TrimLeadingSpace = true
	}

	var values []float64
	rows, cols := 0, -1
	for line := 1; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "line %d", line), modica.ErrParse)
		}
		if cols < 0 {
			cols = len(record)
		}
		for j, text := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "line %d column %d", line, j+1), modica.ErrParse)
			}
			values = append(values, v)
		}
		rows++
	}

	if rows == 0 {
		return nil, parseError("empty matrix")
	}
	return mat.NewDense(rows, cols, values), nil
}

// ReadDenseFile reads an unlabelled matrix from path.
func ReadDenseFile(path string, delim rune) (*mat.Dense, error) {
	r, err := modica.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	m, err := ReadDense(r, delim)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return m, nil
}

// ReadLabels reads one label per line. Blank lines are empty labels; only
// the final line break is dropped.
func ReadLabels(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, modica.MarkIO(err, "read labels")
	}
	if len(data) == 0 {
		return nil, nil
	}

	text := strings.TrimSuffix(string(data), "\n")
	labels := strings.Split(text, "\n")
	for i, line := range labels {
		labels[i] = strings.TrimSuffix(line, "\r")
	}
	return labels, nil
}
