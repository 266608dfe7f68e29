package bucket

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/ar90n/modica"
	"github.com/cockroachdb/errors"
)

// Record is one row of an aggregated score file.
type Record struct {
	ID    string
	Score float64
	// Extra holds the optional trailing columns, typically AUC values.
	Extra []float64
}

// parseCell accepts a bare float or a "name = value" cell.
func parseCell(text string) (float64, error) {
	if i := strings.LastIndexByte(text, '='); 0 <= i {
		text = text[i+1:]
	}
	return strconv.ParseFloat(strings.TrimSpace(text), 64)
}

func isSeparator(record []string) bool {
	if len(record) != 1 {
		return false
	}
	s := strings.TrimSpace(record[0])
	return s == "" || strings.Trim(s, "-") == ""
}

// ReadAggregate parses comma-delimited rows id,score[,extra...]. Lines made
// only of dashes separate runs and are skipped.
func ReadAggregate(r io.Reader) ([]Record, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var records []Record
	for line := 1; ; line++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "line %d", line), modica.ErrParse)
		}
		if isSeparator(fields) {
			continue
		}
		if len(fields) < 2 {
			return nil, errors.Mark(errors.Newf("line %d: expected id and score", line), modica.ErrParse)
		}

		score, err := parseCell(fields[1])
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "line %d score", line), modica.ErrParse)
		}
		rec := Record{ID: strings.TrimSpace(fields[0]), Score: score}
		for j, text := range fields[2:] {
			v, err := parseCell(text)
			if err != nil {
				return nil, errors.Mark(errors.Wrapf(err, "line %d column %d", line, j+3), modica.ErrParse)
			}
			rec.Extra = append(rec.Extra, v)
		}
		records = append(records, rec)
	}

	return records, nil
}

// ReadAggregateFile reads an aggregated score file from path.
func ReadAggregateFile(path string) ([]Record, error) {
	r, err := modica.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	records, err := ReadAggregate(r)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return records, nil
}
