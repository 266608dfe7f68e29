// Package score evaluates decomposition components against known module
// membership and emits aggregate rows for the comparison step.
package score

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/number"
	"github.com/ar90n/modica/stats"
	"github.com/cockroachdb/errors"
	"gonum.org/v1/gonum/mat"
)

const (
	PositiveMarker = "x"
	NegativeMarker = "y"
)

const truthEps = 1e-6

// Truth maps a sample label to its module membership.
type Truth map[string]bool

// ReadTruth parses "label<whitespace>value" lines; a value of 1 marks a
// member.
func ReadTruth(r io.Reader) (Truth, error) {
	truth := Truth{}
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, errors.Mark(errors.Newf("line %d: expected label and value", line), modica.ErrParse)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errors.Mark(errors.Wrapf(err, "line %d", line), modica.ErrParse)
		}
		truth[fields[0]] = number.NearlyEqual(v, 1, truthEps)
	}
	if err := sc.Err(); err != nil {
		return nil, modica.MarkIO(err, "read truth")
	}
	return truth, nil
}

// ComponentScore is the evaluation of one component in its better
// orientation.
type ComponentScore struct {
	Component int
	// Marker is PositiveMarker when the component is used as is and
	// NegativeMarker when it is negated.
	Marker  string
	Metrics stats.Metrics
	// AUC belongs to the chosen orientation, AUCOpposite to the other.
	AUC         float64
	AUCOpposite float64
}

// Row formats s as an aggregate row for run id at level.
func (s ComponentScore) Row(id, level string) string {
	return fmt.Sprintf("%s_module_%d_%s_%s, f1score = %g, %g, %g",
		id, s.Component, s.Marker, level, s.Metrics.F1, s.AUC, s.AUCOpposite)
}

// Components scores every column of sources. labels names the rows of
// sources and must all be present in truth.
func Components(sources mat.Matrix, labels []string, truth Truth) ([]ComponentScore, error) {
	rows, cols := sources.Dims()
	if len(labels) != rows {
		return nil, errors.Mark(errors.Newf("%d labels for %d rows", len(labels), rows), modica.ErrPrecondition)
	}

	member := make([]bool, rows)
	for i, l := range labels {
		v, ok := truth[l]
		if !ok {
			return nil, errors.Mark(errors.Newf("no truth value for %q", l), modica.ErrPrecondition)
		}
		member[i] = v
	}

	scores := make([]ComponentScore, cols)
	pos := make([]float64, rows)
	neg := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(pos, j, sources)
		for i, v := range pos {
			neg[i] = -v
		}

		mPos, err := stats.BestF1(pos, member)
		if err != nil {
			return nil, err
		}
		mNeg, err := stats.BestF1(neg, member)
		if err != nil {
			return nil, err
		}
		cPos, err := stats.ROC(pos, member)
		if err != nil {
			return nil, errors.Wrapf(err, "component %d", j)
		}
		cNeg, err := stats.ROC(neg, member)
		if err != nil {
			return nil, errors.Wrapf(err, "component %d", j)
		}

		if mNeg.F1 <= mPos.F1 {
			scores[j] = ComponentScore{Component: j, Marker: PositiveMarker, Metrics: mPos, AUC: cPos.AUC, AUCOpposite: cNeg.AUC}
		} else {
			scores[j] = ComponentScore{Component: j, Marker: NegativeMarker, Metrics: mNeg, AUC: cNeg.AUC, AUCOpposite: cPos.AUC}
		}
	}
	return scores, nil
}

// Best returns the score with the highest F1, the first on ties.
func Best(scores []ComponentScore) ComponentScore {
	var best ComponentScore
	for i, s := range scores {
		if i == 0 || best.Metrics.F1 < s.Metrics.F1 {
			best = s
		}
	}
	return best
}

// AppendRows appends rows to the aggregate file at path, preceded by a
// separator line.
func AppendRows(path string, rows ...string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return modica.MarkIO(err, "open %s", path)
	}

	w := bufio.NewWriter(f)
	w.WriteString("--------------------\n")
	for _, r := range rows {
		w.WriteString(r)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return modica.MarkIO(err, "write %s", path)
	}
	return modica.MarkIO(f.Close(), "close %s", path)
}
