package score

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/bucket"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func Test_ReadTruth(t *testing.T) {
	truth, err := ReadTruth(strings.NewReader("g1\t1\ng2\t0\n\ng3 1.0000000\n"))
	require.NoError(t, err)
	assert.Equal(t, Truth{"g1": true, "g2": false, "g3": true}, truth)

	_, err = ReadTruth(strings.NewReader("g1\tyes\n"))
	assert.True(t, errors.Is(err, modica.ErrParse))
	_, err = ReadTruth(strings.NewReader("g1\n"))
	assert.True(t, errors.Is(err, modica.ErrParse))
}

func Test_Components(t *testing.T) {
	labels := []string{"g1", "g2", "g3", "g4", "g5"}
	truth := Truth{"g1": true, "g2": true, "g3": false, "g4": false, "g5": false}
	// Column 0 ranks members first, column 1 ranks them last.
	sources := mat.NewDense(5, 2, []float64{
		2.0, -3.0,
		1.5, -2.5,
		0.1, 0.4,
		-0.2, 0.5,
		-1.0, 0.3,
	})

	scores, err := Components(sources, labels, truth)
	require.NoError(t, err)
	require.Len(t, scores, 2)

	assert.Equal(t, PositiveMarker, scores[0].Marker)
	assert.Equal(t, 1.0, scores[0].Metrics.F1)
	assert.Equal(t, 1.0, scores[0].AUC)
	assert.Equal(t, 0.0, scores[0].AUCOpposite)

	assert.Equal(t, NegativeMarker, scores[1].Marker)
	assert.Equal(t, 1.0, scores[1].Metrics.F1)
	assert.Equal(t, 1.0, scores[1].AUC)

	assert.Equal(t, 0, Best(scores).Component)
}

func Test_ComponentsPreconditions(t *testing.T) {
	sources := mat.NewDense(2, 1, []float64{1, 2})

	_, err := Components(sources, []string{"g1"}, Truth{"g1": true})
	assert.True(t, errors.Is(err, modica.ErrPrecondition))

	_, err = Components(sources, []string{"g1", "g2"}, Truth{"g1": true})
	assert.True(t, errors.Is(err, modica.ErrPrecondition))

	_, err = Components(sources, []string{"g1", "g2"}, Truth{"g1": true, "g2": true})
	assert.True(t, errors.Is(err, modica.ErrPrecondition))
}

func Test_RowRoundTrip(t *testing.T) {
	s := ComponentScore{Component: 1, Marker: NegativeMarker, AUC: 0.9, AUCOpposite: 0.1}
	s.Metrics.F1 = 0.75
	row := s.Row("main_real_test_new", "0.25")
	assert.Equal(t, "main_real_test_new_module_1_y_0.25, f1score = 0.75, 0.9, 0.1", row)

	path := filepath.Join(t.TempDir(), "agg3.txt")
	require.NoError(t, AppendRows(path, row))
	require.NoError(t, AppendRows(path, row))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	records, err := bucket.ReadAggregate(strings.NewReader(string(data)))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 0.75, records[0].Score)
	assert.Equal(t, []float64{0.9, 0.1}, records[0].Extra)

	s2 := bucket.DefaultScheme()
	b, err := bucket.Partition(records, s2, bucket.NewTokenTagger(s2))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.75, 0.75}, b.Get("0.25", "MIQP-ICA"))
}
