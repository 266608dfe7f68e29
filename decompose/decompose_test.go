package decompose

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/ica"
	"github.com/ar90n/modica/matrix"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func writeMatrix(t *testing.T, path string, rows int, phase float64) {
	t.Helper()

	var sb strings.Builder
	for i := 0; i < rows; i++ {
		s := float64(i) / float64(rows) * 8
		a := math.Sin(2*s + phase)
		b := math.Copysign(1, math.Sin(3*s))
		fmt.Fprintf(&sb, "gene%d\t%f\t%f\t%f\n", i, a+b, 0.5*a+2*b, a-0.3*b)
	}
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o644))
}

func Test_Single(t *testing.T) {
	job := Single("../real_data", "real_test_new")
	assert.Equal(t, filepath.Join("../real_data", "real_test_new.mtx"), job.Input)
	assert.Equal(t, filepath.Join("../real_data", "real_test_new.fast_ica"), job.Output)
}

func Test_Numbered(t *testing.T) {
	jobs := Numbered(context.Background(), "data", "test_%d", 1, 3)
	require.Len(t, jobs, 3)
	assert.Equal(t, "test_1", jobs[0].Name)
	assert.Equal(t, filepath.Join("data", "test_3.fast_ica"), jobs[2].Output)
}

func Test_Run(t *testing.T) {
	dir := t.TempDir()
	audit := t.TempDir()
	jobs := Numbered(context.Background(), dir, "test_%d", 1, 3)
	for i, job := range jobs {
		writeMatrix(t, job.Input, 300+10*i, float64(i))
	}

	driver := NewDriver(ica.New().SetMaxIter(1000)).SetAuditDir(audit).SetMaxGoroutines(2)
	results, err := driver.Run(context.Background(), jobs)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, jobs[i], res.Job)
		assert.NoError(t, res.Err)
		assert.Equal(t, 300+10*i, res.Rows)
		assert.Equal(t, 2, res.Cols)
		assert.NotZero(t, res.Digest)

		out, err := matrix.ReadDenseFile(res.Output, '\t')
		require.NoError(t, err)
		r, c := out.Dims()
		assert.Equal(t, res.Rows, r)
		assert.Equal(t, 2, c)

		mp, lp := AuditPaths(audit, res.Job)
		dump, err := matrix.ReadDenseFile(mp, ' ')
		require.NoError(t, err)
		ds, err := matrix.ReadFile(res.Input)
		require.NoError(t, err)
		assert.True(t, mat.EqualApprox(ds.Data, dump, 1e-8))
		assert.FileExists(t, lp)
	}
}

func Test_RunOutputPrecision(t *testing.T) {
	dir := t.TempDir()
	job := Single(dir, "one")
	writeMatrix(t, job.Input, 200, 0)

	_, err := NewDriver(ica.New().SetMaxIter(1000)).Run(context.Background(), []Job{job})
	require.NoError(t, err)

	data, err := os.ReadFile(job.Output)
	require.NoError(t, err)
	first := strings.SplitN(string(data), "\n", 2)[0]
	fields := strings.Split(first, "\t")
	require.Len(t, fields, 2)
	for _, f := range fields {
		assert.Len(t, strings.SplitN(f, ".", 2)[1], 10)
	}
}

func Test_RunAbortsOnError(t *testing.T) {
	dir := t.TempDir()
	good := Single(dir, "good")
	writeMatrix(t, good.Input, 200, 0)
	bad := Single(dir, "bad")
	require.NoError(t, os.WriteFile(bad.Input, []byte("A\t1.0\tnope\n"), 0o644))

	_, err := NewDriver(ica.New()).Run(context.Background(), []Job{bad, good})
	assert.True(t, errors.Is(err, modica.ErrParse), "%v", err)
}

func Test_RunContinueOnError(t *testing.T) {
	dir := t.TempDir()
	good := Single(dir, "good")
	writeMatrix(t, good.Input, 200, 0)
	missing := Single(dir, "missing")

	results, err := NewDriver(ica.New().SetMaxIter(1000)).
		SetContinueOnError(true).
		Run(context.Background(), []Job{missing, good})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, errors.Is(results[0].Err, modica.ErrIO))
	assert.NoError(t, results[1].Err)
	assert.Equal(t, 200, results[1].Rows)
	assert.FileExists(t, good.Output)
}
