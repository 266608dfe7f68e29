package boxplot

import (
	"bytes"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ar90n/modica"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func groups() []Group {
	return []Group{
		{Name: "NetClust:0.25", Values: []float64{0.61, 0.64, 0.58, 0.70, 0.66}},
		{Name: "MIQP-ICA", Values: []float64{0.72, 0.77, 0.69, 0.81, 0.75}},
	}
}

func Test_FileName(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "NetClust:0.25-MIQP-ICA.png"), FileName("out", "NetClust:0.25", "MIQP-ICA"))
}

func Test_WriteToPNG(t *testing.T) {
	for _, f := range []*Figure{
		NewStacked("F1-score, noise 0.25", groups()...),
		NewShared("F1-score, noise 0.25", groups()...),
	} {
		var buf bytes.Buffer
		n, err := f.WriteTo(&buf, "png")
		require.NoError(t, err)
		assert.Equal(t, int64(buf.Len()), n)

		img, err := png.Decode(&buf)
		require.NoError(t, err)
		assert.Greater(t, img.Bounds().Dx(), 0)
	}
}

func Test_EmptyGroup(t *testing.T) {
	g := groups()
	g[1].Values = nil

	var buf bytes.Buffer
	_, err := NewStacked("partial", g...).WriteTo(&buf, "png")
	require.NoError(t, err)
	assert.NotZero(t, buf.Len())
}

func Test_NoGroups(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewStacked("nothing").WriteTo(&buf, "png")
	assert.True(t, errors.Is(err, modica.ErrPrecondition))
}

func Test_Save(t *testing.T) {
	dir := t.TempDir()
	path := FileName(dir, "a", "b")
	require.NoError(t, NewStacked("title", groups()...).Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, info.Size())
}

func Test_SaveUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "figure.bogus")
	assert.Error(t, NewStacked("title", groups()...).Save(path))
}
