package example

import (
	"bytes"
	"testing"

	"github.com/ar90n/modica/matrix"
	"github.com/ar90n/modica/score"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_GenerateRoundTrip(t *testing.T) {
	p := Planted{Genes: 50, Samples: 8, Members: 5, Noise: 0.5, Seed: 1}
	ds, member := p.Generate()

	var buf bytes.Buffer
	require.NoError(t, WriteMatrix(&buf, ds))
	back, err := matrix.Read(&buf)
	require.NoError(t, err)

	r, c := back.Data.Dims()
	assert.Equal(t, 50, r)
	assert.Equal(t, 8, c)
	assert.Equal(t, ds.Labels, back.Labels)

	buf.Reset()
	require.NoError(t, WriteTruth(&buf, ds.Labels, member))
	truth, err := score.ReadTruth(&buf)
	require.NoError(t, err)
	assert.True(t, truth["gene0000"])
	assert.False(t, truth["gene0049"])
	assert.Len(t, truth, 50)
}
