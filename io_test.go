package modica

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_CreateOpen(t *testing.T) {
	type TestCase struct {
		Name string
		File string
	}

	content := "A\t1.0\t2.0\nB\t3.0\t4.0\n"
	testCases := []TestCase{
		{Name: "plain", File: "data.mtx"},
		{Name: "gzip", File: "data.mtx.gz"},
		{Name: "zstd", File: "data.mtx.zst"},
		{Name: "lz4", File: "data.mtx.lz4"},
	}

	dir := t.TempDir()
	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			path := filepath.Join(dir, tc.File)
			w, err := Create(path)
			require.NoError(t, err)
			_, err = io.WriteString(w, content)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := Open(path)
			require.NoError(t, err)
			got, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, content, string(got))
		})
	}
}

func Test_CompressedFileDiffersFromPlain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.gz")
	w, err := Create(path)
	require.NoError(t, err)
	_, err = io.WriteString(w, "hello")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotEqual(t, "hello", string(raw))
}

func Test_Digest(t *testing.T) {
	dir := t.TempDir()
	plain := filepath.Join(dir, "a.txt")
	packed := filepath.Join(dir, "a.txt.zst")
	for _, path := range []string{plain, packed} {
		w, err := Create(path)
		require.NoError(t, err)
		_, err = io.WriteString(w, "0.1\t0.2\n")
		require.NoError(t, err)
		require.NoError(t, w.Close())
	}

	d1, err := Digest(plain)
	require.NoError(t, err)
	d2, err := Digest(packed)
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func Test_OpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.mtx"))
	assert.True(t, errors.Is(err, ErrIO))
}
