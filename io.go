package modica

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type readCloser struct {
	io.Reader
	closers []func() error
}

func (rc *readCloser) Close() error {
	var err error
	for i := len(rc.closers) - 1; 0 <= i; i-- {
		err = errors.CombineErrors(err, rc.closers[i]())
	}
	return err
}

type writeCloser struct {
	io.Writer
	closers []func() error
}

func (wc *writeCloser) Close() error {
	var err error
	for _, c := range wc.closers {
		err = errors.CombineErrors(err, c())
	}
	return err
}

// Open opens path for reading. Files ending in .gz, .zst or .lz4 are
// decompressed transparently.
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, MarkIO(err, "open %s", path)
	}

	rc := &readCloser{Reader: bufio.NewReader(file), closers: []func() error{file.Close}}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz, err := gzip.NewReader(rc.Reader)
		if err != nil {
			file.Close()
			return nil, MarkIO(err, "open gzip stream %s", path)
		}
		rc.Reader = gz
		rc.closers = append(rc.closers, gz.Close)
	case ".zst":
		dec, err := zstd.NewReader(rc.Reader)
		if err != nil {
			file.Close()
			return nil, MarkIO(err, "open zstd stream %s", path)
		}
		rc.Reader = dec
		rc.closers = append(rc.closers, func() error {
			dec.Close()
			return nil
		})
	case ".lz4":
		rc.Reader = lz4.NewReader(rc.Reader)
	}

	return rc, nil
}

// Create creates path for writing, compressing the stream according to the
// extension as Open does. Close must be called to flush the output.
func Create(path string) (io.WriteCloser, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, MarkIO(err, "create %s", path)
	}

	buf := bufio.NewWriter(file)
	wc := &writeCloser{Writer: buf}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		gz := gzip.NewWriter(buf)
		wc.Writer = gz
		wc.closers = append(wc.closers, gz.Close)
	case ".zst":
		enc, err := zstd.NewWriter(buf)
		if err != nil {
			file.Close()
			return nil, MarkIO(err, "create zstd stream %s", path)
		}
		wc.Writer = enc
		wc.closers = append(wc.closers, enc.Close)
	case ".lz4":
		lw := lz4.NewWriter(buf)
		wc.Writer = lw
		wc.closers = append(wc.closers, lw.Close)
	}
	wc.closers = append(wc.closers, buf.Flush, file.Close)

	return wc, nil
}

// Digest returns the xxhash of the decoded content of path.
func Digest(path string) (uint64, error) {
	r, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, MarkIO(err, "read %s", path)
	}
	return h.Sum64(), nil
}
