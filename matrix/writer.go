package matrix

import (
	"bufio"
	"io"
	"strconv"

	"github.com/ar90n/modica"
	"gonum.org/v1/gonum/mat"
)

const (
	AuditPrecision  = 8
	OutputPrecision = 10
)

// WriteDense writes m one row per line with prec decimals, fields separated
// by delim.
func WriteDense(w io.Writer, m mat.Matrix, prec int, delim rune) error {
	bw := bufio.NewWriter(w)
	rows, cols := m.Dims()
	buf := make([]byte, 0, 32)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if 0 < j {
				bw.WriteRune(delim)
			}
			buf = strconv.AppendFloat(buf[:0], m.At(i, j), 'f', prec, 64)
			bw.Write(buf)
		}
		bw.WriteByte('\n')
	}
	return modica.MarkIO(bw.Flush(), "write matrix")
}

// WriteDenseFile writes m to path.
func WriteDenseFile(path string, m mat.Matrix, prec int, delim rune) error {
	w, err := modica.Create(path)
	if err != nil {
		return err
	}
	if err := WriteDense(w, m, prec, delim); err != nil {
		w.Close()
		return err
	}
	return modica.MarkIO(w.Close(), "close %s", path)
}

// WriteLabels writes one label per line.
func WriteLabels(w io.Writer, labels []string) error {
	bw := bufio.NewWriter(w)
	for _, l := range labels {
		bw.WriteString(l)
		bw.WriteByte('\n')
	}
	return modica.MarkIO(bw.Flush(), "write labels")
}

// WriteAudit dumps ds the way the reader saw it: the matrix space-delimited
// with 8 decimals and the labels one per line.
func WriteAudit(ds *Dataset, matrixW, labelsW io.Writer) error {
	if err := WriteDense(matrixW, ds.Data, AuditPrecision, ' '); err != nil {
		return err
	}
	return WriteLabels(labelsW, ds.Labels)
}
