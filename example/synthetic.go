// Package example generates synthetic expression data with a planted
// module for trying out the pipeline.
package example

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/ar90n/modica/matrix"
	"gonum.org/v1/gonum/mat"
)

// Planted describes a synthetic dataset.
type Planted struct {
	Genes   int
	Samples int
	Members int
	Noise   float64
	Seed    int64
}

// Generate returns a genes-by-samples dataset whose first Members genes
// follow a shared signal on top of Gaussian noise, plus their membership.
func (p Planted) Generate() (*matrix.Dataset, []bool) {
	rng := rand.New(rand.NewSource(p.Seed))

	signal := make([]float64, p.Samples)
	for j := range signal {
		signal[j] = rng.NormFloat64() * 3
	}

	data := mat.NewDense(p.Genes, p.Samples, nil)
	labels := make([]string, p.Genes)
	member := make([]bool, p.Genes)
	for i := 0; i < p.Genes; i++ {
		labels[i] = fmt.Sprintf("gene%04d", i)
		member[i] = i < p.Members
		weight := 0.0
		if member[i] {
			weight = 0.5 + rng.Float64()
		}
		for j := 0; j < p.Samples; j++ {
			data.Set(i, j, weight*signal[j]+rng.NormFloat64()*p.Noise)
		}
	}
	return &matrix.Dataset{Data: data, Labels: labels}, member
}

// WriteMatrix writes ds in the tab-delimited input format.
func WriteMatrix(w io.Writer, ds *matrix.Dataset) error {
	r, c := ds.Data.Dims()
	for i := 0; i < r; i++ {
		if _, err := io.WriteString(w, ds.Labels[i]); err != nil {
			return err
		}
		for j := 0; j < c; j++ {
			if _, err := fmt.Fprintf(w, "\t%.6f", ds.Data.At(i, j)); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// WriteTruth writes label<TAB>0|1 lines.
func WriteTruth(w io.Writer, labels []string, member []bool) error {
	for i, l := range labels {
		v := 0
		if member[i] {
			v = 1
		}
		if _, err := fmt.Fprintf(w, "%s\t%d\n", l, v); err != nil {
			return err
		}
	}
	return nil
}
