package modica

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Decomposer extracts latent components from a samples-by-features matrix.
// The result has one row per sample.
type Decomposer interface {
	FitTransform(ctx context.Context, x mat.Matrix) (*mat.Dense, error)
}
