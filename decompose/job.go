package decompose

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ar90n/modica/pipeline"
)

const (
	InputExt  = ".mtx"
	OutputExt = ".fast_ica"
)

// Job decomposes one input matrix into one output file.
type Job struct {
	Name   string
	Input  string
	Output string
}

// Single returns the job for dir/name.mtx written to dir/name.fast_ica.
func Single(dir, name string) Job {
	return Job{
		Name:   name,
		Input:  filepath.Join(dir, name+InputExt),
		Output: filepath.Join(dir, name+OutputExt),
	}
}

// Numbered returns one Single job per i in [from, to], naming each with
// fmt.Sprintf(format, i).
func Numbered(ctx context.Context, dir, format string, from, to int) []Job {
	jobs := pipeline.Map(ctx, pipeline.Seq(ctx, from, to), func(i int) Job {
		return Single(dir, fmt.Sprintf(format, i))
	})
	return pipeline.ToSlice(ctx, jobs)
}
