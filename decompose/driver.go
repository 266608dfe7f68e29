// Package decompose runs a decomposition over a batch of matrix files.
package decompose

import (
	"context"
	"log"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/matrix"
	"github.com/cockroachdb/errors"
	"github.com/sourcegraph/conc/pool"
)

// Result reports one finished job.
type Result struct {
	Job
	Rows, Cols int
	// Digest is the xxhash of the written output.
	Digest uint64
	// Err is set only when the driver continues on error.
	Err error

	index int
}

type Driver struct {
	decomposer      modica.Decomposer
	auditDir        string
	maxGoroutines   uint
	continueOnError bool
}

func NewDriver(decomposer modica.Decomposer) *Driver {
	return &Driver{decomposer: decomposer, maxGoroutines: 1}
}

// SetAuditDir makes every job dump its parsed matrix and labels under dir.
// Empty disables the dump.
func (d *Driver) SetAuditDir(dir string) *Driver {
	d.auditDir = dir
	return d
}

// SetMaxGoroutines bounds the number of concurrent jobs. Zero means one per
// CPU.
func (d *Driver) SetMaxGoroutines(n uint) *Driver {
	d.maxGoroutines = n
	return d
}

// SetContinueOnError records per-job failures in the results instead of
// aborting the batch.
func (d *Driver) SetContinueOnError(b bool) *Driver {
	d.continueOnError = b
	return d
}

func procNum(maxGoroutines uint) int {
	if maxGoroutines == 0 {
		return runtime.NumCPU()
	}
	return int(maxGoroutines)
}

// AuditPaths returns where job's audit dump is written under dir.
func AuditPaths(dir string, job Job) (matrixPath, labelsPath string) {
	return filepath.Join(dir, job.Name+".mtx.txt"), filepath.Join(dir, job.Name+".mtx_labels.txt")
}

// Run processes jobs and returns their results in job order.
func (d *Driver) Run(ctx context.Context, jobs []Job) ([]Result, error) {
	p := pool.NewWithResults[Result]().
		WithContext(ctx).
		WithMaxGoroutines(procNum(d.maxGoroutines))
	if !d.continueOnError {
		p = p.WithCancelOnError()
	}

	// The pool joins the errors of every cancelled job; the first failure
	// is the one worth reporting.
	var once sync.Once
	var firstErr error

	for i, job := range jobs {
		i, job := i, job
		p.Go(func(ctx context.Context) (Result, error) {
			res, err := d.runJob(ctx, job)
			res.index = i
			if err != nil {
				err = errors.Wrapf(err, "job %s", job.Name)
				if d.continueOnError {
					log.Printf("%v", err)
					res.Err = err
					return res, nil
				}
				once.Do(func() { firstErr = err })
			}
			return res, err
		})
	}

	results, err := p.Wait()
	sort.Slice(results, func(a, b int) bool {
		return results[a].index < results[b].index
	})
	if firstErr != nil {
		return results, firstErr
	}
	return results, err
}

func (d *Driver) runJob(ctx context.Context, job Job) (Result, error) {
	res := Result{Job: job}
	if err := ctx.Err(); err != nil {
		return res, err
	}

	log.Printf("reading %s...", job.Input)
	var ds *matrix.Dataset
	var err error
	if d.auditDir != "" {
		mp, lp := AuditPaths(d.auditDir, job)
		ds, err = matrix.ReadFileWithAudit(job.Input, mp, lp)
	} else {
		ds, err = matrix.ReadFile(job.Input)
	}
	if err != nil {
		return res, err
	}

	log.Printf("decomposing %s...", job.Name)
	sources, err := d.decomposer.FitTransform(ctx, ds.Data)
	if err != nil {
		return res, err
	}

	if err := matrix.WriteDenseFile(job.Output, sources, matrix.OutputPrecision, '\t'); err != nil {
		return res, err
	}
	res.Rows, res.Cols = sources.Dims()

	res.Digest, err = modica.Digest(job.Output)
	if err != nil {
		return res, err
	}
	log.Printf("%s: (%d, %d) %016x", job.Output, res.Rows, res.Cols, res.Digest)

	return res, nil
}
