package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/compare"
	"github.com/ar90n/modica/decompose"
	"github.com/ar90n/modica/example"
	"github.com/ar90n/modica/ica"
	"github.com/ar90n/modica/matrix"
	"github.com/ar90n/modica/score"
	"github.com/ar90n/modica/stats"
	"gonum.org/v1/gonum/mat"
)

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func main() {
	dir, err := os.MkdirTemp("", "modica-demo")
	if err != nil {
		panic(err)
	}
	log.Printf("working in %s", dir)

	ctx := context.Background()
	const runs = 11
	jobs := decompose.Numbered(ctx, dir, "test_%d", 1, runs)
	truths := make([]string, len(jobs))
	for i, job := range jobs {
		ds, member := example.Planted{Genes: 200, Samples: 10, Members: 20, Noise: 1, Seed: int64(i)}.Generate()
		if err := writeFile(job.Input, func(f *os.File) error { return example.WriteMatrix(f, ds) }); err != nil {
			panic(err)
		}
		truths[i] = filepath.Join(dir, job.Name+".ans")
		if err := writeFile(truths[i], func(f *os.File) error { return example.WriteTruth(f, ds.Labels, member) }); err != nil {
			panic(err)
		}
	}

	results, err := decompose.NewDriver(ica.New().SetMaxIter(1000)).
		SetAuditDir(dir).
		SetMaxGoroutines(0).
		SetContinueOnError(true).
		Run(ctx, jobs)
	if err != nil {
		panic(err)
	}

	agg := filepath.Join(dir, "agg3.txt")
	for i, res := range results {
		if res.Err != nil {
			continue
		}
		sources, err := matrix.ReadDenseFile(res.Output, '\t')
		if err != nil {
			panic(err)
		}
		_, lp := decompose.AuditPaths(dir, res.Job)
		lr, err := modica.Open(lp)
		if err != nil {
			panic(err)
		}
		labels, err := matrix.ReadLabels(lr)
		lr.Close()
		if err != nil {
			panic(err)
		}
		tr, err := modica.Open(truths[i])
		if err != nil {
			panic(err)
		}
		truth, err := score.ReadTruth(tr)
		tr.Close()
		if err != nil {
			panic(err)
		}

		scores, err := score.Components(sources, labels, truth)
		if err != nil {
			panic(err)
		}
		best := score.Best(scores)

		// Baseline: rank genes by their value in the first sample alone.
		ds, err := matrix.ReadFile(res.Input)
		if err != nil {
			panic(err)
		}
		member := make([]bool, len(ds.Labels))
		for j, l := range ds.Labels {
			member[j] = truth[l]
		}
		baseline, err := stats.BestF1(mat.Col(nil, 0, ds.Data), member)
		if err != nil {
			panic(err)
		}

		var rows []string
		for _, level := range []string{"0.25", "0.4", "0.5"} {
			rows = append(rows, best.Row(res.Name, level))
			rows = append(rows, fmt.Sprintf("%s_module_0_nc_%s, best_f1score = %g", res.Name, level, baseline.F1))
		}
		if err := score.AppendRows(agg, rows...); err != nil {
			panic(err)
		}
	}

	report, err := compare.New().SetOutDir(dir).Run(ctx, agg)
	if err != nil {
		panic(err)
	}
	for _, cmp := range report.Comparisons {
		fmt.Printf("%s: p=%.4g figure=%s\n", cmp.Level, cmp.Test.PValue, cmp.Figure)
	}
}
