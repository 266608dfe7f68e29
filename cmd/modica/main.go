package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/bucket"
	"github.com/ar90n/modica/compare"
	"github.com/ar90n/modica/config"
	"github.com/ar90n/modica/decompose"
	"github.com/ar90n/modica/ica"
	"github.com/ar90n/modica/matrix"
	"github.com/ar90n/modica/score"
	"github.com/ar90n/modica/stats"
	"github.com/urfave/cli/v2"
)

func startProfile(path string) (func(), error) {
	if path == "" {
		return func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	if err := pprof.StartCPUProfile(f); err != nil {
		f.Close()
		return nil, err
	}
	return func() {
		pprof.StopCPUProfile()
		f.Close()
	}, nil
}

func newDecomposer(c *cli.Context) (*ica.FastICA, error) {
	alg, err := ica.ParseAlgorithm(c.String("algorithm"))
	if err != nil {
		return nil, err
	}
	fun, err := ica.ParseFunc(c.String("fun"))
	if err != nil {
		return nil, err
	}
	return ica.New().
		SetComponents(c.Int("components")).
		SetAlgorithm(alg).
		SetFunc(fun).
		SetMaxIter(c.Uint("max-iter")).
		SetTol(c.Float64("tol")).
		SetSeed(c.Int64("seed")), nil
}

func decomposeAction(c *cli.Context) error {
	stop, err := startProfile(c.String("profile-output"))
	if err != nil {
		return err
	}
	defer stop()

	decomposer, err := newDecomposer(c)
	if err != nil {
		return err
	}

	ctx := c.Context
	dir := c.String("dir")
	var jobs []decompose.Job
	if format := c.String("format"); format != "" {
		jobs = decompose.Numbered(ctx, dir, format, c.Int("from"), c.Int("to"))
	} else {
		jobs = []decompose.Job{decompose.Single(dir, c.String("name"))}
	}

	driver := decompose.NewDriver(decomposer).
		SetAuditDir(c.String("audit-dir")).
		SetMaxGoroutines(c.Uint("max-goroutines")).
		SetContinueOnError(c.Bool("continue-on-error"))

	log.Printf("decomposing %d file(s)...", len(jobs))
	results, err := driver.Run(ctx, jobs)
	if err != nil {
		return err
	}

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			continue
		}
		fmt.Printf("%s\t(%d, %d)\n", res.Output, res.Rows, res.Cols)
	}
	log.Println("done")
	if 0 < failed {
		return fmt.Errorf("%d of %d job(s) failed", failed, len(results))
	}
	return nil
}

func parseAlternative(s string) (stats.Alternative, error) {
	switch s {
	case "two-sided":
		return stats.TwoSided, nil
	case "greater":
		return stats.Greater, nil
	case "less":
		return stats.Less, nil
	default:
		return 0, fmt.Errorf("unknown alternative: %s", s)
	}
}

func compareAction(c *cli.Context) error {
	cfg, err := config.LoadFile(c.String("scheme"))
	if err != nil {
		return err
	}
	if tagger := c.String("tagger"); tagger != "" {
		cfg.Tagger = tagger
	}
	alt, err := parseAlternative(c.String("alternative"))
	if err != nil {
		return err
	}

	comparer := compare.New().
		SetOutDir(c.String("out-dir")).
		SetDraw(!c.Bool("no-draw")).
		SetAlternative(alt)
	if err := comparer.SetConfig(cfg); err != nil {
		return err
	}

	report, err := comparer.Run(c.Context, c.String("input"))
	if err != nil {
		return err
	}

	base, cand := cfg.Methods[0].Name, cfg.Methods[1].Name
	fmt.Printf("level\t%s.n\t%s.median\t%s.n\t%s.median\tW\tp\n", base, base, cand, cand)
	for _, cmp := range report.Comparisons {
		if cmp.Skipped {
			fmt.Printf("%s\t0\t-\t0\t-\t-\t-\n", cmp.Level)
			continue
		}
		fmt.Printf("%s\t%d\t%.4f\t%d\t%.4f\t%g\t%.6g\n",
			cmp.Level,
			cmp.Baseline.N, cmp.Baseline.Median,
			cmp.Candidate.N, cmp.Candidate.Median,
			cmp.Test.Statistic, cmp.Test.PValue,
		)
	}
	for _, m := range cfg.Methods {
		if v, ok := report.ROC[m.Name]; ok {
			fmt.Printf("roc\t%s\t%d\t%.4f\n", m.Name, len(v), stats.Summarize(v).Median)
		}
		if v, ok := report.ROCOpposite[m.Name]; ok {
			fmt.Printf("roc-opposite\t%s\t%d\t%.4f\n", m.Name, len(v), stats.Summarize(v).Median)
		}
		if res, ok := report.ROCTests[m.Name]; ok {
			fmt.Printf("roc-test\t%s\t%g\t%.6g\n", m.Name, res.Statistic, res.PValue)
		}
	}
	return nil
}

func scoreAction(c *cli.Context) error {
	log.Println("reading data...")
	sources, err := matrix.ReadDenseFile(c.String("components"), '\t')
	if err != nil {
		return err
	}

	lf, err := modica.Open(c.String("labels"))
	if err != nil {
		return err
	}
	labels, err := matrix.ReadLabels(lf)
	lf.Close()
	if err != nil {
		return err
	}

	tf, err := modica.Open(c.String("truth"))
	if err != nil {
		return err
	}
	truth, err := score.ReadTruth(tf)
	tf.Close()
	if err != nil {
		return err
	}
	log.Println("done")

	scores, err := score.Components(sources, labels, truth)
	if err != nil {
		return err
	}
	for _, s := range scores {
		log.Printf("component %d (%s): f1=%.4f auc=%.4f", s.Component, s.Marker, s.Metrics.F1, s.AUC)
	}

	row := score.Best(scores).Row(c.String("id"), c.String("level"))
	fmt.Println(row)
	if out := c.String("output"); out != "" {
		return score.AppendRows(out, row)
	}
	return nil
}

func main() {
	scheme := bucket.DefaultScheme()

	app := &cli.App{
		Name:     "modica",
		HelpName: "modica",
		Usage:    "decompose expression matrices with FastICA and compare module scoring methods",
		Commands: []*cli.Command{
			{
				Name:      "decompose",
				Usage:     "extract independent components from matrix files",
				UsageText: "modica decompose [command options]",
				Action:    decomposeAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "dir",
						Value:   "../real_data/",
						Usage:   "directory holding the .mtx inputs",
						EnvVars: []string{"MODICA_DIR"},
					},
					&cli.StringFlag{
						Name:    "name",
						Value:   "real_test_new",
						Usage:   "dataset name, read from <dir>/<name>.mtx",
						EnvVars: []string{"MODICA_NAME"},
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "printf pattern naming a numbered batch, e.g. test_%d",
					},
					&cli.IntFlag{
						Name:  "from",
						Value: 1,
						Usage: "first number of the batch",
					},
					&cli.IntFlag{
						Name:  "to",
						Value: 1,
						Usage: "last number of the batch",
					},
					&cli.IntFlag{
						Name:  "components",
						Value: 2,
						Usage: "number of components",
					},
					&cli.StringFlag{
						Name:  "algorithm",
						Value: "parallel",
						Usage: "parallel or deflation",
					},
					&cli.StringFlag{
						Name:  "fun",
						Value: "logcosh",
						Usage: "contrast function: logcosh, exp or cube",
					},
					&cli.UintFlag{
						Name:  "max-iter",
						Value: 200,
						Usage: "maximum fixed-point iterations",
					},
					&cli.Float64Flag{
						Name:  "tol",
						Value: 1e-4,
						Usage: "convergence tolerance",
					},
					&cli.Int64Flag{
						Name:    "seed",
						Value:   1,
						Usage:   "seed of the initial unmixing matrix",
						EnvVars: []string{"MODICA_SEED"},
					},
					&cli.StringFlag{
						Name:    "audit-dir",
						Value:   ".",
						Usage:   "directory for the parsed matrix and label dumps, empty to skip",
						EnvVars: []string{"MODICA_AUDIT_DIR"},
					},
					&cli.UintFlag{
						Name:  "max-goroutines",
						Value: 1,
						Usage: "concurrent jobs, 0 for one per CPU",
					},
					&cli.BoolFlag{
						Name:  "continue-on-error",
						Usage: "keep going when a job fails",
					},
					&cli.StringFlag{
						Name:  "profile-output",
						Usage: "profile output file",
					},
				},
			},
			{
				Name:      "compare",
				Usage:     "box plots and signed-rank tests over an aggregated score file",
				UsageText: "modica compare [command options]",
				Action:    compareAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "input",
						Value:   "../_answers_/agg3.txt",
						Usage:   "aggregated score file",
						EnvVars: []string{"MODICA_AGGREGATE"},
					},
					&cli.StringFlag{
						Name:    "out-dir",
						Value:   "../_answers_/",
						Usage:   "directory for the figures",
						EnvVars: []string{"MODICA_OUT_DIR"},
					},
					&cli.StringFlag{
						Name:    "scheme",
						Usage:   "YAML comparison scheme, defaults to " + scheme.Methods[0].Name + " vs " + scheme.Methods[1].Name,
						EnvVars: []string{"MODICA_SCHEME"},
					},
					&cli.StringFlag{
						Name:  "tagger",
						Usage: "token or substring, overrides the scheme",
					},
					&cli.StringFlag{
						Name:  "alternative",
						Value: "two-sided",
						Usage: "two-sided, greater or less",
					},
					&cli.BoolFlag{
						Name:  "no-draw",
						Usage: "skip the figures",
					},
				},
			},
			{
				Name:      "score",
				Usage:     "score decomposition components against known module members",
				UsageText: "modica score [command options]",
				Action:    scoreAction,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "components",
						Usage:    "decomposition output (.fast_ica)",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "labels",
						Value: "real_test_new.mtx_labels.txt",
						Usage: "row labels of the decomposed matrix",
					},
					&cli.StringFlag{
						Name:     "truth",
						Usage:    "label<TAB>0|1 module membership",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "id",
						Value: "main",
						Usage: "run identifier prefix",
					},
					&cli.StringFlag{
						Name:  "level",
						Value: scheme.ROCLevel,
						Usage: "condition level tag",
					},
					&cli.StringFlag{
						Name:  "output",
						Usage: "aggregated score file to append to",
					},
				},
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
