// Package compare buckets an aggregated score file by condition level and
// compares the two scoring methods at every level with box plots and a
// paired Wilcoxon signed-rank test.
package compare

import (
	"context"
	"log"

	"github.com/ar90n/modica/boxplot"
	"github.com/ar90n/modica/bucket"
	"github.com/ar90n/modica/config"
	"github.com/ar90n/modica/stats"
	"github.com/cockroachdb/errors"
)

// Comparison is the outcome for one condition level.
type Comparison struct {
	Level     string
	Baseline  stats.Summary
	Candidate stats.Summary
	Test      stats.SignedRankResult
	// Skipped is set when neither method has rows at Level and Test is
	// the zero value.
	Skipped bool
	// Figure is the path of the saved box plot, empty when drawing is off.
	Figure string
}

type Report struct {
	Comparisons []Comparison
	// ROC and ROCOpposite hold the AUC of the reported and of the opposite
	// orientation, keyed by method name.
	ROC         map[string][]float64
	ROCOpposite map[string][]float64
	// ROCTests pairs ROC against ROCOpposite for every method where both
	// buckets line up.
	ROCTests map[string]stats.SignedRankResult
	// ROCFigure is the path of the saved ROC box plot, if any.
	ROCFigure string
}

type Comparer struct {
	cfg         config.Comparison
	tagger      bucket.Tagger
	outDir      string
	draw        bool
	alternative stats.Alternative
}

func New() *Comparer {
	cfg := config.Default()
	return &Comparer{
		cfg:    cfg,
		tagger: bucket.NewTokenTagger(cfg.Scheme()),
		outDir: ".",
		draw:   true,
	}
}

// SetConfig replaces the comparison scheme and resets the tagger to the
// one the scheme names.
func (c *Comparer) SetConfig(cfg config.Comparison) error {
	tagger, err := bucket.NewTagger(cfg.Tagger, cfg.Scheme())
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.tagger = tagger
	return nil
}

func (c *Comparer) SetTagger(tagger bucket.Tagger) *Comparer {
	c.tagger = tagger
	return c
}

func (c *Comparer) SetOutDir(dir string) *Comparer {
	c.outDir = dir
	return c
}

func (c *Comparer) SetDraw(draw bool) *Comparer {
	c.draw = draw
	return c
}

func (c *Comparer) SetAlternative(alt stats.Alternative) *Comparer {
	c.alternative = alt
	return c
}

// Run compares the methods in the aggregated score file at path.
func (c *Comparer) Run(ctx context.Context, path string) (Report, error) {
	scheme := c.cfg.Scheme()

	log.Printf("reading %s...", path)
	buckets, err := bucket.PartitionFile(path, scheme, c.tagger)
	if err != nil {
		return Report{}, err
	}
	log.Println("done")

	return c.Compare(ctx, buckets)
}

// Compare runs the per-level comparisons on already partitioned buckets.
func (c *Comparer) Compare(ctx context.Context, buckets *bucket.Buckets) (Report, error) {
	scheme := c.cfg.Scheme()
	base, cand := scheme.Methods[0].Name, scheme.Methods[1].Name

	report := Report{
		ROC:         buckets.ROC,
		ROCOpposite: buckets.ROCOpposite,
		ROCTests:    map[string]stats.SignedRankResult{},
	}
	for _, level := range scheme.Levels {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		x := buckets.Get(level, base)
		y := buckets.Get(level, cand)
		log.Printf("%s: %s %d, %s %d", level, base, len(x), cand, len(y))

		cmp := Comparison{
			Level:     level,
			Baseline:  stats.Summarize(x),
			Candidate: stats.Summarize(y),
		}

		if c.draw {
			name := base + ":" + level
			fig := boxplot.NewStacked(c.cfg.TitleFor(level),
				boxplot.Group{Name: name, Values: x},
				boxplot.Group{Name: cand, Values: y},
			)
			cmp.Figure = boxplot.FileName(c.outDir, name, cand)
			if err := fig.Save(cmp.Figure); err != nil {
				return report, err
			}
			log.Printf("saved %s", cmp.Figure)
		}

		if len(x) == 0 && len(y) == 0 {
			log.Printf("%s: no rows, skipping test", level)
			cmp.Skipped = true
			report.Comparisons = append(report.Comparisons, cmp)
			continue
		}

		res, err := stats.SignedRank(y, x, c.alternative)
		if err != nil {
			return report, errors.Wrapf(err, "level %s", level)
		}
		cmp.Test = res
		log.Printf("%s: W=%g p=%.6g (n=%d)", level, res.Statistic, res.PValue, res.N)

		report.Comparisons = append(report.Comparisons, cmp)
	}

	for _, m := range scheme.Methods {
		res, ok := c.orientationTest(buckets.ROC[m.Name], buckets.ROCOpposite[m.Name])
		if !ok {
			continue
		}
		report.ROCTests[m.Name] = res
		log.Printf("roc %s: W=%g p=%.6g (n=%d)", m.Name, res.Statistic, res.PValue, res.N)
	}

	if c.draw && (0 < len(buckets.ROC) || 0 < len(buckets.ROCOpposite)) {
		var groups []boxplot.Group
		for _, m := range scheme.Methods {
			if v, ok := buckets.ROC[m.Name]; ok {
				groups = append(groups, boxplot.Group{Name: m.Name, Values: v})
			}
			if v, ok := buckets.ROCOpposite[m.Name]; ok {
				groups = append(groups, boxplot.Group{Name: m.Name + " opposite", Values: v})
			}
		}
		report.ROCFigure = boxplot.FileName(c.outDir, "AUC-ROC", scheme.ROCLevel)
		fig := boxplot.NewShared("AUC-ROC, noise "+scheme.ROCLevel, groups...)
		if err := fig.Save(report.ROCFigure); err != nil {
			return report, err
		}
		log.Printf("saved %s", report.ROCFigure)
	}

	return report, nil
}

// orientationTest pairs the AUC of the reported orientation with the
// opposite one. ok is false when the buckets cannot be paired or the test
// rejects them.
func (c *Comparer) orientationTest(roc, opposite []float64) (stats.SignedRankResult, bool) {
	if len(roc) == 0 || len(roc) != len(opposite) {
		return stats.SignedRankResult{}, false
	}
	res, err := stats.SignedRank(roc, opposite, c.alternative)
	if err != nil {
		log.Printf("roc: %v, skipping test", err)
		return stats.SignedRankResult{}, false
	}
	return res, true
}
