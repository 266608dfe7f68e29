package stats

import (
	"sort"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/number"
	"github.com/cockroachdb/errors"
)

// tieEps groups predictions closer than this into one ROC step.
const tieEps = 1e-6

// Point is one (false positive rate, true positive rate) pair.
type Point struct {
	FPR, TPR float64
}

type Curve struct {
	Points []Point
	AUC    float64
	// Threshold is the prediction at which the false positive rate first
	// reaches 1%; ThresholdIndex is its index into Points, or -1.
	Threshold      float64
	ThresholdIndex int
}

type scored struct {
	prediction float64
	label      bool
}

func checkLabelled(predictions []float64, labels []bool) (pos, neg int, err error) {
	if len(predictions) != len(labels) {
		return 0, 0, errors.Mark(
			errors.Newf("predictions and labels differ in length: %d != %d", len(predictions), len(labels)),
			modica.ErrPrecondition,
		)
	}
	for _, l := range labels {
		if l {
			pos++
		} else {
			neg++
		}
	}
	return pos, neg, nil
}

// ROC computes the receiver operating characteristic of predictions
// against the boolean truth labels. Both classes must be present.
func ROC(predictions []float64, labels []bool) (Curve, error) {
	pos, neg, err := checkLabelled(predictions, labels)
	if err != nil {
		return Curve{}, err
	}
	if pos == 0 || neg == 0 {
		return Curve{}, errors.Mark(errors.New("ROC needs both positive and negative labels"), modica.ErrPrecondition)
	}

	items := make([]scored, len(labels))
	for i := range labels {
		items[i] = scored{prediction: predictions[i], label: labels[i]}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].prediction > items[j].prediction
	})

	stepX := 1 / float64(neg)
	stepY := 1 / float64(pos)
	curve := Curve{Points: []Point{{}}, ThresholdIndex: -1}
	var x, y float64
	for i := 0; i < len(items); {
		j := i
		for j+1 < len(items) && number.NearlyEqual(items[j].prediction, items[j+1].prediction, tieEps) {
			j++
		}
		for k := i; k <= j; k++ {
			if items[k].label {
				y += stepY
			} else {
				x += stepX
			}
		}
		curve.Points = append(curve.Points, Point{FPR: x, TPR: y})

		if 0.01 <= x && curve.ThresholdIndex < 0 {
			curve.ThresholdIndex = len(curve.Points) - 1
			curve.Threshold = items[j].prediction
		}
		i = j + 1
	}

	curve.AUC = auc(items, pos, neg)
	return curve, nil
}

// auc is the probability that a random positive outranks a random
// negative, counting ties as one half.
func auc(items []scored, pos, neg int) float64 {
	var num float64
	for _, p := range items {
		if !p.label {
			continue
		}
		for _, q := range items {
			if q.label {
				continue
			}
			switch {
			case q.prediction < p.prediction:
				num++
			case q.prediction == p.prediction:
				num += 0.5
			}
		}
	}
	return num / float64(pos*neg)
}
