package stats

import (
	"sort"
)

// Metrics describes a binary classification made by thresholding scores.
type Metrics struct {
	Threshold float64
	Precision float64
	Recall    float64
	F1        float64
	// Predicted is the number of samples called positive.
	Predicted int
}

// Classify calls every prediction >= threshold positive.
func Classify(predictions []float64, labels []bool, threshold float64) (Metrics, error) {
	if _, _, err := checkLabelled(predictions, labels); err != nil {
		return Metrics{}, err
	}

	var tp, fp, fn float64
	for i, l := range labels {
		called := threshold <= predictions[i]
		switch {
		case called && l:
			tp++
		case called && !l:
			fp++
		case !called && l:
			fn++
		}
	}

	m := Metrics{Threshold: threshold, Predicted: int(tp + fp)}
	if tp+fp != 0 {
		m.Precision = tp / (tp + fp)
	}
	if tp+fn != 0 {
		m.Recall = tp / (tp + fn)
	}
	if m.Precision+m.Recall != 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m, nil
}

// BestF1 tries every distinct prediction as a threshold and returns the
// metrics with the highest F1, preferring the higher threshold on ties.
func BestF1(predictions []float64, labels []bool) (Metrics, error) {
	if _, _, err := checkLabelled(predictions, labels); err != nil {
		return Metrics{}, err
	}

	thresholds := append([]float64(nil), predictions...)
	sort.Sort(sort.Reverse(sort.Float64Slice(thresholds)))

	best := Metrics{F1: -1}
	for i, th := range thresholds {
		if 0 < i && thresholds[i-1] == th {
			continue
		}
		m, err := Classify(predictions, labels, th)
		if err != nil {
			return Metrics{}, err
		}
		if best.F1 < m.F1 {
			best = m
		}
	}
	if best.F1 < 0 {
		best = Metrics{}
	}
	return best, nil
}
