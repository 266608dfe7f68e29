package bucket

import (
	"github.com/cockroachdb/errors"
)

// Buckets holds scores grouped by tag and the ROC values grouped by method.
// ROC takes the first extra column of a row, ROCOpposite the second one.
type Buckets struct {
	Scores      map[Tag][]float64
	ROC         map[string][]float64
	ROCOpposite map[string][]float64
}

// Get returns the scores of method at level.
func (b *Buckets) Get(level, method string) []float64 {
	return b.Scores[Tag{Level: level, Method: method}]
}

// Partition sorts records into buckets. Rows without a tag are ignored.
// Rows at the scheme's ROC level contribute their two extra columns to the
// ROC and ROCOpposite buckets of their method.
func Partition(records []Record, s Scheme, tagger Tagger) (*Buckets, error) {
	b := &Buckets{
		Scores:      map[Tag][]float64{},
		ROC:         map[string][]float64{},
		ROCOpposite: map[string][]float64{},
	}
	for _, l := range s.Levels {
		for _, m := range s.Methods {
			b.Scores[Tag{Level: l, Method: m.Name}] = []float64{}
		}
	}

	for _, rec := range records {
		tags, err := tagger.Tags(rec.ID)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			b.Scores[tag] = append(b.Scores[tag], rec.Score)
			if s.ROCLevel == "" || tag.Level != s.ROCLevel {
				continue
			}
			if 0 < len(rec.Extra) {
				b.ROC[tag.Method] = append(b.ROC[tag.Method], rec.Extra[0])
			}
			if 1 < len(rec.Extra) {
				b.ROCOpposite[tag.Method] = append(b.ROCOpposite[tag.Method], rec.Extra[1])
			}
		}
	}

	return b, nil
}

// PartitionFile reads path and partitions its rows.
func PartitionFile(path string, s Scheme, tagger Tagger) (*Buckets, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	records, err := ReadAggregateFile(path)
	if err != nil {
		return nil, err
	}
	b, err := Partition(records, s, tagger)
	if err != nil {
		return nil, errors.Wrapf(err, "partition %s", path)
	}
	return b, nil
}
