// Package bucket partitions aggregated score rows by the condition level
// and method encoded in their identifiers.
package bucket

import (
	"github.com/ar90n/modica"
	"github.com/cockroachdb/errors"
)

// Method is a scoring method under comparison. Any of its markers
// identifies it; "x" and "y" for instance name the two modules produced
// by one decomposition.
type Method struct {
	Name    string
	Markers []string
}

// Scheme describes how identifiers are tagged.
type Scheme struct {
	Levels  []string
	Methods []Method
	// ROCLevel selects the rows whose extra columns are collected into
	// ROC buckets. Empty disables ROC collection.
	ROCLevel string
}

// DefaultScheme compares NetClust against MIQP-ICA at three noise levels.
func DefaultScheme() Scheme {
	return Scheme{
		Levels: []string{"0.25", "0.4", "0.5"},
		Methods: []Method{
			{Name: "NetClust", Markers: []string{"nc"}},
			{Name: "MIQP-ICA", Markers: []string{"x", "y"}},
		},
		ROCLevel: "0.25",
	}
}

func (s Scheme) Validate() error {
	if len(s.Levels) == 0 {
		return errors.Mark(errors.New("scheme has no levels"), modica.ErrPrecondition)
	}
	if len(s.Methods) != 2 {
		return errors.Mark(errors.Newf("scheme needs exactly 2 methods, got %d", len(s.Methods)), modica.ErrPrecondition)
	}

	seen := map[string]string{}
	for _, m := range s.Methods {
		if len(m.Markers) == 0 {
			return errors.Mark(errors.Newf("method %s has no markers", m.Name), modica.ErrPrecondition)
		}
		for _, mk := range m.Markers {
			if other, ok := seen[mk]; ok {
				return errors.Mark(errors.Newf("marker %q used by %s and %s", mk, other, m.Name), modica.ErrPrecondition)
			}
			seen[mk] = m.Name
		}
	}

	if s.ROCLevel != "" && !s.hasLevel(s.ROCLevel) {
		return errors.Mark(errors.Newf("ROC level %s is not a scheme level", s.ROCLevel), modica.ErrPrecondition)
	}
	return nil
}

func (s Scheme) hasLevel(level string) bool {
	for _, l := range s.Levels {
		if l == level {
			return true
		}
	}
	return false
}
