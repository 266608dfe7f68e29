// Package config loads the comparison scheme used to bucket and plot
// aggregated scores.
package config

import (
	"io"
	"strings"

	"github.com/ar90n/modica"
	"github.com/ar90n/modica/bucket"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

type Method struct {
	Name    string   `yaml:"name"`
	Markers []string `yaml:"markers"`
}

// Comparison is the on-disk form of a comparison scheme.
type Comparison struct {
	Levels   []string `yaml:"levels"`
	Methods  []Method `yaml:"methods"`
	ROCLevel string   `yaml:"roc_level"`
	// Title is the figure title; "{level}" is replaced by the level.
	Title string `yaml:"title"`
	// Tagger is "token" or "substring".
	Tagger string `yaml:"tagger"`
}

func Default() Comparison {
	s := bucket.DefaultScheme()
	c := Comparison{
		ROCLevel: s.ROCLevel,
		Title:    "F1-score, noise {level}, average 2 modules by 11 tests",
		Tagger:   "token",
	}
	c.Levels = append(c.Levels, s.Levels...)
	for _, m := range s.Methods {
		c.Methods = append(c.Methods, Method{Name: m.Name, Markers: m.Markers})
	}
	return c
}

// Load decodes YAML from r on top of the defaults.
func Load(r io.Reader) (Comparison, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil && err != io.EOF {
		return Comparison{}, errors.Mark(errors.Wrap(err, "decode comparison scheme"), modica.ErrParse)
	}
	if err := c.Scheme().Validate(); err != nil {
		return Comparison{}, err
	}
	return c, nil
}

// LoadFile loads path, or returns the defaults when path is empty.
func LoadFile(path string) (Comparison, error) {
	if path == "" {
		return Default(), nil
	}
	r, err := modica.Open(path)
	if err != nil {
		return Comparison{}, err
	}
	defer r.Close()

	c, err := Load(r)
	if err != nil {
		return Comparison{}, errors.Wrapf(err, "load %s", path)
	}
	return c, nil
}

func (c Comparison) Scheme() bucket.Scheme {
	s := bucket.Scheme{Levels: c.Levels, ROCLevel: c.ROCLevel}
	for _, m := range c.Methods {
		s.Methods = append(s.Methods, bucket.Method{Name: m.Name, Markers: m.Markers})
	}
	return s
}

func (c Comparison) TitleFor(level string) string {
	return strings.ReplaceAll(c.Title, "{level}", level)
}
