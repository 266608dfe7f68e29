package bucket

import (
	"strings"

	"github.com/ar90n/modica"
	"github.com/cockroachdb/errors"
)

var ErrAmbiguousTag = errors.New("identifier carries more than one tag")

// Tag is the (level, method) a row belongs to.
type Tag struct {
	Level  string
	Method string
}

type Tagger interface {
	Tags(id string) ([]Tag, error)
}

// markerMethods maps each marker to the name of its method.
func markerMethods(s Scheme) map[string]string {
	m := map[string]string{}
	for _, method := range s.Methods {
		for _, mk := range method.Markers {
			m[mk] = method.Name
		}
	}
	return m
}

// TokenTagger splits identifiers on '_' and looks for a marker token
// immediately followed by a level token. An identifier yields at most one
// tag.
type TokenTagger struct {
	levels  map[string]struct{}
	markers map[string]string
}

func NewTokenTagger(s Scheme) *TokenTagger {
	levels := map[string]struct{}{}
	for _, l := range s.Levels {
		levels[l] = struct{}{}
	}
	return &TokenTagger{levels: levels, markers: markerMethods(s)}
}

func (tt *TokenTagger) Tags(id string) ([]Tag, error) {
	tokens := strings.Split(id, "_")

	var found []Tag
	for i := 0; i+1 < len(tokens); i++ {
		method, ok := tt.markers[tokens[i]]
		if !ok {
			continue
		}
		if _, ok := tt.levels[tokens[i+1]]; !ok {
			continue
		}
		tag := Tag{Level: tokens[i+1], Method: method}
		if 0 < len(found) && found[0] != tag {
			return nil, errors.Mark(
				errors.Wrapf(ErrAmbiguousTag, "%q matches %s:%s and %s:%s", id, found[0].Method, found[0].Level, tag.Method, tag.Level),
				modica.ErrPrecondition,
			)
		}
		if len(found) == 0 {
			found = append(found, tag)
		}
	}
	return found, nil
}

// SubstringTagger reports every (level, method) whose "marker_level" text
// occurs anywhere in the identifier. One identifier may land in several
// buckets.
type SubstringTagger struct {
	scheme Scheme
}

func NewSubstringTagger(s Scheme) *SubstringTagger {
	return &SubstringTagger{scheme: s}
}

func (st *SubstringTagger) Tags(id string) ([]Tag, error) {
	var tags []Tag
	for _, level := range st.scheme.Levels {
		for _, method := range st.scheme.Methods {
			for _, mk := range method.Markers {
				if strings.Contains(id, mk+"_"+level) {
					tags = append(tags, Tag{Level: level, Method: method.Name})
					break
				}
			}
		}
	}
	return tags, nil
}

// NewTagger returns the tagger called name: "token" or "substring".
func NewTagger(name string, s Scheme) (Tagger, error) {
	switch name {
	case "", "token":
		return NewTokenTagger(s), nil
	case "substring":
		return NewSubstringTagger(s), nil
	default:
		return nil, errors.Newf("unknown tagger: %s", name)
	}
}
