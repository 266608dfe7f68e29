package modica

import "github.com/cockroachdb/errors"

var (
	ErrParse        = errors.New("parse error")
	ErrIO           = errors.New("i/o error")
	ErrConvergence  = errors.New("decomposition did not converge")
	ErrPrecondition = errors.New("precondition violated")
)

// MarkIO wraps err with the formatted message and tags it as an I/O
// failure. A nil err stays nil.
func MarkIO(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return errors.Mark(errors.Wrapf(err, format, args...), ErrIO)
}
