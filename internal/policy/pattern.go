package policy

import (
	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"
)

const matchAll = "*"

// pattern is a validated glob.
type pattern string

func compilePattern(raw string) (pattern, error) {
	if raw == "" {
		return matchAll, nil
	}

	if !doublestar.ValidatePattern(raw) {
		return "", errors.Wrapf(ErrInvalidRule, "bad pattern %q", raw)
	}

	return pattern(raw), nil
}

func (p pattern) match(s string) bool {
	if p == matchAll {
		return true
	}

	ok, err := doublestar.Match(string(p), s)

	return err == nil && ok
}
