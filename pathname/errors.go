package pathname

import "errors"

var (
	// ErrNotAbsolute is returned by New when raw does not start with "/".
	ErrNotAbsolute = errors.New("pathname: not an absolute path")
	// ErrEmptySegment is returned by New when raw contains "//" or a
	// trailing segment that is empty after the leading slash.
	ErrEmptySegment = errors.New("pathname: empty path segment")
)
