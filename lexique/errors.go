package lexique

import "errors"

// ErrInvalidInput is returned when a request is rejected before any work
// begins (empty word list, unknown operator, non-positive limit).
var ErrInvalidInput = errors.New("lexique: invalid input")

// ErrNotFound is returned when a requested paragraph does not exist.
var ErrNotFound = errors.New("lexique: not found")

// ErrUpstream is returned when the paragraph generator or an import source
// cannot be reached or answers with a failure.
var ErrUpstream = errors.New("lexique: upstream fetch failed")
