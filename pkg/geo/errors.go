package geo

import "errors"

// Kernel failure modes. Callers skip the affected candidate on
// ErrDegenerateResult and abort on ErrInvalidInput.
var (
	// ErrInvalidInput marks non-finite coordinates, open rings, or
	// polygons with fewer than three distinct vertices.
	ErrInvalidInput = errors.New("geo: invalid input")

	// ErrDegenerateResult marks an operation whose output collapsed to
	// nothing or self-intersects beyond repair.
	ErrDegenerateResult = errors.New("geo: degenerate result")
)
