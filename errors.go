package fault

import "github.com/pkg/errors"

// Structural errors. They are raised while recording or lowering, indicate a
// mistake in the test itself and always abort the current compile-and-run
// cycle.
var (
	// ErrUnknownPath is returned when an action addresses a path that does
	// not exist in the circuit interface model.
	ErrUnknownPath = errors.New("unknown path")

	// ErrWidthMismatch is returned when a poke or expect value disagrees
	// with the width of the port it addresses.
	ErrWidthMismatch = errors.New("width mismatch")

	// ErrDirection is returned when an action drives a port that cannot be
	// driven, e.g. a poke on an output.
	ErrDirection = errors.New("bad port direction")
)
