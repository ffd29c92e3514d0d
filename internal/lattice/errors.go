package lattice

import "errors"

// Domain errors for lattice operations.
var (
	// ErrInvalidDimension indicates a non-positive lattice dimension or a
	// spin slice whose length does not match nx*ny.
	ErrInvalidDimension = errors.New("lattice: dimensions must be positive integers")

	// ErrInvalidVector indicates a vector that is not three finite real numbers.
	ErrInvalidVector = errors.New("lattice: vector must be three finite real numbers")

	// ErrIndexOutOfRange indicates coordinates outside [0,nx) × [0,ny).
	ErrIndexOutOfRange = errors.New("lattice: index out of range")

	// ErrDegenerateVector indicates a zero vector that cannot be normalised.
	ErrDegenerateVector = errors.New("lattice: cannot normalise zero vector")
)
