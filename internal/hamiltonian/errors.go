package hamiltonian

import "errors"

var (
	// ErrNilField indicates a model constructed without a field.
	ErrNilField = errors.New("hamiltonian: field is nil")

	// ErrInvalidParam indicates a non-finite parameter or a zero anisotropy
	// axis combined with a non-zero anisotropy constant.
	ErrInvalidParam = errors.New("hamiltonian: invalid parameter")

	// ErrUnknownDMI indicates an unsupported DMI convention.
	ErrUnknownDMI = errors.New("hamiltonian: unknown DMI type")
)
