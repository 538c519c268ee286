// Package linalg provides the public distributed linear-algebra operations:
// Eigh (symmetric/Hermitian eigen-decomposition), Cholesky and Dot (matrix
// multiply). Operations validate their inputs, allocate result matrices,
// dispatch to the configured compute backend and post-process results.
//
// Every operation is collective: all processes of the operands' grid must
// call it with the same logical inputs, in the same order. Validation errors
// are raised before any backend call and identically on every process.
package linalg

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/scalago/scalago/backends"
)

// Error kinds, to be matched with errors.Is. Shape failures carry
// shapes.ErrShape and grid mismatches carry grids.ErrConfig.
var (
	// ErrTypeMismatch reports binary operands with differing element types.
	ErrTypeMismatch = errors.New("operands have different element types")

	// ErrInvalidArgument reports an argument outside its allowed set.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrComputation reports a backend-signalled numerical failure.
	ErrComputation = errors.New("computation failed")

	// ErrDecomposition reports a factorization failure, typically a matrix
	// that is not positive definite.
	ErrDecomposition = errors.New("decomposition failed")
)

var (
	defaultBackendOnce sync.Once
	defaultBackend     backends.Backend
	defaultBackendErr  error
)

// resolveBackend returns the override when given, otherwise the process-wide
// default backend, constructed once via backends.New.
func resolveBackend(override backends.Backend) (backends.Backend, error) {
	if override != nil {
		return override, nil
	}
	defaultBackendOnce.Do(func() {
		defaultBackend, defaultBackendErr = backends.New()
	})
	if defaultBackendErr != nil {
		return nil, errors.WithMessage(defaultBackendErr, "resolving default backend")
	}
	return defaultBackend, nil
}
