package linalg

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/distmat"
	"github.com/scalago/scalago/types/shapes"
)

// CholeskyOptions configure Cholesky. The zero value matches the defaults:
// upper factor, operate on a copy, zero the untouched triangle, use the
// default backend.
type CholeskyOptions struct {
	// Lower produces the lower factor L with a = L·Lᴴ (and makes the backend
	// read/write the lower triangle). The default is the upper factor U with
	// a = Uᴴ·U.
	Lower bool

	// Overwrite factors a's local buffer in place instead of a copy. With it,
	// a may be left partially mutated when the factorization fails.
	Overwrite bool

	// KeepOtherTriangle skips the zeroing of the triangle the factorization
	// does not produce. The backend is permitted to leave stale values there,
	// so the result is only a well-defined triangular matrix when the zeroing
	// runs.
	KeepOtherTriangle bool

	// Backend overrides the default compute backend.
	Backend backends.Backend
}

// Cholesky computes the Cholesky factor of the symmetric/Hermitian
// positive-definite distributed matrix a, returning a matrix holding the
// upper (default) or lower triangular factor.
//
// Fails with shapes.ErrShape when a is not square and ErrDecomposition when
// the backend reports failure, which signals a matrix that is not positive
// definite or a numerical breakdown. Collective over a's grid. opts may be
// nil.
func Cholesky(a *distmat.Matrix, opts *CholeskyOptions) (*distmat.Matrix, error) {
	if opts == nil {
		opts = &CholeskyOptions{}
	}
	if a == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "cholesky of a nil matrix")
	}
	if !a.IsSquare() {
		return nil, errors.Wrapf(shapes.ErrShape, "cholesky requires a square matrix, got %s", a.Shape())
	}
	be, err := resolveBackend(opts.Backend)
	if err != nil {
		return nil, err
	}

	operand := a
	if !opts.Overwrite {
		operand = a.Copy()
	}
	uplo := backends.Upper
	if opts.Lower {
		uplo = backends.Lower
	}

	info := be.Cholesky(operand.Grid(), uplo, operand.Shape().Rows, operand.Operand())
	if info < 0 {
		return nil, errors.Wrapf(ErrDecomposition,
			"cholesky backend %q returned status %d (matrix not positive definite?)", be.Name(), info)
	}

	if !opts.KeepOtherTriangle {
		zeroOtherTriangle(operand, opts.Lower)
	}
	return operand, nil
}

// zeroOtherTriangle zeroes every local entry strictly on the side of the
// diagonal not covered by the requested factor, using the local-to-global
// index mapping. One explicit pass over the local buffer, no temporaries.
func zeroOtherTriangle(m *distmat.Matrix, lower bool) {
	rows, cols := m.GlobalIndices()
	switch m.DType() {
	case dtypes.Float32:
		zeroTriangleFlat(distmat.Flat[float32](m), rows, cols, lower)
	case dtypes.Float64:
		zeroTriangleFlat(distmat.Flat[float64](m), rows, cols, lower)
	case dtypes.Complex64:
		zeroTriangleFlat(distmat.Flat[complex64](m), rows, cols, lower)
	case dtypes.Complex128:
		zeroTriangleFlat(distmat.Flat[complex128](m), rows, cols, lower)
	}
}

func zeroTriangleFlat[T shapes.Element](flat []T, rows, cols []int, lower bool) {
	lld := len(cols)
	for li, gi := range rows {
		for lj, gj := range cols {
			keep := gj <= gi
			if !lower {
				keep = gj >= gi
			}
			if !keep {
				flat[li*lld+lj] = 0
			}
		}
	}
}
