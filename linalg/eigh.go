package linalg

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/distmat"
	"github.com/scalago/scalago/types/shapes"
)

// IndexRange is a zero-based inclusive range of eigenpair indices, counted in
// ascending eigenvalue order.
type IndexRange struct {
	Lo, Hi int
}

// EighOptions configure Eigh. The zero value matches the defaults: read the
// lower triangle, operate on a copy, compute the full spectrum, use the
// default backend.
type EighOptions struct {
	// UseUpper makes the upper triangle authoritative instead of the lower.
	UseUpper bool

	// Overwrite lets the operation use a's local buffer as scratch, mutating
	// it in place. Without it, a copy is taken and a is never touched. With
	// it, a may be left partially mutated when the backend fails.
	Overwrite bool

	// Range restricts the computation to the eigenpairs with these indices.
	// nil computes all of them.
	Range *IndexRange

	// Backend overrides the default compute backend.
	Backend backends.Backend
}

// Eigh computes the eigen-decomposition of the symmetric/Hermitian
// distributed matrix a. Only the triangle selected by opts is read.
//
// It returns the eigenvalues in ascending order as a replicated []float32 or
// []float64 (a's real-equivalent element type) and the matching eigenvectors
// as the columns of a distributed matrix shaped like a. When opts.Range
// selects k eigenpairs, the eigenvalue slice has length k and the
// eigenvectors occupy the first k columns.
//
// Fails with shapes.ErrShape when a is not square, ErrInvalidArgument for a
// bad range, and ErrComputation when the backend reports failure. Collective
// over a's grid. opts may be nil.
func Eigh(a *distmat.Matrix, opts *EighOptions) (evals any, evecs *distmat.Matrix, err error) {
	if opts == nil {
		opts = &EighOptions{}
	}
	if a == nil {
		return nil, nil, errors.Wrap(ErrInvalidArgument, "eigh of a nil matrix")
	}
	if !a.IsSquare() {
		return nil, nil, errors.Wrapf(shapes.ErrShape, "eigh requires a square matrix, got %s", a.Shape())
	}
	n := a.Shape().Rows

	erange := backends.RangeAll
	il, iu := 1, 1
	if opts.Range != nil {
		if opts.Range.Lo < 0 || opts.Range.Hi >= n || opts.Range.Lo > opts.Range.Hi {
			return nil, nil, errors.Wrapf(ErrInvalidArgument,
				"eigenvalue index range %d..%d out of bounds for order %d", opts.Range.Lo, opts.Range.Hi, n)
		}
		// The backend convention is 1-based inclusive.
		il, iu = opts.Range.Lo+1, opts.Range.Hi+1
		erange = backends.RangeIndex
	}

	be, err := resolveBackend(opts.Backend)
	if err != nil {
		return nil, nil, err
	}

	operand := a
	if !opts.Overwrite {
		operand = a.Copy()
	}
	uplo := backends.Lower
	if opts.UseUpper {
		uplo = backends.Upper
	}

	z := distmat.EmptyLike(operand)
	var w any
	switch shapes.RealEquiv(a.DType()) {
	case dtypes.Float32:
		w = make([]float32, n)
	default:
		w = make([]float64, n)
	}

	// (1.0, 1.0) fills the value-range slots, reserved by the backend
	// convention and unused under index selection.
	m, info := be.Eigh(operand.Grid(), erange, uplo, n, operand.Operand(), 1.0, 1.0, il, iu, w, z.Operand())
	if info < 0 {
		return nil, nil, errors.Wrapf(ErrComputation, "eigh backend %q returned status %d", be.Name(), info)
	}

	switch wv := w.(type) {
	case []float32:
		evals = wv[:m]
	case []float64:
		evals = wv[:m]
	}
	return evals, z, nil
}
