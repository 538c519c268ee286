package linalg

import (
	"github.com/pkg/errors"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/distmat"
	"github.com/scalago/scalago/grids"
	"github.com/scalago/scalago/types/shapes"
)

// DotOptions configure Dot. The zero value multiplies the operands as they
// are with the default backend.
type DotOptions struct {
	// TransA and TransB select the transform applied to each operand. Use
	// backends.ParseTranspose to map the conventional "N"/"T"/"H"/"C" tokens.
	TransA, TransB backends.Transpose

	// Backend overrides the default compute backend.
	Backend backends.Backend
}

// Dot computes c = op(a)·op(b) into a freshly allocated distributed matrix
// sharing a's element type, block shape and grid. a and b are never mutated.
//
// Fails with ErrInvalidArgument for an undefined transform, ErrTypeMismatch
// when the operands' element types differ, grids.ErrConfig when they live on
// different grids, and shapes.ErrShape when the inner dimensions do not
// match. Collective over the operands' grid. opts may be nil.
func Dot(a, b *distmat.Matrix, opts *DotOptions) (*distmat.Matrix, error) {
	if opts == nil {
		opts = &DotOptions{}
	}
	if a == nil || b == nil {
		return nil, errors.Wrap(ErrInvalidArgument, "dot of a nil matrix")
	}
	if !opts.TransA.Valid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "transpose argument for matrix a: %d", int(opts.TransA))
	}
	if !opts.TransB.Valid() {
		return nil, errors.Wrapf(ErrInvalidArgument, "transpose argument for matrix b: %d", int(opts.TransB))
	}
	if a.DType() != b.DType() {
		return nil, errors.Wrapf(ErrTypeMismatch, "a is %s, b is %s", a.DType(), b.DType())
	}
	if !a.Grid().Equal(b.Grid()) {
		return nil, errors.Wrapf(grids.ErrConfig, "operands live on different grids: %s vs %s", a.Grid(), b.Grid())
	}

	// Effective dimensions after the transforms.
	m, k := a.Shape().Rows, a.Shape().Cols
	if opts.TransA.Swaps() {
		m, k = k, m
	}
	l, n := b.Shape().Rows, b.Shape().Cols
	if opts.TransB.Swaps() {
		l, n = n, l
	}
	if l != k {
		return nil, errors.Wrapf(shapes.ErrShape,
			"incompatible multiply dimensions: op(a) is %dx%d, op(b) is %dx%d", m, k, l, n)
	}

	be, err := resolveBackend(opts.Backend)
	if err != nil {
		return nil, err
	}

	cShape, err := shapes.Make(a.DType(), m, n)
	if err != nil {
		return nil, err
	}
	c, err := distmat.New(cShape, a.Block(), a.Grid())
	if err != nil {
		return nil, err
	}

	// The backend supports the general c = alpha·op(a)·op(b) + beta·c; this
	// operation fixes alpha=1, beta=0.
	info := be.Gemm(a.Grid(), opts.TransA, opts.TransB, m, n, k, 1, a.Operand(), b.Operand(), 0, c.Operand())
	if info < 0 {
		return nil, errors.Wrapf(ErrComputation, "dot backend %q returned status %d", be.Name(), info)
	}
	return c, nil
}
