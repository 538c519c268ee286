package localgo

import (
	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/grids"
	"github.com/scalago/scalago/types/shapes"
)

// Movement between the block-cyclic distributed layout and the replicated
// dense working arrays the kernels run on. Kernels work in float64 or
// complex128; the narrow variants are widened on gather and narrowed back on
// scatter.

func isComplex(dtype dtypes.DType) bool {
	return dtype == dtypes.Complex64 || dtype == dtypes.Complex128
}

// assemble reconstructs the global row-major array from the per-rank local
// buffers, in the operand's native element type.
func assemble[T shapes.Element](g *grids.Grid, d backends.Desc, parts []any) ([]T, error) {
	global := make([]T, d.M*d.N)
	for rank, part := range parts {
		flat, ok := part.([]T)
		if !ok {
			return nil, errors.Errorf("rank %d sent a %T buffer, want %T", rank, part, global)
		}
		prow, pcol := g.CoordsOf(rank)
		rows := d.RowIndicesOf(prow)
		cols := d.ColIndicesOf(pcol)
		for li, gi := range rows {
			rowBase := gi * d.N
			localBase := li * len(cols)
			for lj, gj := range cols {
				global[rowBase+gj] = flat[localBase+lj]
			}
		}
	}
	return global, nil
}

// gatherReal gathers a real-variant operand into a replicated float64 array.
// Collective over the grid.
func gatherReal(g *grids.Grid, op backends.Operand) ([]float64, error) {
	parts, err := g.Comm().Allgather(op.Flat)
	if err != nil {
		return nil, errors.Wrap(err, "gather: allgather failed")
	}
	var out []float64
	switch op.DType {
	case dtypes.Float32:
		var a []float32
		a, err = assemble[float32](g, op.Desc, parts)
		if err == nil {
			out = make([]float64, len(a))
			for i, v := range a {
				out[i] = float64(v)
			}
		}
	case dtypes.Float64:
		out, err = assemble[float64](g, op.Desc, parts)
	default:
		exceptions.Panicf("localgo: gatherReal called with element type %s", op.DType)
	}
	// The gathered parts alias other processes' buffers; hold everyone here
	// until all copies are done.
	g.Comm().Barrier()
	return out, err
}

// gatherComplex gathers any supported operand into a replicated complex128
// array, widening real variants. Collective over the grid.
func gatherComplex(g *grids.Grid, op backends.Operand) ([]complex128, error) {
	parts, err := g.Comm().Allgather(op.Flat)
	if err != nil {
		return nil, errors.Wrap(err, "gather: allgather failed")
	}
	var out []complex128
	switch op.DType {
	case dtypes.Float32:
		var a []float32
		a, err = assemble[float32](g, op.Desc, parts)
		out = widenToComplex(a, err)
	case dtypes.Float64:
		var a []float64
		a, err = assemble[float64](g, op.Desc, parts)
		out = widenToComplex(a, err)
	case dtypes.Complex64:
		var a []complex64
		a, err = assemble[complex64](g, op.Desc, parts)
		if err == nil {
			out = make([]complex128, len(a))
			for i, v := range a {
				out[i] = complex128(v)
			}
		}
	case dtypes.Complex128:
		out, err = assemble[complex128](g, op.Desc, parts)
	default:
		exceptions.Panicf("localgo: gatherComplex called with element type %s", op.DType)
	}
	g.Comm().Barrier()
	return out, err
}

func widenToComplex[T float32 | float64](a []T, err error) []complex128 {
	if err != nil {
		return nil
	}
	out := make([]complex128, len(a))
	for i, v := range a {
		out[i] = complex(float64(v), 0)
	}
	return out
}

// scatterReal writes this process's portion of a replicated float64 global
// array into a real-variant operand's local buffer. Purely local.
func scatterReal(op backends.Operand, global []float64) {
	rows := op.Desc.RowIndicesOf(op.Desc.MyRow)
	cols := op.Desc.ColIndicesOf(op.Desc.MyCol)
	switch op.DType {
	case dtypes.Float32:
		flat := op.Flat.([]float32)
		for li, gi := range rows {
			for lj, gj := range cols {
				flat[li*op.Desc.LLD+lj] = float32(global[gi*op.Desc.N+gj])
			}
		}
	case dtypes.Float64:
		flat := op.Flat.([]float64)
		for li, gi := range rows {
			for lj, gj := range cols {
				flat[li*op.Desc.LLD+lj] = global[gi*op.Desc.N+gj]
			}
		}
	default:
		exceptions.Panicf("localgo: scatterReal called with element type %s", op.DType)
	}
}

// scatterComplex writes this process's portion of a replicated complex128
// global array into an operand's local buffer, narrowing to the operand's
// element type (real variants keep the real part). Purely local.
func scatterComplex(op backends.Operand, global []complex128) {
	rows := op.Desc.RowIndicesOf(op.Desc.MyRow)
	cols := op.Desc.ColIndicesOf(op.Desc.MyCol)
	switch op.DType {
	case dtypes.Float32:
		flat := op.Flat.([]float32)
		for li, gi := range rows {
			for lj, gj := range cols {
				flat[li*op.Desc.LLD+lj] = float32(real(global[gi*op.Desc.N+gj]))
			}
		}
	case dtypes.Float64:
		flat := op.Flat.([]float64)
		for li, gi := range rows {
			for lj, gj := range cols {
				flat[li*op.Desc.LLD+lj] = real(global[gi*op.Desc.N+gj])
			}
		}
	case dtypes.Complex64:
		flat := op.Flat.([]complex64)
		for li, gi := range rows {
			for lj, gj := range cols {
				flat[li*op.Desc.LLD+lj] = complex64(global[gi*op.Desc.N+gj])
			}
		}
	case dtypes.Complex128:
		flat := op.Flat.([]complex128)
		for li, gi := range rows {
			for lj, gj := range cols {
				flat[li*op.Desc.LLD+lj] = global[gi*op.Desc.N+gj]
			}
		}
	default:
		exceptions.Panicf("localgo: scatterComplex called with element type %s", op.DType)
	}
}
