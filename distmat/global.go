package distmat

import (
	"reflect"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/grids"
	"github.com/scalago/scalago/types/shapes"
)

// FromGlobal builds a distributed matrix from a replicated global array:
// every process passes the same row-major global flat slice (length
// shape.Size()) and keeps only the entries it owns. Purely local, no
// communication.
func FromGlobal(shape shapes.Shape, block shapes.Block, grid *grids.Grid, global any) (*Matrix, error) {
	m, err := New(shape, block, grid)
	if err != nil {
		return nil, err
	}
	v := reflect.ValueOf(global)
	if v.Type() != reflect.SliceOf(shape.DType.GoType()) {
		return nil, errors.Errorf("FromGlobal: global type %T does not match element type %s", global, shape.DType)
	}
	if v.Len() != shape.Size() {
		return nil, errors.Wrapf(shapes.ErrShape,
			"FromGlobal: global array has %d elements, shape %s needs %d", v.Len(), shape, shape.Size())
	}
	switch shape.DType {
	case dtypes.Float32:
		fillLocal(m, global.([]float32))
	case dtypes.Float64:
		fillLocal(m, global.([]float64))
	case dtypes.Complex64:
		fillLocal(m, global.([]complex64))
	case dtypes.Complex128:
		fillLocal(m, global.([]complex128))
	}
	return m, nil
}

// ToGlobal gathers the full matrix as a row-major global flat slice,
// replicated on every process. Collective over the grid.
func (m *Matrix) ToGlobal() (any, error) {
	parts, err := m.grid.Comm().Allgather(m.flat)
	if err != nil {
		return nil, errors.Wrap(err, "ToGlobal: allgather of local buffers failed")
	}
	global := allocFlat(m.shape.DType, m.shape.Size())
	switch m.shape.DType {
	case dtypes.Float32:
		spreadParts(m, global.([]float32), parts)
	case dtypes.Float64:
		spreadParts(m, global.([]float64), parts)
	case dtypes.Complex64:
		spreadParts(m, global.([]complex64), parts)
	case dtypes.Complex128:
		spreadParts(m, global.([]complex128), parts)
	}
	// The gathered parts alias other processes' local buffers; hold everyone
	// here until all copies are done.
	m.grid.Comm().Barrier()
	return global, nil
}

// Global is ToGlobal with a typed result.
func Global[T shapes.Element](m *Matrix) ([]T, error) {
	global, err := m.ToGlobal()
	if err != nil {
		return nil, err
	}
	typed, ok := global.([]T)
	if !ok {
		exceptions.Panicf("distmat.Global[%T]: matrix has element type %s", *new(T), m.shape.DType)
	}
	return typed, nil
}

func fillLocal[T shapes.Element](m *Matrix, global []T) {
	rows, cols := m.GlobalIndices()
	flat := m.flat.([]T)
	for li, gi := range rows {
		base := li * m.localCols
		rowBase := gi * m.shape.Cols
		for lj, gj := range cols {
			flat[base+lj] = global[rowBase+gj]
		}
	}
}

func spreadParts[T shapes.Element](m *Matrix, global []T, parts []any) {
	g := m.grid
	for rank, part := range parts {
		prow, pcol := g.CoordsOf(rank)
		rows := backends.GlobalIndices(m.shape.Rows, m.block.Rows, prow, g.Rows())
		cols := backends.GlobalIndices(m.shape.Cols, m.block.Cols, pcol, g.Cols())
		flat := part.([]T)
		lld := len(cols)
		for li, gi := range rows {
			rowBase := gi * m.shape.Cols
			for lj, gj := range cols {
				global[rowBase+gj] = flat[li*lld+lj]
			}
		}
	}
}
