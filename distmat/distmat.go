// Package distmat implements the distributed dense matrix: a logical global
// matrix partitioned over a process grid in a 2D block-cyclic layout, of
// which each process owns and stores only its local slice.
//
// A Matrix is the unit the operations in package linalg work on. Its local
// buffer is a flat row-major slice of the Go type matching the element type,
// exclusively owned by the calling process; all cross-process data movement
// happens inside collective backend calls.
package distmat

import (
	"fmt"
	"reflect"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/grids"
	"github.com/scalago/scalago/types/shapes"
)

// Matrix is one process's handle on a distributed matrix. The identity of the
// distributed object is (shape, block, grid); every process participating in
// an operation holds a Matrix with the same identity and its own local
// buffer.
type Matrix struct {
	shape shapes.Shape
	block shapes.Block
	grid  *grids.Grid

	// flat is the local buffer: a slice of the Go type of shape.DType,
	// row-major over localRows x localCols.
	flat                 any
	localRows, localCols int
}

// New creates a distributed matrix with a zero-initialized local buffer.
func New(shape shapes.Shape, block shapes.Block, grid *grids.Grid) (*Matrix, error) {
	m, err := newNoAlloc(shape, block, grid)
	if err != nil {
		return nil, err
	}
	m.flat = allocFlat(shape.DType, m.localRows*m.localCols)
	return m, nil
}

// FromFlat wraps a caller-supplied local buffer. flat must be a slice of the
// Go type of shape.DType with exactly the local extent's number of elements;
// the matrix takes ownership of it.
func FromFlat(shape shapes.Shape, block shapes.Block, grid *grids.Grid, flat any) (*Matrix, error) {
	m, err := newNoAlloc(shape, block, grid)
	if err != nil {
		return nil, err
	}
	want := reflect.SliceOf(shape.DType.GoType())
	v := reflect.ValueOf(flat)
	if v.Type() != want {
		return nil, errors.Errorf("FromFlat: buffer type %T does not match element type %s", flat, shape.DType)
	}
	if v.Len() != m.localRows*m.localCols {
		return nil, errors.Wrapf(shapes.ErrShape,
			"FromFlat: local buffer has %d elements, local extent %dx%d needs %d",
			v.Len(), m.localRows, m.localCols, m.localRows*m.localCols)
	}
	m.flat = flat
	return m, nil
}

func newNoAlloc(shape shapes.Shape, block shapes.Block, grid *grids.Grid) (*Matrix, error) {
	if !shapes.Supported(shape.DType) {
		return nil, errors.Wrapf(shapes.ErrShape, "unsupported element type %s", shape.DType)
	}
	if shape.Rows <= 0 || shape.Cols <= 0 {
		return nil, errors.Wrapf(shapes.ErrShape, "dimensions must be positive, got %s", shape)
	}
	if block.Rows <= 0 || block.Cols <= 0 {
		return nil, errors.Wrapf(shapes.ErrShape, "block dimensions must be positive, got %s", block)
	}
	if grid == nil {
		return nil, errors.New("distmat: grid must not be nil")
	}
	return &Matrix{
		shape:     shape,
		block:     block,
		grid:      grid,
		localRows: backends.Numroc(shape.Rows, block.Rows, grid.Row(), grid.Rows()),
		localCols: backends.Numroc(shape.Cols, block.Cols, grid.Col(), grid.Cols()),
	}, nil
}

// EmptyLike creates a matrix with the same shape, block, grid and element
// type as other and a fresh uninitialized local buffer. other is not touched.
func EmptyLike(other *Matrix) *Matrix {
	m, err := New(other.shape, other.block, other.grid)
	if err != nil {
		// Unreachable: other was already validated at its own creation.
		exceptions.Panicf("distmat.EmptyLike: %+v", err)
	}
	return m
}

// Copy deep-copies the matrix; the returned matrix has independent local
// storage.
func (m *Matrix) Copy() *Matrix {
	c := EmptyLike(m)
	reflect.Copy(reflect.ValueOf(c.flat), reflect.ValueOf(m.flat))
	return c
}

// Shape returns the global shape.
func (m *Matrix) Shape() shapes.Shape { return m.shape }

// Block returns the block-cyclic tile size.
func (m *Matrix) Block() shapes.Block { return m.block }

// Grid returns the owning process grid.
func (m *Matrix) Grid() *grids.Grid { return m.grid }

// DType returns the element type.
func (m *Matrix) DType() dtypes.DType { return m.shape.DType }

// IsSquare reports whether the global matrix is square.
func (m *Matrix) IsSquare() bool { return m.shape.IsSquare() }

// LocalRows is the number of global rows owned by this process.
func (m *Matrix) LocalRows() int { return m.localRows }

// LocalCols is the number of global columns owned by this process.
func (m *Matrix) LocalCols() int { return m.localCols }

// FlatAny returns the local buffer as an untyped slice. The buffer is aliased,
// not copied.
func (m *Matrix) FlatAny() any { return m.flat }

// Flat returns the local buffer as a typed slice, panicking when T does not
// match the element type. The buffer is aliased, not copied.
func Flat[T shapes.Element](m *Matrix) []T {
	flat, ok := m.flat.([]T)
	if !ok {
		exceptions.Panicf("distmat.Flat[%T]: matrix has element type %s", *new(T), m.shape.DType)
	}
	return flat
}

// GlobalIndices returns, for the local buffer, the global row index of every
// local row and the global column index of every local column: local entry
// (i, j) holds global entry (rows[i], cols[j]). Pure function of the matrix
// identity and this process's coordinate.
func (m *Matrix) GlobalIndices() (rows, cols []int) {
	rows = backends.GlobalIndices(m.shape.Rows, m.block.Rows, m.grid.Row(), m.grid.Rows())
	cols = backends.GlobalIndices(m.shape.Cols, m.block.Cols, m.grid.Col(), m.grid.Cols())
	return
}

// OwnerOfRow returns the grid row owning global row i and its local row index
// there.
func (m *Matrix) OwnerOfRow(i int) (gridRow, localRow int) {
	return backends.OwnerOf(i, m.block.Rows, m.grid.Rows()),
		backends.LocalIndexOf(i, m.block.Rows, m.grid.Rows())
}

// OwnerOfCol returns the grid column owning global column j and its local
// column index there.
func (m *Matrix) OwnerOfCol(j int) (gridCol, localCol int) {
	return backends.OwnerOf(j, m.block.Cols, m.grid.Cols()),
		backends.LocalIndexOf(j, m.block.Cols, m.grid.Cols())
}

// Desc builds the backend descriptor for this matrix.
func (m *Matrix) Desc() backends.Desc {
	return backends.Desc{
		M: m.shape.Rows, N: m.shape.Cols,
		MB: m.block.Rows, NB: m.block.Cols,
		GridRows: m.grid.Rows(), GridCols: m.grid.Cols(),
		MyRow: m.grid.Row(), MyCol: m.grid.Col(),
		LLD: m.localCols,
	}
}

// Operand packages the matrix for a backend call. The operand aliases the
// local buffer.
func (m *Matrix) Operand() backends.Operand {
	return backends.Operand{Desc: m.Desc(), DType: m.shape.DType, Flat: m.flat}
}

// String implements fmt.Stringer.
func (m *Matrix) String() string {
	return fmt.Sprintf("DistributedMatrix(%s, block %s, %s, local %dx%d)",
		m.shape, m.block, m.grid, m.localRows, m.localCols)
}

// allocFlat allocates a zeroed slice of the Go type of dtype with n elements.
func allocFlat(dtype dtypes.DType, n int) any {
	return reflect.MakeSlice(reflect.SliceOf(dtype.GoType()), n, n).Interface()
}
