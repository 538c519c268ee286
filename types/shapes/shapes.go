// Package shapes defines the shape vocabulary of distributed matrices: the
// global 2D extent with its element type (Shape), and the block-cyclic tile
// size (Block).
//
// Element types are dtypes.DType values from github.com/gomlx/gopjrt/dtypes;
// exactly four are supported: Float32, Float64, Complex64 and Complex128.
package shapes

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"
)

// ErrShape is the cause of shape validation failures: non-positive dimensions,
// a non-square matrix where a square one is required, or incompatible operand
// dimensions.
var ErrShape = errors.New("invalid shape")

// Element is the constraint covering the Go types of the four supported
// element variants.
type Element interface {
	float32 | float64 | complex64 | complex128
}

// Supported reports whether dtype is one of the four supported element
// variants.
func Supported(dtype dtypes.DType) bool {
	switch dtype {
	case dtypes.Float32, dtypes.Float64, dtypes.Complex64, dtypes.Complex128:
		return true
	default:
		return false
	}
}

// RealEquiv returns the real element type matching dtype: the identity for
// real types, the component type for complex ones. It panics on an
// unsupported dtype.
func RealEquiv(dtype dtypes.DType) dtypes.DType {
	switch dtype {
	case dtypes.Float32, dtypes.Complex64:
		return dtypes.Float32
	case dtypes.Float64, dtypes.Complex128:
		return dtypes.Float64
	}
	exceptions.Panicf("shapes.RealEquiv: unsupported element type %s", dtype)
	return dtypes.InvalidDType
}

// Shape is the global extent and element type of a matrix. A value type,
// fixed at matrix creation.
type Shape struct {
	DType      dtypes.DType
	Rows, Cols int
}

// Make returns a Shape, failing with ErrShape on non-positive dimensions or
// an unsupported element type.
func Make(dtype dtypes.DType, rows, cols int) (Shape, error) {
	if !Supported(dtype) {
		return Shape{}, errors.Wrapf(ErrShape, "unsupported element type %s", dtype)
	}
	if rows <= 0 || cols <= 0 {
		return Shape{}, errors.Wrapf(ErrShape, "dimensions must be positive, got %dx%d", rows, cols)
	}
	return Shape{DType: dtype, Rows: rows, Cols: cols}, nil
}

// MustMake is Make, panicking on error.
func MustMake(dtype dtypes.DType, rows, cols int) Shape {
	s, err := Make(dtype, rows, cols)
	if err != nil {
		exceptions.Panicf("shapes.MustMake: %v", err)
	}
	return s
}

// Size is the number of elements of the global matrix.
func (s Shape) Size() int { return s.Rows * s.Cols }

// IsSquare reports whether the global extent is square.
func (s Shape) IsSquare() bool { return s.Rows == s.Cols }

// Equal compares element type and dimensions.
func (s Shape) Equal(o Shape) bool { return s == o }

// String implements fmt.Stringer.
func (s Shape) String() string {
	return fmt.Sprintf("(%s)[%d %d]", s.DType, s.Rows, s.Cols)
}

// Block is the block-cyclic tile size used to partition a matrix over a grid.
type Block struct {
	Rows, Cols int
}

// DefaultBlock is the tile size used when the caller has no reason to pick
// another one.
var DefaultBlock = Block{Rows: 32, Cols: 32}

// MakeBlock returns a Block, failing with ErrShape on non-positive dimensions.
func MakeBlock(rows, cols int) (Block, error) {
	if rows <= 0 || cols <= 0 {
		return Block{}, errors.Wrapf(ErrShape, "block dimensions must be positive, got %dx%d", rows, cols)
	}
	return Block{Rows: rows, Cols: cols}, nil
}

// String implements fmt.Stringer.
func (b Block) String() string {
	return fmt.Sprintf("[%d %d]", b.Rows, b.Cols)
}
