package backends

import (
	"github.com/gomlx/gopjrt/dtypes"
	"github.com/pkg/errors"

	"github.com/scalago/scalago/grids"
)

// Desc locates a distributed matrix: its global extent, block-cyclic tile
// size, the grid layout, the calling process's coordinate, and the local
// leading dimension (the local buffer is row-major, so LLD is the local
// column count).
type Desc struct {
	M, N               int // global rows, cols
	MB, NB             int // block rows, cols
	GridRows, GridCols int
	MyRow, MyCol       int
	LLD                int
}

// Operand pairs a descriptor with the calling process's local buffer. Flat is
// a slice of the Go type matching DType ([]float32, []float64, []complex64 or
// []complex128), row-major over the local extent.
type Operand struct {
	Desc  Desc
	DType dtypes.DType
	Flat  any
}

// Triangle selects which half of a symmetric/Hermitian matrix a routine reads
// or writes.
type Triangle int

const (
	Lower Triangle = iota
	Upper
)

// String implements fmt.Stringer, using the conventional single-letter tokens.
func (t Triangle) String() string {
	if t == Lower {
		return "L"
	}
	return "U"
}

// Transpose selects the transform applied to a multiply operand.
type Transpose int

const (
	// NoTrans uses the operand as is.
	NoTrans Transpose = iota
	// Trans uses the plain transpose.
	Trans
	// ConjTrans uses the Hermitian (conjugate) transpose.
	ConjTrans
	// Conj conjugates the elements without transposing.
	Conj
)

// ParseTranspose maps the conventional tokens "N", "T", "H" and "C" to
// Transpose values.
func ParseTranspose(token string) (Transpose, error) {
	switch token {
	case "N":
		return NoTrans, nil
	case "T":
		return Trans, nil
	case "H":
		return ConjTrans, nil
	case "C":
		return Conj, nil
	}
	return NoTrans, errors.Errorf("transpose token %q not one of N, T, H, C", token)
}

// Valid reports whether t is one of the four defined transforms.
func (t Transpose) Valid() bool {
	return t >= NoTrans && t <= Conj
}

// Swaps reports whether the transform exchanges the operand's dimensions.
func (t Transpose) Swaps() bool {
	return t == Trans || t == ConjTrans
}

// String implements fmt.Stringer.
func (t Transpose) String() string {
	switch t {
	case NoTrans:
		return "N"
	case Trans:
		return "T"
	case ConjTrans:
		return "H"
	case Conj:
		return "C"
	}
	return "?"
}

// EigRange selects which eigenpairs an eigensolver computes.
type EigRange int

const (
	// RangeAll computes the full spectrum.
	RangeAll EigRange = iota
	// RangeIndex computes eigenpairs il..iu (1-based, inclusive, ascending
	// eigenvalue order).
	RangeIndex
)

// Backend executes the distributed numerical kernels. Implementations are
// consumed as an opaque capability; the built-in reference implementation
// lives in backends/localgo.
//
// All methods are collective over the given grid (see the package comment).
type Backend interface {
	// Name returns the short name of the backend.
	Name() string

	// Description is a longer description of the backend for pretty-printing.
	Description() string

	// Eigh computes eigenvalues and eigenvectors of the Hermitian (symmetric)
	// matrix a, reading the uplo triangle. n is the matrix order. When erange
	// is RangeIndex, the 1-based inclusive bounds il..iu select which
	// eigenpairs to compute; (vl, vu) are reserved for value-range selection
	// and ignored otherwise. Eigenvalues are written in ascending order into
	// w, a []float32 or []float64 of length n matching a's real-equivalent
	// element type, replicated on every process; eigenvectors are written
	// into the distributed operand z. Returns the number of eigenpairs
	// computed and the status.
	Eigh(g *grids.Grid, erange EigRange, uplo Triangle, n int, a Operand,
		vl, vu float64, il, iu int, w any, z Operand) (m int, info int)

	// Cholesky overwrites the uplo triangle of a with its Cholesky factor
	// (lower: a = L·Lᴴ; upper: a = Uᴴ·U). The other triangle is left
	// unspecified. n is the matrix order.
	Cholesky(g *grids.Grid, uplo Triangle, n int, a Operand) (info int)

	// Gemm computes c = alpha·op(a)·op(b) + beta·c with op selected by
	// transA/transB. m, n are c's global dimensions and k the contraction
	// length. For real element types the imaginary parts of alpha and beta
	// must be zero.
	Gemm(g *grids.Grid, transA, transB Transpose, m, n, k int,
		alpha complex128, a, b Operand, beta complex128, c Operand) (info int)

	// Finalize releases the backend's resources; the backend is invalid
	// afterwards.
	Finalize()
}
