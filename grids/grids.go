// Package grids arranges a group of cooperating processes into a logical 2D
// grid, the unit over which distributed matrices are partitioned.
//
// A Grid is immutable and shared by reference: all matrices that take part in
// the same operation must be built on an equivalent grid. The underlying
// communication capability is the Comm interface; SingleProcess and
// NewLocalGroup provide in-process implementations, an MPI-style binding can
// supply one for real multi-node runs.
package grids

import (
	"fmt"
	"reflect"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// ErrConfig is the cause of grid configuration failures: dimensions that do
// not match the communicator size, or non-positive dimensions.
var ErrConfig = errors.New("invalid grid configuration")

// Grid is a logical rows x cols arrangement of the processes in a Comm.
// Ranks are assigned in row-major order. Immutable once created.
type Grid struct {
	comm       Comm
	rows, cols int
	row, col   int
}

// New arranges comm's processes into a rows x cols grid.
// Fails with ErrConfig when rows*cols != comm.Size() or a dimension is < 1.
func New(comm Comm, rows, cols int) (*Grid, error) {
	if rows < 1 || cols < 1 {
		return nil, errors.Wrapf(ErrConfig, "grid dimensions %dx%d must be positive", rows, cols)
	}
	if rows*cols != comm.Size() {
		return nil, errors.Wrapf(ErrConfig, "grid %dx%d needs %d processes, communicator has %d",
			rows, cols, rows*cols, comm.Size())
	}
	rank := comm.Rank()
	g := &Grid{
		comm: comm,
		rows: rows,
		cols: cols,
		row:  rank / cols,
		col:  rank % cols,
	}
	klog.V(1).Infof("grids: created %dx%d grid, rank %d at (%d, %d)", rows, cols, rank, g.row, g.col)
	return g, nil
}

// Default arranges comm's processes into the most nearly square grid possible:
// rows is the largest divisor of Size() not exceeding its square root.
func Default(comm Comm) *Grid {
	p := comm.Size()
	rows := 1
	for r := 1; r*r <= p; r++ {
		if p%r == 0 {
			rows = r
		}
	}
	g, err := New(comm, rows, p/rows)
	if err != nil {
		// Unreachable: rows divides p by construction.
		panic(err)
	}
	return g
}

// Comm returns the underlying communicator.
func (g *Grid) Comm() Comm { return g.comm }

// Rows of the grid.
func (g *Grid) Rows() int { return g.rows }

// Cols of the grid.
func (g *Grid) Cols() int { return g.cols }

// Row coordinate of this process.
func (g *Grid) Row() int { return g.row }

// Col coordinate of this process.
func (g *Grid) Col() int { return g.col }

// Rank of this process within the grid, row-major.
func (g *Grid) Rank() int { return g.row*g.cols + g.col }

// Size is the total number of processes in the grid.
func (g *Grid) Size() int { return g.rows * g.cols }

// CoordsOf returns the (row, col) coordinate of the given rank.
func (g *Grid) CoordsOf(rank int) (row, col int) {
	return rank / g.cols, rank % g.cols
}

// Equal reports whether two grids are interchangeable for the purposes of a
// binary operation: same communicator identity and same layout. Comm
// implementations should be comparable (pointer receivers make this free);
// grids over uncomparable ones only compare equal to themselves.
func (g *Grid) Equal(other *Grid) bool {
	if g == other {
		return true
	}
	if g == nil || other == nil {
		return false
	}
	return g.rows == other.rows && g.cols == other.cols && commEqual(g.comm, other.comm)
}

func commEqual(a, b Comm) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

// String implements fmt.Stringer.
func (g *Grid) String() string {
	return fmt.Sprintf("Grid(%dx%d, at (%d, %d))", g.rows, g.cols, g.row, g.col)
}
