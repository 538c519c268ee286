package distmat_test

import (
	"sync"
	"testing"

	"github.com/gomlx/gopjrt/dtypes"
	"github.com/stretchr/testify/require"

	"github.com/scalago/scalago/distmat"
	"github.com/scalago/scalago/grids"
	"github.com/scalago/scalago/types/shapes"
)

func singleGrid(t *testing.T) *grids.Grid {
	g, err := grids.New(grids.SingleProcess(), 1, 1)
	require.NoError(t, err)
	return g
}

// runRanks drives one goroutine per rank; rank errors fail the test on the
// main goroutine.
func runRanks(t *testing.T, n int, body func(rank int, comm grids.Comm) error) {
	comms := grids.NewLocalGroup(n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for rank := 0; rank < n; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs[rank] = body(rank, comms[rank])
		}(rank)
	}
	wg.Wait()
	for rank, err := range errs {
		require.NoError(t, err, "rank %d", rank)
	}
}

func iota64(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		v[i] = float64(i)
	}
	return v
}

func TestNewValidation(t *testing.T) {
	g := singleGrid(t)
	block := shapes.Block{Rows: 2, Cols: 2}

	m, err := distmat.New(shapes.MustMake(dtypes.Float64, 4, 3), block, g)
	require.NoError(t, err)
	require.Equal(t, 4, m.LocalRows())
	require.Equal(t, 3, m.LocalCols())
	require.Len(t, distmat.Flat[float64](m), 12)

	_, err = distmat.New(shapes.Shape{DType: dtypes.Float64, Rows: 0, Cols: 3}, block, g)
	require.ErrorIs(t, err, shapes.ErrShape)
	_, err = distmat.New(shapes.Shape{DType: dtypes.Int32, Rows: 2, Cols: 3}, block, g)
	require.ErrorIs(t, err, shapes.ErrShape)
	_, err = distmat.New(shapes.MustMake(dtypes.Float64, 4, 3), shapes.Block{Rows: 0, Cols: 2}, g)
	require.ErrorIs(t, err, shapes.ErrShape)
}

func TestFromFlatValidation(t *testing.T) {
	g := singleGrid(t)
	shape := shapes.MustMake(dtypes.Float64, 2, 3)
	block := shapes.Block{Rows: 2, Cols: 2}

	m, err := distmat.FromFlat(shape, block, g, iota64(6))
	require.NoError(t, err)
	require.Equal(t, iota64(6), distmat.Flat[float64](m))

	_, err = distmat.FromFlat(shape, block, g, iota64(5))
	require.ErrorIs(t, err, shapes.ErrShape)
	_, err = distmat.FromFlat(shape, block, g, make([]float32, 6))
	require.Error(t, err)
}

func TestFlatTypeCheck(t *testing.T) {
	g := singleGrid(t)
	m, err := distmat.New(shapes.MustMake(dtypes.Complex64, 2, 2), shapes.DefaultBlock, g)
	require.NoError(t, err)
	require.NotPanics(t, func() { distmat.Flat[complex64](m) })
	require.Panics(t, func() { distmat.Flat[float64](m) })
}

func TestCopyIndependence(t *testing.T) {
	g := singleGrid(t)
	m, err := distmat.FromFlat(shapes.MustMake(dtypes.Float64, 2, 2), shapes.DefaultBlock, g, iota64(4))
	require.NoError(t, err)

	c := m.Copy()
	distmat.Flat[float64](c)[0] = 99
	require.Equal(t, float64(0), distmat.Flat[float64](m)[0])
	require.Equal(t, m.Shape(), c.Shape())
	require.Equal(t, m.Block(), c.Block())
	require.True(t, m.Grid().Equal(c.Grid()))
}

func TestEmptyLike(t *testing.T) {
	g := singleGrid(t)
	m, err := distmat.FromFlat(shapes.MustMake(dtypes.Float32, 3, 3), shapes.Block{Rows: 2, Cols: 2}, g,
		[]float32{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)

	e := distmat.EmptyLike(m)
	require.Equal(t, m.Shape(), e.Shape())
	require.Equal(t, m.Block(), e.Block())
	require.Len(t, distmat.Flat[float32](e), 9)
	// No side effect on the original.
	require.Equal(t, float32(1), distmat.Flat[float32](m)[0])
}

func TestGlobalIndicesSingleProcess(t *testing.T) {
	g := singleGrid(t)
	m, err := distmat.New(shapes.MustMake(dtypes.Float64, 3, 5), shapes.Block{Rows: 2, Cols: 2}, g)
	require.NoError(t, err)
	rows, cols := m.GlobalIndices()
	require.Equal(t, []int{0, 1, 2}, rows)
	require.Equal(t, []int{0, 1, 2, 3, 4}, cols)
}

func TestLocalExtentsOnGrid(t *testing.T) {
	// 5x5 matrix, 2x2 blocks on a 2x2 grid: grid row 0 owns global rows
	// {0,1,4}, grid row 1 owns {2,3}; same split for columns.
	runRanks(t, 4, func(rank int, comm grids.Comm) error {
		g, err := grids.New(comm, 2, 2)
		if err != nil {
			return err
		}
		m, err := distmat.New(shapes.MustMake(dtypes.Float64, 5, 5), shapes.Block{Rows: 2, Cols: 2}, g)
		if err != nil {
			return err
		}
		wantRows := []int{2, 3}
		if g.Row() == 0 {
			wantRows = []int{0, 1, 4}
		}
		wantCols := []int{2, 3}
		if g.Col() == 0 {
			wantCols = []int{0, 1, 4}
		}
		rows, cols := m.GlobalIndices()
		require.Equal(t, wantRows, rows, "rank %d", rank)
		require.Equal(t, wantCols, cols, "rank %d", rank)
		require.Equal(t, len(wantRows), m.LocalRows())
		require.Equal(t, len(wantCols), m.LocalCols())
		return nil
	})
}

func TestOwnerMapping(t *testing.T) {
	runRanks(t, 4, func(rank int, comm grids.Comm) error {
		g, err := grids.New(comm, 2, 2)
		if err != nil {
			return err
		}
		m, err := distmat.New(shapes.MustMake(dtypes.Float64, 7, 7), shapes.Block{Rows: 2, Cols: 3}, g)
		if err != nil {
			return err
		}
		rows, cols := m.GlobalIndices()
		for li, gi := range rows {
			gridRow, localRow := m.OwnerOfRow(gi)
			require.Equal(t, g.Row(), gridRow)
			require.Equal(t, li, localRow)
		}
		for lj, gj := range cols {
			gridCol, localCol := m.OwnerOfCol(gj)
			require.Equal(t, g.Col(), gridCol)
			require.Equal(t, lj, localCol)
		}
		return nil
	})
}

func TestGlobalRoundTripSingleProcess(t *testing.T) {
	g := singleGrid(t)
	global := iota64(15)
	m, err := distmat.FromGlobal(shapes.MustMake(dtypes.Float64, 3, 5), shapes.Block{Rows: 2, Cols: 2}, g, global)
	require.NoError(t, err)

	back, err := distmat.Global[float64](m)
	require.NoError(t, err)
	require.Equal(t, global, back)
}

func TestGlobalRoundTripOnGrid(t *testing.T) {
	shape := shapes.MustMake(dtypes.Complex128, 5, 7)
	global := make([]complex128, shape.Size())
	for i := range global {
		global[i] = complex(float64(i), -float64(i))
	}
	runRanks(t, 4, func(rank int, comm grids.Comm) error {
		g, err := grids.New(comm, 2, 2)
		if err != nil {
			return err
		}
		m, err := distmat.FromGlobal(shape, shapes.Block{Rows: 2, Cols: 2}, g, global)
		if err != nil {
			return err
		}
		back, err := distmat.Global[complex128](m)
		if err != nil {
			return err
		}
		require.Equal(t, global, back, "rank %d", rank)
		return nil
	})
}

func TestDescMatchesLayout(t *testing.T) {
	runRanks(t, 4, func(rank int, comm grids.Comm) error {
		g, err := grids.New(comm, 2, 2)
		if err != nil {
			return err
		}
		m, err := distmat.New(shapes.MustMake(dtypes.Float32, 9, 6), shapes.Block{Rows: 2, Cols: 2}, g)
		if err != nil {
			return err
		}
		d := m.Desc()
		require.Equal(t, m.LocalRows(), d.LocalRows())
		require.Equal(t, m.LocalCols(), d.LocalCols())
		require.Equal(t, m.LocalCols(), d.LLD)
		require.Equal(t, g.Row(), d.MyRow)
		require.Equal(t, g.Col(), d.MyCol)
		return nil
	})
}
