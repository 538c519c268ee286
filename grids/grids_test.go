package grids_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scalago/scalago/grids"
)

func TestNewValidation(t *testing.T) {
	comm := grids.SingleProcess()

	g, err := grids.New(comm, 1, 1)
	require.NoError(t, err)
	require.Equal(t, 1, g.Rows())
	require.Equal(t, 1, g.Cols())
	require.Equal(t, 0, g.Row())
	require.Equal(t, 0, g.Col())

	_, err = grids.New(comm, 2, 1)
	require.ErrorIs(t, err, grids.ErrConfig)
	_, err = grids.New(comm, 0, 1)
	require.ErrorIs(t, err, grids.ErrConfig)
	_, err = grids.New(comm, 1, -3)
	require.ErrorIs(t, err, grids.ErrConfig)
}

func TestDefaultLayout(t *testing.T) {
	for _, tc := range []struct {
		size, rows, cols int
	}{
		{1, 1, 1},
		{4, 2, 2},
		{6, 2, 3},
		{7, 1, 7},
		{12, 3, 4},
	} {
		comms := grids.NewLocalGroup(tc.size)
		g := grids.Default(comms[0])
		require.Equal(t, tc.rows, g.Rows(), "size %d", tc.size)
		require.Equal(t, tc.cols, g.Cols(), "size %d", tc.size)
	}
}

func TestGridCoordinates(t *testing.T) {
	comms := grids.NewLocalGroup(6)
	for rank, comm := range comms {
		g, err := grids.New(comm, 2, 3)
		require.NoError(t, err)
		require.Equal(t, rank/3, g.Row())
		require.Equal(t, rank%3, g.Col())
		require.Equal(t, rank, g.Rank())
		row, col := g.CoordsOf(rank)
		require.Equal(t, g.Row(), row)
		require.Equal(t, g.Col(), col)
	}
}

func TestGridEqual(t *testing.T) {
	comms := grids.NewLocalGroup(4)
	g1, err := grids.New(comms[0], 2, 2)
	require.NoError(t, err)
	g2, err := grids.New(comms[0], 2, 2)
	require.NoError(t, err)
	g3, err := grids.New(comms[0], 1, 4)
	require.NoError(t, err)
	require.True(t, g1.Equal(g2))
	require.False(t, g1.Equal(g3))

	other := grids.Default(grids.SingleProcess())
	require.False(t, g1.Equal(other))
}

// sliceComm is a single-process Comm whose dynamic type is uncomparable.
type sliceComm struct {
	tags []string
}

func (sliceComm) Rank() int { return 0 }
func (sliceComm) Size() int { return 1 }
func (sliceComm) Barrier()  {}

func (sliceComm) Bcast(int, any) error { return nil }

func (sliceComm) Allgather(send any) ([]any, error) {
	return []any{send}, nil
}

func TestGridEqualUncomparableComm(t *testing.T) {
	comm := sliceComm{tags: []string{"a"}}
	g1, err := grids.New(comm, 1, 1)
	require.NoError(t, err)
	g2, err := grids.New(comm, 1, 1)
	require.NoError(t, err)

	require.NotPanics(t, func() { g1.Equal(g2) })
	require.True(t, g1.Equal(g1))
	// Identity cannot be established for an uncomparable communicator.
	require.False(t, g1.Equal(g2))
}

func TestLocalGroupAllgather(t *testing.T) {
	const n = 4
	comms := grids.NewLocalGroup(n)
	results := make([][]any, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for rank := 0; rank < n; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			results[rank], errs[rank] = comms[rank].Allgather([]int{rank * 10})
		}(rank)
	}
	wg.Wait()

	for rank := 0; rank < n; rank++ {
		require.NoError(t, errs[rank])
		require.Len(t, results[rank], n)
		for src := 0; src < n; src++ {
			require.Equal(t, []int{src * 10}, results[rank][src].([]int))
		}
	}
}

func TestLocalGroupBcast(t *testing.T) {
	const n = 3
	const root = 1
	comms := grids.NewLocalGroup(n)
	buffers := make([][]float64, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for rank := 0; rank < n; rank++ {
		buffers[rank] = make([]float64, 3)
		if rank == root {
			copy(buffers[rank], []float64{1, 2, 3})
		}
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs[rank] = comms[rank].Bcast(root, buffers[rank])
		}(rank)
	}
	wg.Wait()

	for rank := 0; rank < n; rank++ {
		require.NoError(t, errs[rank])
		require.Equal(t, []float64{1, 2, 3}, buffers[rank])
	}
}

func TestLocalGroupBcastLengthMismatch(t *testing.T) {
	const n = 2
	const root = 0
	comms := grids.NewLocalGroup(n)
	buffers := [][]float64{{1, 2, 3}, {9, 9}}
	errs := make([]error, n)

	var wg sync.WaitGroup
	for rank := 0; rank < n; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			errs[rank] = comms[rank].Bcast(root, buffers[rank])
		}(rank)
	}
	wg.Wait()

	require.NoError(t, errs[root])
	require.Error(t, errs[1])
	// The mismatched destination must not be partially written.
	require.Equal(t, []float64{9, 9}, buffers[1])
}

func TestLocalGroupBarrierReusable(t *testing.T) {
	const n = 5
	const rounds = 10
	comms := grids.NewLocalGroup(n)

	var wg sync.WaitGroup
	for rank := 0; rank < n; rank++ {
		wg.Add(1)
		go func(rank int) {
			defer wg.Done()
			for r := 0; r < rounds; r++ {
				comms[rank].Barrier()
			}
		}(rank)
	}
	wg.Wait()
}
