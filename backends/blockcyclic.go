package backends

// Block-cyclic descriptor math. A dimension of global length n is cut into
// tiles of nb entries dealt round-robin over nprocs process coordinates:
// global index i lives on coordinate (i/nb) % nprocs at local position
// (i/(nb*nprocs))*nb + i%nb. All divisions are floor divisions on zero-based
// indices. The same formulas size local buffers and interpret descriptors, so
// both sides of the backend boundary share this file's definitions.

// Numroc is the number of entries of a dimension of global length n owned by
// process coordinate iproc among nprocs, with tiles of nb entries.
func Numroc(n, nb, iproc, nprocs int) int {
	nblocks := n / nb
	count := (nblocks / nprocs) * nb
	extra := nblocks % nprocs
	switch {
	case iproc < extra:
		count += nb
	case iproc == extra:
		count += n % nb
	}
	return count
}

// OwnerOf returns the process coordinate owning global index i.
func OwnerOf(i, nb, nprocs int) int {
	return (i / nb) % nprocs
}

// LocalIndexOf returns the local position of global index i on its owner.
func LocalIndexOf(i, nb, nprocs int) int {
	return (i/(nb*nprocs))*nb + i%nb
}

// GlobalIndexOf is the inverse mapping: the global index of local position l
// on process coordinate iproc.
func GlobalIndexOf(l, nb, iproc, nprocs int) int {
	return (l/nb*nprocs+iproc)*nb + l%nb
}

// GlobalIndices returns the global index of every local position, in local
// order.
func GlobalIndices(n, nb, iproc, nprocs int) []int {
	indices := make([]int, Numroc(n, nb, iproc, nprocs))
	for l := range indices {
		indices[l] = GlobalIndexOf(l, nb, iproc, nprocs)
	}
	return indices
}

// LocalRows is the number of global rows stored locally under this
// descriptor.
func (d Desc) LocalRows() int {
	return Numroc(d.M, d.MB, d.MyRow, d.GridRows)
}

// LocalCols is the number of global columns stored locally under this
// descriptor.
func (d Desc) LocalCols() int {
	return Numroc(d.N, d.NB, d.MyCol, d.GridCols)
}

// RowIndicesOf returns the global row indices owned by the given grid row, in
// local order.
func (d Desc) RowIndicesOf(gridRow int) []int {
	return GlobalIndices(d.M, d.MB, gridRow, d.GridRows)
}

// ColIndicesOf returns the global column indices owned by the given grid
// column, in local order.
func (d Desc) ColIndicesOf(gridCol int) []int {
	return GlobalIndices(d.N, d.NB, gridCol, d.GridCols)
}
