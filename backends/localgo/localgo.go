// Package localgo implements the built-in pure-Go compute backend.
//
// Strategy: each entry point gathers its distributed operands into replicated
// dense arrays using the grid's communicator, runs a local dense kernel in
// float64/complex128 working precision on every process, and writes back the
// calling process's portion of the result. Every process computes the full
// result, so it is a reference backend, portable and correct on any grid, not
// a scalable one; a production deployment would register a backend binding a
// real distributed solver instead.
package localgo

import (
	"github.com/scalago/scalago/backends"
)

// BackendName to use in SCALAGO_BACKEND to select this backend.
const BackendName = "go"

func init() {
	backends.Register(BackendName, New)
}

// New constructs the localgo backend. There is no configuration; the string
// is ignored.
func New(_ string) (backends.Backend, error) {
	return &Backend{}, nil
}

// Backend implements backends.Backend. It is stateless and safe for
// concurrent use by distinct grids.
type Backend struct{}

var _ backends.Backend = &Backend{}

// Name returns the short name of the backend.
func (b *Backend) Name() string { return BackendName }

// Description is a longer description of the backend for pretty-printing.
func (b *Backend) Description() string {
	return "Pure Go reference backend (gather, local dense kernels, scatter)"
}

// Finalize implements backends.Backend; there are no resources to release.
func (b *Backend) Finalize() {}
