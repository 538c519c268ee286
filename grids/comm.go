package grids

import (
	"reflect"
	"sync"

	"github.com/pkg/errors"
)

// Comm is the inter-process capability consumed by grids and compute backends.
//
// All methods are blocking collectives: a call does not return on any rank until
// every rank in the communicator has made the matching call. Callers must issue
// the same sequence of collective calls on every rank, or the group deadlocks.
type Comm interface {
	// Rank of this process, 0 <= Rank() < Size().
	Rank() int

	// Size is the number of processes in the communicator.
	Size() int

	// Barrier blocks until every rank has entered it.
	Barrier()

	// Bcast copies root's flat slice into flat on every other rank.
	// flat must be a slice of the same type and length on every rank.
	Bcast(root int, flat any) error

	// Allgather returns every rank's send value, indexed by rank. Every rank
	// receives the same result. The returned values alias the senders' slices
	// and are only valid until the next collective call on this communicator.
	Allgather(send any) ([]any, error)
}

// singleProcess is the trivial communicator for a group of one.
type singleProcess struct{}

// SingleProcess returns a Comm for a single-process group. All collectives
// return immediately.
func SingleProcess() Comm { return singleProcess{} }

func (singleProcess) Rank() int { return 0 }
func (singleProcess) Size() int { return 1 }
func (singleProcess) Barrier()  {}

func (singleProcess) Bcast(root int, _ any) error {
	if root != 0 {
		return errors.Errorf("Bcast root %d out of range for single-process communicator", root)
	}
	return nil
}

func (singleProcess) Allgather(send any) ([]any, error) {
	return []any{send}, nil
}

// localGroup is the shared state behind a group of in-process ranks.
// It implements the collectives with a reusable phase barrier.
type localGroup struct {
	n     int
	mu    sync.Mutex
	cond  *sync.Cond
	phase int
	count int
	slots []any
}

func (g *localGroup) barrier() {
	g.mu.Lock()
	defer g.mu.Unlock()
	phase := g.phase
	g.count++
	if g.count == g.n {
		g.count = 0
		g.phase++
		g.cond.Broadcast()
		return
	}
	for phase == g.phase {
		g.cond.Wait()
	}
}

// localComm is one rank's view of a localGroup.
type localComm struct {
	group *localGroup
	rank  int
}

// NewLocalGroup creates an in-process communicator group of n ranks, one Comm
// per rank. Each rank is meant to be driven by its own goroutine; the
// collectives synchronize through shared memory. Useful for exercising
// multi-process grids without networking.
func NewLocalGroup(n int) []Comm {
	if n < 1 {
		panic("grids.NewLocalGroup: group size must be >= 1")
	}
	g := &localGroup{n: n, slots: make([]any, n)}
	g.cond = sync.NewCond(&g.mu)
	comms := make([]Comm, n)
	for i := range comms {
		comms[i] = &localComm{group: g, rank: i}
	}
	return comms
}

func (c *localComm) Rank() int { return c.rank }
func (c *localComm) Size() int { return c.group.n }
func (c *localComm) Barrier()  { c.group.barrier() }

func (c *localComm) Bcast(root int, flat any) error {
	g := c.group
	if root < 0 || root >= g.n {
		return errors.Errorf("Bcast root %d out of range for group of %d", root, g.n)
	}
	if c.rank == root {
		g.mu.Lock()
		g.slots[root] = flat
		g.mu.Unlock()
	}
	g.barrier()
	var err error
	if c.rank != root {
		g.mu.Lock()
		src := g.slots[root]
		g.mu.Unlock()
		dst := reflect.ValueOf(flat)
		srcV := reflect.ValueOf(src)
		// Check before copying so a failed Bcast leaves the buffer untouched.
		if dst.Len() != srcV.Len() {
			err = errors.Errorf("Bcast: rank %d buffer length %d does not match root's %d",
				c.rank, dst.Len(), srcV.Len())
		} else {
			reflect.Copy(dst, srcV)
		}
	}
	// Keep the root's slot pinned until everyone has copied it out; also on
	// the error path, so the surviving ranks do not deadlock.
	g.barrier()
	return err
}

func (c *localComm) Allgather(send any) ([]any, error) {
	g := c.group
	g.mu.Lock()
	g.slots[c.rank] = send
	g.mu.Unlock()
	g.barrier()
	g.mu.Lock()
	out := make([]any, g.n)
	copy(out, g.slots)
	g.mu.Unlock()
	// Nobody may start the next collective before every rank has its snapshot.
	g.barrier()
	return out, nil
}
