package localgo

import (
	"math"
	"math/cmplx"
	"sort"

	"k8s.io/klog/v2"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/grids"
)

// maxJacobiSweeps bounds the cyclic Jacobi iteration; convergence is
// quadratic, so well-conditioned inputs finish in well under ten sweeps.
const maxJacobiSweeps = 64

// Eigh implements backends.Backend. The kernel always runs in complex128:
// for real symmetric inputs the rotations stay real, so narrowing the
// eigenvectors back to the real variant loses nothing. The (vl, vu)
// value-range slots are accepted but not implemented; selection is by index
// only.
func (bk *Backend) Eigh(g *grids.Grid, erange backends.EigRange, uplo backends.Triangle, n int,
	a backends.Operand, _, _ float64, il, iu int, w any, z backends.Operand) (m int, info int) {
	ga, err := gatherComplex(g, a)
	if err != nil {
		klog.Errorf("localgo.Eigh: %+v", err)
		return 0, -1
	}

	// Mirror the authoritative triangle so the kernel sees a Hermitian matrix.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if uplo == backends.Lower {
				ga[i*n+j] = cmplx.Conj(ga[j*n+i])
			} else {
				ga[j*n+i] = cmplx.Conj(ga[i*n+j])
			}
		}
		ga[i*n+i] = complex(real(ga[i*n+i]), 0)
	}

	evals, evecs, ok := jacobiEigh(n, ga)
	if !ok {
		klog.Errorf("localgo.Eigh: Jacobi iteration did not converge in %d sweeps", maxJacobiSweeps)
		return 0, -2
	}

	lo, hi := 0, n-1
	if erange == backends.RangeIndex {
		if il < 1 || iu > n || il > iu {
			klog.Errorf("localgo.Eigh: index range %d..%d out of bounds for order %d", il, iu, n)
			return 0, -3
		}
		lo, hi = il-1, iu-1
	}
	m = hi - lo + 1

	switch wv := w.(type) {
	case []float32:
		for i := 0; i < m; i++ {
			wv[i] = float32(evals[lo+i])
		}
	case []float64:
		copy(wv, evals[lo:hi+1])
	default:
		klog.Errorf("localgo.Eigh: eigenvalue buffer has type %T, want []float32 or []float64", w)
		return 0, -4
	}

	// Selected eigenvectors become the first m columns of z; the rest stay
	// zero.
	gz := make([]complex128, n*n)
	for col := 0; col < m; col++ {
		src := lo + col
		for k := 0; k < n; k++ {
			gz[k*n+col] = evecs[k*n+src]
		}
	}
	scatterComplex(z, gz)
	return m, 0
}

// jacobiEigh diagonalizes the Hermitian n x n row-major matrix a in place
// with cyclic Jacobi rotations. It returns the eigenvalues in ascending order
// and the matching eigenvectors as the columns of a row-major n x n matrix.
func jacobiEigh(n int, a []complex128) (evals []float64, evecs []complex128, ok bool) {
	v := make([]complex128, n*n)
	for i := 0; i < n; i++ {
		v[i*n+i] = 1
	}

	normA := 0.0
	for _, x := range a {
		normA += real(x)*real(x) + imag(x)*imag(x)
	}
	normA = math.Sqrt(normA)
	tol := 1e-15 * (normA + 1)

	converged := false
	for sweep := 0; sweep < maxJacobiSweeps; sweep++ {
		off := 0.0
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				off += 2 * abs2(a[p*n+q])
			}
		}
		if math.Sqrt(off) <= tol {
			converged = true
			break
		}
		for p := 0; p < n-1; p++ {
			for q := p + 1; q < n; q++ {
				rotate(n, a, v, p, q, tol)
			}
		}
	}
	if !converged {
		return nil, nil, false
	}

	diag := make([]float64, n)
	order := make([]int, n)
	for i := range diag {
		diag[i] = real(a[i*n+i])
		order[i] = i
	}
	sort.Slice(order, func(x, y int) bool { return diag[order[x]] < diag[order[y]] })

	evals = make([]float64, n)
	evecs = make([]complex128, n*n)
	for col, src := range order {
		evals[col] = diag[src]
		for k := 0; k < n; k++ {
			evecs[k*n+col] = v[k*n+src]
		}
	}
	return evals, evecs, true
}

// rotate applies one Jacobi rotation annihilating a[p*n+q]. The rotation is
// the real Givens rotation composed with a diagonal phase that makes the
// pivot real, so it handles complex Hermitian and real symmetric inputs
// alike. v accumulates the rotations.
func rotate(n int, a, v []complex128, p, q int, tol float64) {
	g := a[p*n+q]
	absg := cmplx.Abs(g)
	if absg <= tol/float64(n) {
		return
	}
	phase := g / complex(absg, 0)
	dq := cmplx.Conj(phase)

	app := real(a[p*n+p])
	aqq := real(a[q*n+q])
	tau := (aqq - app) / (2 * absg)
	var t float64
	if tau >= 0 {
		t = 1 / (tau + math.Sqrt(1+tau*tau))
	} else {
		t = -1 / (-tau + math.Sqrt(1+tau*tau))
	}
	c := 1 / math.Sqrt(1+t*t)
	s := t * c

	cc := complex(c, 0)
	sc := complex(s, 0)
	cdq := cc * dq
	sdq := sc * dq

	// a <- a·J, columns p and q.
	for k := 0; k < n; k++ {
		akp, akq := a[k*n+p], a[k*n+q]
		a[k*n+p] = cc*akp - sdq*akq
		a[k*n+q] = sc*akp + cdq*akq
	}
	// a <- Jᴴ·a, rows p and q.
	for k := 0; k < n; k++ {
		apk, aqk := a[p*n+k], a[q*n+k]
		a[p*n+k] = cc*apk - sc*phase*aqk
		a[q*n+k] = sc*apk + cc*phase*aqk
	}
	// Clean up what the rotation was built to annihilate.
	a[p*n+q] = complex(0, 0)
	a[q*n+p] = complex(0, 0)
	a[p*n+p] = complex(real(a[p*n+p]), 0)
	a[q*n+q] = complex(real(a[q*n+q]), 0)

	// v <- v·J.
	for k := 0; k < n; k++ {
		vkp, vkq := v[k*n+p], v[k*n+q]
		v[k*n+p] = cc*vkp - sdq*vkq
		v[k*n+q] = sc*vkp + cdq*vkq
	}
}
