package localgo

import (
	"math/cmplx"

	"k8s.io/klog/v2"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/grids"
)

// workElem is the kernel working precision: real and complex variants are
// widened to these before computing.
type workElem interface {
	float64 | complex128
}

// Gemm implements backends.Backend: c = alpha*op(a)*op(b) + beta*c.
func (bk *Backend) Gemm(g *grids.Grid, transA, transB backends.Transpose, m, n, k int,
	alpha complex128, a, b backends.Operand, beta complex128, c backends.Operand) (info int) {
	if !transA.Valid() || !transB.Valid() {
		klog.Errorf("localgo.Gemm: invalid transpose arguments %v, %v", transA, transB)
		return -1
	}
	if isComplex(a.DType) {
		ga, err := gatherComplex(g, a)
		if err != nil {
			klog.Errorf("localgo.Gemm: %+v", err)
			return -1
		}
		gb, err := gatherComplex(g, b)
		if err != nil {
			klog.Errorf("localgo.Gemm: %+v", err)
			return -1
		}
		gc := make([]complex128, m*n)
		if beta != 0 {
			if gc, err = gatherComplex(g, c); err != nil {
				klog.Errorf("localgo.Gemm: %+v", err)
				return -1
			}
		}
		gemmKernel(transA, transB, m, n, k, alpha, ga, a.Desc.N, gb, b.Desc.N, beta, gc, n)
		scatterComplex(c, gc)
		return 0
	}
	if imag(alpha) != 0 || imag(beta) != 0 {
		klog.Errorf("localgo.Gemm: complex scalars with real operands")
		return -1
	}
	ga, err := gatherReal(g, a)
	if err != nil {
		klog.Errorf("localgo.Gemm: %+v", err)
		return -1
	}
	gb, err := gatherReal(g, b)
	if err != nil {
		klog.Errorf("localgo.Gemm: %+v", err)
		return -1
	}
	gc := make([]float64, m*n)
	if beta != 0 {
		if gc, err = gatherReal(g, c); err != nil {
			klog.Errorf("localgo.Gemm: %+v", err)
			return -1
		}
	}
	gemmKernel(transA, transB, m, n, k, real(alpha), ga, a.Desc.N, gb, b.Desc.N, real(beta), gc, n)
	scatterReal(c, gc)
	return 0
}

// gemmKernel is the dense multiply on replicated row-major arrays. a and b
// are in their native orientation with leading dimensions lda/ldb; op() is
// applied through the indexing.
func gemmKernel[T workElem](transA, transB backends.Transpose, m, n, k int,
	alpha T, a []T, lda int, b []T, ldb int, beta T, c []T, ldc int) {
	for i := 0; i < m; i++ {
		for j := 0; j < n; j++ {
			var sum T
			for l := 0; l < k; l++ {
				sum += opAt(transA, a, lda, i, l) * opAt(transB, b, ldb, l, j)
			}
			if beta == 0 {
				c[i*ldc+j] = alpha * sum
			} else {
				c[i*ldc+j] = alpha*sum + beta*c[i*ldc+j]
			}
		}
	}
}

// opAt reads element (i, j) of op(a) for a row-major a with leading dimension
// lda.
func opAt[T workElem](t backends.Transpose, a []T, lda, i, j int) T {
	switch t {
	case backends.NoTrans:
		return a[i*lda+j]
	case backends.Trans:
		return a[j*lda+i]
	case backends.ConjTrans:
		return conjOf(a[j*lda+i])
	default: // backends.Conj
		return conjOf(a[i*lda+j])
	}
}

func conjOf[T workElem](v T) T {
	if z, ok := any(v).(complex128); ok {
		return any(cmplx.Conj(z)).(T)
	}
	return v
}
