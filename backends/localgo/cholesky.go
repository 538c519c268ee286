package localgo

import (
	"math"

	"k8s.io/klog/v2"

	"github.com/scalago/scalago/backends"
	"github.com/scalago/scalago/grids"
)

// Cholesky implements backends.Backend: factors the uplo triangle of a in
// place. The other triangle is written back unchanged (stale input values),
// matching the convention that callers must not rely on it.
func (bk *Backend) Cholesky(g *grids.Grid, uplo backends.Triangle, n int, a backends.Operand) (info int) {
	if isComplex(a.DType) {
		ga, err := gatherComplex(g, a)
		if err != nil {
			klog.Errorf("localgo.Cholesky: %+v", err)
			return -1
		}
		if info = cholKernel(uplo, n, ga); info < 0 {
			return info
		}
		scatterComplex(a, ga)
		return 0
	}
	ga, err := gatherReal(g, a)
	if err != nil {
		klog.Errorf("localgo.Cholesky: %+v", err)
		return -1
	}
	if info = cholKernel(uplo, n, ga); info < 0 {
		return info
	}
	scatterReal(a, ga)
	return 0
}

// cholKernel factors the uplo triangle of the n x n row-major matrix a in
// place: lower gives L with a = L·Lᴴ, upper gives U with a = Uᴴ·U. Only the
// selected triangle is read or written. Returns -(j+1) when the leading minor
// of order j+1 is not positive definite.
func cholKernel[T workElem](uplo backends.Triangle, n int, a []T) (info int) {
	if uplo == backends.Lower {
		for j := 0; j < n; j++ {
			d := realOf(a[j*n+j])
			for k := 0; k < j; k++ {
				d -= abs2(a[j*n+k])
			}
			if d <= 0 || math.IsNaN(d) {
				return -(j + 1)
			}
			ajj := math.Sqrt(d)
			a[j*n+j] = fromReal[T](ajj)
			for i := j + 1; i < n; i++ {
				s := a[i*n+j]
				for k := 0; k < j; k++ {
					s -= a[i*n+k] * conjOf(a[j*n+k])
				}
				a[i*n+j] = s / fromReal[T](ajj)
			}
		}
		return 0
	}
	for j := 0; j < n; j++ {
		d := realOf(a[j*n+j])
		for k := 0; k < j; k++ {
			d -= abs2(a[k*n+j])
		}
		if d <= 0 || math.IsNaN(d) {
			return -(j + 1)
		}
		ujj := math.Sqrt(d)
		a[j*n+j] = fromReal[T](ujj)
		for i := j + 1; i < n; i++ {
			s := a[j*n+i]
			for k := 0; k < j; k++ {
				s -= conjOf(a[k*n+j]) * a[k*n+i]
			}
			a[j*n+i] = s / fromReal[T](ujj)
		}
	}
	return 0
}

func realOf[T workElem](v T) float64 {
	if z, ok := any(v).(complex128); ok {
		return real(z)
	}
	return any(v).(float64)
}

func abs2[T workElem](v T) float64 {
	if z, ok := any(v).(complex128); ok {
		return real(z)*real(z) + imag(z)*imag(z)
	}
	f := any(v).(float64)
	return f * f
}

func fromReal[T workElem](r float64) T {
	var v T
	if _, ok := any(v).(complex128); ok {
		return any(complex(r, 0)).(T)
	}
	return any(r).(T)
}
