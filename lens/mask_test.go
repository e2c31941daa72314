// mask_test.go - Tests fuer Masking und Boundary-Trimming
package lens

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"gonum.org/v1/gonum/mat"
)

func TestApplyCausalMask(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		0.5, 0.2, 0.3,
		0.1, 0.6, 0.3,
		0.2, 0.3, 0.5,
	})

	ApplyCausalMask(m)

	want := mat.NewDense(3, 3, []float64{
		0.5, 0, 0,
		0.1, 0.6, 0,
		0.2, 0.3, 0.5,
	})

	if !mat.Equal(m, want) {
		t.Errorf("masked matrix = %v, want %v", mat.Formatted(m), mat.Formatted(want))
	}
}

func TestApplyCausalMaskPreservesLowerTriangle(t *testing.T) {
	m := mat.NewDense(4, 4, nil)
	for d := 0; d < 4; d++ {
		for s := 0; s < 4; s++ {
			m.Set(d, s, float64(d*4+s+1))
		}
	}

	before := mat.DenseCopyOf(m)
	ApplyCausalMask(m)

	for d := 0; d < 4; d++ {
		for s := 0; s <= d; s++ {
			if m.At(d, s) != before.At(d, s) {
				t.Errorf("[%d,%d] changed from %f to %f", d, s, before.At(d, s), m.At(d, s))
			}
		}
	}
}

func TestTrimBoundary(t *testing.T) {
	m := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0.4, 0.6, 0,
		0.2, 0.3, 0.5,
	})

	got := TrimBoundary(m)
	want := mat.NewDense(2, 2, []float64{
		0.6, 0,
		0.3, 0.5,
	})

	if !mat.Equal(got, want) {
		t.Errorf("trimmed matrix = %v, want %v", mat.Formatted(got), mat.Formatted(want))
	}
}

func TestTrimBoundaryDetached(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{
		1, 0,
		0.5, 0.5,
	})

	got := TrimBoundary(m)
	m.Set(1, 1, 99)

	if diff := cmp.Diff(0.5, got.At(0, 0)); diff != "" {
		t.Errorf("trimmed copy shares data with source (-want +got):\n%s", diff)
	}
}

func TestTrimBoundarySingleToken(t *testing.T) {
	m := mat.NewDense(1, 1, []float64{1})

	if got := TrimBoundary(m); got != nil {
		t.Errorf("got %v, want nil", got)
	}
}
