// Package ml - Numerische Basisoperationen fuer den Forward-Pass
//
// Dieses Paket enthaelt die Tensor-Operationen auf gonum-Matrizen:
// - LayerNorm: Layer-Normalisierung ueber die Feature-Dimension
// - Linear: Affine Projektion x*W + b
// - SoftmaxRows: Zeilenweise Softmax (numerisch stabil)
// - GELU: Aktivierung (tanh-Approximation wie GPT-2)
//
// Alle Matrizen sind zeilenorientiert: eine Zeile pro Token-Position.
package ml

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// LayerNorm normalisiert jede Zeile von x auf Mittelwert 0 und Varianz 1
// und skaliert mit gamma/beta
func LayerNorm(x *mat.Dense, gamma, beta []float64, eps float64) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)

	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		mean := floats.Sum(row) / float64(cols)

		variance := 0.0
		for _, v := range row {
			variance += (v - mean) * (v - mean)
		}
		variance /= float64(cols)

		inv := 1 / math.Sqrt(variance+eps)
		dst := out.RawRowView(i)
		for j, v := range row {
			dst[j] = (v-mean)*inv*gamma[j] + beta[j]
		}
	}

	return out
}

// Linear berechnet x*w + b
// x ist rows×in, w ist in×out, b hat Laenge out
func Linear(x, w *mat.Dense, b []float64) *mat.Dense {
	rows, _ := x.Dims()
	_, out := w.Dims()

	y := mat.NewDense(rows, out, nil)
	y.Mul(x, w)

	if b != nil {
		for i := 0; i < rows; i++ {
			floats.Add(y.RawRowView(i), b)
		}
	}

	return y
}

// SoftmaxRows wendet Softmax auf jede Zeile von x an
// Subtrahiert vorher das Zeilenmaximum gegen Overflow
func SoftmaxRows(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)

	for i := 0; i < rows; i++ {
		row := x.RawRowView(i)
		maxv := floats.Max(row)

		dst := out.RawRowView(i)
		sum := 0.0
		for j, v := range row {
			dst[j] = math.Exp(v - maxv)
			sum += dst[j]
		}

		floats.Scale(1/sum, dst)
	}

	return out
}

// GELU wendet die tanh-Approximation der GELU-Aktivierung elementweise an
func GELU(x *mat.Dense) *mat.Dense {
	rows, cols := x.Dims()
	out := mat.NewDense(rows, cols, nil)

	const c = 0.7978845608028654 // sqrt(2/pi)
	for i := 0; i < rows; i++ {
		src := x.RawRowView(i)
		dst := out.RawRowView(i)
		for j, v := range src {
			dst[j] = 0.5 * v * (1 + math.Tanh(c*(v+0.044715*v*v*v)))
		}
	}

	return out
}
