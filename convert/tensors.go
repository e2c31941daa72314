// tensors.go - Tensor-Typ fuer geladene Checkpoint-Gewichte
// Enthaelt: Tensor, Matrix- und Vektor-Konvertierung
package convert

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var ErrCheckpoint = errors.New("invalid checkpoint")

// Tensor ist ein benannter Gewichts-Tensor aus einem Checkpoint
// Data liegt zeilenorientiert (row-major) vor
type Tensor struct {
	Name  string
	Shape []int
	Data  []float32
}

// Elements gibt die Gesamtanzahl der Elemente zurueck
func (t Tensor) Elements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}

	return n
}

// Matrix interpretiert den Tensor als 2D-Matrix
func (t Tensor) Matrix() (*mat.Dense, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("%w: tensor %s has shape %v, want 2 dims", ErrCheckpoint, t.Name, t.Shape)
	}

	rows, cols := t.Shape[0], t.Shape[1]
	if rows*cols != len(t.Data) {
		return nil, fmt.Errorf("%w: tensor %s has %d values for shape %v", ErrCheckpoint, t.Name, len(t.Data), t.Shape)
	}

	data := make([]float64, len(t.Data))
	for i, v := range t.Data {
		data[i] = float64(v)
	}

	return mat.NewDense(rows, cols, data), nil
}

// Vector interpretiert den Tensor als 1D-Vektor
func (t Tensor) Vector() ([]float64, error) {
	if len(t.Shape) != 1 || t.Shape[0] != len(t.Data) {
		return nil, fmt.Errorf("%w: tensor %s has shape %v, want 1 dim", ErrCheckpoint, t.Name, t.Shape)
	}

	data := make([]float64, len(t.Data))
	for i, v := range t.Data {
		data[i] = float64(v)
	}

	return data, nil
}
