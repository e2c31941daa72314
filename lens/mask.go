// mask.go - Causal Masking und Boundary-Trimming
//
// Matrix-Konvention: Zeile = dest-Token, Spalte = source-Token.
// Causal heisst: ein dest-Token darf nur source-Tokens mit Index <= dest sehen.
package lens

import "gonum.org/v1/gonum/mat"

// ApplyCausalMask nullt alle Eintraege oberhalb der Diagonale (in place).
// Das Model maskiert bereits intern; die Pipeline garantiert die
// Invariante trotzdem selbst gegenueber ihren Konsumenten.
func ApplyCausalMask(m *mat.Dense) {
	rows, cols := m.Dims()
	for d := 0; d < rows; d++ {
		row := m.RawRowView(d)
		for s := d + 1; s < cols; s++ {
			row[s] = 0
		}
	}
}

// TrimBoundary entfernt Zeile 0 und Spalte 0 (Boundary-Token) und
// gibt eine eigenstaendige Kopie zurueck, damit die grosse
// Ursprungsmatrix freigegeben werden kann.
// Gibt nil zurueck wenn nach dem Trimmen nichts uebrig bleibt.
func TrimBoundary(m *mat.Dense) *mat.Dense {
	rows, cols := m.Dims()
	if rows <= 1 || cols <= 1 {
		return nil
	}

	out := mat.NewDense(rows-1, cols-1, nil)
	out.Copy(m.Slice(1, rows, 1, cols))
	return out
}
