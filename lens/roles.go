// roles.go - Heuristische Klassifikation von Attention-Heads
//
// Dieses Modul enthaelt:
// - HeadRole: getaggte Rollen-Variante (previous-token, duplicate-token, induction)
// - DetectRoles: Klassifikation ueber die maskierten Attention-Matrizen
//
// Die Scores messen welcher Anteil der Attention-Masse eines Heads auf
// den fuer das jeweilige Verhalten erwarteten Zellen liegt.
package lens

import "gonum.org/v1/gonum/mat"

// HeadRole ist die Verhaltens-Klassifikation eines Attention-Heads
type HeadRole int

const (
	RoleNone HeadRole = iota
	RolePreviousToken
	RoleDuplicateToken
	RoleInduction
)

// String gibt den Rollen-Namen im Wire-Format zurueck, leer fuer RoleNone
func (r HeadRole) String() string {
	switch r {
	case RolePreviousToken:
		return "previous_token_head"
	case RoleDuplicateToken:
		return "duplicate_token_head"
	case RoleInduction:
		return "induction_head"
	}

	return ""
}

// HeadKey identifiziert einen Head ueber Layer- und Head-Index
type HeadKey struct {
	Layer int
	Head  int
}

// roleThreshold ist der Mindestanteil der Attention-Masse auf den
// erwarteten Zellen, damit eine Rolle vergeben wird
const roleThreshold = 0.4

// DetectRoles klassifiziert jeden Head anhand seiner Attention-Matrix.
// Erwartet bereits getrimmte und maskierte Matrizen.
// Die Rollen landen in einer eigenen Map, getrennt von den Matrizen.
func DetectRoles(tokens []string, layers [][]*mat.Dense) map[HeadKey]HeadRole {
	roles := make(map[HeadKey]HeadRole, len(layers))
	for layer, heads := range layers {
		for head, pattern := range heads {
			roles[HeadKey{Layer: layer, Head: head}] = classifyHead(tokens, pattern)
		}
	}

	return roles
}

// classifyHead waehlt die Rolle mit dem hoechsten Score oberhalb des
// Schwellwerts. Bei Gleichstand gewinnt die zuerst geprueft Rolle
// (previous-token vor duplicate-token vor induction), damit das
// Ergebnis deterministisch ist.
func classifyHead(tokens []string, pattern *mat.Dense) HeadRole {
	if pattern == nil {
		return RoleNone
	}

	best, bestScore := RoleNone, roleThreshold
	for _, candidate := range []struct {
		role  HeadRole
		score float64
	}{
		{RolePreviousToken, matchScore(pattern, func(d, s int) bool {
			return s == d-1
		})},
		{RoleDuplicateToken, matchScore(pattern, func(d, s int) bool {
			return s != d && tokens[s] == tokens[d]
		})},
		{RoleInduction, matchScore(pattern, func(d, s int) bool {
			return s >= 1 && s != d && tokens[s-1] == tokens[d]
		})},
	} {
		if candidate.score > bestScore {
			best, bestScore = candidate.role, candidate.score
		}
	}

	return best
}

// matchScore misst den Anteil der Attention-Masse auf Zellen, fuer die
// want true liefert. Nur der kausal gueltige Bereich (s <= d) zaehlt.
func matchScore(pattern *mat.Dense, want func(d, s int) bool) float64 {
	rows, _ := pattern.Dims()

	var hit, total float64
	for d := 0; d < rows; d++ {
		row := pattern.RawRowView(d)
		for s := 0; s <= d; s++ {
			total += row[s]
			if want(d, s) {
				hit += row[s]
			}
		}
	}

	if total == 0 {
		return 0
	}

	return hit / total
}
