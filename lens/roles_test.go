// roles_test.go - Tests fuer die Head-Rollen-Klassifikation
package lens

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// causalIdentity baut eine Matrix mit voller Masse auf der Diagonale.
// Die Diagonale zaehlt fuer keine der Rollen-Heuristiken.
func causalIdentity(n int) *mat.Dense {
	p := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		p.Set(i, i, 1)
	}

	return p
}

func TestClassifyPreviousTokenHead(t *testing.T) {
	tokens := []string{"one", "two", "three", "four"}

	p := mat.NewDense(4, 4, nil)
	p.Set(0, 0, 1)
	for d := 1; d < 4; d++ {
		p.Set(d, d-1, 0.9)
		p.Set(d, d, 0.1)
	}

	if got := classifyHead(tokens, p); got != RolePreviousToken {
		t.Errorf("role = %v, want RolePreviousToken", got)
	}
}

func TestClassifyDuplicateTokenHead(t *testing.T) {
	tokens := []string{"a", "b", "c", "a", "b", "c"}

	p := causalIdentity(6)
	for d := 3; d < 6; d++ {
		// Masse auf das fruehere Vorkommen desselben Tokens legen
		p.Set(d, d, 0.1)
		p.Set(d, d-3, 0.9)
	}

	if got := classifyHead(tokens, p); got != RoleDuplicateToken {
		t.Errorf("role = %v, want RoleDuplicateToken", got)
	}
}

func TestClassifyInductionHead(t *testing.T) {
	tokens := []string{"a", "b", "c", "a", "b", "c"}

	p := causalIdentity(6)
	for d := 3; d < 6; d++ {
		// Masse auf den Nachfolger des frueheren Vorkommens legen
		p.Set(d, d, 0.1)
		p.Set(d, d-2, 0.9)
	}

	if got := classifyHead(tokens, p); got != RoleInduction {
		t.Errorf("role = %v, want RoleInduction", got)
	}
}

func TestClassifyUniformHead(t *testing.T) {
	tokens := []string{"one", "two", "three"}

	p := mat.NewDense(3, 3, nil)
	for d := 0; d < 3; d++ {
		for s := 0; s <= d; s++ {
			p.Set(d, s, 1/float64(d+1))
		}
	}

	if got := classifyHead(tokens, p); got != RoleNone {
		t.Errorf("role = %v, want RoleNone", got)
	}
}

func TestClassifyNilPattern(t *testing.T) {
	if got := classifyHead([]string{"a"}, nil); got != RoleNone {
		t.Errorf("role = %v, want RoleNone", got)
	}
}

func TestDetectRolesCoversAllHeads(t *testing.T) {
	tokens := []string{"one", "two"}

	layers := [][]*mat.Dense{
		{causalIdentity(2), causalIdentity(2)},
		{causalIdentity(2), causalIdentity(2)},
		{causalIdentity(2), causalIdentity(2)},
	}

	roles := DetectRoles(tokens, layers)
	if len(roles) != 6 {
		t.Fatalf("got %d role entries, want 6", len(roles))
	}

	for key, role := range roles {
		if role != RoleNone {
			t.Errorf("head %+v classified as %v, want RoleNone", key, role)
		}
	}
}

func TestHeadRoleString(t *testing.T) {
	cases := []struct {
		role HeadRole
		want string
	}{
		{RoleNone, ""},
		{RolePreviousToken, "previous_token_head"},
		{RoleDuplicateToken, "duplicate_token_head"},
		{RoleInduction, "induction_head"},
	}

	for _, tt := range cases {
		if got := tt.role.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", tt.role, got, tt.want)
		}
	}
}
