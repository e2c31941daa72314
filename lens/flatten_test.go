// flatten_test.go - Tests fuer Kanten-Graph und Antwort-Envelope
package lens

import (
	"context"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/attnlens/attnlens/api"
)

func TestFlattenKnownMatrix(t *testing.T) {
	res := &Result{
		Tokens: []string{"one", "two"},
		Layers: [][]*mat.Dense{
			{mat.NewDense(2, 2, []float64{
				1, 0,
				0.3, 0.7,
			})},
		},
	}

	got := Flatten(res)
	want := []api.AttentionPattern{
		{SourceLayer: 0, SourceToken: 0, DestLayer: 1, DestToken: 0, Weight: 1, Head: 0},
		{SourceLayer: 0, SourceToken: 0, DestLayer: 1, DestToken: 1, Weight: 0.3, Head: 0},
		{SourceLayer: 0, SourceToken: 1, DestLayer: 1, DestToken: 0, Weight: 0, Head: 0},
		{SourceLayer: 0, SourceToken: 1, DestLayer: 1, DestToken: 1, Weight: 0.7, Head: 0},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("edges = %+v, want %+v", got, want)
	}
}

func TestFlattenHeadRoles(t *testing.T) {
	res := &Result{
		Tokens: []string{"one"},
		Layers: [][]*mat.Dense{
			{mat.NewDense(1, 1, []float64{1}), mat.NewDense(1, 1, []float64{1})},
		},
		Roles: map[HeadKey]HeadRole{
			{Layer: 0, Head: 1}: RolePreviousToken,
		},
	}

	edges := Flatten(res)
	if len(edges) != 2 {
		t.Fatalf("got %d edges, want 2", len(edges))
	}

	if edges[0].HeadType != "" {
		t.Errorf("head 0 type = %q, want empty", edges[0].HeadType)
	}
	if edges[1].HeadType != "previous_token_head" {
		t.Errorf("head 1 type = %q, want previous_token_head", edges[1].HeadType)
	}
}

func TestFlattenEdgeCount(t *testing.T) {
	e, _ := newTestExtractor(4, 3, false)

	res, err := e.Extract(context.Background(), "one two three four five")
	if err != nil {
		t.Fatal(err)
	}

	edges := Flatten(res)
	if want := 4 * 3 * 5 * 5; len(edges) != want {
		t.Errorf("got %d edges, want %d", len(edges), want)
	}
}

func TestEnvelope(t *testing.T) {
	e, m := newTestExtractor(12, 12, false)

	res, err := e.Extract(context.Background(), "one two three four five six seven eight nine")
	if err != nil {
		t.Fatal(err)
	}

	resp := Envelope("gpt2-small", m.Config(), res)

	if resp.NumLayers != 13 {
		t.Errorf("NumLayers = %d, want 13", resp.NumLayers)
	}
	if resp.NumTokens != 9 {
		t.Errorf("NumTokens = %d, want 9", resp.NumTokens)
	}
	if resp.NumHeads != 12 {
		t.Errorf("NumHeads = %d, want 12", resp.NumHeads)
	}
	if resp.ModelName != "gpt2-small" {
		t.Errorf("ModelName = %q, want gpt2-small", resp.ModelName)
	}
	if want := 12 * 12 * 9 * 9; len(resp.AttentionPatterns) != want {
		t.Errorf("got %d edges, want %d", len(resp.AttentionPatterns), want)
	}
}
