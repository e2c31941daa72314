// gpt2_test.go - Tests fuer den instrumentierten Forward-Pass
// Baut einen Mini-Transformer aus deterministischen synthetischen Gewichten
package gpt2

import (
	"context"
	"math"
	"testing"

	"github.com/attnlens/attnlens/convert"
	"github.com/attnlens/attnlens/model"
)

// synthTensor erzeugt deterministische Pseudo-Gewichte
func synthTensor(name string, shape ...int) convert.Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}

	data := make([]float32, n)
	for i := range data {
		data[i] = float32(math.Sin(float64(i)+float64(len(name)))) * 0.1
	}

	return convert.Tensor{Name: name, Shape: shape, Data: data}
}

func synthVector(name string, n int) convert.Tensor {
	t := synthTensor(name, n)
	return t
}

func testTransformer(t *testing.T) *Transformer {
	t.Helper()

	cfg := model.Config{
		Architecture:  "gpt2",
		NumLayers:     2,
		NumHeads:      2,
		EmbedDim:      4,
		ContextLength: 8,
		VocabSize:     5,
		Epsilon:       1e-5,
	}

	tensors := map[string]convert.Tensor{
		"wte.weight": synthTensor("wte.weight", 5, 4),
		"wpe.weight": synthTensor("wpe.weight", 8, 4),
	}

	for _, prefix := range []string{"h.0.", "h.1."} {
		tensors[prefix+"ln_1.weight"] = synthVector(prefix+"ln_1.weight", 4)
		tensors[prefix+"ln_1.bias"] = synthVector(prefix+"ln_1.bias", 4)
		tensors[prefix+"attn.c_attn.weight"] = synthTensor(prefix+"attn.c_attn.weight", 4, 12)
		tensors[prefix+"attn.c_attn.bias"] = synthVector(prefix+"attn.c_attn.bias", 12)
		tensors[prefix+"attn.c_proj.weight"] = synthTensor(prefix+"attn.c_proj.weight", 4, 4)
		tensors[prefix+"attn.c_proj.bias"] = synthVector(prefix+"attn.c_proj.bias", 4)
		tensors[prefix+"ln_2.weight"] = synthVector(prefix+"ln_2.weight", 4)
		tensors[prefix+"ln_2.bias"] = synthVector(prefix+"ln_2.bias", 4)
		tensors[prefix+"mlp.c_fc.weight"] = synthTensor(prefix+"mlp.c_fc.weight", 4, 16)
		tensors[prefix+"mlp.c_fc.bias"] = synthVector(prefix+"mlp.c_fc.bias", 16)
		tensors[prefix+"mlp.c_proj.weight"] = synthTensor(prefix+"mlp.c_proj.weight", 16, 4)
		tensors[prefix+"mlp.c_proj.bias"] = synthVector(prefix+"mlp.c_proj.bias", 4)
	}

	m, err := build(cfg, tensors, nil)
	if err != nil {
		t.Fatal(err)
	}

	return m
}

func TestForwardAttentionShapes(t *testing.T) {
	m := testTransformer(t)

	layers, err := m.ForwardAttention(context.Background(), []int32{0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}

	if len(layers) != 2 {
		t.Fatalf("got %d layers, want 2", len(layers))
	}

	for l, heads := range layers {
		if len(heads) != 2 {
			t.Fatalf("layer %d has %d heads, want 2", l, len(heads))
		}

		for h, pattern := range heads {
			rows, cols := pattern.Dims()
			if rows != 4 || cols != 4 {
				t.Errorf("layer %d head %d has dims %dx%d, want 4x4", l, h, rows, cols)
			}
		}
	}
}

func TestForwardAttentionRowsNormalized(t *testing.T) {
	m := testTransformer(t)

	layers, err := m.ForwardAttention(context.Background(), []int32{0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}

	for l, heads := range layers {
		for h, pattern := range heads {
			for d := 0; d < 4; d++ {
				sum := 0.0
				for s := 0; s < 4; s++ {
					sum += pattern.At(d, s)
				}

				if math.Abs(sum-1.0) > 1e-9 {
					t.Errorf("layer %d head %d row %d sums to %f, want 1.0", l, h, d, sum)
				}
			}
		}
	}
}

func TestForwardAttentionCausal(t *testing.T) {
	m := testTransformer(t)

	layers, err := m.ForwardAttention(context.Background(), []int32{0, 1, 2, 3})
	if err != nil {
		t.Fatal(err)
	}

	for l, heads := range layers {
		for h, pattern := range heads {
			for d := 0; d < 4; d++ {
				for s := d + 1; s < 4; s++ {
					if pattern.At(d, s) != 0 {
						t.Errorf("layer %d head %d attends to future token: [%d,%d] = %f",
							l, h, d, s, pattern.At(d, s))
					}
				}
			}
		}
	}
}

func TestForwardAttentionSingleToken(t *testing.T) {
	m := testTransformer(t)

	layers, err := m.ForwardAttention(context.Background(), []int32{2})
	if err != nil {
		t.Fatal(err)
	}

	for l, heads := range layers {
		for h, pattern := range heads {
			rows, cols := pattern.Dims()
			if rows != 1 || cols != 1 {
				t.Fatalf("layer %d head %d has dims %dx%d, want 1x1", l, h, rows, cols)
			}

			// Softmax ueber genau einen gueltigen Eintrag
			if pattern.At(0, 0) != 1.0 {
				t.Errorf("single token weight = %f, want 1.0", pattern.At(0, 0))
			}
		}
	}
}

func TestForwardAttentionContextLimits(t *testing.T) {
	m := testTransformer(t)

	if _, err := m.ForwardAttention(context.Background(), []int32{0, 1, 2, 3, 4, 0, 1, 2, 3}); err == nil {
		t.Error("expected error for sequence beyond context length")
	}

	if _, err := m.ForwardAttention(context.Background(), nil); err == nil {
		t.Error("expected error for empty sequence")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := m.ForwardAttention(ctx, []int32{0, 1}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestForwardAttentionDeterministic(t *testing.T) {
	m := testTransformer(t)

	first, err := m.ForwardAttention(context.Background(), []int32{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}

	second, err := m.ForwardAttention(context.Background(), []int32{0, 1, 2})
	if err != nil {
		t.Fatal(err)
	}

	for l := range first {
		for h := range first[l] {
			for d := 0; d < 3; d++ {
				for s := 0; s < 3; s++ {
					if first[l][h].At(d, s) != second[l][h].At(d, s) {
						t.Fatalf("non-deterministic weight at layer %d head %d [%d,%d]", l, h, d, s)
					}
				}
			}
		}
	}
}
