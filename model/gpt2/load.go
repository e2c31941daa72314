// load.go - Laden der GPT-2 Checkpoints
//
// Unterstuetzte Eingabeformate: model.safetensors, pytorch_model.bin
// Das erwartete Verzeichnis-Layout entspricht HuggingFace:
// config.json, Gewichte, vocab.json, merges.txt
package gpt2

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/attnlens/attnlens/convert"
	"github.com/attnlens/attnlens/model"
	"github.com/attnlens/attnlens/tokenizer"
)

// gpt2Config ist die config.json der GPT-2 Familie
type gpt2Config struct {
	ModelType      string  `json:"model_type"`
	NumLayers      int     `json:"n_layer"`
	NumHeads       int     `json:"n_head"`
	EmbedDim       int     `json:"n_embd"`
	NumPositions   int     `json:"n_positions"`
	NumCtx         int     `json:"n_ctx"`
	VocabSize      int     `json:"vocab_size"`
	LayerNormEps   float64 `json:"layer_norm_epsilon"`
	ActivationFunc string  `json:"activation_function"`
}

// New laedt einen GPT-2 Checkpoint aus dir
func New(dir string) (model.Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, err
	}

	var cfg gpt2Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid config.json: %v", err)
	}

	if cfg.NumLayers <= 0 || cfg.NumHeads <= 0 || cfg.EmbedDim <= 0 {
		return nil, fmt.Errorf("invalid gpt2 dimensions: layers=%d heads=%d embd=%d", cfg.NumLayers, cfg.NumHeads, cfg.EmbedDim)
	}

	if cfg.EmbedDim%cfg.NumHeads != 0 {
		return nil, fmt.Errorf("embedding dim %d not divisible by %d heads", cfg.EmbedDim, cfg.NumHeads)
	}

	contextLength := cfg.NumPositions
	if contextLength == 0 {
		contextLength = cfg.NumCtx
	}

	eps := cfg.LayerNormEps
	if eps == 0 {
		eps = 1e-5
	}

	tok, err := tokenizer.New(dir)
	if err != nil {
		return nil, err
	}

	tensors, err := loadTensors(dir)
	if err != nil {
		return nil, err
	}

	return build(model.Config{
		Architecture:  cfg.ModelType,
		NumLayers:     cfg.NumLayers,
		NumHeads:      cfg.NumHeads,
		EmbedDim:      cfg.EmbedDim,
		ContextLength: contextLength,
		VocabSize:     cfg.VocabSize,
		Epsilon:       eps,
		BoundaryToken: tokenizer.EndOfText,
	}, tensors, tok)
}

// loadTensors sucht den Checkpoint im Verzeichnis und liest ihn ein
// HuggingFace-Checkpoints der GPT-2 Familie tragen teils einen
// "transformer."-Prefix auf den Tensor-Namen; der wird entfernt
func loadTensors(dir string) (map[string]convert.Tensor, error) {
	var tensors map[string]convert.Tensor
	var err error

	switch {
	case exists(filepath.Join(dir, "model.safetensors")):
		tensors, err = convert.ReadSafetensors(filepath.Join(dir, "model.safetensors"))
	case exists(filepath.Join(dir, "pytorch_model.bin")):
		tensors, err = convert.ReadTorch(filepath.Join(dir, "pytorch_model.bin"))
	default:
		return nil, fmt.Errorf("no checkpoint found in %s", dir)
	}

	if err != nil {
		return nil, err
	}

	stripped := make(map[string]convert.Tensor, len(tensors))
	for name, t := range tensors {
		stripped[strings.TrimPrefix(name, "transformer.")] = t
	}

	return stripped, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// build setzt den Transformer aus den benannten Tensoren zusammen
func build(cfg model.Config, tensors map[string]convert.Tensor, tok *tokenizer.Tokenizer) (*Transformer, error) {
	m := &Transformer{cfg: cfg, tok: tok}

	var err error
	if m.wte, err = matrixOf(tensors, "wte.weight"); err != nil {
		return nil, err
	}
	if m.wpe, err = matrixOf(tensors, "wpe.weight"); err != nil {
		return nil, err
	}

	if r, _ := m.wte.Dims(); r < cfg.VocabSize {
		return nil, fmt.Errorf("wte.weight has %d rows, want %d", r, cfg.VocabSize)
	}
	if r, _ := m.wpe.Dims(); r < cfg.ContextLength {
		return nil, fmt.Errorf("wpe.weight has %d rows, want %d", r, cfg.ContextLength)
	}

	m.blocks = make([]block, cfg.NumLayers)
	for l := range m.blocks {
		blk := &m.blocks[l]
		prefix := fmt.Sprintf("h.%d.", l)

		for _, w := range []struct {
			name   string
			matrix **mat.Dense
			vector *[]float64
		}{
			{prefix + "ln_1.weight", nil, &blk.ln1Gamma},
			{prefix + "ln_1.bias", nil, &blk.ln1Beta},
			{prefix + "attn.c_attn.weight", &blk.attn, nil},
			{prefix + "attn.c_attn.bias", nil, &blk.attnBias},
			{prefix + "attn.c_proj.weight", &blk.proj, nil},
			{prefix + "attn.c_proj.bias", nil, &blk.projBias},
			{prefix + "ln_2.weight", nil, &blk.ln2Gamma},
			{prefix + "ln_2.bias", nil, &blk.ln2Beta},
			{prefix + "mlp.c_fc.weight", &blk.fc, nil},
			{prefix + "mlp.c_fc.bias", nil, &blk.fcBias},
			{prefix + "mlp.c_proj.weight", &blk.out, nil},
			{prefix + "mlp.c_proj.bias", nil, &blk.outBias},
		} {
			if w.matrix != nil {
				if *w.matrix, err = matrixOf(tensors, w.name); err != nil {
					return nil, err
				}
			} else {
				if *w.vector, err = vectorOf(tensors, w.name); err != nil {
					return nil, err
				}
			}
		}
	}

	return m, nil
}

func matrixOf(tensors map[string]convert.Tensor, name string) (*mat.Dense, error) {
	t, ok := tensors[name]
	if !ok {
		return nil, fmt.Errorf("missing tensor %s", name)
	}

	return t.Matrix()
}

func vectorOf(tensors map[string]convert.Tensor, name string) ([]float64, error) {
	t, ok := tensors[name]
	if !ok {
		return nil, fmt.Errorf("missing tensor %s", name)
	}

	return t.Vector()
}
