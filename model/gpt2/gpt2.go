// Package gpt2 - GPT-2 Architektur mit Attention-Instrumentierung
//
// Dieses Paket enthaelt:
// - Transformer: Forward-Pass der GPT-2 Familie auf gonum-Matrizen
// - Attention-Capture: pro Layer/Head die Softmax-Matrix [dest, source]
//
// Der Forward-Pass endet nach dem letzten Block; Unembedding und ln_f
// werden fuer die Attention-Extraktion nicht benoetigt.
package gpt2

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/attnlens/attnlens/ml"
	"github.com/attnlens/attnlens/model"
	"github.com/attnlens/attnlens/tokenizer"
)

func init() {
	model.Register("gpt2", New)
}

// block haelt die Gewichte eines Transformer-Blocks
// Die Projektionen liegen im Conv1D-Layout von HuggingFace vor: [in, out]
type block struct {
	ln1Gamma, ln1Beta []float64
	attn              *mat.Dense // EmbedDim × 3*EmbedDim, fused QKV
	attnBias          []float64
	proj              *mat.Dense // EmbedDim × EmbedDim
	projBias          []float64
	ln2Gamma, ln2Beta []float64
	fc                *mat.Dense // EmbedDim × 4*EmbedDim
	fcBias            []float64
	out               *mat.Dense // 4*EmbedDim × EmbedDim
	outBias           []float64
}

// Transformer implementiert model.Model fuer die GPT-2 Familie
type Transformer struct {
	cfg    model.Config
	tok    *tokenizer.Tokenizer
	wte    *mat.Dense // VocabSize × EmbedDim
	wpe    *mat.Dense // ContextLength × EmbedDim
	blocks []block
}

// Config gibt die Architektur-Dimensionen zurueck
func (m *Transformer) Config() model.Config {
	return m.cfg
}

// Tokenize tokenisiert text inklusive Boundary-Token an Position 0
func (m *Transformer) Tokenize(text string) ([]int32, []string, error) {
	ids, err := m.tok.Encode(text, true)
	if err != nil {
		return nil, nil, err
	}

	tokens := make([]string, len(ids))
	for i, id := range ids {
		tokens[i] = m.tok.TokenString(id)
	}

	return ids, tokens, nil
}

// ForwardAttention fuehrt den Forward-Pass aus und sammelt pro Layer
// und Head die Attention-Matrix nach Softmax ein.
// Der Context wird zwischen den Layern geprueft, damit Timeouts bei
// langen Sequenzen greifen.
func (m *Transformer) ForwardAttention(ctx context.Context, ids []int32) ([][]*mat.Dense, error) {
	seqLen := len(ids)
	if seqLen == 0 {
		return nil, fmt.Errorf("empty token sequence")
	}

	if seqLen > m.cfg.ContextLength {
		return nil, fmt.Errorf("sequence length %d exceeds context length %d", seqLen, m.cfg.ContextLength)
	}

	dim := m.cfg.EmbedDim
	headDim := dim / m.cfg.NumHeads
	scale := 1 / math.Sqrt(float64(headDim))

	// Token- plus Positions-Embedding
	x := mat.NewDense(seqLen, dim, nil)
	for pos, id := range ids {
		if int(id) >= m.cfg.VocabSize {
			return nil, fmt.Errorf("token id %d out of range", id)
		}

		row := x.RawRowView(pos)
		copy(row, m.wte.RawRowView(int(id)))
		for j, v := range m.wpe.RawRowView(pos) {
			row[j] += v
		}
	}

	layers := make([][]*mat.Dense, len(m.blocks))
	for l := range m.blocks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		blk := &m.blocks[l]
		layers[l] = make([]*mat.Dense, m.cfg.NumHeads)

		normed := ml.LayerNorm(x, blk.ln1Gamma, blk.ln1Beta, m.cfg.Epsilon)
		qkv := ml.Linear(normed, blk.attn, blk.attnBias) // seqLen × 3*dim

		merged := mat.NewDense(seqLen, dim, nil)
		for h := 0; h < m.cfg.NumHeads; h++ {
			q := qkv.Slice(0, seqLen, h*headDim, (h+1)*headDim)
			k := qkv.Slice(0, seqLen, dim+h*headDim, dim+(h+1)*headDim)
			v := qkv.Slice(0, seqLen, 2*dim+h*headDim, 2*dim+(h+1)*headDim)

			scores := mat.NewDense(seqLen, seqLen, nil)
			scores.Mul(q, k.T())
			scores.Scale(scale, scores)

			// Causal Mask vor der Softmax: Zeile = dest, Spalte = source
			for d := 0; d < seqLen; d++ {
				row := scores.RawRowView(d)
				for s := d + 1; s < seqLen; s++ {
					row[s] = math.Inf(-1)
				}
			}

			pattern := ml.SoftmaxRows(scores)
			layers[l][h] = pattern

			headOut := merged.Slice(0, seqLen, h*headDim, (h+1)*headDim).(*mat.Dense)
			headOut.Mul(pattern, v)
		}

		x.Add(x, ml.Linear(merged, blk.proj, blk.projBias))

		normed = ml.LayerNorm(x, blk.ln2Gamma, blk.ln2Beta, m.cfg.Epsilon)
		x.Add(x, ml.Linear(ml.GELU(ml.Linear(normed, blk.fc, blk.fcBias)), blk.out, blk.outBias))
	}

	return layers, nil
}
