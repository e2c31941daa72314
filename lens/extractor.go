// Package lens - Attention-Extraktion aus instrumentierten Transformern
//
// Pipeline pro Anfrage: Tokenisierung -> Forward-Pass mit
// Attention-Capture -> Boundary-Trimming -> Causal Masking ->
// optionale Head-Klassifikation.
//
// Die erzeugten Matrizen sind O(layers × heads × tokens²) gross und
// duerfen nicht ueber die Antwort hinaus gehalten werden.
package lens

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/attnlens/attnlens/model"
)

// ErrExtraction markiert einen fehlgeschlagenen Forward-Pass.
// Partielle Daten gibt es in dem Fall nicht.
var ErrExtraction = errors.New("attention extraction failed")

// Result ist das Ergebnis einer Extraktion
// Layers ist [layer][head] mit T×T Matrizen in [dest, source]-Konvention,
// bereits getrimmt und causal maskiert
type Result struct {
	Tokens []string
	Layers [][]*mat.Dense
	Roles  map[HeadKey]HeadRole
}

// Extractor kapselt ein geladenes Model fuer die Pattern-Extraktion.
// Der Mutex serialisiert Forward-Paesse auf derselben Instanz solange
// die Thread-Safety des Backends nicht gesichert ist.
type Extractor struct {
	mu          sync.Mutex
	id          string
	model       model.Model
	detectRoles bool
}

// NewExtractor erstellt einen Extractor fuer ein geladenes Model
func NewExtractor(id string, m model.Model, detectRoles bool) *Extractor {
	return &Extractor{
		id:          id,
		model:       m,
		detectRoles: detectRoles,
	}
}

// ID gibt den Model-Identifier zurueck
func (e *Extractor) ID() string {
	return e.id
}

// Config gibt die Architektur-Dimensionen des Models zurueck
func (e *Extractor) Config() model.Config {
	return e.model.Config()
}

// Extract tokenisiert text und extrahiert die Attention-Matrizen.
// Ein Boundary-Token an Position 0 wird aus der Token-Liste und aus
// beiden Dimensionen jeder Matrix entfernt.
func (e *Extractor) Extract(ctx context.Context, text string) (*Result, error) {
	ids, tokens, err := e.model.Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	e.mu.Lock()
	layers, err := e.model.ForwardAttention(ctx, ids)
	e.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	if boundary := e.model.Config().BoundaryToken; boundary != "" && len(tokens) > 0 && tokens[0] == boundary {
		tokens = tokens[1:]
		for l, heads := range layers {
			for h, pattern := range heads {
				layers[l][h] = TrimBoundary(pattern)
			}
		}
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: input produced no tokens", ErrExtraction)
	}

	for _, heads := range layers {
		for _, pattern := range heads {
			ApplyCausalMask(pattern)
		}
	}

	res := &Result{Tokens: tokens, Layers: layers}
	if e.detectRoles {
		res.Roles = DetectRoles(tokens, layers)
	}

	return res, nil
}
