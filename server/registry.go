// Package server - Model-Registry
//
// Diese Datei enthaelt:
// - Registry: prozessweiter Cache geladener Extractor-Instanzen
// - GetOrLoad: laedt ein Model beim ersten Zugriff, dedupliziert
//   parallele Loads desselben Identifiers
// - Allow-List der unterstuetzten Modelle
//
// Die Registry waechst monoton; Eintraege werden nie entfernt.
// Fehlgeschlagene Loads werden nicht gecacht, der naechste Request
// versucht es erneut.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/attnlens/attnlens/envconfig"
	"github.com/attnlens/attnlens/lens"
	"github.com/attnlens/attnlens/model"
	_ "github.com/attnlens/attnlens/model/gpt2"
)

// Fehler-Definitionen
var (
	// ErrUnsupportedModel: Identifier nicht in der Allow-List (Client-Fehler)
	ErrUnsupportedModel = errors.New("model not supported")

	// ErrModelLoad: Konstruktion der Extractor-Instanz fehlgeschlagen (Server-Fehler)
	ErrModelLoad = errors.New("model load failed")
)

// DefaultModel wird verwendet wenn die Anfrage kein Model nennt
const DefaultModel = "gpt2-small"

// modelDims sind die erwarteten Dimensionen eines unterstuetzten Models
type modelDims struct {
	layers int
	heads  int
}

// supportedModels ist die feste Allow-List (transformer_lens Namen)
// Der Checkpoint wird nach dem Laden gegen die Dimensionen validiert
var supportedModels = map[string]modelDims{
	"distilgpt2":  {layers: 6, heads: 12},
	"gpt2-small":  {layers: 12, heads: 12},
	"gpt2-medium": {layers: 24, heads: 16},
	"gpt2-large":  {layers: 36, heads: 20},
	"gpt2-xl":     {layers: 48, heads: 25},
}

// Registry verwaltet geladene Extractor-Instanzen pro Model-Identifier
type Registry struct {
	// mu schuetzt loaded und loading
	mu      sync.Mutex
	loaded  *orderedmap.OrderedMap[string, *lens.Extractor]
	loading map[string]chan struct{}

	loadFn func(ctx context.Context, id string) (*lens.Extractor, error)
}

// NewRegistry erstellt eine leere Registry
func NewRegistry() *Registry {
	return &Registry{
		loaded:  orderedmap.New[string, *lens.Extractor](),
		loading: make(map[string]chan struct{}),
		loadFn:  loadExtractor,
	}
}

// Available gibt die Allow-List sortiert zurueck
func (r *Registry) Available() []string {
	ids := make([]string, 0, len(supportedModels))
	for id := range supportedModels {
		ids = append(ids, id)
	}

	slices.Sort(ids)
	return ids
}

// Loaded gibt die geladenen Identifier in Lade-Reihenfolge zurueck
func (r *Registry) Loaded() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	ids := make([]string, 0, r.loaded.Len())
	for pair := r.loaded.Oldest(); pair != nil; pair = pair.Next() {
		ids = append(ids, pair.Key)
	}

	return ids
}

// GetOrLoad gibt die gecachte Instanz zurueck oder laedt das Model.
// Der erste Zugriff blockiert fuer die Dauer des Ladens; parallele
// Zugriffe auf denselben Identifier warten auf denselben Load,
// andere Modelle sind nicht betroffen.
func (r *Registry) GetOrLoad(ctx context.Context, id string) (*lens.Extractor, error) {
	if _, ok := supportedModels[id]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, id)
	}

	for {
		r.mu.Lock()
		if e, ok := r.loaded.Get(id); ok {
			r.mu.Unlock()
			return e, nil
		}

		if ch, ok := r.loading[id]; ok {
			r.mu.Unlock()
			select {
			case <-ch:
				// Load beendet, Ergebnis erneut pruefen
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		ch := make(chan struct{})
		r.loading[id] = ch
		r.mu.Unlock()

		e, err := r.load(ctx, id)

		r.mu.Lock()
		delete(r.loading, id)
		close(ch)
		if err != nil {
			r.mu.Unlock()
			return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
		}

		r.loaded.Set(id, e)
		r.mu.Unlock()
		return e, nil
	}
}

// load fuehrt loadFn mit Load-Timeout aus
// Der Load selbst laeuft weiter wenn der Caller aufgibt; das Ergebnis
// wird dann verworfen
func (r *Registry) load(ctx context.Context, id string) (*lens.Extractor, error) {
	ctx, cancel := context.WithTimeout(ctx, envconfig.LoadTimeout())
	defer cancel()

	type outcome struct {
		e   *lens.Extractor
		err error
	}

	done := make(chan outcome, 1)
	go func() {
		start := time.Now()
		e, err := r.loadFn(ctx, id)
		if err == nil {
			slog.Info("model loaded", "model", id, "duration", time.Since(start))
		}
		done <- outcome{e, err}
	}()

	select {
	case o := <-done:
		return o.e, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// loadExtractor laedt den Checkpoint aus dem Models-Verzeichnis und
// validiert die Dimensionen gegen die Allow-List
func loadExtractor(_ context.Context, id string) (*lens.Extractor, error) {
	dir := filepath.Join(envconfig.Models(), id)
	slog.Info("loading model", "model", id, "dir", dir)

	m, err := model.New(dir)
	if err != nil {
		return nil, err
	}

	cfg := m.Config()
	if dims := supportedModels[id]; cfg.NumLayers != dims.layers || cfg.NumHeads != dims.heads {
		return nil, fmt.Errorf("checkpoint mismatch for %s: got %d layers / %d heads, want %d / %d",
			id, cfg.NumLayers, cfg.NumHeads, dims.layers, dims.heads)
	}

	return lens.NewExtractor(id, m, envconfig.DetectHeads(true)), nil
}
