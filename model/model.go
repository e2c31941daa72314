// Package model - Model-Interface und Initialisierung
//
// Dieses Paket definiert das Interface fuer instrumentierte Transformer
// und stellt Funktionen zur Initialisierung bereit.
//
// Hauptkomponenten:
// - Model: Interface fuer alle Modell-Architekturen
// - Config: Architektur-Dimensionen eines geladenen Models
// - New: Erstellt neue Model-Instanzen aus einem Checkpoint-Verzeichnis
// - Register: Registriert Modell-Konstruktoren pro Architektur
package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
)

// Fehler-Definitionen
var (
	ErrUnsupportedModel = errors.New("model architecture not supported")
	ErrModelLoad        = errors.New("failed to load model")
)

// Config enthaelt die Dimensionen und Eigenschaften eines geladenen Models
type Config struct {
	Architecture  string
	NumLayers     int
	NumHeads      int
	EmbedDim      int
	ContextLength int
	VocabSize     int
	Epsilon       float64

	// BoundaryToken ist das synthetische Token das der Tokenizer
	// voranstellt (z.B. <|endoftext|>). Leer wenn keins existiert.
	BoundaryToken string
}

// Model definiert das Interface fuer instrumentierte Transformer.
// ForwardAttention liefert pro Layer und Head die Attention-Matrix
// nach Softmax, Konvention [dest-Zeile, source-Spalte].
type Model interface {
	Config() Config

	// Tokenize gibt Token-IDs und die dekodierten Token-Strings zurueck,
	// inklusive Boundary-Token an Position 0 falls vorhanden
	Tokenize(text string) ([]int32, []string, error)

	// ForwardAttention fuehrt den Forward-Pass aus.
	// Ergebnis: [layer][head] Matrix der Groesse T×T
	ForwardAttention(ctx context.Context, ids []int32) ([][]*mat.Dense, error)
}

// models speichert registrierte Modell-Konstruktoren
var models = make(map[string]func(dir string) (Model, error))

// Register registriert einen Modell-Konstruktor fuer eine Architektur
func Register(name string, f func(dir string) (Model, error)) {
	if _, ok := models[name]; ok {
		panic("model: model already registered")
	}

	models[name] = f
}

// checkpointConfig ist der relevante Teil der HuggingFace config.json
type checkpointConfig struct {
	ModelType string `json:"model_type"`
}

// New initialisiert eine Model-Instanz aus einem Checkpoint-Verzeichnis
// im HuggingFace-Layout (config.json + Gewichte + Tokenizer-Dateien)
func New(dir string) (Model, error) {
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	var cfg checkpointConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: invalid config.json: %v", ErrModelLoad, err)
	}

	f, ok := models[cfg.ModelType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedModel, cfg.ModelType)
	}

	m, err := f(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	return m, nil
}
