// types.go - Core API Types (Requests, Responses, Errors)
// Enthaelt: StatusError, ProcessRequest, AttentionPattern, ProcessResponse,
// ModelsResponse, HealthResponse
package api

import "fmt"

// StatusError is an error with an HTTP status code and message.
// Das Message-Feld heisst im Wire-Format "detail", passend zum
// Fehler-Contract der Handler.
type StatusError struct {
	StatusCode   int
	Status       string
	ErrorMessage string `json:"detail"`
}

func (e StatusError) Error() string {
	switch {
	case e.Status != "" && e.ErrorMessage != "":
		return fmt.Sprintf("%s: %s", e.Status, e.ErrorMessage)
	case e.Status != "":
		return e.Status
	case e.ErrorMessage != "":
		return e.ErrorMessage
	default:
		// this should not happen
		return "something went wrong, please see the attnlens server logs for details"
	}
}

// ProcessRequest beschreibt eine Extraktionsanfrage an POST /process
type ProcessRequest struct {
	// Text ist der zu analysierende Eingabetext
	Text string `json:"text"`

	// ModelName waehlt das Model aus der Allow-List
	// Default: gpt2-small
	ModelName string `json:"model_name,omitempty"`
}

// AttentionPattern ist eine Kante des abgeflachten Attention-Graphen.
// Die Kante verlaeuft vom Source-Token auf Layer sourceLayer zum
// Dest-Token auf dem visuell naechsten Layer (destLayer = sourceLayer+1).
type AttentionPattern struct {
	SourceLayer int     `json:"sourceLayer"`
	SourceToken int     `json:"sourceToken"`
	DestLayer   int     `json:"destLayer"`
	DestToken   int     `json:"destToken"`
	Weight      float64 `json:"weight"`
	Head        int     `json:"head"`
	HeadType    string  `json:"headType,omitempty"`
}

// ProcessResponse ist die Antwort von POST /process
// NumLayers ist die wahre Layer-Anzahl +1, da der Graph Quell- und
// Ziel-Layer getrennt darstellt
type ProcessResponse struct {
	NumLayers         int                `json:"numLayers"`
	NumTokens         int                `json:"numTokens"`
	NumHeads          int                `json:"numHeads"`
	Tokens            []string           `json:"tokens"`
	AttentionPatterns []AttentionPattern `json:"attentionPatterns"`
	ModelName         string             `json:"model_name"`
}

// ModelsResponse ist die Antwort von GET /models
type ModelsResponse struct {
	Models       []string `json:"models"`
	LoadedModels []string `json:"loaded_models"`
}

// HealthResponse ist die Antwort von GET /health
type HealthResponse struct {
	Status       string   `json:"status"`
	LoadedModels []string `json:"loaded_models"`
}
