// flatten.go - Abflachen der Attention-Matrizen zum Kanten-Graph
//
// Iterationsreihenfolge (fuer deterministische Ausgabe):
// Layer aufsteigend -> Head aufsteigend -> source-Token aufsteigend ->
// dest-Token aufsteigend. Pro Quadrupel entsteht genau eine Kante mit
// destLayer = layer+1 (visuelle Naechster-Layer-Konvention).
//
// Die vollstaendige Materialisierung ist gewollt: Kantenzahl =
// layers × heads × tokens², der Konsumenten-Contract bleibt dafuer simpel.
package lens

import (
	"gonum.org/v1/gonum/mat"

	"github.com/attnlens/attnlens/api"
	"github.com/attnlens/attnlens/model"
)

// edgeWeight ist die einzige Stelle, die die [dest, source]-Konvention
// der Matrix in die (source, dest)-Konvention der Kanten uebersetzt
func edgeWeight(pattern *mat.Dense, src, dst int) float64 {
	return pattern.At(dst, src)
}

// Flatten erzeugt die Kantenliste aus einem Extraktionsergebnis
func Flatten(res *Result) []api.AttentionPattern {
	numTokens := len(res.Tokens)

	numHeads := 0
	if len(res.Layers) > 0 {
		numHeads = len(res.Layers[0])
	}

	edges := make([]api.AttentionPattern, 0, len(res.Layers)*numHeads*numTokens*numTokens)
	for layer, heads := range res.Layers {
		for head, pattern := range heads {
			role := res.Roles[HeadKey{Layer: layer, Head: head}]

			for src := 0; src < numTokens; src++ {
				for dst := 0; dst < numTokens; dst++ {
					edges = append(edges, api.AttentionPattern{
						SourceLayer: layer,
						SourceToken: src,
						DestLayer:   layer + 1,
						DestToken:   dst,
						Weight:      edgeWeight(pattern, src, dst),
						Head:        head,
						HeadType:    role.String(),
					})
				}
			}
		}
	}

	return edges
}

// Envelope baut die vollstaendige Antwort-Struktur aus einem
// Extraktionsergebnis. NumLayers ist die wahre Layer-Anzahl +1, da
// jede Kante einen Layer-Versatz traegt.
func Envelope(modelName string, cfg model.Config, res *Result) api.ProcessResponse {
	return api.ProcessResponse{
		NumLayers:         cfg.NumLayers + 1,
		NumTokens:         len(res.Tokens),
		NumHeads:          cfg.NumHeads,
		Tokens:            res.Tokens,
		AttentionPatterns: Flatten(res),
		ModelName:         modelName,
	}
}
