// repos.go - Zuordnung der Model-Identifier zu Hub-Repos
//
// Die Identifier folgen der transformer_lens-Namenskonvention, die
// Hub-Repos den offiziellen OpenAI-Releases.
package huggingface

import (
	"errors"
	"fmt"
)

// ErrUnknownModel: fuer den Identifier ist kein Hub-Repo hinterlegt
var ErrUnknownModel = errors.New("no hub repo known for model")

// DefaultRevision ist die Git-Revision der heruntergeladenen Dateien
const DefaultRevision = "main"

// modelRepos ordnet jedem unterstuetzten Identifier sein Hub-Repo zu
var modelRepos = map[string]string{
	"distilgpt2":  "distilbert/distilgpt2",
	"gpt2-small":  "openai-community/gpt2",
	"gpt2-medium": "openai-community/gpt2-medium",
	"gpt2-large":  "openai-community/gpt2-large",
	"gpt2-xl":     "openai-community/gpt2-xl",
}

// checkpointFiles sind die Dateien eines vollstaendigen Checkpoints.
// Fuer die Gewichte reicht eine der beiden Varianten; safetensors
// wird bevorzugt.
var checkpointFiles = []string{
	"config.json",
	"vocab.json",
	"merges.txt",
}

// weightFiles werden in dieser Reihenfolge probiert
var weightFiles = []string{
	"model.safetensors",
	"pytorch_model.bin",
}

// RepoFor gibt das Hub-Repo fuer einen Model-Identifier zurueck
func RepoFor(id string) (string, error) {
	repo, ok := modelRepos[id]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, id)
	}

	return repo, nil
}
