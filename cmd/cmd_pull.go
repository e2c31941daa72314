// cmd_pull.go - Download von Checkpoints aus dem HuggingFace Hub
//
// Laedt die Checkpoint-Dateien eines Models in das Models-Verzeichnis,
// aus dem der Server sie beim ersten /process-Request laedt.
package cmd

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/attnlens/attnlens/envconfig"
	"github.com/attnlens/attnlens/huggingface"
	"github.com/attnlens/attnlens/logutil"
)

// RunPull - Laedt die Checkpoints fuer die angegebenen Modelle herunter
func RunPull(cmd *cobra.Command, args []string) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))

	client := huggingface.NewClient()

	for _, id := range args {
		dir := filepath.Join(envconfig.Models(), id)
		slog.Info("pulling model", "model", id, "dir", dir)

		files, err := client.DownloadModel(cmd.Context(), id, dir)
		if err != nil {
			return err
		}

		slog.Info("pull complete", "model", id, "files", len(files))
	}

	return nil
}
