// cmd_sample.go - Offline-Generierung von Sample-Dateien
//
// Erzeugt pro Model eine JSON-Datei mit derselben Antwort-Struktur wie
// POST /process, als Fixture fuer das Frontend. Die Dateien werden
// atomar geschrieben (Temp-Datei + Rename), damit bei Abbruch keine
// halben Dateien liegen bleiben.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/attnlens/attnlens/envconfig"
	"github.com/attnlens/attnlens/lens"
	"github.com/attnlens/attnlens/logutil"
	"github.com/attnlens/attnlens/server"
)

// DefaultSampleText ist der IOI-Prompt der fuer alle Modelle verwendet wird
const DefaultSampleText = "When Mary and John went to the store, John gave a drink to"

// RunSample - Generiert Sample-Dateien fuer die angegebenen Modelle
// Ohne Argumente werden alle verfuegbaren Modelle verarbeitet
func RunSample(cmd *cobra.Command, args []string) error {
	slog.SetDefault(logutil.NewLogger(os.Stderr, envconfig.LogLevel()))

	text, _ := cmd.Flags().GetString("text")
	outDir, _ := cmd.Flags().GetString("output")
	if outDir == "" {
		outDir = envconfig.SampleDir()
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	registry := server.NewRegistry()

	models := args
	if len(models) == 0 {
		models = registry.Available()
	}

	g, ctx := errgroup.WithContext(cmd.Context())
	// Loads sind speicherintensiv, ein Model zur Zeit
	g.SetLimit(1)

	for _, id := range models {
		g.Go(func() error {
			return writeSample(ctx, registry, id, text, outDir)
		})
	}

	return g.Wait()
}

// writeSample verarbeitet text mit einem Model und schreibt das Ergebnis
func writeSample(ctx context.Context, registry *server.Registry, id, text, outDir string) error {
	extractor, err := registry.GetOrLoad(ctx, id)
	if err != nil {
		return err
	}

	extractCtx, cancel := context.WithTimeout(ctx, envconfig.ProcessTimeout())
	defer cancel()

	res, err := extractor.Extract(extractCtx, text)
	if err != nil {
		return err
	}

	resp := lens.Envelope(id, extractor.Config(), res)

	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return err
	}

	path := filepath.Join(outDir, fmt.Sprintf("sample-attention-%s.json", id))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	slog.Info("sample written", "model", id, "path", path,
		"tokens", resp.NumTokens, "patterns", len(resp.AttentionPatterns))

	return nil
}
