// download.go - Download eines vollstaendigen Checkpoints
//
// Dateien werden erst unter .tmp geschrieben und nach erfolgreichem
// Download umbenannt, damit nie ein halber Checkpoint im
// Models-Verzeichnis liegt. Vorhandene Dateien werden uebersprungen.
package huggingface

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DownloadModel laedt den Checkpoint fuer id in das Verzeichnis dir.
// Gibt die Liste der geschriebenen Dateien zurueck.
func (c *Client) DownloadModel(ctx context.Context, id, dir string) ([]string, error) {
	repo, err := RepoFor(id)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var written []string
	for _, filename := range checkpointFiles {
		ok, err := c.downloadFile(ctx, repo, dir, filename)
		if err != nil {
			return written, err
		}
		if ok {
			written = append(written, filename)
		}
	}

	filename, err := c.downloadWeights(ctx, repo, dir)
	if err != nil {
		return written, err
	}
	if filename != "" {
		written = append(written, filename)
	}

	return written, nil
}

// downloadWeights probiert die Gewichts-Varianten in Praeferenz-Reihenfolge
func (c *Client) downloadWeights(ctx context.Context, repo, dir string) (string, error) {
	for _, filename := range weightFiles {
		if _, err := os.Stat(filepath.Join(dir, filename)); err == nil {
			slog.Info("weights already present", "repo", repo, "file", filename)
			return "", nil
		}
	}

	var lastErr error
	for _, filename := range weightFiles {
		ok, err := c.downloadFile(ctx, repo, dir, filename)
		if err == nil && ok {
			return filename, nil
		}
		lastErr = err
	}

	return "", fmt.Errorf("no weight file available for %s: %w", repo, lastErr)
}

// downloadFile laedt eine einzelne Datei, falls sie noch fehlt.
// Gibt true zurueck wenn die Datei neu geschrieben wurde.
func (c *Client) downloadFile(ctx context.Context, repo, dir, filename string) (bool, error) {
	target := filepath.Join(dir, filename)
	if _, err := os.Stat(target); err == nil {
		slog.Info("file already present", "repo", repo, "file", filename)
		return false, nil
	}

	start := time.Now()
	resp, err := c.fetch(ctx, repo, DefaultRevision, filename)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp(dir, filename+".*.tmp")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return false, fmt.Errorf("%w: %s/%s: %v", ErrDownloadFailed, repo, filename, err)
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		return false, err
	}

	slog.Info("downloaded file", "repo", repo, "file", filename,
		"bytes", n, "duration", time.Since(start))
	return true, nil
}
