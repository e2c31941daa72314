// Package huggingface - HuggingFace Hub Client
// Laedt Checkpoint-Dateien aus dem Hub in das lokale Models-Verzeichnis.
//
// Dieses Modul enthaelt:
// - Client: HTTP-Wrapper fuer resolve-URLs des Hubs
// - Fehler-Definitionen fuer Not-Found / Auth / Download
package huggingface

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"
)

const (
	DefaultHubURL   = "https://huggingface.co"
	EnvToken        = "HF_TOKEN"
	EnvEndpoint     = "HF_ENDPOINT"
	clientUserAgent = "attnlens/1.0"

	// Timeout pro Datei; safetensors-Checkpoints sind mehrere GB gross
	fileTimeout = 30 * time.Minute
)

// Fehler-Definitionen
var (
	ErrFileNotFound   = errors.New("file not found on hub")
	ErrUnauthorized   = errors.New("hub authentication failed")
	ErrDownloadFailed = errors.New("download failed")
)

// Client kapselt HTTP-Zugriffe auf den HuggingFace Hub
type Client struct {
	hubURL string
	token  string
	http   *http.Client
}

// NewClient erstellt einen Client. Endpoint und Token kommen aus
// HF_ENDPOINT bzw. HF_TOKEN wenn gesetzt.
func NewClient() *Client {
	hubURL := DefaultHubURL
	if endpoint := os.Getenv(EnvEndpoint); endpoint != "" {
		hubURL = endpoint
	}

	return &Client{
		hubURL: hubURL,
		token:  os.Getenv(EnvToken),
		http:   &http.Client{Timeout: fileTimeout},
	}
}

// resolveURL baut die Download-URL fuer eine Datei eines Repos
func (c *Client) resolveURL(repo, revision, filename string) string {
	return fmt.Sprintf("%s/%s/resolve/%s/%s", c.hubURL, repo, revision, filename)
}

// fetch oeffnet den Response-Body fuer eine Checkpoint-Datei.
// Der Caller schliesst den Body.
func (c *Client) fetch(ctx context.Context, repo, revision, filename string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(repo, revision, filename), nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", clientUserAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s/%s", ErrFileNotFound, repo, filename)
	case http.StatusUnauthorized, http.StatusForbidden:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s", ErrUnauthorized, repo)
	default:
		resp.Body.Close()
		return nil, fmt.Errorf("%w: %s/%s: %s", ErrDownloadFailed, repo, filename, resp.Status)
	}
}
