// routes_test.go - Tests fuer die HTTP-Endpoints
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/attnlens/attnlens/api"
	"github.com/attnlens/attnlens/lens"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	s := &Server{registry: newTestRegistry(nil)}

	h, err := s.GenerateRoutes()
	if err != nil {
		t.Fatal(err)
	}

	return s, h
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func errorDetail(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body %q: %v", w.Body.String(), err)
	}

	return body["detail"]
}

func TestProcessHandler(t *testing.T) {
	_, h := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/process", api.ProcessRequest{
		Text: "one two three",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp api.ProcessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.ModelName != DefaultModel {
		t.Errorf("model_name = %q, want %q", resp.ModelName, DefaultModel)
	}
	if resp.NumTokens != 3 {
		t.Errorf("num_tokens = %d, want 3", resp.NumTokens)
	}
	if resp.NumLayers != 13 {
		t.Errorf("num_layers = %d, want 13", resp.NumLayers)
	}
	if resp.NumHeads != 12 {
		t.Errorf("num_heads = %d, want 12", resp.NumHeads)
	}
	if want := 12 * 12 * 3 * 3; len(resp.AttentionPatterns) != want {
		t.Errorf("got %d patterns, want %d", len(resp.AttentionPatterns), want)
	}
	for _, p := range resp.AttentionPatterns {
		if p.SourceToken > p.DestToken && p.Weight != 0 {
			t.Fatalf("non-causal edge with weight %f: %+v", p.Weight, p)
		}
	}
}

func TestProcessHandlerExplicitModel(t *testing.T) {
	_, h := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/process", api.ProcessRequest{
		Text:      "hello world",
		ModelName: "distilgpt2",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp api.ProcessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.ModelName != "distilgpt2" {
		t.Errorf("model_name = %q, want distilgpt2", resp.ModelName)
	}
	if resp.NumLayers != 7 {
		t.Errorf("num_layers = %d, want 7", resp.NumLayers)
	}
}

func TestProcessHandlerUnsupportedModel(t *testing.T) {
	s, h := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/process", api.ProcessRequest{
		Text:      "hello",
		ModelName: "gpt3",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	detail := errorDetail(t, w)
	if !strings.Contains(detail, "'gpt3' not supported") {
		t.Errorf("detail = %q, want model name in message", detail)
	}
	if !strings.Contains(detail, "gpt2-small") {
		t.Errorf("detail = %q, want available models listed", detail)
	}

	if got := s.registry.Loaded(); len(got) != 0 {
		t.Errorf("Loaded() = %v, want empty", got)
	}
}

func TestProcessHandlerMissingBody(t *testing.T) {
	_, h := newTestServer(t)

	w := doRequest(t, h, http.MethodPost, "/process", nil)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if detail := errorDetail(t, w); detail != "missing request body" {
		t.Errorf("detail = %q, want missing request body", detail)
	}
}

func TestProcessHandlerEmptyText(t *testing.T) {
	_, h := newTestServer(t)

	for _, text := range []string{"", "   \t\n"} {
		w := doRequest(t, h, http.MethodPost, "/process", api.ProcessRequest{Text: text})

		if w.Code != http.StatusBadRequest {
			t.Fatalf("status = %d for text %q, want 400", w.Code, text)
		}
		if detail := errorDetail(t, w); detail != "text is required" {
			t.Errorf("detail = %q, want text is required", detail)
		}
	}
}

func TestProcessHandlerLoadFailure(t *testing.T) {
	s, h := newTestServer(t)
	s.registry.loadFn = func(_ context.Context, id string) (*lens.Extractor, error) {
		return nil, errors.New("checkpoint missing")
	}

	w := doRequest(t, h, http.MethodPost, "/process", api.ProcessRequest{Text: "hello"})

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if detail := errorDetail(t, w); !strings.Contains(detail, "checkpoint missing") {
		t.Errorf("detail = %q, want cause in message", detail)
	}

	// Fehlgeschlagene Loads duerfen nicht gecacht werden
	s.registry.loadFn = func(_ context.Context, id string) (*lens.Extractor, error) {
		return stubExtractor(id), nil
	}

	if w := doRequest(t, h, http.MethodPost, "/process", api.ProcessRequest{Text: "hello"}); w.Code != http.StatusOK {
		t.Errorf("status after recovery = %d, want 200", w.Code)
	}
}

func TestModelsHandler(t *testing.T) {
	s, h := newTestServer(t)

	if _, err := s.registry.GetOrLoad(context.Background(), "gpt2-small"); err != nil {
		t.Fatal(err)
	}

	w := doRequest(t, h, http.MethodGet, "/models", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp api.ModelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if len(resp.Models) != 5 {
		t.Errorf("got %d models, want 5", len(resp.Models))
	}
	if len(resp.LoadedModels) != 1 || resp.LoadedModels[0] != "gpt2-small" {
		t.Errorf("loaded_models = %v, want [gpt2-small]", resp.LoadedModels)
	}
}

func TestHealthHandler(t *testing.T) {
	_, h := newTestServer(t)

	w := doRequest(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp api.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}

	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if len(resp.LoadedModels) != 0 {
		t.Errorf("loaded_models = %v, want empty", resp.LoadedModels)
	}
}

func TestRootRoute(t *testing.T) {
	_, h := newTestServer(t)

	w := doRequest(t, h, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Body.String(); got != "attnlens is running" {
		t.Errorf("body = %q", got)
	}
}

func TestVersionRoute(t *testing.T) {
	_, h := newTestServer(t)

	w := doRequest(t, h, http.MethodGet, "/api/version", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if _, ok := body["version"]; !ok {
		t.Errorf("body = %s, want version field", w.Body.String())
	}
}
