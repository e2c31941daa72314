// Package server - Handler fuer die Extraktions-Endpoints
// Beinhaltet: ProcessHandler, ModelsHandler, HealthHandler
//
// Fehler-Contract: nicht unterstuetzte Modelle -> 400 mit Liste der
// gueltigen Namen, Load-/Extraktionsfehler -> 500 mit Ursache im
// "detail"-Feld. Partielle Ergebnisse gibt es nicht.
package server

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/attnlens/attnlens/api"
	"github.com/attnlens/attnlens/envconfig"
	"github.com/attnlens/attnlens/lens"
)

// ProcessHandler verarbeitet POST /process Anfragen
func (s *Server) ProcessHandler(c *gin.Context) {
	checkpointStart := time.Now()

	var req api.ProcessRequest
	if err := c.ShouldBindJSON(&req); errors.Is(err, io.EOF) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "missing request body"})
		return
	} else if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "text is required"})
		return
	}

	modelName := cmp.Or(req.ModelName, DefaultModel)

	extractor, err := s.registry.GetOrLoad(c.Request.Context(), modelName)
	if err != nil {
		if errors.Is(err, ErrUnsupportedModel) {
			c.JSON(http.StatusBadRequest, gin.H{
				"detail": fmt.Sprintf("Model '%s' not supported. Available models: %s",
					modelName, strings.Join(s.registry.Available(), ", ")),
			})
			return
		}

		slog.Error("model load failed", "model", modelName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), envconfig.ProcessTimeout())
	defer cancel()

	res, err := extractor.Extract(ctx, req.Text)
	if err != nil {
		slog.Error("extraction failed", "model", modelName, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}

	resp := lens.Envelope(modelName, extractor.Config(), res)

	slog.Info("processed text", "model", modelName,
		"tokens", resp.NumTokens,
		"patterns", len(resp.AttentionPatterns),
		"duration", time.Since(checkpointStart))

	c.JSON(http.StatusOK, resp)
}

// ModelsHandler listet verfuegbare und geladene Modelle
func (s *Server) ModelsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.ModelsResponse{
		Models:       s.registry.Available(),
		LoadedModels: s.registry.Loaded(),
	})
}

// HealthHandler ist der Health-Check Endpoint
func (s *Server) HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, api.HealthResponse{
		Status:       "healthy",
		LoadedModels: s.registry.Loaded(),
	})
}
