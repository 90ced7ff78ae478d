package server

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/duynguyendang/evogen/pkg/common/errors"
	"github.com/duynguyendang/evogen/pkg/evol"
	"github.com/duynguyendang/evogen/pkg/ingest"
)

// generateRequest is the body for POST /v1/generate.
type generateRequest struct {
	Documents       []evol.Document `json:"documents"`
	TargetQuestions int             `json:"target_questions"`
}

// handleGenerate runs the full pipeline over caller-supplied documents.
func (s *Server) handleGenerate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if len(req.Documents) == 0 {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "At least one document is required", nil))
		return
	}

	s.runPipeline(c, req.Documents, req.TargetQuestions)
}

// handleGenerateDemo runs the pipeline over the built-in sample
// documents, so the API can be exercised without uploading anything.
func (s *Server) handleGenerateDemo(c *gin.Context) {
	s.runPipeline(c, evol.SampleDocuments(), 0)
}

func (s *Server) runPipeline(c *gin.Context, docs []evol.Document, target int) {
	docs, dropped := ingest.FilterDuplicates(docs)
	if dropped > 0 {
		s.broadcaster.OnEvent(evol.Event{
			Type:    evol.EventWarning,
			Phase:   evol.PhaseIdle,
			Message: "dropped near-duplicate documents",
			Details: map[string]any{"dropped": dropped},
		})
	}

	pipeline := evol.NewPipeline(s.cfg, s.backend, s.broadcaster)
	result, err := pipeline.Run(c.Request.Context(), docs, target)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleDocuments accepts a multipart upload and returns the normalized
// documents without running the pipeline. Clients inspect and then
// submit them to /v1/generate.
func (s *Server) handleDocuments(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid multipart form", err))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "No files provided", nil))
		return
	}

	tmpDir, err := os.MkdirTemp("", "evogen-upload-")
	if err != nil {
		handleError(c, err)
		return
	}
	defer os.RemoveAll(tmpDir)

	paths := make([]string, 0, len(files))
	for _, fh := range files {
		dst := filepath.Join(tmpDir, filepath.Base(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			handleError(c, err)
			return
		}
		paths = append(paths, dst)
	}

	docs, err := ingest.NormalizeFiles(paths)
	if err != nil {
		handleError(c, err)
		return
	}
	docs, dropped := ingest.FilterDuplicates(docs)

	c.JSON(http.StatusOK, gin.H{
		"documents":          docs,
		"duplicates_dropped": dropped,
	})
}

// handleStatus returns detailed API status information.
func (s *Server) handleStatus(c *gin.Context) {
	keyStatus := "configured"
	if os.Getenv("GEMINI_API_KEY") == "" {
		keyStatus = "missing"
	}
	c.JSON(http.StatusOK, gin.H{
		"api_status": "running",
		"timestamp":  time.Now().Unix(),
		"model":      s.cfg.Model,
		"environment": gin.H{
			"gemini_key": keyStatus,
		},
		"target_questions": gin.H{
			"min":     evol.MinTargetQuestions,
			"max":     evol.MaxTargetQuestions,
			"default": s.cfg.TargetQuestions,
		},
		"event_subscribers": s.broadcaster.SubscriberCount(),
	})
}

// handleEvolutionTypes documents the three evolution types.
func (s *Server) handleEvolutionTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"evolution_types": gin.H{
			string(evol.EvolutionSimple): gin.H{
				"description": "Basic evolutions that add constraints, deepen analysis, or increase complexity",
				"examples": []string{
					"Add specific constraints to make question more challenging",
					"Transform to require step-by-step reasoning",
					"Add real-world application context",
				},
			},
			string(evol.EvolutionMultiContext): gin.H{
				"description": "Questions that require information from multiple documents or sources",
				"examples": []string{
					"Compare information across different documents",
					"Synthesize concepts from multiple sources",
					"Analyze relationships between different document sections",
				},
			},
			string(evol.EvolutionReasoning): gin.H{
				"description": "Questions requiring logical inference, cause-effect analysis, or strategic thinking",
				"examples": []string{
					"If-then conditional analysis",
					"Cause and effect relationships",
					"Problem-solving scenarios",
				},
			},
		},
	})
}

// handleEvents streams pipeline progress events as SSE. Events from all
// runs share one stream; clients correlate by run_id in the details.
func (s *Server) handleEvents(c *gin.Context) {
	events, cancel := s.broadcaster.Subscribe(64)
	defer cancel()

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Stream(func(w io.Writer) bool {
		select {
		case e, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(string(e.Type), e)
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}

// handleError helper
func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
