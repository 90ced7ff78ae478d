// Package server exposes the pipeline over a REST API.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/duynguyendang/evogen/pkg/evol"
)

// Server holds the state for the REST API server.
type Server struct {
	cfg         evol.Config
	backend     evol.Generator
	broadcaster *evol.Broadcaster
	router      *gin.Engine
}

// NewServer creates a new Server instance. All pipeline runs started
// through this server publish progress to the shared broadcaster, which
// feeds the SSE endpoint.
func NewServer(cfg evol.Config, backend evol.Generator) *Server {
	r := gin.Default()
	s := &Server{
		cfg:         cfg,
		backend:     backend,
		broadcaster: evol.NewBroadcaster(),
		router:      r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)
	s.router.GET("/v1/status", s.handleStatus)
	s.router.GET("/v1/evolution-types", s.handleEvolutionTypes)
	s.router.POST("/v1/generate", s.handleGenerate)
	s.router.POST("/v1/generate-demo", s.handleGenerateDemo)
	s.router.POST("/v1/documents", s.handleDocuments)
	s.router.GET("/v1/events", s.handleEvents)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
