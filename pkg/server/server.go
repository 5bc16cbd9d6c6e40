package server

import (
	"net/http"

	"github.com/duynguyendang/gerd/pkg/service"
	"github.com/gin-gonic/gin"
)

// Server holds the state for the REST API server.
type Server struct {
	decompiler *service.DecompileService
	router     *gin.Engine
}

// NewServer creates a new Server instance.
func NewServer(svc *service.DecompileService) *Server {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), requestID())
	s := &Server{
		decompiler: svc,
		router:     r,
	}
	s.setupRoutes()
	return s
}

// Run starts the server on the specified address.
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Handler exposes the router, e.g. for http.Server or tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", s.healthCheck)

	v1 := s.router.Group("/v1")
	v1.GET("/environments", s.handleEnvironments)
	v1.POST("/decompile", s.handleDecompile)
	v1.POST("/decompile/batch", s.handleDecompileBatch)
	v1.GET("/templates", s.handleTemplates)
	v1.GET("/templates/:name", s.handleTemplate)
}

// Health check
func (s *Server) healthCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}
