package server

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/duynguyendang/gerd/pkg/common/errors"
	"github.com/duynguyendang/gerd/pkg/service"
	"github.com/gin-gonic/gin"
)

// handleEnvironments returns the list of available catalog environments.
func (s *Server) handleEnvironments(c *gin.Context) {
	envs, err := s.decompiler.ListEnvironments()
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, envs)
}

// handleDecompile decompiles one event rule. ?env= fills in a missing
// environment.
func (s *Server) handleDecompile(c *gin.Context) {
	var req service.DecompileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}
	if req.Environment == "" {
		req.Environment = c.Query("env")
	}

	res, err := s.decompiler.Decompile(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type batchRequest struct {
	Environment string                     `json:"environment"`
	Requests    []service.DecompileRequest `json:"requests"`
}

// handleDecompileBatch decompiles several event rules. Per-item failures are
// reported inside a 200 response.
func (s *Server) handleDecompileBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Invalid request body", err))
		return
	}

	batch, err := s.decompiler.DecompileBatch(c.Request.Context(), req.Environment, req.Requests)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

// handleTemplates lists or searches the templates of an environment.
func (s *Server) handleTemplates(c *gin.Context) {
	env := c.Query("env")
	if env == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing env parameter", nil))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))

	templates, err := s.decompiler.ListTemplates(env, c.Query("q"), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates})
}

// handleTemplate returns one template with its items.
func (s *Server) handleTemplate(c *gin.Context) {
	env := c.Query("env")
	if env == "" {
		handleError(c, errors.NewAppError(http.StatusBadRequest, "Missing env parameter", nil))
		return
	}

	tmpl, err := s.decompiler.GetTemplate(c.Request.Context(), env, c.Param("name"))
	if err != nil {
		handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tmpl)
}

func handleError(c *gin.Context, err error) {
	appErr := errors.MapError(err)
	if appErr.Code >= http.StatusInternalServerError {
		slog.Error("request failed", "request_id", c.GetString(ctxRequestID), "path", c.FullPath(), "error", err)
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message, "detail": err.Error(), "request_id": c.GetString(ctxRequestID)})
}
