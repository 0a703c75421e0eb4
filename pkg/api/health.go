package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marmos91/nestfs/internal/logger"
)

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// healthz reports 200 when both stores answer their healthcheck and 503
// otherwise.
func (s *Server) healthz(c *gin.Context) {
	if err := s.service.Healthcheck(c.Request.Context()); err != nil {
		logger.Warn("Healthcheck failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, healthResponse{Status: "unhealthy", Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, healthResponse{Status: "ok"})
}
