package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/psds-microservice/search-facade/internal/service"
)

type HealthHandler struct {
	svc *service.Service
}

func NewHealthHandler(svc *service.Service) *HealthHandler {
	return &HealthHandler{svc: svc}
}

// Health GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "search-facade",
		"time":    time.Now().Unix(),
	})
}

// Ready GET /ready reports ready only while the engine answers.
func (h *HealthHandler) Ready(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"ready": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ready": true})
}
