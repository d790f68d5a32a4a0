package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/golightpay/internal/server/http/dto"
)

// HealthHandler exposes readiness of the service.
type HealthHandler struct {
	facade HealthFacade
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(facade HealthFacade) *HealthHandler {
	return &HealthHandler{facade: facade}
}

// Check handles GET /api/health.
func (h *HealthHandler) Check(c *gin.Context) {
	ok, checks := h.facade.Health(c.Request.Context())
	if !ok {
		c.JSON(http.StatusServiceUnavailable, dto.HealthResponse{Status: "unavailable", Checks: checks})
		return
	}
	c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok", Checks: checks})
}
