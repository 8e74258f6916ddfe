package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthStatus is the liveness message returned by Health.
const HealthStatus = "Go API Boilerplate is running"

// HealthResponse is the body of the health endpoint.
type HealthResponse struct {
	Status string `json:"status" example:"Go API Boilerplate is running"`
}

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Description Reports that the process is up. It does not check dependencies.
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      / [get]
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: HealthStatus})
}
