package tours

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourly/internal/shared/utils/response"
)

// Controller handles HTTP requests for tour reads
type Controller struct {
	service Service
}

// NewController creates a new tour controller
func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// GetTour handles GET /api/v1/tours/:id
func (c *Controller) GetTour(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid tour ID", nil, nil)
		return
	}

	tour, err := c.service.GetTour(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Tour retrieved", tour, nil)
}

// ListSchedules handles GET /api/v1/tours/:id/schedules
func (c *Controller) ListSchedules(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid tour ID", nil, nil)
		return
	}

	schedules, err := c.service.ListUpcomingSchedules(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Schedules retrieved", gin.H{
		"schedules": schedules,
	}, nil)
}
