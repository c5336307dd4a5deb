package tours

import (
	"github.com/gin-gonic/gin"
)

// Tour reads are public: customers browse departures before booking.
func SetupTourRoutes(rg *gin.RouterGroup, controller *Controller) {
	tours := rg.Group("/tours")
	{
		tours.GET("/:id", controller.GetTour)                // GET /api/v1/tours/:id
		tours.GET("/:id/schedules", controller.ListSchedules) // GET /api/v1/tours/:id/schedules
	}
}
