package modifications

import (
	"tourly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupModificationRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Booking modification routes (Users and Admins)
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		bookings.POST("/:id/modifications", controller.Submit)                // POST /api/v1/bookings/:id/modifications
		bookings.POST("/:id/modifications/quote", controller.Quote)           // POST /api/v1/bookings/:id/modifications/quote
		bookings.GET("/:id/modifications", controller.GetBookingModifications) // GET /api/v1/bookings/:id/modifications
	}

	// Modification lookup and customer actions
	modifications := rg.Group("/modifications")
	modifications.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		modifications.GET("/:id", controller.GetModification)                  // GET /api/v1/modifications/:id
		modifications.POST("/:id/cancel", controller.CancelByCustomer)         // POST /api/v1/modifications/:id/cancel
		modifications.POST("/:id/accept-charges", controller.AcceptCharges)    // POST /api/v1/modifications/:id/accept-charges
	}

	// User-specific modification routes
	users := rg.Group("/users")
	users.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		users.GET("/modifications", controller.GetUserModifications) // GET /api/v1/users/modifications
	}

	// Admin review routes
	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.GET("/modifications", controller.ListByStatus)                 // GET /api/v1/admin/modifications
		admin.GET("/modifications/pending", controller.ListPending)          // GET /api/v1/admin/modifications/pending
		admin.GET("/modifications/statistics", controller.GetStatistics)     // GET /api/v1/admin/modifications/statistics
		admin.PUT("/modifications/:id", controller.UpdateDetails)            // PUT /api/v1/admin/modifications/:id
		admin.POST("/modifications/:id/approve", controller.Approve)         // POST /api/v1/admin/modifications/:id/approve
		admin.POST("/modifications/:id/reject", controller.Reject)           // POST /api/v1/admin/modifications/:id/reject
		admin.POST("/modifications/:id/complete", controller.Complete)       // POST /api/v1/admin/modifications/:id/complete
	}
}
