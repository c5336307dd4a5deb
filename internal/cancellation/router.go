package cancellation

import (
	"tourly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupCancellationRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Booking cancellation routes (Users and Admins)
	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		bookings.POST("/:id/cancellations", controller.Submit)      // POST /api/v1/bookings/:id/cancellations
		bookings.GET("/:id/cancellations/quote", controller.Quote)  // GET /api/v1/bookings/:id/cancellations/quote
	}

	// Cancellation lookup routes
	cancellations := rg.Group("/cancellations")
	cancellations.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		cancellations.GET("/:id", controller.GetCancellation) // GET /api/v1/cancellations/:id
	}

	// User-specific cancellation routes
	users := rg.Group("/users")
	users.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		users.GET("/cancellations", controller.GetUserCancellations) // GET /api/v1/users/cancellations
	}

	// Admin review and refund routes
	admin := rg.Group("/admin")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.GET("/cancellations", controller.ListByStatus)                     // GET /api/v1/admin/cancellations
		admin.GET("/cancellations/pending", controller.ListPending)              // GET /api/v1/admin/cancellations/pending
		admin.GET("/cancellations/emergency", controller.ListEmergency)          // GET /api/v1/admin/cancellations/emergency
		admin.GET("/cancellations/statistics", controller.GetStatistics)         // GET /api/v1/admin/cancellations/statistics
		admin.POST("/cancellations/:id/approve", controller.Approve)             // POST /api/v1/admin/cancellations/:id/approve
		admin.POST("/cancellations/:id/reject", controller.Reject)               // POST /api/v1/admin/cancellations/:id/reject
		admin.POST("/cancellations/:id/expedite", controller.ExpediteEmergency)  // POST /api/v1/admin/cancellations/:id/expedite
		admin.POST("/cancellations/:id/refund", controller.CompleteRefund)       // POST /api/v1/admin/cancellations/:id/refund
		admin.POST("/cancellations/:id/refund/fail", controller.FailRefund)      // POST /api/v1/admin/cancellations/:id/refund/fail
		admin.POST("/cancellations/:id/refund/retry", controller.RetryRefund)    // POST /api/v1/admin/cancellations/:id/refund/retry
		admin.GET("/users/:userId/cancellation-summary", controller.GetUserSummary) // GET /api/v1/admin/users/:userId/cancellation-summary
	}
}
