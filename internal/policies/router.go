package policies

import (
	"tourly/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupPolicyRoutes(rg *gin.RouterGroup, controller *Controller) {
	// Policy management routes (Admin only)
	admin := rg.Group("/admin/policies")
	admin.Use(middleware.JWTAuth(), middleware.RequireRoles("ADMIN"))
	{
		admin.POST("", controller.CreatePolicy)                  // POST /api/v1/admin/policies
		admin.PUT("/:id", controller.UpdatePolicy)               // PUT /api/v1/admin/policies/:id
		admin.POST("/:id/deprecate", controller.DeprecatePolicy) // POST /api/v1/admin/policies/:id/deprecate
	}

	// Policy read routes (Users and Admins)
	policies := rg.Group("/policies")
	policies.Use(middleware.JWTAuth(), middleware.RequireRoles("USER", "ADMIN"))
	{
		policies.GET("", controller.ListPolicies)                          // GET /api/v1/policies
		policies.GET("/:id", controller.GetPolicy)                         // GET /api/v1/policies/:id
		policies.GET("/resolve/:categoryId", controller.ResolveForCategory) // GET /api/v1/policies/resolve/:categoryId
	}
}
