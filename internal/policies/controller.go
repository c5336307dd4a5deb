package policies

import (
	"net/http"

	"tourly/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Controller handles HTTP requests for cancellation policies
type Controller struct {
	service Service
}

// NewController creates a new policy controller
func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// CreatePolicy handles POST /api/v1/admin/policies
func (c *Controller) CreatePolicy(ctx *gin.Context) {
	adminID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req CreatePolicyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	policy, err := c.service.CreatePolicy(ctx.Request.Context(), adminID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Policy created successfully", policy, nil)
}

// UpdatePolicy handles PUT /api/v1/admin/policies/:id
func (c *Controller) UpdatePolicy(ctx *gin.Context) {
	policyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid policy ID", nil, nil)
		return
	}

	var req UpdatePolicyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	policy, err := c.service.UpdatePolicy(ctx.Request.Context(), policyID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Policy updated successfully", policy, nil)
}

// DeprecatePolicy handles POST /api/v1/admin/policies/:id/deprecate
func (c *Controller) DeprecatePolicy(ctx *gin.Context) {
	policyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid policy ID", nil, nil)
		return
	}

	policy, err := c.service.DeprecatePolicy(ctx.Request.Context(), policyID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Policy deprecated successfully", policy, nil)
}

// GetPolicy handles GET /api/v1/policies/:id
func (c *Controller) GetPolicy(ctx *gin.Context) {
	policyID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid policy ID", nil, nil)
		return
	}

	policy, err := c.service.GetPolicy(ctx.Request.Context(), policyID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Policy retrieved successfully", policy, nil)
}

// ListPolicies handles GET /api/v1/policies
func (c *Controller) ListPolicies(ctx *gin.Context) {
	var query PolicyListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	policies, total, err := c.service.ListPolicies(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Policies retrieved successfully", gin.H{
		"policies": policies,
		"total":    total,
	}, nil)
}

// ResolveForCategory handles GET /api/v1/policies/resolve/:categoryId
func (c *Controller) ResolveForCategory(ctx *gin.Context) {
	categoryID, err := uuid.Parse(ctx.Param("categoryId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid category ID", nil, nil)
		return
	}

	policy, err := c.service.ResolveForCategory(ctx.Request.Context(), categoryID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Policy resolved successfully", policy, nil)
}

// currentUserID pulls the authenticated user's ID from the JWT context.
func currentUserID(ctx *gin.Context) (uuid.UUID, bool) {
	raw, exists := ctx.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	str, ok := raw.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(str)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
