package modifications

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourly/internal/shared/utils/response"
)

// Controller handles HTTP requests for the modification workflow
type Controller struct {
	service Service
}

// NewController creates a new modification controller
func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Submit handles POST /api/v1/bookings/:id/modifications
func (c *Controller) Submit(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	modification, err := c.service.Submit(ctx.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Modification request submitted", modification, nil)
}

// Quote handles POST /api/v1/bookings/:id/modifications/quote
func (c *Controller) Quote(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req SubmitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	quote, err := c.service.Quote(ctx.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modification quote calculated", quote, nil)
}

// GetModification handles GET /api/v1/modifications/:id
func (c *Controller) GetModification(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid modification ID", nil, nil)
		return
	}

	modification, err := c.service.GetModification(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modification retrieved", modification, nil)
}

// GetUserModifications handles GET /api/v1/users/modifications
func (c *Controller) GetUserModifications(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var query ModificationListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	modifications, total, err := c.service.GetUserModifications(ctx.Request.Context(), userID, query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modifications retrieved", gin.H{
		"modifications": modifications,
		"total":         total,
	}, nil)
}

// GetBookingModifications handles GET /api/v1/bookings/:id/modifications
func (c *Controller) GetBookingModifications(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	modifications, err := c.service.GetBookingModifications(ctx.Request.Context(), bookingID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modifications retrieved", gin.H{
		"modifications": modifications,
	}, nil)
}

// CancelByCustomer handles POST /api/v1/modifications/:id/cancel
func (c *Controller) CancelByCustomer(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid modification ID", nil, nil)
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	modification, err := c.service.CancelByCustomer(ctx.Request.Context(), id, userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modification request cancelled", modification, nil)
}

// AcceptCharges handles POST /api/v1/modifications/:id/accept-charges
func (c *Controller) AcceptCharges(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid modification ID", nil, nil)
		return
	}

	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	modification, err := c.service.AcceptCharges(ctx.Request.Context(), id, userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Additional charges accepted", modification, nil)
}

type decisionRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// Approve handles POST /api/v1/admin/modifications/:id/approve
func (c *Controller) Approve(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid modification ID", nil, nil)
		return
	}

	adminID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req decisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	modification, err := c.service.Approve(ctx.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modification approved", modification, nil)
}

// Reject handles POST /api/v1/admin/modifications/:id/reject
func (c *Controller) Reject(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid modification ID", nil, nil)
		return
	}

	adminID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var req decisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	modification, err := c.service.Reject(ctx.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modification rejected", modification, nil)
}

// Complete handles POST /api/v1/admin/modifications/:id/complete
func (c *Controller) Complete(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid modification ID", nil, nil)
		return
	}

	adminID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	modification, err := c.service.Complete(ctx.Request.Context(), id, adminID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modification completed", modification, nil)
}

// UpdateDetails handles PUT /api/v1/admin/modifications/:id
func (c *Controller) UpdateDetails(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid modification ID", nil, nil)
		return
	}

	var req UpdateDetailsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	modification, err := c.service.UpdateDetails(ctx.Request.Context(), id, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modification details updated", modification, nil)
}

// ListPending handles GET /api/v1/admin/modifications/pending
func (c *Controller) ListPending(ctx *gin.Context) {
	var query ModificationListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	modifications, total, err := c.service.ListPending(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pending modifications retrieved", gin.H{
		"modifications": modifications,
		"total":         total,
	}, nil)
}

// ListByStatus handles GET /api/v1/admin/modifications
func (c *Controller) ListByStatus(ctx *gin.Context) {
	var query ModificationListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	if query.Status == "" {
		c.ListPending(ctx)
		return
	}

	modifications, total, err := c.service.ListByStatus(ctx.Request.Context(), Status(query.Status), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Modifications retrieved", gin.H{
		"modifications": modifications,
		"total":         total,
	}, nil)
}

// GetStatistics handles GET /api/v1/admin/modifications/statistics
func (c *Controller) GetStatistics(ctx *gin.Context) {
	from, to, err := parseDateRange(ctx)
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid date range", nil, err.Error())
		return
	}

	stats, err := c.service.GetStatistics(ctx.Request.Context(), from, to)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	types, err := c.service.GetTypeStats(ctx.Request.Context(), from, to)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Statistics retrieved", gin.H{
		"summary": stats,
		"types":   types,
	}, nil)
}

// parseDateRange reads from/to query params, defaulting to the last 30 days.
func parseDateRange(ctx *gin.Context) (time.Time, time.Time, error) {
	to := time.Now()
	from := to.AddDate(0, 0, -30)

	if raw := ctx.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		from = parsed
	}
	if raw := ctx.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		to = parsed
	}
	return from, to, nil
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
