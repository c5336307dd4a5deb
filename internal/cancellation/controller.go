package cancellation

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tourly/internal/shared/utils/response"
)

// Controller handles HTTP requests for the cancellation workflow
type Controller struct {
	service Service
}

// NewController creates a new cancellation controller
func NewController(service Service) *Controller {
	return &Controller{service: service}
}

// Submit handles POST /api/v1/bookings/:id/cancellations
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

	cancellation, err := c.service.Submit(ctx.Request.Context(), bookingID, userID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Cancellation request submitted", cancellation, nil)
}

// Quote handles GET /api/v1/bookings/:id/cancellations/quote
func (c *Controller) Quote(ctx *gin.Context) {
	bookingID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid booking ID", nil, nil)
		return
	}

	flags := ExceptionFlags{
		MedicalEmergency: ctx.Query("medical_emergency") == "true",
		WeatherRelated:   ctx.Query("weather_related") == "true",
		ForceMajeure:     ctx.Query("force_majeure") == "true",
	}

	quote, err := c.service.Quote(ctx.Request.Context(), bookingID, flags)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Refund quote calculated", quote, nil)
}

// GetCancellation handles GET /api/v1/cancellations/:id
func (c *Controller) GetCancellation(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid cancellation ID", nil, nil)
		return
	}

	cancellation, err := c.service.GetCancellation(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Cancellation retrieved", cancellation, nil)
}

// GetUserCancellations handles GET /api/v1/users/cancellations
func (c *Controller) GetUserCancellations(ctx *gin.Context) {
	userID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	var query CancellationListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	cancellations, total, err := c.service.GetUserCancellations(ctx.Request.Context(), userID, query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Cancellations retrieved", gin.H{
		"cancellations": cancellations,
		"total":         total,
	}, nil)
}

type decisionRequest struct {
	Notes string `json:"notes" binding:"max=2000"`
}

// Approve handles POST /api/v1/admin/cancellations/:id/approve
func (c *Controller) Approve(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid cancellation ID", nil, nil)
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

	cancellation, err := c.service.Approve(ctx.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Cancellation approved", cancellation, nil)
}

// Reject handles POST /api/v1/admin/cancellations/:id/reject
func (c *Controller) Reject(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid cancellation ID", nil, nil)
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

	cancellation, err := c.service.Reject(ctx.Request.Context(), id, adminID, req.Notes)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Cancellation rejected", cancellation, nil)
}

// ExpediteEmergency handles POST /api/v1/admin/cancellations/:id/expedite
func (c *Controller) ExpediteEmergency(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid cancellation ID", nil, nil)
		return
	}

	adminID, ok := currentUserID(ctx)
	if !ok {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "User not authenticated", nil, nil)
		return
	}

	cancellation, err := c.service.ExpediteEmergency(ctx.Request.Context(), id, adminID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Emergency cancellation expedited", cancellation, nil)
}

// ListByStatus handles GET /api/v1/admin/cancellations
func (c *Controller) ListByStatus(ctx *gin.Context) {
	var query CancellationListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	if query.Status == "" {
		c.ListPending(ctx)
		return
	}

	cancellations, total, err := c.service.ListByStatus(ctx.Request.Context(), Status(query.Status), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Cancellations retrieved", gin.H{
		"cancellations": cancellations,
		"total":         total,
	}, nil)
}

// ListPending handles GET /api/v1/admin/cancellations/pending
func (c *Controller) ListPending(ctx *gin.Context) {
	var query CancellationListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	cancellations, total, err := c.service.ListPending(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Pending cancellations retrieved", gin.H{
		"cancellations": cancellations,
		"total":         total,
	}, nil)
}

// ListEmergency handles GET /api/v1/admin/cancellations/emergency
func (c *Controller) ListEmergency(ctx *gin.Context) {
	var query CancellationListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid query parameters", nil, err.Error())
		return
	}

	cancellations, total, err := c.service.ListEmergency(ctx.Request.Context(), query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Emergency cancellations retrieved", gin.H{
		"cancellations": cancellations,
		"total":         total,
	}, nil)
}

type refundRequest struct {
	Method string `json:"method" binding:"required,oneof=CREDIT_CARD BANK_TRANSFER VOUCHER"`
}

// CompleteRefund handles POST /api/v1/admin/cancellations/:id/refund
func (c *Controller) CompleteRefund(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid cancellation ID", nil, nil)
		return
	}

	var req refundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	cancellation, err := c.service.CompleteRefund(ctx.Request.Context(), id, req.Method)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Refund completed", cancellation, nil)
}

type failRefundRequest struct {
	Reason string `json:"reason" binding:"required,min=3,max=500"`
}

// FailRefund handles POST /api/v1/admin/cancellations/:id/refund/fail
func (c *Controller) FailRefund(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid cancellation ID", nil, nil)
		return
	}

	var req failRefundRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid request body", nil, err.Error())
		return
	}

	cancellation, err := c.service.FailRefund(ctx.Request.Context(), id, req.Reason)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Refund marked as failed", cancellation, nil)
}

// RetryRefund handles POST /api/v1/admin/cancellations/:id/refund/retry
func (c *Controller) RetryRefund(ctx *gin.Context) {
	id, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid cancellation ID", nil, nil)
		return
	}

	cancellation, err := c.service.RetryRefund(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Refund retry started", cancellation, nil)
}

// GetStatistics handles GET /api/v1/admin/cancellations/statistics
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

	reasons, err := c.service.GetReasonStats(ctx.Request.Context(), from, to)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Statistics retrieved", gin.H{
		"summary": stats,
		"reasons": reasons,
	}, nil)
}

// GetUserSummary handles GET /api/v1/admin/users/:userId/cancellation-summary
func (c *Controller) GetUserSummary(ctx *gin.Context) {
	userID, err := uuid.Parse(ctx.Param("userId"))
	if err != nil {
		response.RespondJSON(ctx, "error", http.StatusBadRequest, "Invalid user ID", nil, nil)
		return
	}

	summary, err := c.service.GetUserSummary(ctx.Request.Context(), userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "User summary retrieved", summary, nil)
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
