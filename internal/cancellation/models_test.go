package cancellation

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tourly/internal/shared/apperr"
)

func pendingCancellation(refund int64) *BookingCancellation {
	return &BookingCancellation{
		ID:                uuid.New(),
		BookingID:         uuid.New(),
		RequestedBy:       uuid.New(),
		Status:            StatusRequested,
		RefundStatus:      RefundPending,
		FinalRefundAmount: decimal.NewFromInt(refund),
	}
}

func TestApprove_WithRefundMovesToProcessing(t *testing.T) {
	c := pendingCancellation(250)
	adminID := uuid.New()

	err := c.Approve(adminID, "looks fine", time.Now())

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, RefundProcessing, c.RefundStatus)
	assert.Equal(t, adminID, *c.ProcessedBy)
}

func TestApprove_ZeroRefundIsNotApplicable(t *testing.T) {
	c := pendingCancellation(0)

	err := c.Approve(uuid.New(), "", time.Now())

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, RefundNotApplicable, c.RefundStatus)
}

func TestApprove_FromUnderReview(t *testing.T) {
	c := pendingCancellation(100)
	c.Status = StatusUnderReview

	assert.NoError(t, c.Approve(uuid.New(), "", time.Now()))
}

func TestApprove_FromTerminalStatesFails(t *testing.T) {
	for _, status := range []Status{StatusApproved, StatusRejected, StatusCompleted} {
		c := pendingCancellation(100)
		c.Status = status

		err := c.Approve(uuid.New(), "", time.Now())
		assert.Equal(t, apperr.CodeInvalidTransition, apperr.Code(err), "from %s", status)
	}
}

func TestReject_RestoresNothingAndClosesRefund(t *testing.T) {
	c := pendingCancellation(250)

	err := c.Reject(uuid.New(), "not eligible", time.Now())

	require.NoError(t, err)
	assert.Equal(t, StatusRejected, c.Status)
	assert.Equal(t, RefundNotApplicable, c.RefundStatus)
}

func TestCompleteRefund_HappyPath(t *testing.T) {
	c := pendingCancellation(250)
	require.NoError(t, c.Approve(uuid.New(), "", time.Now()))

	err := c.CompleteRefund("RFD_123", "CREDIT_CARD", time.Now())

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, c.Status)
	assert.Equal(t, RefundCompleted, c.RefundStatus)
	assert.Equal(t, "RFD_123", c.RefundTransactionID)
	assert.NotNil(t, c.RefundProcessedAt)
}

func TestCompleteRefund_RequiresApprovedAndProcessing(t *testing.T) {
	c := pendingCancellation(250)

	err := c.CompleteRefund("RFD_123", "CREDIT_CARD", time.Now())
	assert.Error(t, err)

	// Approved but refund not applicable.
	c2 := pendingCancellation(0)
	require.NoError(t, c2.Approve(uuid.New(), "", time.Now()))
	err = c2.CompleteRefund("RFD_123", "CREDIT_CARD", time.Now())
	assert.Equal(t, apperr.CodeRefundNotEligible, apperr.Code(err))
}

func TestFailRefund_KeepsApproved(t *testing.T) {
	c := pendingCancellation(250)
	require.NoError(t, c.Approve(uuid.New(), "", time.Now()))

	err := c.FailRefund("gateway timeout")

	require.NoError(t, err)
	assert.Equal(t, StatusApproved, c.Status)
	assert.Equal(t, RefundFailed, c.RefundStatus)
	assert.Equal(t, "gateway timeout", c.RefundFailureReason)
}

func TestRetryRefund_OnlyFromFailed(t *testing.T) {
	c := pendingCancellation(250)
	require.NoError(t, c.Approve(uuid.New(), "", time.Now()))

	assert.Error(t, c.RetryRefund())

	require.NoError(t, c.FailRefund("gateway timeout"))
	require.NoError(t, c.RetryRefund())

	assert.Equal(t, RefundProcessing, c.RefundStatus)
	assert.Empty(t, c.RefundFailureReason)
}

func TestIsEmergencyException(t *testing.T) {
	c := pendingCancellation(0)
	assert.False(t, c.IsEmergencyException())

	c.IsWeatherRelated = true
	assert.True(t, c.IsEmergencyException())
}
