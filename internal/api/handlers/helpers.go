package handlers

import (
	"errors"
	"net/http"

	"recycle-it-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
)

// respondOK trả về envelope chuẩn {success, message, data} cho toàn bộ API.
func respondOK(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "data": data})
}

func respondCreated(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": message, "data": data})
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "message": message})
}

// respondWorkflowError ánh xạ lỗi typed của workflow sang HTTP status.
func respondWorkflowError(c *gin.Context, err error) {
	status := http.StatusInternalServerError

	var te *workflow.TransitionError
	switch {
	case errors.Is(err, workflow.ErrPickupNotFound),
		errors.Is(err, workflow.ErrInspectionNotFound),
		errors.Is(err, workflow.ErrPaymentNotFound),
		errors.Is(err, workflow.ErrPartnerNotFound):
		status = http.StatusNotFound

	case errors.Is(err, workflow.ErrAlreadyAssigned),
		errors.Is(err, workflow.ErrPickupModified),
		errors.Is(err, workflow.ErrInspectionAlreadyStarted),
		errors.Is(err, workflow.ErrInspectionAlreadyCompleted),
		errors.Is(err, workflow.ErrPaymentAlreadyProposed),
		errors.Is(err, workflow.ErrPaymentNotProposed),
		errors.Is(err, workflow.ErrPickupNotScheduled),
		errors.Is(err, workflow.ErrPickupNotDelivered),
		errors.Is(err, workflow.ErrInspectionNotCompleted),
		errors.Is(err, workflow.ErrPartnerUnavailable),
		errors.As(err, &te):
		status = http.StatusConflict

	case errors.Is(err, workflow.ErrNotAssignedRecycler):
		status = http.StatusForbidden

	case errors.Is(err, workflow.ErrCancelReasonRequired),
		errors.Is(err, workflow.ErrInvalidCondition),
		errors.Is(err, workflow.ErrNegativeEstimatedValue),
		errors.Is(err, workflow.ErrInvalidAmount),
		errors.Is(err, workflow.ErrInvalidPincode):
		status = http.StatusBadRequest
	}

	respondError(c, status, err.Error())
}

// accountID lấy ID tài khoản đã được middleware Authenticate đặt vào context.
func accountID(c *gin.Context) string {
	id, _ := c.Get("account_id")
	s, _ := id.(string)
	return s
}
