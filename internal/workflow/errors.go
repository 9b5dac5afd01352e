package workflow

import "errors"

// Typed errors returned by the workflow service. Handlers map these onto
// HTTP statuses (404 not found, 409 conflict, 400 validation, 403 forbidden).
var (
	ErrPickupNotFound     = errors.New("pickup not found")
	ErrInspectionNotFound = errors.New("inspection not found")
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrPartnerNotFound    = errors.New("delivery partner not found")

	ErrAlreadyAssigned      = errors.New("pickup has already been accepted by another recycler")
	ErrNotAssignedRecycler  = errors.New("pickup is not assigned to this recycler")
	ErrPickupModified       = errors.New("pickup was modified concurrently, retry")
	ErrPickupNotScheduled   = errors.New("pickup must be in Scheduled status")
	ErrPickupNotDelivered   = errors.New("pickup must be in Delivered status before inspection")
	ErrCancelReasonRequired = errors.New("a cancellation reason is required")

	ErrInspectionAlreadyStarted   = errors.New("inspection is already in progress")
	ErrInspectionAlreadyCompleted = errors.New("inspection has already been completed")
	ErrInspectionNotCompleted     = errors.New("inspection must be completed before proposing payment")
	ErrInvalidCondition           = errors.New("condition must be one of excellent, good, fair, poor")
	ErrNegativeEstimatedValue     = errors.New("estimated value must not be negative")

	ErrPaymentAlreadyProposed = errors.New("a payment has already been proposed for this pickup")
	ErrPaymentNotProposed     = errors.New("payment must be in proposed status")
	ErrInvalidAmount          = errors.New("amount must be greater than zero")

	ErrPartnerUnavailable = errors.New("delivery partner is not available")

	ErrInvalidPincode = errors.New("pincode must be a 6-digit code not starting with 0")
)
