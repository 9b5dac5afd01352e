package workflow

import (
	"context"
	"errors"
	"time"

	"recycle-it-api-server/internal/models"
)

// ErrNotFound is returned by stores when a document does not exist.
var ErrNotFound = errors.New("document not found")

// PickupFilter narrows ListPickups.
type PickupFilter struct {
	UserID     string
	RecyclerID string
	Status     string
	Unassigned bool
}

// PickupGuard is the precondition for a guarded pickup update. The update is
// applied only when the stored document still matches the guard, which is how
// concurrent accepts and double transitions are rejected.
type PickupGuard struct {
	Status     PickupStatus
	Unassigned bool
}

// PickupUpdate is the set of fields a guarded update may change.
type PickupUpdate struct {
	Status             *PickupStatus
	AssignedRecyclerID *string
	AssignedPartnerID  *string
	CancelReason       *string
	Event              *models.StatusEvent
}

type InspectionUpdate struct {
	Status         *string
	Condition      *string
	EstimatedValue *float64
	Notes          *string
	InspectionDate *time.Time
}

type PaymentUpdate struct {
	Status            *string
	FinalAmount       *float64
	ProviderPaymentID *string
	ProviderStatus    *string
	PaidAt            *time.Time
}

// Store is the persistence boundary of the pickup workflow. The Mongo
// implementation backs the server; the memory implementation backs tests.
type Store interface {
	CreatePickup(ctx context.Context, p *models.PickupRecord) error
	GetPickup(ctx context.Context, pickupID string) (*models.PickupRecord, error)
	ListPickups(ctx context.Context, filter PickupFilter) ([]models.PickupRecord, error)
	// UpdatePickup applies upd only when the stored pickup matches guard.
	// It returns false when the guard did not match (lost race or wrong state).
	UpdatePickup(ctx context.Context, pickupID string, guard PickupGuard, upd PickupUpdate) (bool, error)

	CreateInspection(ctx context.Context, ins *models.InspectionRecord) error
	GetInspectionByPickup(ctx context.Context, pickupID string) (*models.InspectionRecord, error)
	UpdateInspection(ctx context.Context, pickupID string, expectStatus []string, upd InspectionUpdate) (bool, error)

	CreatePayment(ctx context.Context, p *models.PaymentRecord) error
	GetPayment(ctx context.Context, paymentID string) (*models.PaymentRecord, error)
	GetPaymentByPickup(ctx context.Context, pickupID string) (*models.PaymentRecord, error)
	GetPaymentByProviderID(ctx context.Context, providerID string) (*models.PaymentRecord, error)
	ListPayments(ctx context.Context, recyclerID string) ([]models.PaymentRecord, error)
	UpdatePayment(ctx context.Context, paymentID string, expectStatus []string, upd PaymentUpdate) (bool, error)

	GetPartner(ctx context.Context, partnerID string) (*models.DeliveryPartner, error)
	SetPartnerAvailability(ctx context.Context, partnerID string, available bool) error

	// GetRecyclerEnrollmentID returns the ledger enrollment ID of a recycler,
	// or "" when the recycler has no ledger identity.
	GetRecyclerEnrollmentID(ctx context.Context, recyclerID string) (string, error)
}
