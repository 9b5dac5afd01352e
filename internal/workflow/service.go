package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"recycle-it-api-server/internal/ledger"
	"recycle-it-api-server/internal/models"
	"recycle-it-api-server/internal/payments"
	"recycle-it-api-server/internal/socket"

	"github.com/google/uuid"
)

// Indian PIN code: 6 digits, first digit non-zero.
var pincodeRegexp = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// ValidatePincode rejects malformed pincodes before anything is written.
func ValidatePincode(pincode string) error {
	if !pincodeRegexp.MatchString(pincode) {
		return ErrInvalidPincode
	}
	return nil
}

// Service enforces the pickup lifecycle: who may move a pickup where, when an
// inspection may run, and when payment may be proposed and finalized. Every
// state change goes through a guarded store update so concurrent actors cannot
// silently overwrite each other.
type Service struct {
	store    Store
	gateway  payments.Gateway
	hub      *socket.Hub
	recorder *ledger.Recorder
}

func NewService(store Store, gateway payments.Gateway, hub *socket.Hub, recorder *ledger.Recorder) *Service {
	return &Service{store: store, gateway: gateway, hub: hub, recorder: recorder}
}

// CreatePickupInput là dữ liệu từ form đặt lịch thu gom của mobile app.
type CreatePickupInput struct {
	UserID        string
	DeviceType    string
	Brand         string
	Model         string
	Condition     string
	Weight        models.Weight
	Address       models.Address
	PreferredDate time.Time
}

// CreatePickup validates the request and stores a new Pending pickup.
func (s *Service) CreatePickup(ctx context.Context, in CreatePickupInput) (*models.PickupRecord, error) {
	if err := ValidatePincode(in.Address.Pincode); err != nil {
		return nil, err
	}

	now := time.Now()
	p := &models.PickupRecord{
		PickupID:      fmt.Sprintf("PU-%s", strings.ToUpper(uuid.New().String()[:8])),
		UserID:        in.UserID,
		DeviceType:    in.DeviceType,
		Brand:         in.Brand,
		Model:         in.Model,
		Condition:     in.Condition,
		Weight:        in.Weight,
		PickupAddress: in.Address,
		PreferredDate: in.PreferredDate,
		Status:        string(StatusPending),
		History: []models.StatusEvent{
			{From: "", To: string(StatusPending), Actor: in.UserID, At: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreatePickup(ctx, p); err != nil {
		return nil, err
	}

	s.broadcastToRecyclers("new_pickup", p)
	return p, nil
}

func (s *Service) GetPickup(ctx context.Context, pickupID string) (*models.PickupRecord, error) {
	p, err := s.store.GetPickup(ctx, pickupID)
	if err == ErrNotFound {
		return nil, ErrPickupNotFound
	}
	return p, err
}

func (s *Service) ListPickups(ctx context.Context, filter PickupFilter) ([]models.PickupRecord, error) {
	return s.store.ListPickups(ctx, filter)
}

// AcceptPickup moves Pending -> Scheduled and assigns the recycler atomically.
// First acceptance wins: the guarded update only matches a still-unassigned
// Pending pickup, so the second of two concurrent accepts fails with a
// conflict instead of overwriting the assignment.
func (s *Service) AcceptPickup(ctx context.Context, pickupID, recyclerID string) (*models.PickupRecord, error) {
	status := StatusScheduled
	now := time.Now()
	ok, err := s.store.UpdatePickup(ctx, pickupID,
		PickupGuard{Status: StatusPending, Unassigned: true},
		PickupUpdate{
			Status:             &status,
			AssignedRecyclerID: &recyclerID,
			Event:              &models.StatusEvent{From: string(StatusPending), To: string(StatusScheduled), Actor: recyclerID, At: now},
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Guard mismatch: either the pickup does not exist or someone was faster.
		if _, err := s.store.GetPickup(ctx, pickupID); err == ErrNotFound {
			return nil, ErrPickupNotFound
		}
		return nil, ErrAlreadyAssigned
	}

	p, err := s.store.GetPickup(ctx, pickupID)
	if err != nil {
		return nil, err
	}

	s.recorder.RecordCustodyEvent(pickupID, string(StatusPending), string(StatusScheduled), recyclerID)
	s.notify(p.UserID, "pickup_status_changed", p)
	return p, nil
}

// UpdateStatus applies a table-validated transition. Cancellation requires a
// reason and is allowed from any non-terminal state.
func (s *Service) UpdateStatus(ctx context.Context, pickupID string, next PickupStatus, reason, actorID string) (*models.PickupRecord, error) {
	p, err := s.GetPickup(ctx, pickupID)
	if err != nil {
		return nil, err
	}

	current := PickupStatus(p.Status)
	if err := ValidateTransition(current, next); err != nil {
		return nil, err
	}
	if next == StatusCancelled && strings.TrimSpace(reason) == "" {
		return nil, ErrCancelReasonRequired
	}

	upd := PickupUpdate{
		Status: &next,
		Event:  &models.StatusEvent{From: string(current), To: string(next), Actor: actorID, Reason: reason, At: time.Now()},
	}
	if next == StatusCancelled {
		upd.CancelReason = &reason
	}

	ok, err := s.store.UpdatePickup(ctx, pickupID, PickupGuard{Status: current}, upd)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPickupModified
	}

	updated, err := s.store.GetPickup(ctx, pickupID)
	if err != nil {
		return nil, err
	}

	// Pickup kết thúc thì trả đối tác vận chuyển về trạng thái sẵn sàng.
	if next == StatusCancelled {
		s.releasePartner(ctx, updated)
	}

	s.recorder.RecordCustodyEvent(pickupID, string(current), string(next), actorID)
	s.notify(updated.UserID, "pickup_status_changed", updated)
	return updated, nil
}

// releasePartner frees the assigned delivery partner once the pickup reaches a
// terminal state.
func (s *Service) releasePartner(ctx context.Context, p *models.PickupRecord) {
	if p == nil || p.AssignedPartnerID == "" {
		return
	}
	if err := s.store.SetPartnerAvailability(ctx, p.AssignedPartnerID, true); err != nil && err != ErrNotFound {
		log.Printf("Failed to release delivery partner %s for pickup %s: %v", p.AssignedPartnerID, p.PickupID, err)
	}
}

// AssignPartner gắn đối tác vận chuyển cho một pickup đã Scheduled và đánh dấu
// đối tác đó bận cho tới khi pickup kết thúc.
func (s *Service) AssignPartner(ctx context.Context, pickupID, partnerID string) (*models.PickupRecord, error) {
	partner, err := s.store.GetPartner(ctx, partnerID)
	if err == ErrNotFound {
		return nil, ErrPartnerNotFound
	}
	if err != nil {
		return nil, err
	}
	if !partner.Available {
		return nil, ErrPartnerUnavailable
	}

	ok, err := s.store.UpdatePickup(ctx, pickupID,
		PickupGuard{Status: StatusScheduled},
		PickupUpdate{AssignedPartnerID: &partnerID})
	if err != nil {
		return nil, err
	}
	if !ok {
		if _, err := s.store.GetPickup(ctx, pickupID); err == ErrNotFound {
			return nil, ErrPickupNotFound
		}
		return nil, ErrPickupNotScheduled
	}

	if err := s.store.SetPartnerAvailability(ctx, partnerID, false); err != nil {
		return nil, err
	}

	return s.store.GetPickup(ctx, pickupID)
}

// requireAssignedRecycler loads the pickup and rejects recyclers that are not
// the assigned one. Every recycler-facing mutation goes through this.
func (s *Service) requireAssignedRecycler(ctx context.Context, pickupID, recyclerID string) (*models.PickupRecord, error) {
	p, err := s.GetPickup(ctx, pickupID)
	if err != nil {
		return nil, err
	}
	if p.AssignedRecyclerID != recyclerID {
		return nil, ErrNotAssignedRecycler
	}
	return p, nil
}

// UpdateStatusByRecycler applies a transition requested by a recycler, who
// must be assigned to the pickup. Admin calls use UpdateStatus directly.
func (s *Service) UpdateStatusByRecycler(ctx context.Context, pickupID string, next PickupStatus, reason, recyclerID string) (*models.PickupRecord, error) {
	if _, err := s.requireAssignedRecycler(ctx, pickupID, recyclerID); err != nil {
		return nil, err
	}
	return s.UpdateStatus(ctx, pickupID, next, reason, recyclerID)
}

// AssignPartnerByRecycler lets only the assigned recycler book a delivery
// partner for the pickup.
func (s *Service) AssignPartnerByRecycler(ctx context.Context, pickupID, partnerID, recyclerID string) (*models.PickupRecord, error) {
	if _, err := s.requireAssignedRecycler(ctx, pickupID, recyclerID); err != nil {
		return nil, err
	}
	return s.AssignPartner(ctx, pickupID, partnerID)
}

// ConfirmReceived is the recycler's acknowledgement that the device arrived at
// the facility: Collected -> Delivered.
func (s *Service) ConfirmReceived(ctx context.Context, pickupID, recyclerID string) (*models.PickupRecord, error) {
	if _, err := s.requireAssignedRecycler(ctx, pickupID, recyclerID); err != nil {
		return nil, err
	}
	return s.UpdateStatus(ctx, pickupID, StatusDelivered, "", recyclerID)
}

// StartInspection opens (or resumes) the 1:1 inspection for a Delivered pickup.
func (s *Service) StartInspection(ctx context.Context, pickupID, recyclerID string) (*models.InspectionRecord, error) {
	p, err := s.requireAssignedRecycler(ctx, pickupID, recyclerID)
	if err != nil {
		return nil, err
	}
	if PickupStatus(p.Status) != StatusDelivered {
		return nil, ErrPickupNotDelivered
	}

	ins, err := s.store.GetInspectionByPickup(ctx, pickupID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}

	now := time.Now()
	if ins == nil {
		ins = &models.InspectionRecord{
			InspectionID: fmt.Sprintf("INS-%s", strings.ToUpper(uuid.New().String()[:8])),
			PickupID:     pickupID,
			RecyclerID:   recyclerID,
			Status:       InspectionInProgress,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.CreateInspection(ctx, ins); err != nil {
			return nil, err
		}
		return ins, nil
	}

	switch ins.Status {
	case InspectionCompleted:
		return nil, ErrInspectionAlreadyCompleted
	case InspectionInProgress:
		return nil, ErrInspectionAlreadyStarted
	}

	inProgress := InspectionInProgress
	ok, err := s.store.UpdateInspection(ctx, pickupID, []string{InspectionPending}, InspectionUpdate{Status: &inProgress})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInspectionAlreadyStarted
	}
	return s.store.GetInspectionByPickup(ctx, pickupID)
}

// CompleteInspection records the assessment. Calling it on an already
// completed inspection is a conflict, never a silent overwrite.
func (s *Service) CompleteInspection(ctx context.Context, pickupID, condition string, estimatedValue float64, notes string) (*models.InspectionRecord, error) {
	if !IsValidCondition(condition) {
		return nil, ErrInvalidCondition
	}
	if estimatedValue < 0 {
		return nil, ErrNegativeEstimatedValue
	}

	ins, err := s.store.GetInspectionByPickup(ctx, pickupID)
	if err == ErrNotFound {
		return nil, ErrInspectionNotFound
	}
	if err != nil {
		return nil, err
	}
	if ins.Status == InspectionCompleted {
		return nil, ErrInspectionAlreadyCompleted
	}

	completed := InspectionCompleted
	now := time.Now()
	// The looser path observed in the clients allows completing straight from
	// pending, so both pre-terminal statuses are accepted here.
	ok, err := s.store.UpdateInspection(ctx, pickupID,
		[]string{InspectionPending, InspectionInProgress},
		InspectionUpdate{
			Status:         &completed,
			Condition:      &condition,
			EstimatedValue: &estimatedValue,
			Notes:          &notes,
			InspectionDate: &now,
		})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInspectionAlreadyCompleted
	}

	return s.store.GetInspectionByPickup(ctx, pickupID)
}

// ProposePayment creates a proposed PaymentRecord for a completed inspection.
func (s *Service) ProposePayment(ctx context.Context, pickupID string, amount float64, notes string) (*models.PaymentRecord, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	ins, err := s.store.GetInspectionByPickup(ctx, pickupID)
	if err == ErrNotFound {
		return nil, ErrInspectionNotFound
	}
	if err != nil {
		return nil, err
	}
	if ins.Status != InspectionCompleted {
		return nil, ErrInspectionNotCompleted
	}

	existing, err := s.store.GetPaymentByPickup(ctx, pickupID)
	if err != nil && err != ErrNotFound {
		return nil, err
	}
	if existing != nil && existing.Status != PaymentRejected {
		return nil, ErrPaymentAlreadyProposed
	}

	p, err := s.GetPickup(ctx, pickupID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	pay := &models.PaymentRecord{
		PaymentID:      fmt.Sprintf("PAY-%s", strings.ToUpper(uuid.New().String()[:8])),
		PickupID:       pickupID,
		InspectionID:   ins.InspectionID,
		RecyclerID:     ins.RecyclerID,
		UserID:         p.UserID,
		ProposedAmount: amount,
		Notes:          notes,
		Status:         PaymentProposed,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreatePayment(ctx, pay); err != nil {
		return nil, err
	}

	s.notify(p.UserID, "payment_proposed", pay)
	return pay, nil
}

// FinalizePayment creates the payment intent at the gateway and, when the
// provider approves, completes the payment (finalAmount = proposedAmount) and
// verifies the pickup. Pending provider statuses return to proposed until the
// webhook reconciles them. The proposed->finalizing flip before the gateway
// call guarantees at most one intent is created per payment.
func (s *Service) FinalizePayment(ctx context.Context, paymentID string) (*models.PaymentRecord, error) {
	pay, err := s.store.GetPayment(ctx, paymentID)
	if err == ErrNotFound {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if pay.Status != PaymentProposed {
		return nil, ErrPaymentNotProposed
	}

	finalizing := PaymentFinalizing
	ok, err := s.store.UpdatePayment(ctx, paymentID, []string{PaymentProposed}, PaymentUpdate{Status: &finalizing})
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race to a concurrent finalize; that caller owns the intent.
		return nil, ErrPaymentNotProposed
	}

	intent, err := s.gateway.CreateIntent(ctx, payments.IntentRequest{
		Amount:            pay.ProposedAmount,
		Description:       fmt.Sprintf("Recycle-IT e-waste pickup %s", pay.PickupID),
		ExternalReference: pay.PaymentID,
	})
	if err != nil {
		// Gateway failed; put the payment back so finalize can be retried.
		proposed := PaymentProposed
		if _, uerr := s.store.UpdatePayment(ctx, paymentID, []string{PaymentFinalizing}, PaymentUpdate{Status: &proposed}); uerr != nil {
			log.Printf("[payment] failed to restore proposed status for %s: %v", paymentID, uerr)
		}
		return nil, err
	}

	if intent.Status != "approved" {
		// Provider is still processing; the webhook will finish the job.
		proposed := PaymentProposed
		upd := PaymentUpdate{Status: &proposed, ProviderPaymentID: &intent.ProviderID, ProviderStatus: &intent.Status}
		if _, err := s.store.UpdatePayment(ctx, paymentID, []string{PaymentFinalizing}, upd); err != nil {
			return nil, err
		}
		return s.store.GetPayment(ctx, paymentID)
	}

	return s.completePayment(ctx, pay, intent.ProviderID, intent.Status, []string{PaymentFinalizing})
}

// ReconcilePayment is invoked by the provider webhook: it re-reads the intent
// status from the gateway and applies it. Replays of a terminal status are
// no-ops.
func (s *Service) ReconcilePayment(ctx context.Context, providerPaymentID string) (*models.PaymentRecord, error) {
	pay, err := s.store.GetPaymentByProviderID(ctx, providerPaymentID)
	if err == ErrNotFound {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.GetIntent(ctx, providerPaymentID)
	if err != nil {
		return nil, err
	}

	switch intent.Status {
	case "approved":
		if pay.Status == PaymentCompleted {
			return pay, nil
		}
		return s.completePayment(ctx, pay, providerPaymentID, intent.Status, []string{PaymentProposed, PaymentFinalizing})
	case "rejected", "cancelled":
		if pay.Status == PaymentRejected {
			return pay, nil
		}
		rejected := PaymentRejected
		if _, err := s.store.UpdatePayment(ctx, pay.PaymentID, []string{PaymentProposed, PaymentFinalizing}, PaymentUpdate{Status: &rejected, ProviderStatus: &intent.Status}); err != nil {
			return nil, err
		}
		return s.store.GetPayment(ctx, pay.PaymentID)
	default:
		// pending / in_process: nothing to apply yet.
		return pay, nil
	}
}

func (s *Service) completePayment(ctx context.Context, pay *models.PaymentRecord, providerID, providerStatus string, expectStatus []string) (*models.PaymentRecord, error) {
	completed := PaymentCompleted
	final := pay.ProposedAmount
	now := time.Now()
	ok, err := s.store.UpdatePayment(ctx, pay.PaymentID, expectStatus, PaymentUpdate{
		Status:            &completed,
		FinalAmount:       &final,
		ProviderPaymentID: &providerID,
		ProviderStatus:    &providerStatus,
		PaidAt:            &now,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrPaymentNotProposed
	}

	updated, err := s.store.GetPayment(ctx, pay.PaymentID)
	if err != nil {
		return nil, err
	}

	s.verifyPickup(ctx, updated)
	s.notify(updated.UserID, "payment_completed", updated)
	return updated, nil
}

// verifyPickup moves Delivered -> Verified once payment has completed and
// issues the recycling certificate on the ledger.
func (s *Service) verifyPickup(ctx context.Context, pay *models.PaymentRecord) {
	verified := StatusVerified
	ok, err := s.store.UpdatePickup(ctx, pay.PickupID,
		PickupGuard{Status: StatusDelivered},
		PickupUpdate{
			Status: &verified,
			Event:  &models.StatusEvent{From: string(StatusDelivered), To: string(StatusVerified), Actor: "system", At: time.Now()},
		})
	if err != nil || !ok {
		// Pickup đã ở trạng thái khác (ví dụ bị hủy song song); giữ nguyên payment, chỉ log.
		return
	}

	enrollmentID, _ := s.store.GetRecyclerEnrollmentID(ctx, pay.RecyclerID)
	s.recorder.RecordCustodyEvent(pay.PickupID, string(StatusDelivered), string(StatusVerified), "system")
	s.recorder.IssueCertificate(pay.PickupID, pay.RecyclerID, enrollmentID, pay.FinalAmount)

	if p, err := s.store.GetPickup(ctx, pay.PickupID); err == nil {
		s.releasePartner(ctx, p)
		s.notify(p.UserID, "pickup_status_changed", p)
	}
}

// RejectPickup hủy pickup kèm lý do và đánh dấu payment (nếu có) là rejected.
// Chỉ recycler được gán mới từ chối được pickup.
func (s *Service) RejectPickup(ctx context.Context, pickupID, reason, recyclerID string) (*models.PickupRecord, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrCancelReasonRequired
	}
	if _, err := s.requireAssignedRecycler(ctx, pickupID, recyclerID); err != nil {
		return nil, err
	}

	if pay, err := s.store.GetPaymentByPickup(ctx, pickupID); err == nil && pay.Status == PaymentProposed {
		rejected := PaymentRejected
		if _, err := s.store.UpdatePayment(ctx, pay.PaymentID, []string{PaymentProposed}, PaymentUpdate{Status: &rejected}); err != nil {
			return nil, err
		}
	}

	return s.UpdateStatus(ctx, pickupID, StatusCancelled, reason, recyclerID)
}

func (s *Service) GetInspection(ctx context.Context, pickupID string) (*models.InspectionRecord, error) {
	ins, err := s.store.GetInspectionByPickup(ctx, pickupID)
	if err == ErrNotFound {
		return nil, ErrInspectionNotFound
	}
	return ins, err
}

// ListAllPayments returns payment records, optionally filtered by recycler.
func (s *Service) ListAllPayments(ctx context.Context, recyclerID string) ([]models.PaymentRecord, error) {
	return s.store.ListPayments(ctx, recyclerID)
}

func (s *Service) GetPaymentByPickup(ctx context.Context, pickupID string) (*models.PaymentRecord, error) {
	pay, err := s.store.GetPaymentByPickup(ctx, pickupID)
	if err == ErrNotFound {
		return nil, ErrPaymentNotFound
	}
	return pay, err
}

func (s *Service) notify(accountID, event string, payload interface{}) {
	if s.hub == nil || accountID == "" {
		return
	}
	message, err := json.Marshal(map[string]interface{}{"event": event, "data": payload})
	if err != nil {
		return
	}
	s.hub.Send(accountID, message)
}

func (s *Service) broadcastToRecyclers(event string, payload interface{}) {
	if s.hub == nil {
		return
	}
	message, err := json.Marshal(map[string]interface{}{"event": event, "data": payload})
	if err != nil {
		return
	}
	s.hub.BroadcastToRole("recycler", message)
}
