package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	appconfig "recycle-it-api-server/config"
	"recycle-it-api-server/internal/models"
	"recycle-it-api-server/internal/payments"
)

// fakeGateway lets a test script provider statuses; the mock-mode Mercado Pago
// gateway approves everything, which most tests want, but the webhook tests
// need a provider that answers "pending" first.
type fakeGateway struct {
	mu      sync.Mutex
	status  string
	created int
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payments.IntentRequest) (*payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.created++
	return &payments.Intent{ProviderID: fmt.Sprintf("fake-%d", g.created), Status: g.status, Raw: json.RawMessage(`{}`)}, nil
}

func (g *fakeGateway) GetIntent(_ context.Context, providerID string) (*payments.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return &payments.Intent{ProviderID: providerID, Status: g.status}, nil
}

func (g *fakeGateway) setStatus(s string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.status = s
}

func newTestService(t *testing.T) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	gw, err := payments.NewMercadoPagoGateway(appconfig.PaymentConfig{MockMode: true})
	if err != nil {
		t.Fatalf("failed to build mock gateway: %v", err)
	}
	return NewService(store, gw, nil, nil), store
}

func schedulePickup(t *testing.T, svc *Service) *models.PickupRecord {
	t.Helper()
	p, err := svc.CreatePickup(context.Background(), CreatePickupInput{
		UserID:     "USR-TEST0001",
		DeviceType: "Laptop",
		Brand:      "Dell",
		Model:      "XPS 13",
		Condition:  "screen cracked",
		Weight:     models.Weight{Value: 1.8, Unit: "kg"},
		Address: models.Address{
			FullText: "12 MG Road",
			City:     "Mumbai",
			State:    "Maharashtra",
			Pincode:  "400001",
		},
		PreferredDate: time.Now().Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("CreatePickup: %v", err)
	}
	return p
}

func TestCreatePickupRejectsBadPincode(t *testing.T) {
	svc, store := newTestService(t)

	_, err := svc.CreatePickup(context.Background(), CreatePickupInput{
		UserID:     "USR-TEST0001",
		DeviceType: "Mobile",
		Brand:      "Samsung",
		Address:    models.Address{City: "Mumbai", Pincode: "12345"},
	})
	if !errors.Is(err, ErrInvalidPincode) {
		t.Fatalf("want ErrInvalidPincode, got %v", err)
	}

	list, err := store.ListPickups(context.Background(), PickupFilter{})
	if err != nil {
		t.Fatalf("ListPickups: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("rejected pickup must not be stored, found %d records", len(list))
	}
}

func TestCreatePickupStartsPending(t *testing.T) {
	svc, _ := newTestService(t)
	p := schedulePickup(t, svc)

	if p.Status != string(StatusPending) {
		t.Errorf("new pickup status = %q, want Pending", p.Status)
	}
	if len(p.History) != 1 || p.History[0].To != string(StatusPending) {
		t.Errorf("new pickup must record its creation event, got %+v", p.History)
	}
	if p.PickupID == "" {
		t.Error("pickup must be assigned a readable ID")
	}
}

func TestAcceptPickupFirstWins(t *testing.T) {
	svc, _ := newTestService(t)
	p := schedulePickup(t, svc)

	const recyclers = 8
	var wg sync.WaitGroup
	errs := make([]error, recyclers)
	for i := 0; i < recyclers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.AcceptPickup(context.Background(), p.PickupID, fmt.Sprintf("RCY-%04d", i))
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrAlreadyAssigned):
		default:
			t.Fatalf("unexpected error from concurrent accept: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("exactly one accept must win, got %d", won)
	}

	got, err := svc.GetPickup(context.Background(), p.PickupID)
	if err != nil {
		t.Fatalf("GetPickup: %v", err)
	}
	if got.Status != string(StatusScheduled) {
		t.Errorf("accepted pickup status = %q, want Scheduled", got.Status)
	}
	if got.AssignedRecyclerID == "" {
		t.Error("accepted pickup must record the winning recycler")
	}
}

func TestAcceptPickupNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	if _, err := svc.AcceptPickup(context.Background(), "PU-MISSING1", "RCY-0001"); !errors.Is(err, ErrPickupNotFound) {
		t.Fatalf("want ErrPickupNotFound, got %v", err)
	}
}

func TestUpdateStatusRejectsSkippedState(t *testing.T) {
	svc, _ := newTestService(t)
	p := schedulePickup(t, svc)

	_, err := svc.UpdateStatus(context.Background(), p.PickupID, StatusCollected, "", "RCY-0001")
	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("want *TransitionError, got %v", err)
	}
}

func TestCancelRequiresReason(t *testing.T) {
	svc, _ := newTestService(t)
	p := schedulePickup(t, svc)

	if _, err := svc.UpdateStatus(context.Background(), p.PickupID, StatusCancelled, "  ", p.UserID); !errors.Is(err, ErrCancelReasonRequired) {
		t.Fatalf("want ErrCancelReasonRequired, got %v", err)
	}

	got, err := svc.UpdateStatus(context.Background(), p.PickupID, StatusCancelled, "changed my mind", p.UserID)
	if err != nil {
		t.Fatalf("cancel with reason: %v", err)
	}
	if got.Status != string(StatusCancelled) || got.CancelReason != "changed my mind" {
		t.Errorf("cancelled pickup = %q / %q", got.Status, got.CancelReason)
	}

	// Terminal: nothing moves out of Cancelled.
	if _, err := svc.UpdateStatus(context.Background(), p.PickupID, StatusScheduled, "", "RCY-0001"); err == nil {
		t.Error("transition out of Cancelled must fail")
	}
}

func TestAssignPartnerMarksPartnerBusy(t *testing.T) {
	svc, store := newTestService(t)
	store.AddPartner(&models.DeliveryPartner{PartnerID: "DP-0001", Name: "Speedy", VehicleType: "VAN", Available: true})

	p := schedulePickup(t, svc)
	if _, err := svc.AcceptPickup(context.Background(), p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("AcceptPickup: %v", err)
	}

	got, err := svc.AssignPartner(context.Background(), p.PickupID, "DP-0001")
	if err != nil {
		t.Fatalf("AssignPartner: %v", err)
	}
	if got.AssignedPartnerID != "DP-0001" {
		t.Errorf("assigned partner = %q", got.AssignedPartnerID)
	}

	partner, err := store.GetPartner(context.Background(), "DP-0001")
	if err != nil {
		t.Fatalf("GetPartner: %v", err)
	}
	if partner.Available {
		t.Error("assigned partner must be marked unavailable")
	}

	// The busy partner cannot take a second pickup.
	p2 := schedulePickup(t, svc)
	if _, err := svc.AcceptPickup(context.Background(), p2.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("AcceptPickup: %v", err)
	}
	if _, err := svc.AssignPartner(context.Background(), p2.PickupID, "DP-0001"); !errors.Is(err, ErrPartnerUnavailable) {
		t.Fatalf("want ErrPartnerUnavailable, got %v", err)
	}
}

func TestAssignPartnerRequiresScheduled(t *testing.T) {
	svc, store := newTestService(t)
	store.AddPartner(&models.DeliveryPartner{PartnerID: "DP-0001", Name: "Speedy", Available: true})

	p := schedulePickup(t, svc)
	if _, err := svc.AssignPartner(context.Background(), p.PickupID, "DP-0001"); !errors.Is(err, ErrPickupNotScheduled) {
		t.Fatalf("want ErrPickupNotScheduled, got %v", err)
	}
}

// deliverPickup walks a fresh pickup to Delivered under recycler RCY-0001.
func deliverPickup(t *testing.T, svc *Service) *models.PickupRecord {
	t.Helper()
	ctx := context.Background()
	p := schedulePickup(t, svc)
	if _, err := svc.AcceptPickup(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("AcceptPickup: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, p.PickupID, StatusInTransit, "", "DP-0001"); err != nil {
		t.Fatalf("to In Transit: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, p.PickupID, StatusCollected, "", "DP-0001"); err != nil {
		t.Fatalf("to Collected: %v", err)
	}
	got, err := svc.ConfirmReceived(ctx, p.PickupID, "RCY-0001")
	if err != nil {
		t.Fatalf("ConfirmReceived: %v", err)
	}
	if got.Status != string(StatusDelivered) {
		t.Fatalf("after ConfirmReceived status = %q, want Delivered", got.Status)
	}
	return got
}

func TestConfirmReceivedOnlyAssignedRecycler(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := schedulePickup(t, svc)
	if _, err := svc.AcceptPickup(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("AcceptPickup: %v", err)
	}
	if _, err := svc.ConfirmReceived(ctx, p.PickupID, "RCY-9999"); !errors.Is(err, ErrNotAssignedRecycler) {
		t.Fatalf("want ErrNotAssignedRecycler, got %v", err)
	}
}

func TestInspectionLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := deliverPickup(t, svc)

	ins, err := svc.StartInspection(ctx, p.PickupID, "RCY-0001")
	if err != nil {
		t.Fatalf("StartInspection: %v", err)
	}
	if ins.Status != InspectionInProgress {
		t.Errorf("inspection status = %q, want in_progress", ins.Status)
	}

	if _, err := svc.StartInspection(ctx, p.PickupID, "RCY-0001"); !errors.Is(err, ErrInspectionAlreadyStarted) {
		t.Fatalf("restart: want ErrInspectionAlreadyStarted, got %v", err)
	}

	done, err := svc.CompleteInspection(ctx, p.PickupID, "good", 5000, "battery swollen, rest fine")
	if err != nil {
		t.Fatalf("CompleteInspection: %v", err)
	}
	if done.Status != InspectionCompleted || done.EstimatedValue != 5000 {
		t.Errorf("completed inspection = %+v", done)
	}
	if done.InspectionDate.IsZero() {
		t.Error("completed inspection must record its date")
	}

	// Completing twice is a conflict, not an overwrite.
	if _, err := svc.CompleteInspection(ctx, p.PickupID, "poor", 1, ""); !errors.Is(err, ErrInspectionAlreadyCompleted) {
		t.Fatalf("second complete: want ErrInspectionAlreadyCompleted, got %v", err)
	}
	got, err := svc.GetInspection(ctx, p.PickupID)
	if err != nil {
		t.Fatalf("GetInspection: %v", err)
	}
	if got.Condition != "good" || got.EstimatedValue != 5000 {
		t.Errorf("first assessment must survive, got %+v", got)
	}
}

func TestStartInspectionRequiresDelivered(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := schedulePickup(t, svc)
	if _, err := svc.AcceptPickup(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("AcceptPickup: %v", err)
	}
	if _, err := svc.StartInspection(ctx, p.PickupID, "RCY-0001"); !errors.Is(err, ErrPickupNotDelivered) {
		t.Fatalf("want ErrPickupNotDelivered, got %v", err)
	}
}

func TestCompleteInspectionValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := deliverPickup(t, svc)
	if _, err := svc.StartInspection(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("StartInspection: %v", err)
	}

	if _, err := svc.CompleteInspection(ctx, p.PickupID, "mint", 100, ""); !errors.Is(err, ErrInvalidCondition) {
		t.Fatalf("want ErrInvalidCondition, got %v", err)
	}
	if _, err := svc.CompleteInspection(ctx, p.PickupID, "good", -1, ""); !errors.Is(err, ErrNegativeEstimatedValue) {
		t.Fatalf("want ErrNegativeEstimatedValue, got %v", err)
	}
}

func TestProposePaymentRequiresCompletedInspection(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	p := deliverPickup(t, svc)
	if _, err := svc.StartInspection(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("StartInspection: %v", err)
	}

	if _, err := svc.ProposePayment(ctx, p.PickupID, 4800, ""); !errors.Is(err, ErrInspectionNotCompleted) {
		t.Fatalf("want ErrInspectionNotCompleted, got %v", err)
	}
	if _, err := svc.ProposePayment(ctx, p.PickupID, 0, ""); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("want ErrInvalidAmount, got %v", err)
	}
}

func TestFinalizePaymentRequiresProposed(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pay := proposePayment(t, svc)

	done, err := svc.FinalizePayment(ctx, pay.PaymentID)
	if err != nil {
		t.Fatalf("FinalizePayment: %v", err)
	}
	if done.Status != PaymentCompleted {
		t.Fatalf("finalized payment status = %q, want completed", done.Status)
	}

	// A completed payment cannot be finalized again.
	if _, err := svc.FinalizePayment(ctx, pay.PaymentID); !errors.Is(err, ErrPaymentNotProposed) {
		t.Fatalf("second finalize: want ErrPaymentNotProposed, got %v", err)
	}
}

// proposePayment drives a pickup to the point where a payment is proposed.
func proposePayment(t *testing.T, svc *Service) *models.PaymentRecord {
	t.Helper()
	ctx := context.Background()
	p := deliverPickup(t, svc)
	if _, err := svc.StartInspection(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("StartInspection: %v", err)
	}
	if _, err := svc.CompleteInspection(ctx, p.PickupID, "good", 5000, ""); err != nil {
		t.Fatalf("CompleteInspection: %v", err)
	}
	pay, err := svc.ProposePayment(ctx, p.PickupID, 4800, "minor wear deduction")
	if err != nil {
		t.Fatalf("ProposePayment: %v", err)
	}
	if pay.Status != PaymentProposed || pay.ProposedAmount != 4800 {
		t.Fatalf("proposed payment = %+v", pay)
	}
	return pay
}

func TestProposePaymentOnlyOnce(t *testing.T) {
	svc, _ := newTestService(t)
	pay := proposePayment(t, svc)

	if _, err := svc.ProposePayment(context.Background(), pay.PickupID, 4000, ""); !errors.Is(err, ErrPaymentAlreadyProposed) {
		t.Fatalf("want ErrPaymentAlreadyProposed, got %v", err)
	}
}

func TestEndToEndLifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pay := proposePayment(t, svc)

	done, err := svc.FinalizePayment(ctx, pay.PaymentID)
	if err != nil {
		t.Fatalf("FinalizePayment: %v", err)
	}
	if done.Status != PaymentCompleted {
		t.Errorf("payment status = %q, want completed", done.Status)
	}
	if done.FinalAmount != 4800 {
		t.Errorf("final amount = %v, want the proposed 4800", done.FinalAmount)
	}
	if done.PaidAt.IsZero() {
		t.Error("completed payment must record PaidAt")
	}
	if done.ProviderPaymentID == "" {
		t.Error("completed payment must record the provider payment ID")
	}

	p, err := svc.GetPickup(ctx, pay.PickupID)
	if err != nil {
		t.Fatalf("GetPickup: %v", err)
	}
	if p.Status != string(StatusVerified) {
		t.Errorf("pickup status after payment = %q, want Verified", p.Status)
	}

	// History must walk the full chain in order.
	want := []string{"Pending", "Scheduled", "In Transit", "Collected", "Delivered", "Verified"}
	if len(p.History) != len(want) {
		t.Fatalf("history has %d events, want %d: %+v", len(p.History), len(want), p.History)
	}
	for i, ev := range p.History {
		if ev.To != want[i] {
			t.Errorf("history[%d].To = %q, want %q", i, ev.To, want[i])
		}
	}
}

func TestFinalizePaymentPendingProviderStaysProposed(t *testing.T) {
	store := NewMemoryStore()
	gw := &fakeGateway{status: "pending"}
	svc := NewService(store, gw, nil, nil)

	pay := proposePayment(t, svc)

	got, err := svc.FinalizePayment(context.Background(), pay.PaymentID)
	if err != nil {
		t.Fatalf("FinalizePayment: %v", err)
	}
	if got.Status != PaymentProposed {
		t.Errorf("payment with pending provider status = %q, want still proposed", got.Status)
	}
	if got.ProviderPaymentID == "" {
		t.Error("provider payment ID must be stored for the webhook to find")
	}

	// The provider approves later; the webhook reconciles.
	gw.setStatus("approved")
	done, err := svc.ReconcilePayment(context.Background(), got.ProviderPaymentID)
	if err != nil {
		t.Fatalf("ReconcilePayment: %v", err)
	}
	if done.Status != PaymentCompleted {
		t.Errorf("reconciled payment status = %q, want completed", done.Status)
	}

	p, err := svc.GetPickup(context.Background(), pay.PickupID)
	if err != nil {
		t.Fatalf("GetPickup: %v", err)
	}
	if p.Status != string(StatusVerified) {
		t.Errorf("pickup after webhook approval = %q, want Verified", p.Status)
	}

	// Webhook replays are no-ops.
	again, err := svc.ReconcilePayment(context.Background(), got.ProviderPaymentID)
	if err != nil {
		t.Fatalf("replayed ReconcilePayment: %v", err)
	}
	if again.Status != PaymentCompleted {
		t.Errorf("replayed reconcile status = %q", again.Status)
	}
}

func TestReconcilePaymentRejected(t *testing.T) {
	store := NewMemoryStore()
	gw := &fakeGateway{status: "pending"}
	svc := NewService(store, gw, nil, nil)

	pay := proposePayment(t, svc)
	got, err := svc.FinalizePayment(context.Background(), pay.PaymentID)
	if err != nil {
		t.Fatalf("FinalizePayment: %v", err)
	}

	gw.setStatus("rejected")
	done, err := svc.ReconcilePayment(context.Background(), got.ProviderPaymentID)
	if err != nil {
		t.Fatalf("ReconcilePayment: %v", err)
	}
	if done.Status != PaymentRejected {
		t.Errorf("rejected payment status = %q", done.Status)
	}

	p, err := svc.GetPickup(context.Background(), pay.PickupID)
	if err != nil {
		t.Fatalf("GetPickup: %v", err)
	}
	if p.Status != string(StatusDelivered) {
		t.Errorf("pickup after rejected payment = %q, want still Delivered", p.Status)
	}
}

func TestRecyclerMutationsRequireAssignment(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.AddPartner(&models.DeliveryPartner{PartnerID: "DP-0001", Name: "Speedy", Available: true})

	p := schedulePickup(t, svc)
	if _, err := svc.AcceptPickup(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("AcceptPickup: %v", err)
	}

	// A different recycler can neither advance, cancel, nor book transport.
	if _, err := svc.UpdateStatusByRecycler(ctx, p.PickupID, StatusInTransit, "", "RCY-9999"); !errors.Is(err, ErrNotAssignedRecycler) {
		t.Fatalf("status update by stranger: want ErrNotAssignedRecycler, got %v", err)
	}
	if _, err := svc.RejectPickup(ctx, p.PickupID, "not my pickup", "RCY-9999"); !errors.Is(err, ErrNotAssignedRecycler) {
		t.Fatalf("reject by stranger: want ErrNotAssignedRecycler, got %v", err)
	}
	if _, err := svc.AssignPartnerByRecycler(ctx, p.PickupID, "DP-0001", "RCY-9999"); !errors.Is(err, ErrNotAssignedRecycler) {
		t.Fatalf("assign partner by stranger: want ErrNotAssignedRecycler, got %v", err)
	}

	got, err := svc.GetPickup(ctx, p.PickupID)
	if err != nil {
		t.Fatalf("GetPickup: %v", err)
	}
	if got.Status != string(StatusScheduled) {
		t.Fatalf("pickup must be untouched, status = %q", got.Status)
	}

	// The assigned recycler still can.
	if _, err := svc.UpdateStatusByRecycler(ctx, p.PickupID, StatusInTransit, "", "RCY-0001"); err != nil {
		t.Fatalf("status update by assigned recycler: %v", err)
	}
}

func TestPartnerReleasedOnCancel(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.AddPartner(&models.DeliveryPartner{PartnerID: "DP-0001", Name: "Speedy", Available: true})

	p := schedulePickup(t, svc)
	if _, err := svc.AcceptPickup(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("AcceptPickup: %v", err)
	}
	if _, err := svc.AssignPartner(ctx, p.PickupID, "DP-0001"); err != nil {
		t.Fatalf("AssignPartner: %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, p.PickupID, StatusCancelled, "device no longer available", p.UserID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	partner, err := store.GetPartner(ctx, "DP-0001")
	if err != nil {
		t.Fatalf("GetPartner: %v", err)
	}
	if !partner.Available {
		t.Error("partner must be available again after the pickup is cancelled")
	}
}

func TestPartnerReleasedOnVerified(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	store.AddPartner(&models.DeliveryPartner{PartnerID: "DP-0001", Name: "Speedy", Available: true})

	p := schedulePickup(t, svc)
	if _, err := svc.AcceptPickup(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("AcceptPickup: %v", err)
	}
	if _, err := svc.AssignPartner(ctx, p.PickupID, "DP-0001"); err != nil {
		t.Fatalf("AssignPartner: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, p.PickupID, StatusInTransit, "", "DP-0001"); err != nil {
		t.Fatalf("to In Transit: %v", err)
	}
	if _, err := svc.UpdateStatus(ctx, p.PickupID, StatusCollected, "", "DP-0001"); err != nil {
		t.Fatalf("to Collected: %v", err)
	}
	if _, err := svc.ConfirmReceived(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("ConfirmReceived: %v", err)
	}
	if _, err := svc.StartInspection(ctx, p.PickupID, "RCY-0001"); err != nil {
		t.Fatalf("StartInspection: %v", err)
	}
	if _, err := svc.CompleteInspection(ctx, p.PickupID, "good", 5000, ""); err != nil {
		t.Fatalf("CompleteInspection: %v", err)
	}
	pay, err := svc.ProposePayment(ctx, p.PickupID, 4800, "")
	if err != nil {
		t.Fatalf("ProposePayment: %v", err)
	}
	if _, err := svc.FinalizePayment(ctx, pay.PaymentID); err != nil {
		t.Fatalf("FinalizePayment: %v", err)
	}

	got, err := svc.GetPickup(ctx, p.PickupID)
	if err != nil {
		t.Fatalf("GetPickup: %v", err)
	}
	if got.Status != string(StatusVerified) {
		t.Fatalf("pickup status = %q, want Verified", got.Status)
	}

	partner, err := store.GetPartner(ctx, "DP-0001")
	if err != nil {
		t.Fatalf("GetPartner: %v", err)
	}
	if !partner.Available {
		t.Error("partner must be available again after the pickup is verified")
	}
}

func TestConcurrentFinalizeCreatesSingleIntent(t *testing.T) {
	store := NewMemoryStore()
	gw := &fakeGateway{status: "approved"}
	svc := NewService(store, gw, nil, nil)

	pay := proposePayment(t, svc)

	const callers = 4
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.FinalizePayment(context.Background(), pay.PaymentID)
		}(i)
	}
	wg.Wait()

	var won int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, ErrPaymentNotProposed):
		default:
			t.Fatalf("unexpected error from concurrent finalize: %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("exactly one finalize must win, got %d", won)
	}

	gw.mu.Lock()
	created := gw.created
	gw.mu.Unlock()
	if created != 1 {
		t.Fatalf("provider intents created = %d, want 1", created)
	}

	got, err := svc.GetPaymentByPickup(context.Background(), pay.PickupID)
	if err != nil {
		t.Fatalf("GetPaymentByPickup: %v", err)
	}
	if got.Status != PaymentCompleted {
		t.Errorf("payment status = %q, want completed", got.Status)
	}
}

func TestRejectPickup(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	pay := proposePayment(t, svc)

	if _, err := svc.RejectPickup(ctx, pay.PickupID, "", "RCY-0001"); !errors.Is(err, ErrCancelReasonRequired) {
		t.Fatalf("want ErrCancelReasonRequired, got %v", err)
	}

	p, err := svc.RejectPickup(ctx, pay.PickupID, "hazardous contamination", "RCY-0001")
	if err != nil {
		t.Fatalf("RejectPickup: %v", err)
	}
	if p.Status != string(StatusCancelled) {
		t.Errorf("rejected pickup status = %q, want Cancelled", p.Status)
	}

	got, err := svc.GetPaymentByPickup(ctx, pay.PickupID)
	if err != nil {
		t.Fatalf("GetPaymentByPickup: %v", err)
	}
	if got.Status != PaymentRejected {
		t.Errorf("payment after reject = %q, want rejected", got.Status)
	}
}
