package workflow

import (
	"context"
	"sort"
	"sync"
	"time"

	"recycle-it-api-server/internal/models"
)

// MemoryStore is an in-memory Store with the same guard semantics as the
// Mongo implementation. It backs the workflow tests.
type MemoryStore struct {
	mu          sync.Mutex
	pickups     map[string]*models.PickupRecord
	inspections map[string]*models.InspectionRecord // keyed by pickupID
	payments    map[string]*models.PaymentRecord
	partners    map[string]*models.DeliveryPartner
	enrollments map[string]string // recyclerID -> ledger enrollment ID
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pickups:     make(map[string]*models.PickupRecord),
		inspections: make(map[string]*models.InspectionRecord),
		payments:    make(map[string]*models.PaymentRecord),
		partners:    make(map[string]*models.DeliveryPartner),
		enrollments: make(map[string]string),
	}
}

func (s *MemoryStore) CreatePickup(_ context.Context, p *models.PickupRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.pickups[p.PickupID] = &cp
	return nil
}

func (s *MemoryStore) GetPickup(_ context.Context, pickupID string) (*models.PickupRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickups[pickupID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) ListPickups(_ context.Context, filter PickupFilter) ([]models.PickupRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PickupRecord
	for _, p := range s.pickups {
		if filter.UserID != "" && p.UserID != filter.UserID {
			continue
		}
		if filter.RecyclerID != "" && p.AssignedRecyclerID != filter.RecyclerID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		if filter.Unassigned && p.AssignedRecyclerID != "" {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdatePickup(_ context.Context, pickupID string, guard PickupGuard, upd PickupUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pickups[pickupID]
	if !ok {
		return false, nil
	}
	if p.Status != string(guard.Status) {
		return false, nil
	}
	if guard.Unassigned && p.AssignedRecyclerID != "" {
		return false, nil
	}

	if upd.Status != nil {
		p.Status = string(*upd.Status)
	}
	if upd.AssignedRecyclerID != nil {
		p.AssignedRecyclerID = *upd.AssignedRecyclerID
	}
	if upd.AssignedPartnerID != nil {
		p.AssignedPartnerID = *upd.AssignedPartnerID
	}
	if upd.CancelReason != nil {
		p.CancelReason = *upd.CancelReason
	}
	if upd.Event != nil {
		p.History = append(p.History, *upd.Event)
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) CreateInspection(_ context.Context, ins *models.InspectionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ins
	s.inspections[ins.PickupID] = &cp
	return nil
}

func (s *MemoryStore) GetInspectionByPickup(_ context.Context, pickupID string) (*models.InspectionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ins, ok := s.inspections[pickupID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *ins
	return &cp, nil
}

func (s *MemoryStore) UpdateInspection(_ context.Context, pickupID string, expectStatus []string, upd InspectionUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ins, ok := s.inspections[pickupID]
	if !ok || !containsStatus(expectStatus, ins.Status) {
		return false, nil
	}

	if upd.Status != nil {
		ins.Status = *upd.Status
	}
	if upd.Condition != nil {
		ins.Condition = *upd.Condition
	}
	if upd.EstimatedValue != nil {
		ins.EstimatedValue = *upd.EstimatedValue
	}
	if upd.Notes != nil {
		ins.Notes = *upd.Notes
	}
	if upd.InspectionDate != nil {
		ins.InspectionDate = *upd.InspectionDate
	}
	ins.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) CreatePayment(_ context.Context, p *models.PaymentRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.payments[p.PaymentID] = &cp
	return nil
}

func (s *MemoryStore) GetPayment(_ context.Context, paymentID string) (*models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) GetPaymentByPickup(_ context.Context, pickupID string) (*models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.PickupID == pickupID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) GetPaymentByProviderID(_ context.Context, providerID string) (*models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payments {
		if p.ProviderPaymentID == providerID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) ListPayments(_ context.Context, recyclerID string) ([]models.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.PaymentRecord
	for _, p := range s.payments {
		if recyclerID != "" && p.RecyclerID != recyclerID {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdatePayment(_ context.Context, paymentID string, expectStatus []string, upd PaymentUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.payments[paymentID]
	if !ok || !containsStatus(expectStatus, p.Status) {
		return false, nil
	}

	if upd.Status != nil {
		p.Status = *upd.Status
	}
	if upd.FinalAmount != nil {
		p.FinalAmount = *upd.FinalAmount
	}
	if upd.ProviderPaymentID != nil {
		p.ProviderPaymentID = *upd.ProviderPaymentID
	}
	if upd.ProviderStatus != nil {
		p.ProviderStatus = *upd.ProviderStatus
	}
	if upd.PaidAt != nil {
		p.PaidAt = *upd.PaidAt
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (s *MemoryStore) GetPartner(_ context.Context, partnerID string) (*models.DeliveryPartner, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[partnerID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *MemoryStore) SetPartnerAvailability(_ context.Context, partnerID string, available bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partners[partnerID]
	if !ok {
		return ErrNotFound
	}
	p.Available = available
	p.UpdatedAt = time.Now()
	return nil
}

// AddPartner seeds a delivery partner; test helper.
func (s *MemoryStore) AddPartner(p *models.DeliveryPartner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.partners[p.PartnerID] = &cp
}

func (s *MemoryStore) GetRecyclerEnrollmentID(_ context.Context, recyclerID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enrollments[recyclerID], nil
}

func containsStatus(list []string, status string) bool {
	for _, s := range list {
		if s == status {
			return true
		}
	}
	return false
}
