package workflow

import (
	"errors"
	"testing"
)

func TestValidateTransition(t *testing.T) {
	statuses := []PickupStatus{
		StatusPending, StatusScheduled, StatusInTransit,
		StatusCollected, StatusDelivered, StatusVerified, StatusCancelled,
	}

	forward := map[PickupStatus]PickupStatus{
		StatusPending:   StatusScheduled,
		StatusScheduled: StatusInTransit,
		StatusInTransit: StatusCollected,
		StatusCollected: StatusDelivered,
		StatusDelivered: StatusVerified,
	}

	for _, from := range statuses {
		for _, to := range statuses {
			err := ValidateTransition(from, to)

			wantOK := forward[from] == to && to != ""
			if to == StatusCancelled && !IsTerminal(from) {
				wantOK = true
			}

			if wantOK && err != nil {
				t.Errorf("ValidateTransition(%q, %q) = %v, want nil", from, to, err)
			}
			if !wantOK && err == nil {
				t.Errorf("ValidateTransition(%q, %q) = nil, want error", from, to)
			}
			if !wantOK && err != nil {
				var te *TransitionError
				if !errors.As(err, &te) {
					t.Errorf("ValidateTransition(%q, %q) returned %T, want *TransitionError", from, to, err)
				}
			}
		}
	}
}

func TestValidateTransitionUnknownStatus(t *testing.T) {
	if err := ValidateTransition("Lost", StatusScheduled); err == nil {
		t.Error("expected error for unknown current status")
	}
	if err := ValidateTransition(StatusPending, "Teleported"); err == nil {
		t.Error("expected error for unknown next status")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusVerified) || !IsTerminal(StatusCancelled) {
		t.Error("Verified and Cancelled must be terminal")
	}
	for _, s := range []PickupStatus{StatusPending, StatusScheduled, StatusInTransit, StatusCollected, StatusDelivered} {
		if IsTerminal(s) {
			t.Errorf("%q must not be terminal", s)
		}
	}
}

func TestAllowedTransitions(t *testing.T) {
	got := AllowedTransitions(StatusScheduled)
	want := map[PickupStatus]bool{StatusInTransit: true, StatusCancelled: true}
	if len(got) != len(want) {
		t.Fatalf("AllowedTransitions(Scheduled) = %v, want In Transit and Cancelled", got)
	}
	for _, s := range got {
		if !want[s] {
			t.Errorf("unexpected transition %q from Scheduled", s)
		}
	}

	if n := len(AllowedTransitions(StatusVerified)); n != 0 {
		t.Errorf("Verified must have no transitions, got %d", n)
	}
}

func TestIsValidCondition(t *testing.T) {
	for _, c := range []string{"excellent", "good", "fair", "poor"} {
		if !IsValidCondition(c) {
			t.Errorf("condition %q should be valid", c)
		}
	}
	for _, c := range []string{"", "broken", "Good", "mint"} {
		if IsValidCondition(c) {
			t.Errorf("condition %q should be invalid", c)
		}
	}
}

func TestValidatePincode(t *testing.T) {
	for _, p := range []string{"400001", "110001", "999999"} {
		if err := ValidatePincode(p); err != nil {
			t.Errorf("pincode %q should be valid, got %v", p, err)
		}
	}
	for _, p := range []string{"", "12345", "1234567", "012345", "40000a", "ABCDEF"} {
		if err := ValidatePincode(p); !errors.Is(err, ErrInvalidPincode) {
			t.Errorf("pincode %q should be rejected, got %v", p, err)
		}
	}
}
