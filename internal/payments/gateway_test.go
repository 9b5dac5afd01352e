package payments

import (
	"context"
	"errors"
	"testing"

	appconfig "recycle-it-api-server/config"
)

func TestMockModeCreatesApprovedIntents(t *testing.T) {
	gw, err := NewMercadoPagoGateway(appconfig.PaymentConfig{MockMode: true})
	if err != nil {
		t.Fatalf("NewMercadoPagoGateway: %v", err)
	}

	intent, err := gw.CreateIntent(context.Background(), IntentRequest{
		Amount:            4800,
		Description:       "Recycle-IT e-waste pickup PU-TEST0001",
		ExternalReference: "PAY-TEST0001",
	})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.Status != "approved" {
		t.Errorf("mock intent status = %q, want approved", intent.Status)
	}
	if intent.ProviderID == "" {
		t.Error("mock intent must carry a provider id")
	}
	if len(intent.Raw) == 0 {
		t.Error("mock intent must carry the raw provider response")
	}

	got, err := gw.GetIntent(context.Background(), intent.ProviderID)
	if err != nil {
		t.Fatalf("GetIntent: %v", err)
	}
	if got.Status != "approved" {
		t.Errorf("mock GetIntent status = %q, want approved", got.Status)
	}
}

func TestMockIntentsHaveUniqueIDs(t *testing.T) {
	gw, err := NewMercadoPagoGateway(appconfig.PaymentConfig{MockMode: true})
	if err != nil {
		t.Fatalf("NewMercadoPagoGateway: %v", err)
	}

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		intent, err := gw.CreateIntent(context.Background(), IntentRequest{Amount: 1, ExternalReference: "x"})
		if err != nil {
			t.Fatalf("CreateIntent: %v", err)
		}
		if seen[intent.ProviderID] {
			t.Fatalf("duplicate provider id %s", intent.ProviderID)
		}
		seen[intent.ProviderID] = true
	}
}

func TestRealModeRequiresAccessToken(t *testing.T) {
	_, err := NewMercadoPagoGateway(appconfig.PaymentConfig{})
	if !errors.Is(err, ErrMissingAccessToken) {
		t.Fatalf("want ErrMissingAccessToken, got %v", err)
	}
}
