package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	appconfig "recycle-it-api-server/config"

	mpconfig "github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
)

var ErrMissingAccessToken = errors.New("missing MERCADOPAGO_ACCESS_TOKEN")
var ErrGatewayNotConfigured = errors.New("payment gateway not configured")

// Intent is the provider-side view of a payment.
type Intent struct {
	ProviderID string
	Status     string // approved, pending, in_process, rejected, cancelled
	Raw        json.RawMessage
}

// IntentRequest describes the payment the workflow wants to create.
type IntentRequest struct {
	Amount            float64
	Description       string
	ExternalReference string
	PayerEmail        string
}

// Gateway creates and looks up payment intents. The workflow only talks to
// this interface; the Mercado Pago client (or its mock mode) sits behind it.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
	GetIntent(ctx context.Context, providerID string) (*Intent, error)
}

type MercadoPagoGateway struct {
	client   payment.Client
	mockMode bool
}

var _ Gateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(cfg appconfig.PaymentConfig) (*MercadoPagoGateway, error) {
	if cfg.MockMode {
		log.Printf("[payment][gateway] mock mode enabled")
		return &MercadoPagoGateway{mockMode: true}, nil
	}

	if cfg.AccessToken == "" {
		log.Printf("[payment][gateway] missing MERCADOPAGO_ACCESS_TOKEN")
		return nil, ErrMissingAccessToken
	}

	sdkCfg, err := mpconfig.New(cfg.AccessToken)
	if err != nil {
		log.Printf("[payment][gateway] failed creating sdk config err=%v", err)
		return nil, err
	}
	log.Printf("[payment][gateway] Mercado Pago client initialized")

	return &MercadoPagoGateway{client: payment.NewClient(sdkCfg)}, nil
}

func (g *MercadoPagoGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if g != nil && g.mockMode {
		log.Printf("[payment][gateway] mock create start ref=%s amount=%.2f", req.ExternalReference, req.Amount)

		id := strconv.FormatInt(time.Now().UTC().UnixNano(), 10)
		now := time.Now().UTC().Format(time.RFC3339Nano)
		resp := map[string]any{
			"id":                 id,
			"status":             "approved",
			"status_detail":      "accredited",
			"transaction_amount": req.Amount,
			"description":        req.Description,
			"external_reference": req.ExternalReference,
			"date_created":       now,
			"date_approved":      now,
		}

		b, err := json.Marshal(resp)
		if err != nil {
			return nil, err
		}

		log.Printf("[payment][gateway] mock create success provider_payment_id=%s provider_status=approved", id)
		return &Intent{ProviderID: id, Status: "approved", Raw: b}, nil
	}

	if g == nil || g.client == nil {
		log.Printf("[payment][gateway] gateway not configured")
		return nil, ErrGatewayNotConfigured
	}
	log.Printf("[payment][gateway] create start ref=%s amount=%.2f", req.ExternalReference, req.Amount)

	mpReq := payment.Request{
		TransactionAmount: req.Amount,
		Description:       req.Description,
		ExternalReference: req.ExternalReference,
	}
	if req.PayerEmail != "" {
		mpReq.Payer = &payment.PayerRequest{Email: req.PayerEmail}
	}

	resp, err := g.client.Create(ctx, mpReq)
	if err != nil {
		log.Printf("[payment][gateway] sdk create failed err=%v", err)
		return nil, err
	}

	b, err := json.Marshal(resp)
	if err != nil {
		log.Printf("[payment][gateway] response marshal failed err=%v", err)
		return nil, err
	}
	log.Printf("[payment][gateway] create success provider_payment_id=%d provider_status=%s", resp.ID, resp.Status)

	return &Intent{ProviderID: fmt.Sprintf("%d", resp.ID), Status: resp.Status, Raw: b}, nil
}

func (g *MercadoPagoGateway) GetIntent(ctx context.Context, providerID string) (*Intent, error) {
	if g != nil && g.mockMode {
		// The mock provider approves everything it created.
		return &Intent{ProviderID: providerID, Status: "approved"}, nil
	}

	if g == nil || g.client == nil {
		return nil, ErrGatewayNotConfigured
	}

	id, err := strconv.Atoi(providerID)
	if err != nil {
		return nil, fmt.Errorf("invalid provider payment id %q: %w", providerID, err)
	}

	resp, err := g.client.Get(ctx, id)
	if err != nil {
		log.Printf("[payment][gateway] sdk get failed provider_payment_id=%s err=%v", providerID, err)
		return nil, err
	}

	b, err := json.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return &Intent{ProviderID: providerID, Status: resp.Status, Raw: b}, nil
}
