package handlers

import (
	"errors"
	"log"
	"net/http"

	"recycle-it-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
)

// PaymentWebhookHandler nhận callback từ cổng thanh toán.
type PaymentWebhookHandler struct {
	Workflow *workflow.Service
}

type webhookPayload struct {
	Action string `json:"action"`
	Data   struct {
		ID string `json:"id"`
	} `json:"data"`
}

// HandleWebhook đối soát trạng thái thanh toán theo provider payment id.
// Mercado Pago gửi id qua body JSON hoặc query param "data.id"; callback được
// retry nên xử lý phải idempotent — ReconcilePayment đảm nhận việc đó.
func (h *PaymentWebhookHandler) HandleWebhook(c *gin.Context) {
	providerID := c.Query("data.id")
	if providerID == "" {
		providerID = c.Query("id")
	}

	var payload webhookPayload
	if err := c.ShouldBindJSON(&payload); err == nil && payload.Data.ID != "" {
		providerID = payload.Data.ID
	}

	if providerID == "" {
		respondError(c, http.StatusBadRequest, "Missing payment id in webhook")
		return
	}

	log.Printf("[payment][webhook] received provider_payment_id=%s action=%s", providerID, payload.Action)

	payment, err := h.Workflow.ReconcilePayment(c.Request.Context(), providerID)
	if err != nil {
		if errors.Is(err, workflow.ErrPaymentNotFound) {
			// Webhook cho payment không thuộc hệ thống này; trả 200 để provider ngừng retry.
			log.Printf("[payment][webhook] unknown provider_payment_id=%s, ignoring", providerID)
			respondOK(c, "Ignored", nil)
			return
		}
		respondError(c, http.StatusInternalServerError, "Failed to reconcile payment")
		return
	}

	respondOK(c, "Webhook processed", gin.H{
		"paymentID": payment.PaymentID,
		"status":    payment.Status,
	})
}
