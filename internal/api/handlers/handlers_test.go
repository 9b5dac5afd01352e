package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	appconfig "recycle-it-api-server/config"
	"recycle-it-api-server/internal/models"
	"recycle-it-api-server/internal/payments"
	"recycle-it-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// withAccount injects the context values the Authenticate middleware would set.
func withAccount(id, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("account_id", id)
		c.Set("account_role", role)
		c.Next()
	}
}

func newWorkflowService(t *testing.T) *workflow.Service {
	t.Helper()
	gw, err := payments.NewMercadoPagoGateway(appconfig.PaymentConfig{MockMode: true})
	if err != nil {
		t.Fatalf("mock gateway: %v", err)
	}
	return workflow.NewService(workflow.NewMemoryStore(), gw, nil, nil)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestMustAcceptTerms(t *testing.T) {
	cases := []struct {
		terms, conduct, want bool
	}{
		{false, false, true},
		{true, false, true},
		{false, true, true},
		{true, true, false},
	}
	for _, tc := range cases {
		r := models.Recycler{TermsAccepted: tc.terms, ConductAccepted: tc.conduct}
		if got := MustAcceptTerms(r); got != tc.want {
			t.Errorf("MustAcceptTerms(terms=%v, conduct=%v) = %v, want %v", tc.terms, tc.conduct, got, tc.want)
		}
	}
}

// fakeRecyclerAccounts holds a single recycler account in memory.
type fakeRecyclerAccounts struct {
	recycler models.Recycler
}

func (s *fakeRecyclerAccounts) FindRecyclerByEmail(_ context.Context, email string) (*models.Recycler, error) {
	if email != s.recycler.Email {
		return nil, fmt.Errorf("no recycler with email %s", email)
	}
	r := s.recycler
	return &r, nil
}

func (s *fakeRecyclerAccounts) AcceptRecyclerTerms(_ context.Context, recyclerID string) error {
	if recyclerID != s.recycler.RecyclerID {
		return fmt.Errorf("no recycler %s", recyclerID)
	}
	s.recycler.TermsAccepted = true
	s.recycler.ConductAccepted = true
	return nil
}

func TestRecyclerLoginTermsGating(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret99"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	accounts := &fakeRecyclerAccounts{recycler: models.Recycler{
		RecyclerID:   "RCY-TERMS001",
		BusinessName: "Green Loop Recycling",
		Email:        "ops@greenloop.example",
		Password:     string(hash),
		Status:       "verified",
	}}
	handler := &RecyclerAuthHandler{Accounts: accounts, JWTExpiration: time.Hour}

	router := gin.New()
	router.POST("/recyclers/auth/login", handler.Login)
	router.POST("/recyclers/auth/accept-terms", handler.AcceptTerms)

	creds := gin.H{"email": "ops@greenloop.example", "password": "s3cret99"}

	// Login before the terms are accepted: no session token may be issued.
	w := doJSON(t, router, http.MethodPost, "/recyclers/auth/login", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	data, _ := decodeEnvelope(t, w)["data"].(map[string]interface{})
	if data["mustAcceptTerms"] != true {
		t.Errorf("mustAcceptTerms = %v, want true", data["mustAcceptTerms"])
	}
	if _, ok := data["token"]; ok {
		t.Fatal("login before terms acceptance must not return a token")
	}

	// Accepting only one of the two documents is rejected.
	w = doJSON(t, router, http.MethodPost, "/recyclers/auth/accept-terms", gin.H{
		"email": "ops@greenloop.example", "password": "s3cret99",
		"termsAccepted": true, "conductAccepted": false,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("partial acceptance status = %d, want 400", w.Code)
	}

	// Accepting both persists the flags and issues a token right away.
	w = doJSON(t, router, http.MethodPost, "/recyclers/auth/accept-terms", gin.H{
		"email": "ops@greenloop.example", "password": "s3cret99",
		"termsAccepted": true, "conductAccepted": true,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("accept-terms status = %d, body = %s", w.Code, w.Body.String())
	}
	data, _ = decodeEnvelope(t, w)["data"].(map[string]interface{})
	if token, _ := data["token"].(string); token == "" {
		t.Fatal("accept-terms must return a session token")
	}

	// From now on login completes normally.
	w = doJSON(t, router, http.MethodPost, "/recyclers/auth/login", creds)
	if w.Code != http.StatusOK {
		t.Fatalf("login status = %d, body = %s", w.Code, w.Body.String())
	}
	data, _ = decodeEnvelope(t, w)["data"].(map[string]interface{})
	if token, _ := data["token"].(string); token == "" {
		t.Fatal("login after terms acceptance must return a token")
	}
	if data["mustAcceptTerms"] != false {
		t.Errorf("mustAcceptTerms after acceptance = %v, want false", data["mustAcceptTerms"])
	}
}

func TestSchedulePickupEndpoint(t *testing.T) {
	handler := &PickupHandler{Workflow: newWorkflowService(t)}

	router := gin.New()
	router.POST("/schedule-pickup", withAccount("USR-TEST0001", "user"), handler.SchedulePickup)

	body := gin.H{
		"deviceType": "Laptop",
		"brand":      "Dell",
		"model":      "XPS 13",
		"pickupAddress": gin.H{
			"fullText": "12 MG Road",
			"city":     "Mumbai",
			"state":    "Maharashtra",
			"pincode":  "400001",
		},
		"preferredPickupDate": time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}

	w := doJSON(t, router, http.MethodPost, "/schedule-pickup", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	resp := decodeEnvelope(t, w)
	if resp["success"] != true {
		t.Errorf("success = %v", resp["success"])
	}
	data, _ := resp["data"].(map[string]interface{})
	if data["status"] != "Pending" {
		t.Errorf("new pickup status = %v, want Pending", data["status"])
	}
	if data["userID"] != "USR-TEST0001" {
		t.Errorf("pickup userID = %v", data["userID"])
	}
}

func TestSchedulePickupRejectsBadPincode(t *testing.T) {
	handler := &PickupHandler{Workflow: newWorkflowService(t)}

	router := gin.New()
	router.POST("/schedule-pickup", withAccount("USR-TEST0001", "user"), handler.SchedulePickup)

	body := gin.H{
		"deviceType": "Mobile",
		"brand":      "Samsung",
		"pickupAddress": gin.H{
			"city":    "Mumbai",
			"pincode": "12345",
		},
		"preferredPickupDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	}

	w := doJSON(t, router, http.MethodPost, "/schedule-pickup", body)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}

	resp := decodeEnvelope(t, w)
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
}

func TestAcceptEndpointConflict(t *testing.T) {
	svc := newWorkflowService(t)
	pickupHandler := &PickupHandler{Workflow: svc}
	recyclerHandler := &RecyclerPickupHandler{Workflow: svc}

	router := gin.New()
	router.POST("/schedule-pickup", withAccount("USR-TEST0001", "user"), pickupHandler.SchedulePickup)
	router.POST("/ewaste/:id/accept", withAccount("RCY-0001", "recycler"), recyclerHandler.AcceptPickup)
	router2 := gin.New()
	router2.POST("/ewaste/:id/accept", withAccount("RCY-0002", "recycler"), recyclerHandler.AcceptPickup)

	w := doJSON(t, router, http.MethodPost, "/schedule-pickup", gin.H{
		"deviceType": "TV",
		"brand":      "Sony",
		"pickupAddress": gin.H{
			"city":    "Pune",
			"pincode": "411001",
		},
		"preferredPickupDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("schedule failed: %s", w.Body.String())
	}
	data, _ := decodeEnvelope(t, w)["data"].(map[string]interface{})
	pickupID, _ := data["pickupID"].(string)

	if w := doJSON(t, router, http.MethodPost, fmt.Sprintf("/ewaste/%s/accept", pickupID), nil); w.Code != http.StatusOK {
		t.Fatalf("first accept status = %d, body = %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, router2, http.MethodPost, fmt.Sprintf("/ewaste/%s/accept", pickupID), nil); w.Code != http.StatusConflict {
		t.Fatalf("second accept status = %d, want 409; body = %s", w.Code, w.Body.String())
	}
}

func TestRecyclerStatusRoutesRejectUnassignedRecycler(t *testing.T) {
	svc := newWorkflowService(t)
	pickupHandler := &PickupHandler{Workflow: svc}
	recyclerHandler := &RecyclerPickupHandler{Workflow: svc}

	userRouter := gin.New()
	userRouter.POST("/schedule-pickup", withAccount("USR-TEST0001", "user"), pickupHandler.SchedulePickup)

	assigned := gin.New()
	assigned.POST("/ewaste/:id/accept", withAccount("RCY-0001", "recycler"), recyclerHandler.AcceptPickup)

	intruder := gin.New()
	intruder.PUT("/ewaste/:id/status", withAccount("RCY-0002", "recycler"), recyclerHandler.UpdateStatus)
	intruder.PUT("/ewaste/:id/reject", withAccount("RCY-0002", "recycler"), recyclerHandler.RejectPickup)

	w := doJSON(t, userRouter, http.MethodPost, "/schedule-pickup", gin.H{
		"deviceType": "Laptop",
		"brand":      "HP",
		"pickupAddress": gin.H{
			"city":    "Delhi",
			"pincode": "110001",
		},
		"preferredPickupDate": time.Now().Add(24 * time.Hour).Format(time.RFC3339),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("schedule failed: %s", w.Body.String())
	}
	data, _ := decodeEnvelope(t, w)["data"].(map[string]interface{})
	pickupID, _ := data["pickupID"].(string)

	if w := doJSON(t, assigned, http.MethodPost, fmt.Sprintf("/ewaste/%s/accept", pickupID), nil); w.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body = %s", w.Code, w.Body.String())
	}

	// A recycler that did not accept the pickup cannot move or cancel it.
	w = doJSON(t, intruder, http.MethodPut, fmt.Sprintf("/ewaste/%s/status", pickupID), gin.H{"status": "In Transit"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status update by unassigned recycler = %d, want 403; body = %s", w.Code, w.Body.String())
	}
	w = doJSON(t, intruder, http.MethodPut, fmt.Sprintf("/ewaste/%s/reject", pickupID), gin.H{"reason": "wrong listing"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("reject by unassigned recycler = %d, want 403; body = %s", w.Code, w.Body.String())
	}
}

func TestPaymentWebhookMissingID(t *testing.T) {
	handler := &PaymentWebhookHandler{Workflow: newWorkflowService(t)}

	router := gin.New()
	router.POST("/payments/webhook", handler.HandleWebhook)

	w := doJSON(t, router, http.MethodPost, "/payments/webhook", gin.H{"action": "payment.updated"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestPaymentWebhookUnknownPaymentIgnored(t *testing.T) {
	handler := &PaymentWebhookHandler{Workflow: newWorkflowService(t)}

	router := gin.New()
	router.POST("/payments/webhook", handler.HandleWebhook)

	// Provider webhooks for foreign payments must not trigger retries.
	w := doJSON(t, router, http.MethodPost, "/payments/webhook", gin.H{
		"action": "payment.updated",
		"data":   gin.H{"id": "999999"},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", w.Code, w.Body.String())
	}
}
