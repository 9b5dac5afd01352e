package handlers

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"recycle-it-api-server/internal/ledger"
	"recycle-it-api-server/internal/models"
	"recycle-it-api-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AdminHandler: thống kê, duyệt recycler và tra cứu giao dịch.
type AdminHandler struct {
	DB        *mongo.Database
	Workflow  *workflow.Service
	CAService *ledger.CAService
	Ledger    *ledger.Setup
}

// GetStats đếm số lượng theo entity và theo trạng thái pickup cho dashboard.
func (h *AdminHandler) GetStats(c *gin.Context) {
	ctx := context.Background()

	stats := gin.H{}
	for name, collection := range map[string]string{
		"users":            "users",
		"recyclers":        "recyclers",
		"deliveryPartners": "delivery_partners",
		"pickups":          "pickups",
		"payments":         "payments",
	} {
		count, err := h.DB.Collection(collection).CountDocuments(ctx, bson.M{})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to compute stats")
			return
		}
		stats[name] = count
	}

	// Phân bố pickup theo trạng thái
	pickupsByStatus := gin.H{}
	for _, status := range []workflow.PickupStatus{
		workflow.StatusPending, workflow.StatusScheduled, workflow.StatusInTransit,
		workflow.StatusCollected, workflow.StatusDelivered, workflow.StatusVerified,
		workflow.StatusCancelled,
	} {
		count, err := h.DB.Collection("pickups").CountDocuments(ctx, bson.M{"status": string(status)})
		if err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to compute stats")
			return
		}
		pickupsByStatus[string(status)] = count
	}
	stats["pickupsByStatus"] = pickupsByStatus

	respondOK(c, "", stats)
}

// GetRecyclers liệt kê recycler, lọc được theo status (?status=pending_review).
func (h *AdminHandler) GetRecyclers(c *gin.Context) {
	filter := bson.M{}
	if status := c.Query("status"); status != "" {
		filter["status"] = status
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := h.DB.Collection("recyclers").Find(context.Background(), filter, opts)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list recyclers")
		return
	}
	defer cursor.Close(context.Background())

	var recyclers []models.Recycler
	if err := cursor.All(context.Background(), &recyclers); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to decode recyclers")
		return
	}

	respondOK(c, "", recyclers)
}

type VerifyRecyclerRequest struct {
	Action string `json:"action" binding:"required"` // "verify" hoặc "reject"
	Reason string `json:"reason"`
}

// VerifyRecycler duyệt hồ sơ recycler. Khi duyệt, nếu ledger được cấu hình thì
// enroll một danh tính on-chain cho recycler để chứng nhận tái chế được ký
// dưới danh tính của chính họ.
func (h *AdminHandler) VerifyRecycler(c *gin.Context) {
	var req VerifyRecyclerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	recyclerID := c.Param("id")
	recyclers := h.DB.Collection("recyclers")

	var recycler models.Recycler
	if err := recyclers.FindOne(context.Background(), bson.M{"recyclerID": recyclerID}).Decode(&recycler); err != nil {
		respondError(c, http.StatusNotFound, "Recycler not found")
		return
	}

	switch req.Action {
	case "verify":
		set := bson.M{"status": "verified", "rejectReason": "", "updatedAt": time.Now()}

		if h.CAService != nil && h.Ledger != nil && recycler.LedgerEnrollmentID == "" {
			enrollmentID := fmt.Sprintf("recycler-%s", strings.ToLower(recycler.RecyclerID))
			if err := h.CAService.EnrollRecycler(h.Ledger.Wallet, enrollmentID, "recycleit.recyclers"); err != nil {
				// Enroll thất bại không chặn việc duyệt; chứng nhận sẽ ký bằng danh tính dịch vụ.
				log.Printf("Failed to enroll ledger identity for %s: %v", recycler.RecyclerID, err)
			} else {
				set["ledgerEnrollmentID"] = enrollmentID
			}
		}

		if _, err := recyclers.UpdateOne(context.Background(),
			bson.M{"recyclerID": recyclerID}, bson.M{"$set": set}); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to verify recycler")
			return
		}
		respondOK(c, "Recycler verified", nil)

	case "reject":
		if strings.TrimSpace(req.Reason) == "" {
			respondError(c, http.StatusBadRequest, "A rejection reason is required")
			return
		}
		if _, err := recyclers.UpdateOne(context.Background(),
			bson.M{"recyclerID": recyclerID},
			bson.M{"$set": bson.M{"status": "rejected", "rejectReason": req.Reason, "updatedAt": time.Now()}}); err != nil {
			respondError(c, http.StatusInternalServerError, "Failed to reject recycler")
			return
		}
		respondOK(c, "Recycler rejected", nil)

	default:
		respondError(c, http.StatusBadRequest, "Action must be 'verify' or 'reject'")
	}
}

// GetTransactions liệt kê các khoản thanh toán, lọc được theo recycler.
func (h *AdminHandler) GetTransactions(c *gin.Context) {
	payments, err := h.Workflow.ListAllPayments(c.Request.Context(), c.Query("recyclerID"))
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list transactions")
		return
	}
	respondOK(c, "", payments)
}
