package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recycle-it-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DeliveryPartnerHandler quản lý CRUD đối tác vận chuyển (admin).
type DeliveryPartnerHandler struct {
	DB *mongo.Database
}

type CreatePartnerRequest struct {
	Name        string `json:"name" binding:"required"`
	Email       string `json:"email" binding:"required,email"`
	Phone       string `json:"phone" binding:"required"`
	VehicleType string `json:"vehicleType"`
}

func (h *DeliveryPartnerHandler) CreatePartner(c *gin.Context) {
	var req CreatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	now := time.Now()
	partner := models.DeliveryPartner{
		PartnerID:   fmt.Sprintf("DP-%s", strings.ToUpper(uuid.New().String()[:8])),
		Name:        req.Name,
		Email:       req.Email,
		Phone:       req.Phone,
		VehicleType: req.VehicleType,
		Available:   true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := h.DB.Collection("delivery_partners").InsertOne(context.Background(), partner); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create delivery partner")
		return
	}

	respondCreated(c, "Delivery partner created", partner)
}

func (h *DeliveryPartnerHandler) GetAllPartners(c *gin.Context) {
	filter := bson.M{}
	if c.Query("available") == "true" {
		filter["available"] = true
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := h.DB.Collection("delivery_partners").Find(context.Background(), filter, opts)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list delivery partners")
		return
	}
	defer cursor.Close(context.Background())

	var partners []models.DeliveryPartner
	if err := cursor.All(context.Background(), &partners); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to decode delivery partners")
		return
	}

	respondOK(c, "", partners)
}

func (h *DeliveryPartnerHandler) GetPartnerByID(c *gin.Context) {
	var partner models.DeliveryPartner
	err := h.DB.Collection("delivery_partners").FindOne(context.Background(),
		bson.M{"partnerID": c.Param("id")}).Decode(&partner)
	if err != nil {
		respondError(c, http.StatusNotFound, "Delivery partner not found")
		return
	}
	respondOK(c, "", partner)
}

type UpdatePartnerRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	VehicleType string `json:"vehicleType"`
}

func (h *DeliveryPartnerHandler) UpdatePartner(c *gin.Context) {
	var req UpdatePartnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	set := bson.M{"updatedAt": time.Now()}
	if req.Name != "" {
		set["name"] = req.Name
	}
	if req.Email != "" {
		set["email"] = req.Email
	}
	if req.Phone != "" {
		set["phone"] = req.Phone
	}
	if req.VehicleType != "" {
		set["vehicleType"] = req.VehicleType
	}

	result, err := h.DB.Collection("delivery_partners").UpdateOne(context.Background(),
		bson.M{"partnerID": c.Param("id")},
		bson.M{"$set": set})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update delivery partner")
		return
	}
	if result.MatchedCount == 0 {
		respondError(c, http.StatusNotFound, "Delivery partner not found")
		return
	}

	respondOK(c, "Delivery partner updated", nil)
}

func (h *DeliveryPartnerHandler) DeletePartner(c *gin.Context) {
	result, err := h.DB.Collection("delivery_partners").DeleteOne(context.Background(),
		bson.M{"partnerID": c.Param("id")})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to delete delivery partner")
		return
	}
	if result.DeletedCount == 0 {
		respondError(c, http.StatusNotFound, "Delivery partner not found")
		return
	}

	respondOK(c, "Delivery partner deleted", nil)
}

type SetAvailabilityRequest struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability bật/tắt trạng thái sẵn sàng nhận chuyến của đối tác.
func (h *DeliveryPartnerHandler) SetAvailability(c *gin.Context) {
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.DB.Collection("delivery_partners").UpdateOne(context.Background(),
		bson.M{"partnerID": c.Param("id")},
		bson.M{"$set": bson.M{"available": *req.Available, "updatedAt": time.Now()}})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to update availability")
		return
	}
	if result.MatchedCount == 0 {
		respondError(c, http.StatusNotFound, "Delivery partner not found")
		return
	}

	respondOK(c, "Availability updated", nil)
}
