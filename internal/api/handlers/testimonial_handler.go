package handlers

import (
	"context"
	"net/http"
	"time"

	"recycle-it-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TestimonialHandler: user gửi đánh giá, admin duyệt, công khai chỉ hiện bài đã duyệt.
type TestimonialHandler struct {
	DB *mongo.Database
}

type CreateTestimonialRequest struct {
	UserName string `json:"userName" binding:"required"`
	Rating   int    `json:"rating" binding:"required,min=1,max=5"`
	Message  string `json:"message" binding:"required"`
}

func (h *TestimonialHandler) CreateTestimonial(c *gin.Context) {
	var req CreateTestimonialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	testimonial := models.Testimonial{
		UserID:    accountID(c),
		UserName:  req.UserName,
		Rating:    req.Rating,
		Message:   req.Message,
		Approved:  false,
		CreatedAt: time.Now(),
	}

	result, err := h.DB.Collection("testimonials").InsertOne(context.Background(), testimonial)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save testimonial")
		return
	}
	testimonial.ID = result.InsertedID.(primitive.ObjectID)

	respondCreated(c, "Testimonial submitted for review", testimonial)
}

// GetApprovedTestimonials là endpoint công khai cho landing page.
func (h *TestimonialHandler) GetApprovedTestimonials(c *gin.Context) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := h.DB.Collection("testimonials").Find(context.Background(), bson.M{"approved": true}, opts)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list testimonials")
		return
	}
	defer cursor.Close(context.Background())

	var testimonials []models.Testimonial
	if err := cursor.All(context.Background(), &testimonials); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to decode testimonials")
		return
	}

	respondOK(c, "", testimonials)
}

// GetAllTestimonials (admin) gồm cả bài chưa duyệt.
func (h *TestimonialHandler) GetAllTestimonials(c *gin.Context) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := h.DB.Collection("testimonials").Find(context.Background(), bson.M{}, opts)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list testimonials")
		return
	}
	defer cursor.Close(context.Background())

	var testimonials []models.Testimonial
	if err := cursor.All(context.Background(), &testimonials); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to decode testimonials")
		return
	}

	respondOK(c, "", testimonials)
}

// ApproveTestimonial (admin) cho phép bài đánh giá hiển thị công khai.
func (h *TestimonialHandler) ApproveTestimonial(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "Invalid testimonial ID")
		return
	}

	result, err := h.DB.Collection("testimonials").UpdateOne(context.Background(),
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"approved": true}})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to approve testimonial")
		return
	}
	if result.MatchedCount == 0 {
		respondError(c, http.StatusNotFound, "Testimonial not found")
		return
	}

	respondOK(c, "Testimonial approved", nil)
}
