package handlers

import (
	"context"
	"net/http"

	"recycle-it-api-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EducationHandler phục vụ nội dung hướng dẫn tái chế (read-only, đã seed).
type EducationHandler struct {
	DB *mongo.Database
}

func (h *EducationHandler) GetContent(c *gin.Context) {
	filter := bson.M{}
	if category := c.Query("category"); category != "" {
		filter["category"] = category
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	cursor, err := h.DB.Collection("education_content").Find(context.Background(), filter, opts)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to list education content")
		return
	}
	defer cursor.Close(context.Background())

	var articles []models.EducationContent
	if err := cursor.All(context.Background(), &articles); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to decode education content")
		return
	}

	respondOK(c, "", articles)
}

func (h *EducationHandler) GetContentBySlug(c *gin.Context) {
	var article models.EducationContent
	err := h.DB.Collection("education_content").FindOne(context.Background(),
		bson.M{"slug": c.Param("slug")}).Decode(&article)
	if err != nil {
		respondError(c, http.StatusNotFound, "Article not found")
		return
	}
	respondOK(c, "", article)
}
