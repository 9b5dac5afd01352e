package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EducationContent là bài viết hướng dẫn tái chế hiển thị trong mobile app (read-only).
type EducationContent struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug      string             `bson:"slug" json:"slug"`
	Title     string             `bson:"title" json:"title"`
	Body      string             `bson:"body" json:"body"`
	Category  string             `bson:"category,omitempty" json:"category,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
