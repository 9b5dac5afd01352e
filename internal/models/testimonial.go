package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Testimonial struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"userID" json:"userID"`
	UserName  string             `bson:"userName" json:"userName"`
	Rating    int                `bson:"rating" json:"rating"` // 1..5
	Message   string             `bson:"message" json:"message"`
	Approved  bool               `bson:"approved" json:"approved"` // Chỉ hiển thị công khai khi admin duyệt
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
