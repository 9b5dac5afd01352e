// server/internal/models/inspection.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InspectionRecord là kết quả kiểm định thiết bị của recycler, quan hệ 1:1 với PickupRecord.
// Chỉ được tạo khi pickup đã ở trạng thái "Delivered".
type InspectionRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	InspectionID   string             `bson:"inspectionID" json:"inspectionID"` // ví dụ "INS-1A2B3C4D"
	PickupID       string             `bson:"pickupID" json:"pickupID"`
	RecyclerID     string             `bson:"recyclerID" json:"recyclerID"`
	Condition      string             `bson:"condition,omitempty" json:"condition,omitempty"` // excellent, good, fair, poor
	EstimatedValue float64            `bson:"estimatedValue,omitempty" json:"estimatedValue,omitempty"`
	Notes          string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status         string             `bson:"status" json:"status"` // pending, in_progress, completed
	InspectionDate time.Time          `bson:"inspectionDate,omitempty" json:"inspectionDate,omitempty"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}
