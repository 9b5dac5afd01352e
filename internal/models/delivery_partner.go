// server/internal/models/delivery_partner.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DeliveryPartner là đối tác vận chuyển chịu trách nhiệm chở thiết bị từ người dùng tới cơ sở tái chế.
// Đây là entity duy nhất có vòng đời xóa (DELETE) rõ ràng.
type DeliveryPartner struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PartnerID   string             `bson:"partnerID" json:"partnerID"` // ví dụ "DP-1A2B3C4D"
	Name        string             `bson:"name" json:"name"`
	Email       string             `bson:"email" json:"email"`
	Phone       string             `bson:"phone" json:"phone"`
	VehicleType string             `bson:"vehicleType,omitempty" json:"vehicleType,omitempty"` // TRUCK, VAN, MOTORBIKE
	Available   bool               `bson:"available" json:"available"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
