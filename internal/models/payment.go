// server/internal/models/payment.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PaymentRecord là khoản thanh toán đề xuất/chốt cho một pickup, gắn với một InspectionRecord.
// FinalAmount chỉ được set khi status chuyển sang "completed", và phải có ProposedAmount trước đó.
type PaymentRecord struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PaymentID         string             `bson:"paymentID" json:"paymentID"` // ví dụ "PAY-1A2B3C4D"
	PickupID          string             `bson:"pickupID" json:"pickupID"`
	InspectionID      string             `bson:"inspectionID" json:"inspectionID"`
	RecyclerID        string             `bson:"recyclerID" json:"recyclerID"`
	UserID            string             `bson:"userID" json:"userID"`
	ProposedAmount    float64            `bson:"proposedAmount,omitempty" json:"proposedAmount,omitempty"`
	FinalAmount       float64            `bson:"finalAmount,omitempty" json:"finalAmount,omitempty"`
	Notes             string             `bson:"notes,omitempty" json:"notes,omitempty"`
	Status            string             `bson:"status" json:"status"` // pending, proposed, finalizing, completed, rejected
	ProviderPaymentID string             `bson:"providerPaymentID,omitempty" json:"providerPaymentID,omitempty"`
	ProviderStatus    string             `bson:"providerStatus,omitempty" json:"providerStatus,omitempty"`
	PaidAt            time.Time          `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
