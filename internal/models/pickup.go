// server/internal/models/pickup.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StatusEvent ghi lại một lần chuyển trạng thái của PickupRecord (ai, khi nào, từ đâu sang đâu).
type StatusEvent struct {
	From   string    `bson:"from" json:"from"`
	To     string    `bson:"to" json:"to"`
	Actor  string    `bson:"actor" json:"actor"`
	Reason string    `bson:"reason,omitempty" json:"reason,omitempty"`
	At     time.Time `bson:"at" json:"at"`
}

// PickupRecord là yêu cầu thu gom rác điện tử do người dùng tạo.
// Các trường thiết bị (deviceType/brand/model/...) là bất biến sau khi tạo.
type PickupRecord struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PickupID           string             `bson:"pickupID" json:"pickupID"` // ID tự tạo, dễ đọc, ví dụ "PU-1A2B3C4D"
	UserID             string             `bson:"userID" json:"userID"`
	DeviceType         string             `bson:"deviceType" json:"deviceType"` // Laptop, Mobile, TV, ...
	Brand              string             `bson:"brand" json:"brand"`
	Model              string             `bson:"model,omitempty" json:"model,omitempty"`
	Condition          string             `bson:"condition,omitempty" json:"condition,omitempty"` // Mô tả của người dùng, không phải kết quả kiểm định
	Weight             Weight             `bson:"weight,omitempty" json:"weight,omitempty"`
	PickupAddress      Address            `bson:"pickupAddress" json:"pickupAddress"`
	PreferredDate      time.Time          `bson:"preferredPickupDate" json:"preferredPickupDate"`
	Status             string             `bson:"status" json:"status"` // Pending, Scheduled, In Transit, Collected, Delivered, Verified, Cancelled
	AssignedRecyclerID string             `bson:"assignedRecyclerID,omitempty" json:"assignedRecyclerID,omitempty"`
	AssignedPartnerID  string             `bson:"assignedPartnerID,omitempty" json:"assignedPartnerID,omitempty"`
	CancelReason       string             `bson:"cancelReason,omitempty" json:"cancelReason,omitempty"`
	History            []StatusEvent      `bson:"history,omitempty" json:"history,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}
