// server/internal/models/recycler.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recycler là tài khoản doanh nghiệp tái chế: nhận pickup, kiểm định và trả tiền.
// Đăng nhập chỉ được cấp token khi cả TermsAccepted lẫn ConductAccepted đều true.
type Recycler struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RecyclerID         string             `bson:"recyclerID" json:"recyclerID"` // ví dụ "RCY-1A2B3C4D"
	BusinessName       string             `bson:"businessName" json:"businessName"`
	Email              string             `bson:"email" json:"email"`
	Phone              string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Password           string             `bson:"password" json:"-"`
	Address            Address            `bson:"address,omitempty" json:"address,omitempty"`
	Status             string             `bson:"status" json:"status"` // pending_verification, pending_review, verified, rejected
	TermsAccepted      bool               `bson:"termsAccepted" json:"termsAccepted"`
	ConductAccepted    bool               `bson:"conductAccepted" json:"conductAccepted"`
	Documents          []MediaPointer     `bson:"documents,omitempty" json:"documents,omitempty"` // Giấy phép tái chế (tham chiếu S3)
	RejectReason       string             `bson:"rejectReason,omitempty" json:"rejectReason,omitempty"`
	LedgerEnrollmentID string             `bson:"ledgerEnrollmentID,omitempty" json:"ledgerEnrollmentID,omitempty"`
	CreatedAt          time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt" json:"updatedAt"`
}
