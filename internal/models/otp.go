// server/internal/models/otp.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OTPRecord là mã xác thực một lần gửi qua email khi đăng ký hoặc đặt lại mật khẩu.
// Mỗi mã chỉ dùng được một lần và hết hạn theo cấu hình.
type OTPRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email     string             `bson:"email" json:"email"`
	Code      string             `bson:"code" json:"-"`
	Purpose   string             `bson:"purpose" json:"purpose"` // register, reset_password
	Used      bool               `bson:"used" json:"used"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
