package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"recycle-it-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Purposes a code may be issued for.
const (
	PurposeRegister      = "register"
	PurposeResetPassword = "reset_password"
)

var (
	ErrInvalidCode = errors.New("invalid or expired OTP code")
)

// Mailer gửi mã OTP tới người dùng. LogMailer dùng cho môi trường dev/test.
type Mailer interface {
	SendOTP(email, code, purpose string) error
}

// LogMailer ghi mã ra log thay vì gửi email thật.
type LogMailer struct{}

func (LogMailer) SendOTP(email, code, purpose string) error {
	log.Printf("[otp] %s code for %s: %s", purpose, email, code)
	return nil
}

// Service phát hành và xác thực mã OTP một lần, lưu trong collection "otps".
type Service struct {
	otps   *mongo.Collection
	mailer Mailer
	expiry time.Duration
}

func NewService(db *mongo.Database, mailer Mailer, expiryMinutes int) *Service {
	if expiryMinutes <= 0 {
		expiryMinutes = 10
	}
	return &Service{
		otps:   db.Collection("otps"),
		mailer: mailer,
		expiry: time.Duration(expiryMinutes) * time.Minute,
	}
}

// Issue tạo mã 6 chữ số mới cho email, vô hiệu các mã cũ cùng purpose và gửi đi.
func (s *Service) Issue(ctx context.Context, email, purpose string) error {
	code, err := generateCode()
	if err != nil {
		return err
	}

	// Các mã chưa dùng trước đó của cùng email + purpose bị vô hiệu.
	_, err = s.otps.UpdateMany(ctx,
		bson.M{"email": email, "purpose": purpose, "used": false},
		bson.M{"$set": bson.M{"used": true}})
	if err != nil {
		return err
	}

	record := models.OTPRecord{
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		Used:      false,
		ExpiresAt: time.Now().Add(s.expiry),
		CreatedAt: time.Now(),
	}
	if _, err := s.otps.InsertOne(ctx, record); err != nil {
		return err
	}

	return s.mailer.SendOTP(email, code, purpose)
}

// Verify kiểm tra mã và đánh dấu đã dùng (mỗi mã chỉ dùng được một lần).
func (s *Service) Verify(ctx context.Context, email, code, purpose string) error {
	result, err := s.otps.UpdateOne(ctx,
		bson.M{
			"email":     email,
			"code":      code,
			"purpose":   purpose,
			"used":      false,
			"expiresAt": bson.M{"$gt": time.Now()},
		},
		bson.M{"$set": bson.M{"used": true}},
		options.Update())
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return ErrInvalidCode
	}
	return nil
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
