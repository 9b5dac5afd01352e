package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recycle-it-api-server/internal/auth"
	"recycle-it-api-server/internal/models"
	"recycle-it-api-server/internal/otp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AuthHandler xử lý đăng ký / đăng nhập cho người dùng (consumer).
type AuthHandler struct {
	DB            *mongo.Database
	OTP           *otp.Service
	JWTExpiration time.Duration
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
}

// Register tạo tài khoản pending_verification và gửi OTP qua email.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	users := h.DB.Collection("users")

	count, err := users.CountDocuments(context.Background(), bson.M{"email": req.Email})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to check existing account")
		return
	}
	if count > 0 {
		respondError(c, http.StatusConflict, "An account with this email already exists")
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	now := time.Now()
	user := models.User{
		UserID:    fmt.Sprintf("USR-%s", strings.ToUpper(uuid.New().String()[:8])),
		Email:     req.Email,
		Name:      req.Name,
		Phone:     req.Phone,
		Password:  hashedPassword,
		Role:      "user",
		Status:    "pending_verification",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := users.InsertOne(context.Background(), user); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	if err := h.OTP.Issue(context.Background(), req.Email, otp.PurposeRegister); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to send verification code")
		return
	}

	respondCreated(c, "Account created. Verify the OTP sent to your email.", gin.H{
		"userID": user.UserID,
		"email":  user.Email,
	})
}

type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// VerifyOTP kích hoạt tài khoản sau khi mã OTP hợp lệ.
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.OTP.Verify(context.Background(), req.Email, req.Code, otp.PurposeRegister); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid or expired OTP code")
		return
	}

	users := h.DB.Collection("users")
	result, err := users.UpdateOne(context.Background(),
		bson.M{"email": req.Email},
		bson.M{"$set": bson.M{"status": "active", "updatedAt": time.Now()}})
	if err != nil || result.MatchedCount == 0 {
		respondError(c, http.StatusNotFound, "Account not found")
		return
	}

	respondOK(c, "Account verified successfully", nil)
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.OTP.Issue(context.Background(), req.Email, otp.PurposeRegister); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to send verification code")
		return
	}
	respondOK(c, "Verification code sent", nil)
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login xác thực email/password và cấp JWT. Tài khoản chưa verify OTP bị từ chối.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	var user models.User
	err := h.DB.Collection("users").FindOne(context.Background(), bson.M{"email": req.Email}).Decode(&user)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if user.Status != "active" {
		respondError(c, http.StatusForbidden, "Account is not verified. Complete OTP verification first.")
		return
	}

	token, err := auth.GenerateJWT(user.Email, user.Role, user.UserID, h.JWTExpiration)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondOK(c, "Login successful", gin.H{
		"token": token,
		"user": gin.H{
			"userID": user.UserID,
			"name":   user.Name,
			"email":  user.Email,
			"role":   user.Role,
		},
	})
}

// ForgotPassword gửi OTP đặt lại mật khẩu. Không tiết lộ email có tồn tại hay không.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	count, err := h.DB.Collection("users").CountDocuments(context.Background(), bson.M{"email": req.Email})
	if err == nil && count > 0 {
		_ = h.OTP.Issue(context.Background(), req.Email, otp.PurposeResetPassword)
	}

	respondOK(c, "If the email exists, a reset code has been sent", nil)
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.OTP.Verify(context.Background(), req.Email, req.Code, otp.PurposeResetPassword); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid or expired OTP code")
		return
	}

	hashedPassword, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to hash password")
		return
	}

	result, err := h.DB.Collection("users").UpdateOne(context.Background(),
		bson.M{"email": req.Email},
		bson.M{"$set": bson.M{"password": hashedPassword, "updatedAt": time.Now()}})
	if err != nil || result.MatchedCount == 0 {
		respondError(c, http.StatusNotFound, "Account not found")
		return
	}

	respondOK(c, "Password has been reset", nil)
}
