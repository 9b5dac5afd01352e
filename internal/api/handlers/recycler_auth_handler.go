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

// RecyclerAccountStore là phần tra cứu tài khoản mà Login/AcceptTerms cần.
// Tách interface để test luồng terms gating không cần Mongo thật.
type RecyclerAccountStore interface {
	FindRecyclerByEmail(ctx context.Context, email string) (*models.Recycler, error)
	AcceptRecyclerTerms(ctx context.Context, recyclerID string) error
}

// MongoRecyclerAccounts đọc/ghi collection recyclers.
type MongoRecyclerAccounts struct {
	DB *mongo.Database
}

func (s *MongoRecyclerAccounts) FindRecyclerByEmail(ctx context.Context, email string) (*models.Recycler, error) {
	var recycler models.Recycler
	if err := s.DB.Collection("recyclers").FindOne(ctx, bson.M{"email": email}).Decode(&recycler); err != nil {
		return nil, err
	}
	return &recycler, nil
}

func (s *MongoRecyclerAccounts) AcceptRecyclerTerms(ctx context.Context, recyclerID string) error {
	_, err := s.DB.Collection("recyclers").UpdateOne(ctx,
		bson.M{"recyclerID": recyclerID},
		bson.M{"$set": bson.M{"termsAccepted": true, "conductAccepted": true, "updatedAt": time.Now()}})
	return err
}

// RecyclerAuthHandler xử lý đăng ký / đăng nhập cho doanh nghiệp tái chế.
// Khác với user thường: recycler phải chấp nhận điều khoản + quy tắc ứng xử
// trước khi được cấp token.
type RecyclerAuthHandler struct {
	DB            *mongo.Database
	Accounts      RecyclerAccountStore
	OTP           *otp.Service
	JWTExpiration time.Duration
}

// MustAcceptTerms báo recycler còn phải chấp nhận điều khoản hay không.
// Trạng thái lưu server-side nên vẫn đúng khi client bỏ dở modal điều khoản.
func MustAcceptTerms(r models.Recycler) bool {
	return !(r.TermsAccepted && r.ConductAccepted)
}

type RecyclerRegisterRequest struct {
	BusinessName string         `json:"businessName" binding:"required"`
	Email        string         `json:"email" binding:"required,email"`
	Phone        string         `json:"phone"`
	Password     string         `json:"password" binding:"required,min=6"`
	Address      models.Address `json:"address"`
}

func (h *RecyclerAuthHandler) Register(c *gin.Context) {
	var req RecyclerRegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	recyclers := h.DB.Collection("recyclers")

	count, err := recyclers.CountDocuments(context.Background(), bson.M{"email": req.Email})
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
	recycler := models.Recycler{
		RecyclerID:   fmt.Sprintf("RCY-%s", strings.ToUpper(uuid.New().String()[:8])),
		BusinessName: req.BusinessName,
		Email:        req.Email,
		Phone:        req.Phone,
		Password:     hashedPassword,
		Address:      req.Address,
		Status:       "pending_verification",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := recyclers.InsertOne(context.Background(), recycler); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to create account")
		return
	}

	if err := h.OTP.Issue(context.Background(), req.Email, otp.PurposeRegister); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to send verification code")
		return
	}

	respondCreated(c, "Recycler account created. Verify the OTP sent to your email.", gin.H{
		"recyclerID": recycler.RecyclerID,
		"email":      recycler.Email,
	})
}

// VerifyOTP chuyển recycler từ pending_verification sang pending_review
// (chờ admin duyệt giấy tờ).
func (h *RecyclerAuthHandler) VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.OTP.Verify(context.Background(), req.Email, req.Code, otp.PurposeRegister); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid or expired OTP code")
		return
	}

	result, err := h.DB.Collection("recyclers").UpdateOne(context.Background(),
		bson.M{"email": req.Email},
		bson.M{"$set": bson.M{"status": "pending_review", "updatedAt": time.Now()}})
	if err != nil || result.MatchedCount == 0 {
		respondError(c, http.StatusNotFound, "Account not found")
		return
	}

	respondOK(c, "Account verified. Upload your recycling license for review.", nil)
}

// Login xác thực recycler. Nếu chưa chấp nhận điều khoản thì KHÔNG cấp token,
// chỉ trả mustAcceptTerms=true kèm một mã tạm để gọi accept-terms.
func (h *RecyclerAuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	recycler, err := h.Accounts.FindRecyclerByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if !auth.CheckPasswordHash(req.Password, recycler.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if recycler.Status == "pending_verification" {
		respondError(c, http.StatusForbidden, "Account is not verified. Complete OTP verification first.")
		return
	}

	if MustAcceptTerms(*recycler) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Terms and code of conduct must be accepted before login completes",
			"data": gin.H{
				"mustAcceptTerms": true,
				"recyclerID":      recycler.RecyclerID,
			},
		})
		return
	}

	token, err := auth.GenerateJWT(recycler.Email, "recycler", recycler.RecyclerID, h.JWTExpiration)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondOK(c, "Login successful", gin.H{
		"token":           token,
		"mustAcceptTerms": false,
		"recycler": gin.H{
			"recyclerID":   recycler.RecyclerID,
			"businessName": recycler.BusinessName,
			"email":        recycler.Email,
			"status":       recycler.Status,
		},
	})
}

type AcceptTermsRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	TermsAccepted   bool   `json:"termsAccepted"`
	ConductAccepted bool   `json:"conductAccepted"`
}

// AcceptTerms lưu việc chấp nhận điều khoản và cấp token ngay nếu đã đủ cả hai.
// Yêu cầu lại credentials vì endpoint này được gọi trước khi có token.
func (h *RecyclerAuthHandler) AcceptTerms(c *gin.Context) {
	var req AcceptTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	if !req.TermsAccepted || !req.ConductAccepted {
		respondError(c, http.StatusBadRequest, "Both terms and code of conduct must be accepted")
		return
	}

	recycler, err := h.Accounts.FindRecyclerByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	if !auth.CheckPasswordHash(req.Password, recycler.Password) {
		respondError(c, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	if err := h.Accounts.AcceptRecyclerTerms(c.Request.Context(), recycler.RecyclerID); err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to save acceptance")
		return
	}

	token, err := auth.GenerateJWT(recycler.Email, "recycler", recycler.RecyclerID, h.JWTExpiration)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	respondOK(c, "Terms accepted", gin.H{
		"token":           token,
		"mustAcceptTerms": false,
	})
}

// ForgotPassword / ResetPassword dùng chung luồng OTP reset_password với user.
func (h *RecyclerAuthHandler) ForgotPassword(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}

	count, err := h.DB.Collection("recyclers").CountDocuments(context.Background(), bson.M{"email": req.Email})
	if err == nil && count > 0 {
		_ = h.OTP.Issue(context.Background(), req.Email, otp.PurposeResetPassword)
	}

	respondOK(c, "If the email exists, a reset code has been sent", nil)
}

func (h *RecyclerAuthHandler) ResetPassword(c *gin.Context) {
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

	result, err := h.DB.Collection("recyclers").UpdateOne(context.Background(),
		bson.M{"email": req.Email},
		bson.M{"$set": bson.M{"password": hashedPassword, "updatedAt": time.Now()}})
	if err != nil || result.MatchedCount == 0 {
		respondError(c, http.StatusNotFound, "Account not found")
		return
	}

	respondOK(c, "Password has been reset", nil)
}
