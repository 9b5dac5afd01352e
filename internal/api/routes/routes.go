// server/internal/api/routes/routes.go
package routes

import (
	"time"

	"recycle-it-api-server/config"
	"recycle-it-api-server/internal/api/handlers"
	"recycle-it-api-server/internal/api/middleware"
	"recycle-it-api-server/internal/ledger"
	"recycle-it-api-server/internal/otp"
	"recycle-it-api-server/internal/s3"
	"recycle-it-api-server/internal/socket"
	"recycle-it-api-server/internal/workflow"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// SetupRouter nhận vào các thành phần phụ thuộc và thiết lập các route.
func SetupRouter(
	cfg config.Config,
	db *mongo.Database,
	workflowSvc *workflow.Service,
	otpSvc *otp.Service,
	s3Uploader *s3.Uploader,
	wsHub *socket.Hub,
	ledgerSetup *ledger.Setup,
	caService *ledger.CAService,
) *gin.Engine {
	router := gin.Default()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	jwtExpiration, _ := time.ParseDuration(cfg.JWT.Expiration)

	// Khởi tạo các handlers
	authHandler := &handlers.AuthHandler{DB: db, OTP: otpSvc, JWTExpiration: jwtExpiration}
	recyclerAuthHandler := &handlers.RecyclerAuthHandler{
		DB:            db,
		Accounts:      &handlers.MongoRecyclerAccounts{DB: db},
		OTP:           otpSvc,
		JWTExpiration: jwtExpiration,
	}
	recyclerHandler := &handlers.RecyclerHandler{DB: db, S3Uploader: s3Uploader, Workflow: workflowSvc}
	pickupHandler := &handlers.PickupHandler{Workflow: workflowSvc}
	recyclerPickupHandler := &handlers.RecyclerPickupHandler{Workflow: workflowSvc}
	partnerHandler := &handlers.DeliveryPartnerHandler{DB: db}
	testimonialHandler := &handlers.TestimonialHandler{DB: db}
	educationHandler := &handlers.EducationHandler{DB: db}
	adminHandler := &handlers.AdminHandler{DB: db, Workflow: workflowSvc, CAService: caService, Ledger: ledgerSetup}
	webSocketHandler := &handlers.WebSocketHandler{Hub: wsHub}
	webhookHandler := &handlers.PaymentWebhookHandler{Workflow: workflowSvc}

	apiV1 := router.Group("/api/v1")
	{
		// Route cho WebSocket (token qua query param)
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		// === CÁC ROUTE KHÔNG YÊU CẦU XÁC THỰC ===

		// Authentication - người dùng
		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/verify-otp", authHandler.VerifyOTP)
			auth.POST("/resend-otp", authHandler.ResendOTP)
			auth.POST("/login", authHandler.Login)
			auth.POST("/forgot-password", authHandler.ForgotPassword)
			auth.POST("/reset-password", authHandler.ResetPassword)
		}

		// Authentication - recycler (có terms gating)
		recyclerAuth := apiV1.Group("/recyclers/auth")
		{
			recyclerAuth.POST("/register", recyclerAuthHandler.Register)
			recyclerAuth.POST("/verify-otp", recyclerAuthHandler.VerifyOTP)
			recyclerAuth.POST("/login", recyclerAuthHandler.Login)
			recyclerAuth.POST("/accept-terms", recyclerAuthHandler.AcceptTerms)
			recyclerAuth.POST("/forgot-password", recyclerAuthHandler.ForgotPassword)
			recyclerAuth.POST("/reset-password", recyclerAuthHandler.ResetPassword)
		}

		// Nội dung công khai
		apiV1.GET("/testimonials", testimonialHandler.GetApprovedTestimonials)
		apiV1.GET("/education", educationHandler.GetContent)
		apiV1.GET("/education/:slug", educationHandler.GetContentBySlug)

		// Webhook từ cổng thanh toán (provider retry nên không có JWT)
		apiV1.POST("/payments/webhook", webhookHandler.HandleWebhook)

		// === CÁC ROUTE YÊU CẦU XÁC THỰC (PROTECTED) ===

		// Người dùng (consumer)
		userRoutes := apiV1.Group("/")
		userRoutes.Use(middleware.Authenticate())
		userRoutes.Use(middleware.Authorize("user", "admin"))
		{
			pickups := userRoutes.Group("/schedule-pickup")
			{
				pickups.POST("/", pickupHandler.SchedulePickup)
				pickups.GET("/my", pickupHandler.GetMyPickups)
				pickups.GET("/:id", pickupHandler.GetPickupByID)
				pickups.PUT("/:id/cancel", pickupHandler.CancelPickup)
			}

			userRoutes.POST("/testimonials", testimonialHandler.CreateTestimonial)
		}

		// Recycler
		recyclerRoutes := apiV1.Group("/recyclers")
		recyclerRoutes.Use(middleware.Authenticate())
		recyclerRoutes.Use(middleware.Authorize("recycler"))
		{
			recyclerRoutes.GET("/profile", recyclerHandler.GetProfile)
			recyclerRoutes.PUT("/profile", recyclerHandler.UpdateProfile)
			recyclerRoutes.POST("/upload-documents", recyclerHandler.UploadDocuments)
			recyclerRoutes.GET("/assigned-ewaste", recyclerHandler.GetAssignedPickups)
			recyclerRoutes.GET("/available-ewaste", recyclerHandler.GetAvailablePickups)

			ewaste := recyclerRoutes.Group("/ewaste")
			{
				ewaste.POST("/:id/accept", recyclerPickupHandler.AcceptPickup)
				ewaste.PUT("/:id/confirm-received", recyclerPickupHandler.ConfirmReceived)
				ewaste.POST("/:id/inspect", recyclerPickupHandler.StartInspection)
				ewaste.GET("/:id/inspection-status", recyclerPickupHandler.GetInspectionStatus)
				ewaste.PUT("/:id/inspection-status", recyclerPickupHandler.CompleteInspection)
				ewaste.POST("/:id/propose-payment", recyclerPickupHandler.ProposePayment)
				ewaste.POST("/:id/finalize-payment", recyclerPickupHandler.FinalizePayment)
				ewaste.PUT("/:id/reject", recyclerPickupHandler.RejectPickup)
				ewaste.PUT("/:id/assign-partner", recyclerPickupHandler.AssignPartner)
				ewaste.PUT("/:id/status", recyclerPickupHandler.UpdateStatus)
			}
		}

		// Admin
		adminRoutes := apiV1.Group("/admin")
		adminRoutes.Use(middleware.Authenticate())
		adminRoutes.Use(middleware.Authorize("admin"))
		{
			adminRoutes.GET("/stats", adminHandler.GetStats)
			adminRoutes.GET("/recyclers", adminHandler.GetRecyclers)
			adminRoutes.PUT("/recyclers/:id/verify", adminHandler.VerifyRecycler)
			adminRoutes.GET("/transactions", adminHandler.GetTransactions)

			adminRoutes.GET("/pickups", pickupHandler.GetAllPickups)
			adminRoutes.GET("/pickups/:id", pickupHandler.GetPickupByID)
			adminRoutes.PUT("/pickups/:id/status", pickupHandler.UpdateStatus)
			adminRoutes.PUT("/pickups/:id/assign-recycler", pickupHandler.AssignRecycler)
			adminRoutes.PUT("/pickups/:id/assign-partner", pickupHandler.AssignPartner)

			// Delivery partner management (CRUD)
			partners := adminRoutes.Group("/delivery-partners")
			{
				partners.POST("/", partnerHandler.CreatePartner)
				partners.GET("/", partnerHandler.GetAllPartners)
				partners.GET("/:id", partnerHandler.GetPartnerByID)
				partners.PUT("/:id", partnerHandler.UpdatePartner)
				partners.DELETE("/:id", partnerHandler.DeletePartner)
				partners.PUT("/:id/availability", partnerHandler.SetAvailability)
			}

			// Testimonial moderation
			adminRoutes.GET("/testimonials", testimonialHandler.GetAllTestimonials)
			adminRoutes.PUT("/testimonials/:id/approve", testimonialHandler.ApproveTestimonial)
		}
	}

	return router
}
