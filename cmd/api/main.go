// server/cmd/api/main.go
package main

import (
	"context"
	"log"
	"time"

	"recycle-it-api-server/config"
	"recycle-it-api-server/internal/api/routes"
	"recycle-it-api-server/internal/auth"
	"recycle-it-api-server/internal/database"
	"recycle-it-api-server/internal/ledger"
	"recycle-it-api-server/internal/otp"
	"recycle-it-api-server/internal/payments"
	"recycle-it-api-server/internal/s3"
	"recycle-it-api-server/internal/socket"
	"recycle-it-api-server/internal/workflow"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// .env chỉ dùng cho môi trường dev; production set biến môi trường trực tiếp.
	_ = godotenv.Load()

	// 1. Load configuration
	cfg, err := config.LoadConfig("./config")
	if err != nil {
		log.Fatalf("Could not load config: %v", err)
	}
	auth.SetSecret(cfg.JWT.Secret)

	// 2. Kết nối MongoDB
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		log.Fatalf("Could not ping MongoDB: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())

	db := mongoClient.Database(cfg.Mongo.DBName)

	// 3. Seed admin + nội dung hướng dẫn
	if err := database.SeedAdmin(db); err != nil {
		log.Fatalf("Could not seed admin: %v", err)
	}
	if err := database.SeedEducationContent(db); err != nil {
		log.Fatalf("Could not seed education content: %v", err)
	}

	// 4. S3 uploader (giấy tờ xác minh recycler)
	var s3Uploader *s3.Uploader
	if cfg.S3.Bucket != "" {
		s3Uploader, err = s3.NewUploader(cfg.S3)
		if err != nil {
			log.Fatalf("Could not create S3 uploader: %v", err)
		}
	} else {
		log.Println("S3 is not configured; document upload is disabled.")
	}

	// 5. WebSocket hub
	wsHub := socket.NewHub()

	// 6. Sổ cái lưu ký (tùy chọn): chỉ bật khi có connection profile
	var ledgerSetup *ledger.Setup
	var caService *ledger.CAService
	var recorder *ledger.Recorder
	if cfg.Fabric.ConnectionProfile != "" {
		ledgerSetup, err = ledger.Initialize(cfg.Fabric)
		if err != nil {
			log.Fatalf("Could not initialize custody ledger: %v", err)
		}
		defer ledgerSetup.Close()

		caService = ledger.NewCAService(ledgerSetup.SDK, cfg.Fabric.CAName, cfg.Fabric.OrgName, cfg.Fabric.UserName)
		recorder = ledger.NewRecorder(ledgerSetup)
		log.Println("Custody ledger enabled.")
	} else {
		log.Println("Custody ledger is not configured; running without on-chain records.")
	}

	// 7. Cổng thanh toán Mercado Pago (mock mode qua PAYMENT_GATEWAY_MOCK)
	gateway, err := payments.NewMercadoPagoGateway(cfg.Payment)
	if err != nil {
		log.Fatalf("Could not create payment gateway: %v", err)
	}

	// 8. Workflow service + OTP service
	store := workflow.NewMongoStore(db)
	workflowSvc := workflow.NewService(store, gateway, wsHub, recorder)
	otpSvc := otp.NewService(db, otp.LogMailer{}, cfg.OTP.ExpiryMinutes)

	// 9. Router
	router := routes.SetupRouter(cfg, db, workflowSvc, otpSvc, s3Uploader, wsHub, ledgerSetup, caService)

	// 10. Start server
	log.Printf("Starting API server on port %s", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
