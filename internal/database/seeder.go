// server/internal/database/seeder.go
package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"recycle-it-api-server/internal/auth"
	"recycle-it-api-server/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedAdmin tạo tài khoản admin mặc định nếu chưa có.
func SeedAdmin(db *mongo.Database) error {
	userCollection := db.Collection("users")
	adminEmail := "admin@recycle-it.example.com"

	// Kiểm tra xem admin đã tồn tại chưa
	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": adminEmail})
	if err != nil {
		return err
	}

	if count > 0 {
		log.Println("Admin already exists. Seeding skipped.")
		return nil
	}

	log.Println("Admin not found. Seeding...")
	hashedPassword, err := auth.HashPassword("adminpassword") // Đặt một password mặc định
	if err != nil {
		return err
	}

	now := time.Now()
	admin := models.User{
		UserID:    fmt.Sprintf("USR-%s", strings.ToUpper(uuid.New().String()[:8])),
		Email:     adminEmail,
		Name:      "Recycle-IT Admin",
		Password:  hashedPassword,
		Role:      "admin",
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := userCollection.InsertOne(context.Background(), admin); err != nil {
		return err
	}

	log.Println("Admin seeded successfully.")
	return nil
}

// SeedEducationContent nạp các bài viết hướng dẫn tái chế cơ bản cho mobile app.
func SeedEducationContent(db *mongo.Database) error {
	collection := db.Collection("education_content")

	count, err := collection.CountDocuments(context.Background(), bson.M{})
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	articles := []interface{}{
		models.EducationContent{
			Slug:      "why-recycle-ewaste",
			Title:     "Why recycle e-waste?",
			Body:      "Electronic waste contains lead, mercury and cadmium that leach into soil and water when landfilled. Recycling recovers these materials safely and reclaims gold, copper and rare earths for reuse.",
			Category:  "basics",
			CreatedAt: now,
		},
		models.EducationContent{
			Slug:      "prepare-device-for-pickup",
			Title:     "Preparing your device for pickup",
			Body:      "Back up your data, sign out of all accounts and perform a factory reset before handing over a device. Remove SIM and memory cards. Batteries stay inside the device unless they are swollen.",
			Category:  "how-to",
			CreatedAt: now,
		},
		models.EducationContent{
			Slug:      "what-happens-after-pickup",
			Title:     "What happens after pickup?",
			Body:      "Your device travels to a verified recycling facility where it is inspected, valued and dismantled. You are paid based on the inspection result and receive a recycling certificate once processing is verified.",
			Category:  "basics",
			CreatedAt: now,
		},
	}

	if _, err := collection.InsertMany(context.Background(), articles); err != nil {
		return err
	}

	log.Println("Education content seeded successfully.")
	return nil
}
