package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/gatherhub/venue-events-backend/config"
	"github.com/gatherhub/venue-events-backend/database"
	"github.com/gatherhub/venue-events-backend/internal/auditlog"
	"github.com/gatherhub/venue-events-backend/internal/auth"
	"github.com/gatherhub/venue-events-backend/internal/business"
	"github.com/gatherhub/venue-events-backend/internal/event"
	"github.com/gatherhub/venue-events-backend/internal/notification"
	"github.com/gatherhub/venue-events-backend/internal/participant"
	"github.com/gatherhub/venue-events-backend/internal/rbac"
	"github.com/gatherhub/venue-events-backend/routes"
	"github.com/gatherhub/venue-events-backend/utils"
)

func main() {
	cfg := config.Load()
	db := database.Connect(cfg)

	// Init Redis (optional; occurrence cache falls back to in-memory)
	if err := utils.InitRedis(cfg); err != nil {
		log.Fatalf("❌ Redis init failed: %v", err)
	}

	// Auto-migrate models
	log.Println("🔄 Running database migrations...")
	if err := db.AutoMigrate(
		&auth.User{},
		&auth.UserRole{},
		&business.Business{},
		&business.Partner{},
		&event.Event{},
		&event.RecurrenceRule{},
		&rbac.EventPermission{},
		&participant.Participant{},
		&auditlog.AuditLog{},
		&notification.InAppNotification{},
	); err != nil {
		panic(fmt.Sprintf("❌ DB AutoMigrate failed: %v", err))
	}
	log.Println("✅ Database migrations completed")

	// Kafka consumer turns broker messages into in-app notifications
	if len(cfg.KafkaBrokers) > 0 {
		participantRepo := participant.NewRepository(db)
		notificationRepo := notification.NewRepository(db)
		notificationSvc := notification.NewService(notificationRepo, participant.NewRecipientSource(participantRepo))
		notification.StartKafkaConsumer(context.Background(), cfg.KafkaBrokers, cfg.KafkaTopic, notificationSvc)
	} else {
		log.Println("ℹ️ KAFKA_BROKERS not set, notifications disabled")
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-Token", "X-Original-Authorization", "Content-Length", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.Setup(router, cfg)

	fmt.Printf("🚀 Server starting on port %s\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		panic(fmt.Sprintf("Failed to start server: %v", err))
	}
}
