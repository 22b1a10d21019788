package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gatherhub/venue-events-backend/config"
	"github.com/gatherhub/venue-events-backend/database"
	"github.com/gatherhub/venue-events-backend/internal/auditlog"
	"github.com/gatherhub/venue-events-backend/internal/business"
	"github.com/gatherhub/venue-events-backend/internal/cache"
	"github.com/gatherhub/venue-events-backend/internal/event"
	"github.com/gatherhub/venue-events-backend/internal/notification"
	"github.com/gatherhub/venue-events-backend/internal/participant"
	"github.com/gatherhub/venue-events-backend/internal/rbac"
	"github.com/gatherhub/venue-events-backend/middleware"
	"github.com/gatherhub/venue-events-backend/utils"
)

// Setup wires repositories, services and handlers onto the router
func Setup(r *gin.Engine, cfg *config.Config) {
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimiter())
	api.Use(middleware.AuditMiddleware())

	// ========== Audit Log Module ==========
	auditRepo := auditlog.NewRepository(database.DB)
	auditSvc := auditlog.NewService(auditRepo)
	auditHandler := auditlog.NewHandler(auditSvc)

	// ========== Authorization ==========
	authz := rbac.NewAuthorizer(rbac.NewStore(database.DB))

	// ========== Occurrence Cache ==========
	var occurrenceCache cache.Cache[[]event.Occurrence]
	if client := utils.RedisClient(); client != nil {
		occurrenceCache = cache.NewRedis[[]event.Occurrence](client)
	} else {
		occurrenceCache = cache.NewMemory[[]event.Occurrence]()
	}

	// ========== Notifications ==========
	participantRepo := participant.NewRepository(database.DB)
	notificationRepo := notification.NewRepository(database.DB)
	notificationSvc := notification.NewService(notificationRepo, participant.NewRecipientSource(participantRepo))
	notificationHandler := notification.NewHandler(notificationSvc)

	var notifier event.Notifier = event.NopNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		notifier = notification.NewKafkaNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
	}

	// ========== Events ==========
	eventRepo := event.NewRepository(database.DB)
	cacheTTL := time.Duration(cfg.CacheTTLSeconds) * time.Second
	eventSvc := event.NewService(eventRepo, authz, occurrenceCache, auditSvc, notifier, cacheTTL)
	eventHandler := event.NewHandler(eventSvc)

	// ========== Participants ==========
	participantSvc := participant.NewService(participantRepo, eventRepo, authz, auditSvc)
	participantHandler := participant.NewHandler(participantSvc)

	// ========== Businesses ==========
	businessRepo := business.NewRepository(database.DB)
	businessSvc := business.NewService(businessRepo, authz)
	businessHandler := business.NewHandler(businessSvc)

	// Published events are readable without a token, so reads take the
	// optional variant and mutations require one
	optional := middleware.AuthOptional(cfg)
	required := middleware.AuthRequired(cfg)

	events := api.Group("/events")
	{
		events.GET("", optional, eventHandler.ListEvents)
		events.GET("/:id", optional, eventHandler.GetEvent)
		events.POST("", required, eventHandler.CreateEvent)
		events.PUT("/:id", required, eventHandler.UpdateEvent)
		events.DELETE("/:id", required, eventHandler.DeleteEvent)

		events.GET("/:id/participants", optional, participantHandler.ListParticipants)
		events.POST("/:id/participants", required, participantHandler.Register)
		events.PUT("/:id/participants", required, participantHandler.UpdateStatus)
		events.DELETE("/:id/participants/:participantId", required, participantHandler.Cancel)
		events.GET("/:id/participants/export", required, participantHandler.ExportRoster)
	}

	businesses := api.Group("/businesses")
	{
		businesses.GET("", businessHandler.ListBusinesses)
		businesses.GET("/:id", businessHandler.GetBusiness)
		businesses.POST("", required, businessHandler.CreateBusiness)
		businesses.PUT("/:id", required, businessHandler.UpdateBusiness)
		businesses.DELETE("/:id", required, businessHandler.DeleteBusiness)

		businesses.GET("/:id/members", required, businessHandler.ListMembers)
		businesses.POST("/:id/members", required, businessHandler.AddMember)
		businesses.DELETE("/:id/members/:userId", required, businessHandler.RemoveMember)
	}

	notifications := api.Group("/notifications")
	notifications.Use(required)
	{
		notifications.GET("", notificationHandler.ListNotifications)
		notifications.PUT("/:id/read", notificationHandler.MarkRead)
	}

	// ========== Audit Logs (Superuser Only) ==========
	auditRoutes := api.Group("/auditlogs")
	auditRoutes.Use(required, superuserOnly(authz))
	{
		auditRoutes.GET("", auditHandler.ListAuditLogs)
	}
}

func superuserOnly(authz *rbac.Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := middleware.IdentityFromContext(c)
		if identity == nil || !authz.IsSuperuser(c.Request.Context(), identity.ID) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}
