package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"campus-chat/internal/db"
	"campus-chat/internal/handlers"
	"campus-chat/internal/middleware"
	"campus-chat/internal/notify"
	"campus-chat/internal/observability"
	"campus-chat/internal/presence"
	"campus-chat/internal/rabbitmq"
	"campus-chat/internal/repositories"
	"campus-chat/internal/telemetry"
	"campus-chat/internal/ws"
)

const serviceName = "campus-chat"

func main() {
	ctx := context.Background()

	shutdownTracing, err := telemetry.SetupTracing(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("tracing shutdown error: %v", err)
		}
	}()

	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	publisher := rabbitmq.NewPublisher(os.Getenv("AMQP_URL"), getEnv("AMQP_EXCHANGE", "campus.events"))
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))
	observability.SetPublisher(publisher)

	audit := telemetry.NewAuditEmitter(publisher, "audit.chat", serviceName, getEnv("ENVIRONMENT", "development"))

	roomRepo := repositories.NewRoomRepo(database)
	messageRepo := repositories.NewMessageRepo(database)
	groupRepo := repositories.NewGroupRepo(database)
	groupMessageRepo := repositories.NewGroupMessageRepo(database)
	moderationRepo := repositories.NewModerationRepo(database)
	notificationRepo := repositories.NewNotificationRepo(database)
	userRepo := repositories.NewUserRepo(database)

	hub := ws.NewHub()
	tracker := presence.NewTracker()
	fanout := notify.NewFanout(notificationRepo, moderationRepo, hub)

	chatHandler := handlers.NewChatHandler(roomRepo, messageRepo, moderationRepo, userRepo, hub, fanout, audit)
	groupHandler := handlers.NewGroupHandler(groupRepo, groupMessageRepo, userRepo, hub, audit)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, userRepo, fanout)
	gateway := ws.NewGateway(hub, tracker, roomRepo, groupRepo, messageRepo)

	router := gin.Default()
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", gateway.Handle)

	api := router.Group("/", middleware.Identity())
	{
		api.GET("/conversations", chatHandler.ListConversations)
		api.GET("/messages", chatHandler.GetMessages)
		api.POST("/messages", chatHandler.PostMessage)
		api.POST("/messages/read", chatHandler.MarkMessagesRead)

		api.POST("/blocks", chatHandler.Block)
		api.DELETE("/blocks/:target_user_id", chatHandler.Unblock)
		api.POST("/mutes", chatHandler.Mute)
		api.DELETE("/mutes/:target_user_id", chatHandler.Unmute)

		api.POST("/groups", groupHandler.CreateGroup)
		api.GET("/groups", groupHandler.ListGroups)
		api.GET("/groups/:group_id/messages", groupHandler.GetGroupMessages)
		api.POST("/groups/:group_id/messages", groupHandler.PostGroupMessage)
		api.POST("/groups/:group_id/read", groupHandler.MarkGroupRead)
		api.GET("/groups/:group_id/members", groupHandler.ListMembers)

		api.GET("/notifications", notificationHandler.List)
		api.POST("/notifications/:notification_id/read", notificationHandler.MarkRead)
	}

	internal := router.Group("/internal")
	{
		internal.POST("/notifications", notificationHandler.InternalNotify)
	}

	port := getEnv("PORT", "8085")
	log.Printf("%s listening on :%s", serviceName, port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
