package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"stories-service/internal/db"
	"stories-service/internal/expiry"
	"stories-service/internal/handlers"
	"stories-service/internal/middleware"
	"stories-service/internal/observability"
	"stories-service/internal/rabbitmq"
	"stories-service/internal/repositories"
	"stories-service/internal/telemetry"
	"stories-service/internal/ws"
)

const serviceName = "stories-service"

func main() {
	database, err := db.Connect()
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := telemetry.InitTracing(ctx, serviceName, os.Getenv("OTLP_ENDPOINT"))
	if err != nil {
		log.Fatalf("failed to init tracing: %v", err)
	}
	defer shutdownTracing(context.Background())

	amqpURL := os.Getenv("AMQP_URL")
	exchange := getEnv("AMQP_EXCHANGE", "stories.events")

	publisher := rabbitmq.NewPublisher(amqpURL, exchange)
	defer publisher.Close()
	log.Printf("event publisher mode=%s", rabbitmq.PublisherMode(publisher))

	if amqpURL != "" {
		wsPublisher, err := observability.NewAMQPPublisher(amqpURL, exchange)
		if err != nil {
			log.Printf("ws event publisher disabled: %v", err)
		} else {
			defer wsPublisher.Close()
			observability.SetPublisher(wsPublisher)
		}
	}

	audit := telemetry.NewAuditEmitter(publisher, "audit.stories", serviceName, getEnv("ENVIRONMENT", "dev"))

	userRepo := repositories.NewUserRepo(database)
	storyRepo := repositories.NewStoryRepo(database)
	noteRepo := repositories.NewNoteRepo(database)

	hub := ws.NewHub()

	storyHandler := handlers.NewStoryHandler(storyRepo, userRepo, hub, publisher, audit)
	noteHandler := handlers.NewNoteHandler(noteRepo, userRepo, hub, publisher, audit)
	feedWS := ws.NewFeedWebSocketHandler(hub, []byte(os.Getenv("JWT_SECRET")))

	sweepInterval, err := time.ParseDuration(getEnv("EXPIRY_SWEEP_INTERVAL", "60s"))
	if err != nil {
		log.Fatalf("invalid sweep interval: %v", err)
	}
	sweeper := expiry.NewSweeper(storyRepo, noteRepo, sweepInterval)
	go sweeper.Run(ctx)

	router := gin.Default()

	// middlewares
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(serviceName))
	router.Use(observability.HTTPMetricsMiddleware())

	authMiddleware := middleware.AuthMiddleware()

	router.GET("/ephemeral/stories", authMiddleware, storyHandler.ListStories)
	router.POST("/ephemeral/stories", authMiddleware, storyHandler.CreateStory)
	router.POST("/ephemeral/stories/:story_id/view", authMiddleware, storyHandler.MarkStoryViewed)

	router.GET("/ephemeral/notes", authMiddleware, noteHandler.ListNotes)
	router.POST("/ephemeral/notes", authMiddleware, noteHandler.CreateNote)
	router.POST("/ephemeral/notes/:note_id/view", authMiddleware, noteHandler.MarkNoteViewed)
	router.DELETE("/ephemeral/notes/:note_id", authMiddleware, noteHandler.DeleteNote)

	router.GET("/ws/feed", feedWS.Handle)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterDebugRoutes(router, audit, os.Getenv("DEBUG_ROUTES") == "true")

	port := getEnv("PORT", "8086")
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}
