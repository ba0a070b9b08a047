package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"roomchat/backend/internal/api/handler"
	"roomchat/backend/internal/chathub"
	"roomchat/backend/internal/config"
	"roomchat/backend/internal/models"
	"roomchat/backend/internal/presence"
	"roomchat/backend/internal/rooms"
	"roomchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	// 1. PostgreSQL
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	// 2. Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})

	// Перевірка з'єднання Redis
	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	// 3. Міграції (Створення таблиць)
	err = db.AutoMigrate(
		&models.User{},
		&models.ChatRoom{},
		&models.Invitation{},
		&models.Message{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting RoomChat Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET не встановлено!")
	}

	// 1. Ініціалізація залежностей
	db, rdb := setupDependencies(cfg)
	s := storage.NewStorageService(db, rdb)

	// 2. Ініціалізація сервісів та хаба
	tracker := presence.NewTracker(s)
	registry := rooms.NewRegistry(s)
	invitations := rooms.NewInvitations(s, registry)
	hub := chathub.NewManagerService(s, tracker, registry)

	// 3. Запуск головного диспетчера
	go hub.Run()

	// 4. Налаштування Gin та роутингу
	r := gin.Default()
	h := handler.NewHandler(hub, s, registry, invitations, cfg)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		chatrooms := api.Group("/chatrooms", h.AuthRequired())
		{
			chatrooms.GET("", h.ListRooms)
			chatrooms.GET("/available", h.ListAvailableRooms)
			chatrooms.POST("", h.CreateRoom)
			chatrooms.POST("/join-private", h.JoinPrivateRoom)
			chatrooms.GET("/invitations", h.ListInvitations)
			chatrooms.POST("/invitations/:roomId/:action", h.ResolveInvitation)
			chatrooms.POST("/:id/join", h.JoinRoom)
			chatrooms.POST("/:id/invite", h.Invite)
			chatrooms.GET("/:id/messages", h.GetMessages)
			chatrooms.POST("/:id/leave", h.LeaveRoom)
		}
	}

	r.GET("/ws", h.ServeWebSocket) // WebSocket Upgrade

	// Запуск HTTP-сервера
	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
