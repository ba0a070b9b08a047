package config

import (
	"fmt"
	"os"
	"time"
)

const (
	// Rooms
	RoomNameMaxLen        = 50
	RoomDescriptionMaxLen = 200
	RoomCodeLength        = 6
	RoomCodeAlphabet      = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// Messages
	DefaultMessagePageSize = 50
	MaxMessagePageSize     = 100

	// Realtime
	SendBufferSize       = 256
	BroadcastChannelSize = 1024

	// Auth
	TokenTTL = 7 * 24 * time.Hour
)

// Config carries the environment-driven settings for the server.
type Config struct {
	Port string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string

	RedisAddr     string
	RedisPassword string

	JWTSecret string
}

// Load reads configuration from environment variables. The .env file (if any)
// is expected to have been loaded by the caller already.
func Load() *Config {
	return &Config{
		Port:          getenv("PORT", "8080"),
		DBHost:        getenv("DB_HOST", "localhost"),
		DBUser:        getenv("DB_USER", "user"),
		DBPassword:    getenv("DB_PASSWORD", "password"),
		DBName:        getenv("DB_NAME", "roomchatdb"),
		DBPort:        getenv("DB_PORT", "5432"),
		RedisAddr:     getenv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		JWTSecret:     getenv("JWT_SECRET", ""),
	}
}

// DSN builds the PostgreSQL connection string for gorm.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
