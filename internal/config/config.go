// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries process-wide settings, read once at startup.
type Config struct {
	HTTPAddr    string
	DatabaseURL string

	// JWTKey signs access tokens; the process refuses to start without it.
	JWTKey    string
	AccessTTL time.Duration

	// Login rate limiting.
	LoginWindow   time.Duration
	LoginMaxFails int
	LoginBlockFor time.Duration

	ShutdownTimeout time.Duration
}

// Load reads configuration from the environment, after loading a local
// .env file when one exists.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		DatabaseURL:     getenv("DATABASE_URL", ""),
		JWTKey:          getenv("JWT_KEY", ""),
		AccessTTL:       getenvDuration("ACCESS_TTL", 7*24*time.Hour),
		LoginWindow:     getenvDuration("LOGIN_WINDOW", 15*time.Minute),
		LoginMaxFails:   getenvInt("LOGIN_MAX_FAILS", 5),
		LoginBlockFor:   getenvDuration("LOGIN_BLOCK_FOR", 15*time.Minute),
		ShutdownTimeout: getenvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getenvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
