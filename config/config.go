package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries everything the process reads from its environment. Every
// field has a default so a bare `go run .` serves a working instance.
type Config struct {
	Port             string
	AllowedOrigins   []string
	MaxRoomCount     int
	BaseTickInterval time.Duration
	SessionKey       string
	SessionMaxAge    time.Duration
	Debug            bool
}

// Load reads the environment once at process start. A missing SESSION_KEY is
// replaced by a random one, which limits reconnect tokens to the lifetime of
// the process. Nothing else survives a restart either.
func Load() Config {
	cfg := Config{
		Port:             envString("PORT", "5000"),
		MaxRoomCount:     envInt("MAX_ROOM_COUNT", 15),
		BaseTickInterval: time.Duration(envInt("GAME_TICK_MS", 500)) * time.Millisecond,
		SessionKey:       envString("SESSION_KEY", randomKey()),
		SessionMaxAge:    time.Duration(envInt("SESSION_MAX_AGE_HOURS", 24)) * time.Hour,
		Debug:            envString("DEBUG", "") != "",
	}
	if origins := envString("ALLOWED_ORIGINS", ""); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	}
	return cfg
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func randomKey() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}
