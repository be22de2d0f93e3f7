package config

import (
	"os"
	"strconv"
)

type Config struct {
	AppPort        string
	UpstreamAPIURL string

	SessionStore   string // "redis" or "memory"
	SessionSealKey string
	SessionTTLMin  int

	RedisAddr     string
	RedisPassword string

	GoogleClientID string
	GoogleSecret   string
	GoogleRedirect string

	PublicBaseURL string
	AllowOrigins  string
}

func Load() Config {
	ttl, _ := strconv.Atoi(get("SESSION_TTL_MIN", "10080"))
	return Config{
		AppPort:        get("APP_PORT", "3000"),
		UpstreamAPIURL: get("UPSTREAM_API_URL", "http://localhost:5500/api"),
		SessionStore:   get("SESSION_STORE", "redis"),
		SessionSealKey: must("SESSION_SEAL_KEY"),
		SessionTTLMin:  ttl,
		RedisAddr:      get("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  get("REDIS_PASSWORD", ""),
		GoogleClientID: get("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:   get("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect: get("GOOGLE_REDIRECT_URL", ""),
		PublicBaseURL:  get("PUBLIC_BASE_URL", "http://localhost:3000"),
		AllowOrigins:   get("ALLOW_ORIGINS", "http://127.0.0.1:3000, http://localhost:3000"),
	}
}

func get(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
