package config

import (
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Port           string
	JWTSecret      string
	AdminCodeHash  string
	DatabaseURL    string
	AllowedOrigins []string
}

// Load reads configuration from the environment. ADMIN_CODE_HASH takes
// precedence; when absent the plaintext ADMIN_CODE is hashed at startup so
// the rest of the process only ever sees the bcrypt hash.
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		JWTSecret:      getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		AdminCodeHash:  adminCodeHash(),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		AllowedOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173,http://localhost:3000")),
	}
}

func adminCodeHash() string {
	if h := os.Getenv("ADMIN_CODE_HASH"); h != "" {
		return h
	}
	code := getEnv("ADMIN_CODE", "1234")
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return ""
	}
	return string(hash)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
