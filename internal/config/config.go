package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	HTTPPort int

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string

	JWTSecret  string
	CSRFSecret string

	AllowedOrigins []string

	AdminEmail    string
	AdminPassword string
}

func Load() *Config {
	origins := strings.Split(env("ALLOWED_ORIGINS", "http://localhost:3000"), ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}

	return &Config{
		HTTPPort: intEnv("HTTP_PORT", 5000),

		DBHost:     env("DB_HOST", "localhost"),
		DBPort:     intEnv("DB_PORT", 5432),
		DBUser:     env("DB_USER", "tasktracker"),
		DBPassword: env("DB_PASSWORD", "tasktracker"),
		DBName:     env("DB_NAME", "tasktracker"),

		JWTSecret:  env("JWT_SECRET", "dev-jwt-secret-change-me"),
		CSRFSecret: env("CSRF_SECRET", "dev-csrf-secret-change-me"),

		AllowedOrigins: origins,

		AdminEmail:    env("ADMIN_EMAIL", "admin@tasktracker.com"),
		AdminPassword: env("ADMIN_PASSWORD", "Admin123!"),
	}
}

func (c *Config) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName,
	)
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func env(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func intEnv(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
