package config

import (
	"os"
	"strings"
)

// Config holds server-level configuration loaded from the environment.
type Config struct {
	MongoURI    string
	MongoDBName string
	RedisAddr   string
	HTTPPort    string

	// JWTSecret signs and verifies user bearer tokens.
	JWTSecret string

	// FrontendURL is the production frontend origin allowed by CORS.
	FrontendURL string

	// CORSOrigins is a comma-separated list of additional allowed origins.
	CORSOrigins string
}

func Load() *Config {
	return &Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "veenoe"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "dev-secret-change-in-production"),
		FrontendURL: os.Getenv("FRONTEND_URL"),
		CORSOrigins: os.Getenv("CORS_ORIGINS"),
	}
}

// AllowedOrigins returns the full CORS origin list: localhost dev
// defaults plus any configured production origins.
func (c *Config) AllowedOrigins() []string {
	origins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://localhost:8080",
	}
	if c.FrontendURL != "" {
		origins = append(origins, c.FrontendURL)
	}
	if c.CORSOrigins != "" {
		for _, o := range strings.Split(c.CORSOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}
	return origins
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
