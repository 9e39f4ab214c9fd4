package config

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	MongoDB     string
	Port        string
	JWTSecret   string
	CORSOrigins string
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// Load reads .env (values there win over the environment) and assembles the
// runtime configuration. JWT_SECRET has no fallback on purpose.
func Load() Config {
	if err := godotenv.Overload(".env"); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	return Config{
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "commune"),
		Port:        getEnv("PORT", "3000"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: getEnv("FRONTEND_ORIGINS", "http://localhost:5173"),
	}
}
