package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	// JWT verification secret for bearer tokens issued by the identity
	// provider. When empty, tokens are decoded without signature
	// verification (legacy behaviour carried over from the hosted auth
	// setup; logged loudly at startup).
	JWTSecret string

	// Redis Config (optional; occurrence cache falls back to in-process map)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Kafka Config (optional; notifications disabled when no brokers)
	KafkaBrokers []string
	KafkaTopic   string

	AllowedOrigins []string

	// Occurrence cache TTL in seconds
	CacheTTLSeconds int
}

// Load reads environment variables and returns a Config object
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file, using environment variables")
	}

	redisDB, _ := strconv.Atoi(os.Getenv("REDIS_DB"))

	cacheTTL, _ := strconv.Atoi(os.Getenv("CACHE_TTL_SECONDS"))
	if cacheTTL <= 0 {
		cacheTTL = 300
	}

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		brokers = strings.Split(raw, ",")
	}

	origins := []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		origins = strings.Split(raw, ",")
	}

	return &Config{
		Port: getEnvDefault("PORT", "8080"),

		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		KafkaBrokers: brokers,
		KafkaTopic:   getEnvDefault("KAFKA_TOPIC", "event-notifications"),

		AllowedOrigins: origins,

		CacheTTLSeconds: cacheTTL,
	}
}

func getEnvDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
