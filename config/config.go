package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DBPath          string
	TaxRate         float64
	DefaultSession  string
	SourceTag       string
	SessionMaxAge   time.Duration
	CleanupInterval time.Duration
	JWTSecret       string
	RabbitMQURL     string
	EventExchange   string
	PaymentQueue    string
	DeadLetterQueue string
	DelayExchange   string
	PaymentExpiry   time.Duration
	MaxPriority     int
}

func LoadConfig() *Config {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env: %v", err)
	}

	return &Config{
		Port:            getEnv("PORT", "8000"),
		DBPath:          getEnv("DB_PATH", "products.json"),
		TaxRate:         getEnvFloat("TAX_RATE", 0.07),
		DefaultSession:  getEnv("DEFAULT_SESSION", "default"),
		SourceTag:       getEnv("CART_SOURCE_TAG", "scanner"),
		SessionMaxAge:   getEnvPositiveDuration("SESSION_MAX_AGE", 24*time.Hour),
		CleanupInterval: getEnvPositiveDuration("CLEANUP_INTERVAL", time.Hour),
		JWTSecret:       getEnvFromFile("JWT_SECRET_FILE", "JWT_SECRET", ""),
		RabbitMQURL:     getEnvFromFile("RABBITMQ_URL_FILE", "RABBITMQ_URL", ""),
		EventExchange:   getEnv("EVENT_EXCHANGE", "checkout_events"),
		PaymentQueue:    getEnv("PAYMENT_QUEUE", "payment_checks"),
		DeadLetterQueue: getEnv("DEAD_LETTER_QUEUE", "checkout_dead_letter"),
		DelayExchange:   getEnv("DELAY_EXCHANGE", "checkout_delay"),
		PaymentExpiry:   getEnvDuration("PAYMENT_EXPIRY", 0),
		MaxPriority:     10,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFromFile(fileKey, envKey, defaultValue string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		if content, err := os.ReadFile(filePath); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return getEnv(envKey, defaultValue)
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		log.Printf("Invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d < 0 {
		log.Printf("Invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// getEnvPositiveDuration is getEnvDuration for settings where zero makes no sense.
func getEnvPositiveDuration(key string, defaultValue time.Duration) time.Duration {
	d := getEnvDuration(key, defaultValue)
	if d <= 0 {
		log.Printf("Invalid %s=%v, using %v", key, d, defaultValue)
		return defaultValue
	}
	return d
}
