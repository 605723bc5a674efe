package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting resolved at process start.
// Secrets (PayTR merchant credentials, store credentials) are only ever
// read from the environment, never embedded in source.
type Config struct {
	Port string

	// PayTR merchant credentials
	PayTRMerchantID   string
	PayTRMerchantKey  string
	PayTRMerchantSalt string
	PayTRAPIURL       string
	PayTROkURL        string
	PayTRFailURL      string
	PayTRTestMode     bool

	// Firebase (Realtime Database + Auth)
	FirebaseCredentialsPath string
	FirebaseDatabaseURL     string

	// Optional infrastructure
	DatabaseURL string
	RedisURL    string

	// SMTP for payment confirmation mails
	SMTPHost  string
	SMTPPort  string
	SMTPUser  string
	SMTPPass  string
	EmailFrom string

	// Worker tuning
	WorkerTick           time.Duration
	PendingPaymentMaxAge time.Duration
}

// Load reads the .env file (if any) and builds a Config from the
// environment. Only the PayTR credentials and Firebase settings are
// mandatory; everything else degrades gracefully like the rest of the
// app does.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	cfg := &Config{
		Port:                    getEnv("PORT", "8080"),
		PayTRMerchantID:         os.Getenv("PAYTR_MERCHANT_ID"),
		PayTRMerchantKey:        os.Getenv("PAYTR_MERCHANT_KEY"),
		PayTRMerchantSalt:       os.Getenv("PAYTR_MERCHANT_SALT"),
		PayTRAPIURL:             getEnv("PAYTR_API_URL", "https://www.paytr.com/odeme/api/get-token"),
		PayTROkURL:              os.Getenv("PAYTR_OK_URL"),
		PayTRFailURL:            os.Getenv("PAYTR_FAIL_URL"),
		PayTRTestMode:           os.Getenv("PAYTR_TEST_MODE") == "true",
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase-service-account.json"),
		FirebaseDatabaseURL:     os.Getenv("FIREBASE_DATABASE_URL"),
		DatabaseURL:             os.Getenv("DATABASE_URL"),
		RedisURL:                os.Getenv("REDIS_URL"),
		SMTPHost:                os.Getenv("SMTP_HOST"),
		SMTPPort:                os.Getenv("SMTP_PORT"),
		SMTPUser:                os.Getenv("SMTP_USER"),
		SMTPPass:                os.Getenv("SMTP_PASS"),
		EmailFrom:               os.Getenv("EMAIL_FROM"),
		WorkerTick:              getDuration("WORKER_TICK", 5*time.Minute),
		PendingPaymentMaxAge:    getDuration("PENDING_PAYMENT_MAX_AGE", 24*time.Hour),
	}

	if cfg.PayTRMerchantKey == "" || cfg.PayTRMerchantSalt == "" {
		return nil, fmt.Errorf("PAYTR_MERCHANT_KEY and PAYTR_MERCHANT_SALT must be set")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Invalid duration for %s (%q), using default %s", key, v, fallback)
		return fallback
	}
	return d
}
