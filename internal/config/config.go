package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects the environment the service reads at boot. Defaults
// keep a dev instance bootable with just DATABASE_URL set.
type Config struct {
	Port        string
	DatabaseURL string

	// FeeRate is the platform cut applied at deal creation.
	FeeRate float64

	// Business-hours window for booking availability, minutes since
	// midnight.
	OpenMinute  int
	CloseMinute int

	PaygateAPIKey  string
	PaygateURL     string
	PaygateTimeout time.Duration

	PublicBaseURL      string
	CheckoutSuccessURL string
	CheckoutCancelURL  string

	MailHost string
	MailPort int
	MailUser string
	MailPass string
	MailFrom string

	RabbitUser string
	RabbitPass string
	RabbitHost string
	RabbitPort string
}

func Load() Config {
	return Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		FeeRate:     getEnvFloat("PLATFORM_FEE_RATE", 0.10),
		OpenMinute:  getEnvInt("BOOKING_OPEN_MINUTE", 9*60),
		CloseMinute: getEnvInt("BOOKING_CLOSE_MINUTE", 17*60),

		PaygateAPIKey:  os.Getenv("PAYGATE_API_KEY"),
		PaygateURL:     os.Getenv("PAYGATE_URL"),
		PaygateTimeout: time.Duration(getEnvInt("PAYGATE_TIMEOUT_SECONDS", 10)) * time.Second,

		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),
		CheckoutSuccessURL: getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:8080/payment/success"),
		CheckoutCancelURL:  getEnv("CHECKOUT_CANCEL_URL", "http://localhost:8080/payment/cancel"),

		MailHost: os.Getenv("MAIL_HOST"),
		MailPort: getEnvInt("MAIL_PORT", 587),
		MailUser: os.Getenv("MAIL_USER"),
		MailPass: os.Getenv("MAIL_PASS"),
		MailFrom: os.Getenv("MAIL_FROM"),

		RabbitUser: getEnv("RABBITMQ_USER", "guest"),
		RabbitPass: getEnv("RABBITMQ_PASS", "guest"),
		RabbitHost: getEnv("RABBITMQ_HOST", "localhost"),
		RabbitPort: getEnv("RABBITMQ_PORT", "5672"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
