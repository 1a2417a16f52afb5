package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv            string
	Port              string
	LogLevel          string
	LogFormat         string
	VAPIDPublicKey    string
	VAPIDPrivateKey   string
	VAPIDSubscriber   string
	SubscriptionsFile string
	StaticDir         string
}

func Load() (*Config, error) {
	// A missing .env file is fine; real deployments set the environment.
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		VAPIDPublicKey:    getEnv("VAPID_PUBLIC_KEY", ""),
		VAPIDPrivateKey:   getEnv("VAPID_PRIVATE_KEY", ""),
		VAPIDSubscriber:   getEnv("VAPID_SUBSCRIBER", "mailto:admin@example.com"),
		SubscriptionsFile: getEnv("SUBSCRIPTIONS_FILE", "data/subscriptions.json"),
		StaticDir:         getEnv("STATIC_DIR", "web/public"),
	}

	// The key pair only works as a pair: half a pair is a misconfiguration,
	// not a request to generate fresh keys.
	if (cfg.VAPIDPublicKey == "") != (cfg.VAPIDPrivateKey == "") {
		return nil, fmt.Errorf("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY must be set together")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
