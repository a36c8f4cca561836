package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays configuration from environment variables, after loading
// an optional .env file from the working directory. A missing .env file is
// not an error.
func parseEnv(config *Config) {
	_ = godotenv.Load()

	setString := func(key string, target *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}
	setDuration := func(key string, target *time.Duration) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*target = d
			}
		}
	}

	setString("HARMONIA_ADDRESS", &config.EndpointAddr)
	setString("HARMONIA_DATABASE_DSN", &config.DatabaseDSN)
	setString("HARMONIA_SECRET_KEY", &config.SecretKey)
	setDuration("HARMONIA_PRESIGN_EXPIRY", &config.PresignExpiry)
	setDuration("HARMONIA_SHUTDOWN_TIMEOUT", &config.ShutdownTimeout)
	setString("HARMONIA_S3_ROOT_USER", &config.S3RootUser)
	setString("HARMONIA_S3_ROOT_PASSWORD", &config.S3RootPassword)
	setString("HARMONIA_S3_BUCKET", &config.S3Bucket)
	setString("HARMONIA_S3_REGION", &config.S3Region)
	setString("HARMONIA_S3_BASE_ENDPOINT", &config.S3BaseEndpoint)
}
