package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/tbenoist/harmonia/internal/flagx"
	"github.com/tbenoist/harmonia/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "15m" and integer nanoseconds. After
// unmarshalling, its fields are copied into the runtime Config.
type JsonConfig struct {
	EndpointAddr    string         `json:"endpoint_addr"`
	DatabaseDSN     string         `json:"database_dsn"`
	SecretKey       string         `json:"secret_key"`
	PresignExpiry   timex.Duration `json:"presign_expiry"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout"`
	S3RootUser      string         `json:"s3_root_user"`
	S3RootPassword  string         `json:"s3_root_password"`
	S3Bucket        string         `json:"s3_bucket"`
	S3Region        string         `json:"s3_region"`
	S3BaseEndpoint  string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path comes from the -c or -config command-line
// flags; when neither is set, no JSON file is loaded. Unset fields in the
// file keep their current values. An unreadable or invalid file panics:
// a half-applied configuration is worse than a startup failure.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()

	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString := func(v string, target *string) {
		if v != "" {
			*target = v
		}
	}
	setString(c.EndpointAddr, &config.EndpointAddr)
	setString(c.DatabaseDSN, &config.DatabaseDSN)
	setString(c.SecretKey, &config.SecretKey)
	setString(c.S3RootUser, &config.S3RootUser)
	setString(c.S3RootPassword, &config.S3RootPassword)
	setString(c.S3Bucket, &config.S3Bucket)
	setString(c.S3Region, &config.S3Region)
	setString(c.S3BaseEndpoint, &config.S3BaseEndpoint)

	if c.PresignExpiry.Duration != 0 {
		config.PresignExpiry = time.Duration(c.PresignExpiry.Duration)
	}
	if c.ShutdownTimeout.Duration != 0 {
		config.ShutdownTimeout = time.Duration(c.ShutdownTimeout.Duration)
	}
}
