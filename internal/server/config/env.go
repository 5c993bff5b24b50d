package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Environment variables read by parseEnv.
const (
	EnvAddress               = "KB_ADDRESS"
	EnvDatabaseDSN           = "KB_DATABASE_DSN"
	EnvDBMaxConns            = "KB_DB_MAX_CONNS"
	EnvTokenKey              = "KB_TOKEN_KEY"
	EnvTokenValidity         = "KB_TOKEN_VALIDITY"
	EnvLogLevel              = "KB_LOG_LEVEL"
	EnvAllowedOrigins        = "KB_ALLOWED_ORIGINS"
	EnvS3User                = "KB_S3_USER"
	EnvS3Password            = "KB_S3_PASSWORD"
	EnvS3Bucket              = "KB_S3_BUCKET"
	EnvS3Region              = "KB_S3_REGION"
	EnvS3Endpoint            = "KB_S3_ENDPOINT"
	EnvAttachmentURLValidity = "KB_ATTACHMENT_URL_VALIDITY"
)

const defaultEnvFile = ".env"

// parseEnv loads envFile (or ./.env when empty) without overriding variables
// already set in the process, then overlays every KB_* variable present.
// A missing default .env file is not an error; a missing explicit one is.
func parseEnv(config *Config, envFile string) error {
	path := envFile
	if path == "" {
		path = defaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if envFile != "" || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}

	lookupString(&config.EndpointAddrHTTP, EnvAddress)
	lookupString(&config.DatabaseDSN, EnvDatabaseDSN)
	lookupString(&config.SecretKey, EnvTokenKey)
	lookupString(&config.LogLevel, EnvLogLevel)
	lookupString(&config.AllowedOrigins, EnvAllowedOrigins)
	lookupString(&config.S3RootUser, EnvS3User)
	lookupString(&config.S3RootPassword, EnvS3Password)
	lookupString(&config.S3Bucket, EnvS3Bucket)
	lookupString(&config.S3Region, EnvS3Region)
	lookupString(&config.S3BaseEndpoint, EnvS3Endpoint)

	if v, ok := os.LookupEnv(EnvDBMaxConns); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvDBMaxConns, err)
		}
		config.DBMaxConns = n
	}
	if err := lookupDuration(&config.TokenValidityDuration, EnvTokenValidity); err != nil {
		return err
	}
	if err := lookupDuration(&config.AttachmentURLValidity, EnvAttachmentURLValidity); err != nil {
		return err
	}
	return nil
}

func lookupString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func lookupDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = d
	return nil
}
