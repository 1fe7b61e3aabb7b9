// Package config loads settings from .env and the environment.
package config

import (
	"log"

	"github.com/spf13/viper"
	"github.com/vouchersplit/backend/internal/errs"
)

var envBindings = map[string]string{
	"database.driver":      "DATABASE_DRIVER",
	"database.host":        "DATABASE_HOST",
	"database.port":        "DATABASE_PORT",
	"database.user":        "DATABASE_USER",
	"database.password":    "DATABASE_PASSWORD",
	"database.name":        "DATABASE_NAME",
	"database.ssl_mode":    "DATABASE_SSL_MODE",
	"database.sqlite_path": "DATABASE_SQLITE_PATH",

	"redis.enabled":  "REDIS_ENABLED",
	"redis.host":     "REDIS_HOST",
	"redis.port":     "REDIS_PORT",
	"redis.password": "REDIS_PASSWORD",
	"redis.db":       "REDIS_DB",

	"jwt.secret_key":     "JWT_SECRET_KEY",
	"jwt.expiry_hours":   "JWT_EXPIRY_HOURS",
	"argon2.time":        "ARGON2_TIME",
	"argon2.memory":      "ARGON2_MEMORY",
	"argon2.threads":     "ARGON2_THREADS",
	"argon2.key_length":  "ARGON2_KEY_LENGTH",
	"argon2.salt_length": "ARGON2_SALT_LENGTH",

	"bluelabel.trade_base_url": "BLUELABEL_TRADE_BASE_URL",
	"bluelabel.trade_api_key":  "BLUELABEL_TRADE_API_KEY",
	"bluelabel.split_base_url": "BLUELABEL_SPLIT_BASE_URL",
	"bluelabel.token_url":      "BLUELABEL_TOKEN_URL",
	"bluelabel.client_id":      "BLUELABEL_CLIENT_ID",
	"bluelabel.client_secret":  "BLUELABEL_CLIENT_SECRET",
	"bluelabel.scopes":         "BLUELABEL_SCOPES",
	"bluelabel.timeout":        "BLUELABEL_TIMEOUT",
	"bluelabel.product_id":     "BLUELABEL_PRODUCT_ID",

	"server.port": "PORT",
}

// Init reads .env when present and binds the environment variables above.
// Environment values win over the file.
func Init(file string) {
	viper.SetConfigFile(file)
	viper.AutomaticEnv()

	for key, env := range envBindings {
		viper.BindEnv(key, env)
	}

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using environment: %v", err)
	}
}

// RequireJWTSecret fails when no signing secret is configured. There is no
// default.
func RequireJWTSecret() error {
	if viper.GetString("jwt.secret_key") == "" {
		return errs.New("JWT_SECRET_KEY is not set")
	}
	return nil
}
