package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variable names understood by parseEnv.
const (
	EnvHTTPAddr          = "CREADEV_HTTP_ADDR"
	EnvGRPCAddr          = "CREADEV_GRPC_ADDR"
	EnvDatabaseDSN       = "CREADEV_DATABASE_DSN"
	EnvSecretKey         = "CREADEV_JWT_SECRET"
	EnvTokenIssuer       = "CREADEV_JWT_ISSUER"
	EnvTokenAudience     = "CREADEV_JWT_AUDIENCE"
	EnvAccessTokenTTL    = "CREADEV_ACCESS_TOKEN_TTL"
	EnvRefreshTokenTTL   = "CREADEV_REFRESH_TOKEN_TTL"
	EnvPasswordHasher    = "CREADEV_PASSWORD_HASHER"
	EnvRevocationBackend = "CREADEV_REVOCATION_BACKEND"
	EnvRedisURL          = "CREADEV_REDIS_URL"
	EnvLoginRateLimit    = "CREADEV_LOGIN_RATE_LIMIT"
	EnvTrustProxyHeaders = "CREADEV_TRUST_PROXY_HEADERS"
	EnvPurgeInterval     = "CREADEV_PURGE_INTERVAL"
	EnvLogLevel          = "CREADEV_LOG_LEVEL"
	EnvAdminUsername     = "CREADEV_ADMIN_USERNAME"
	EnvAdminPassword     = "CREADEV_ADMIN_PASSWORD"
	EnvAdminEmail        = "CREADEV_ADMIN_EMAIL"
)

// parseEnv overlays set environment variables onto config. Durations use Go
// syntax ("15m"). A malformed value panics, like a malformed config file.
func parseEnv(config *Config) {
	setString(&config.EndpointAddrHTTP, EnvHTTPAddr)
	setString(&config.EndpointAddrGRPC, EnvGRPCAddr)
	setString(&config.DatabaseDSN, EnvDatabaseDSN)
	setString(&config.SecretKey, EnvSecretKey)
	setString(&config.TokenIssuer, EnvTokenIssuer)
	setString(&config.TokenAudience, EnvTokenAudience)
	setDuration(&config.AccessTokenValidityDuration, EnvAccessTokenTTL)
	setDuration(&config.RefreshTokenValidityDuration, EnvRefreshTokenTTL)
	setString(&config.PasswordHasher, EnvPasswordHasher)
	setString(&config.RevocationBackend, EnvRevocationBackend)
	setString(&config.RedisURL, EnvRedisURL)
	setInt(&config.LoginRateLimitPerMinute, EnvLoginRateLimit)
	setBool(&config.TrustProxyHeaders, EnvTrustProxyHeaders)
	setDuration(&config.PurgeInterval, EnvPurgeInterval)
	setString(&config.LogLevel, EnvLogLevel)
	setString(&config.AdminUsername, EnvAdminUsername)
	setString(&config.AdminPassword, EnvAdminPassword)
	setString(&config.AdminEmail, EnvAdminEmail)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = d
}

func setBool(dst *bool, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = b
}

func setInt(dst *int, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		panic(fmt.Errorf("%s: %w", key, err))
	}
	*dst = n
}
