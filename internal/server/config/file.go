package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/fakhri2406/creadev/internal/flagx"
	"github.com/fakhri2406/creadev/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Intervals use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
//
// Only fields present in the file are applied; everything else keeps the
// value from defaults and the environment.
type FileConfig struct {
	EndpointAddrHTTP             string          `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	EndpointAddrGRPC             string          `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	DatabaseDSN                  string          `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                    string          `json:"secret_key" yaml:"secret_key"`
	TokenIssuer                  string          `json:"token_issuer" yaml:"token_issuer"`
	TokenAudience                string          `json:"token_audience" yaml:"token_audience"`
	AccessTokenValidityDuration  timex.Duration  `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration  `json:"refresh_token_validity_duration" yaml:"refresh_token_validity_duration"`
	PasswordHasher               string          `json:"password_hasher" yaml:"password_hasher"`
	RevocationBackend            string          `json:"revocation_backend" yaml:"revocation_backend"`
	RedisURL                     string          `json:"redis_url" yaml:"redis_url"`
	LoginRateLimitPerMinute      *int            `json:"login_rate_limit_per_minute" yaml:"login_rate_limit_per_minute"`
	TrustProxyHeaders            *bool           `json:"trust_proxy_headers" yaml:"trust_proxy_headers"`
	PurgeInterval                *timex.Duration `json:"purge_interval" yaml:"purge_interval"`
	LogLevel                     string          `json:"log_level" yaml:"log_level"`
	AdminUsername                string          `json:"admin_username" yaml:"admin_username"`
	AdminPassword                string          `json:"admin_password" yaml:"admin_password"`
	AdminEmail                   string          `json:"admin_email" yaml:"admin_email"`
}

// parseFile loads the file named by -c/-config into config. Files ending in
// .yaml or .yml are decoded as YAML, anything else as JSON. A file that
// cannot be read or decoded panics.
func parseFile(config *Config) {
	path := flagx.ConfigFileFromOSArgs()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(file, fc)
	default:
		err = json.Unmarshal(file, fc)
	}
	if err != nil {
		panic(err)
	}

	fc.apply(config)
}

func (fc *FileConfig) apply(config *Config) {
	overlay := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	overlay(&config.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	overlay(&config.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	overlay(&config.DatabaseDSN, fc.DatabaseDSN)
	overlay(&config.SecretKey, fc.SecretKey)
	overlay(&config.TokenIssuer, fc.TokenIssuer)
	overlay(&config.TokenAudience, fc.TokenAudience)
	overlay(&config.PasswordHasher, fc.PasswordHasher)
	overlay(&config.RevocationBackend, fc.RevocationBackend)
	overlay(&config.RedisURL, fc.RedisURL)
	overlay(&config.LogLevel, fc.LogLevel)
	overlay(&config.AdminUsername, fc.AdminUsername)
	overlay(&config.AdminPassword, fc.AdminPassword)
	overlay(&config.AdminEmail, fc.AdminEmail)

	if fc.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	if fc.RefreshTokenValidityDuration.Duration > 0 {
		config.RefreshTokenValidityDuration = fc.RefreshTokenValidityDuration.Duration
	}
	if fc.LoginRateLimitPerMinute != nil {
		config.LoginRateLimitPerMinute = *fc.LoginRateLimitPerMinute
	}
	if fc.TrustProxyHeaders != nil {
		config.TrustProxyHeaders = *fc.TrustProxyHeaders
	}
	if fc.PurgeInterval != nil {
		config.PurgeInterval = fc.PurgeInterval.Duration
	}
}
