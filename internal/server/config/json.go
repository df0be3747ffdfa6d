package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/clipher/internal/timex"
)

// JsonRateLimit is the JSON form of RateLimit.
type JsonRateLimit struct {
	Points int            `json:"points"`
	Window timex.Duration `json:"window"`
}

// JsonConfig is the DTO read from the JSON config file. Durations use
// timex.Duration so both "30s" strings and integer nanoseconds parse.
// Keys absent from the file leave the current value untouched.
type JsonConfig struct {
	EndpointAddrHTTP  string                   `json:"endpoint_addr_http"`
	StoreDriver       string                   `json:"store_driver"`
	DatabaseDSN       string                   `json:"database_dsn"`
	SecretKey         string                   `json:"secret_key"`
	KeyLeaseTTL       timex.Duration           `json:"key_lease_ttl"`
	LoginTokenTTL     timex.Duration           `json:"login_token_ttl"`
	AccessTokenTTL    timex.Duration           `json:"access_token_ttl"`
	SweepInterval     timex.Duration           `json:"sweep_interval"`
	RSAKeyBits        int                      `json:"rsa_key_bits"`
	BcryptCost        int                      `json:"bcrypt_cost"`
	TfaIssuer         string                   `json:"tfa_issuer"`
	MaxPasswordLength int                      `json:"max_password_length"`
	CryptoWorkers     int                      `json:"crypto_workers"`
	DecryptCacheTTL   timex.Duration           `json:"decrypt_cache_ttl"`
	DecryptCacheSize  int                      `json:"decrypt_cache_size"`
	RateLimits        map[string]JsonRateLimit `json:"rate_limits"`
	LogBackend        string                   `json:"log_backend"`
	LogLevel          string                   `json:"log_level"`
	LogDev            bool                     `json:"log_dev"`
}

// parseJson overlays values from the JSON file at path onto config.
// An empty path loads nothing.
func parseJson(config *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := toJson(config)
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	config.EndpointAddrHTTP = c.EndpointAddrHTTP
	config.StoreDriver = c.StoreDriver
	config.DatabaseDSN = c.DatabaseDSN
	config.SecretKey = c.SecretKey
	config.KeyLeaseTTL = c.KeyLeaseTTL.Duration
	config.LoginTokenTTL = c.LoginTokenTTL.Duration
	config.AccessTokenTTL = c.AccessTokenTTL.Duration
	config.SweepInterval = c.SweepInterval.Duration
	config.RSAKeyBits = c.RSAKeyBits
	config.BcryptCost = c.BcryptCost
	config.TfaIssuer = c.TfaIssuer
	config.MaxPasswordLength = c.MaxPasswordLength
	config.CryptoWorkers = c.CryptoWorkers
	config.DecryptCacheTTL = c.DecryptCacheTTL.Duration
	config.DecryptCacheSize = c.DecryptCacheSize
	config.LogBackend = c.LogBackend
	config.LogLevel = c.LogLevel
	config.LogDev = c.LogDev

	config.RateLimits = make(map[string]RateLimit, len(c.RateLimits))
	for name, rl := range c.RateLimits {
		config.RateLimits[name] = RateLimit{Points: rl.Points, Window: rl.Window.Duration}
	}
	return nil
}

func toJson(config *Config) *JsonConfig {
	c := &JsonConfig{
		EndpointAddrHTTP:  config.EndpointAddrHTTP,
		StoreDriver:       config.StoreDriver,
		DatabaseDSN:       config.DatabaseDSN,
		SecretKey:         config.SecretKey,
		KeyLeaseTTL:       timex.Duration{Duration: config.KeyLeaseTTL},
		LoginTokenTTL:     timex.Duration{Duration: config.LoginTokenTTL},
		AccessTokenTTL:    timex.Duration{Duration: config.AccessTokenTTL},
		SweepInterval:     timex.Duration{Duration: config.SweepInterval},
		RSAKeyBits:        config.RSAKeyBits,
		BcryptCost:        config.BcryptCost,
		TfaIssuer:         config.TfaIssuer,
		MaxPasswordLength: config.MaxPasswordLength,
		CryptoWorkers:     config.CryptoWorkers,
		DecryptCacheTTL:   timex.Duration{Duration: config.DecryptCacheTTL},
		DecryptCacheSize:  config.DecryptCacheSize,
		RateLimits:        make(map[string]JsonRateLimit, len(config.RateLimits)),
		LogBackend:        config.LogBackend,
		LogLevel:          config.LogLevel,
		LogDev:            config.LogDev,
	}
	for name, rl := range config.RateLimits {
		c.RateLimits[name] = JsonRateLimit{Points: rl.Points, Window: timex.Duration{Duration: rl.Window}}
	}
	return c
}
