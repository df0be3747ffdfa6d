package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CLIPHER_"

var lookupEnv = os.LookupEnv

// loadDotEnv exports variables from a dotenv file into the process
// environment. Missing files are ignored; variables already set win.
func loadDotEnv(path string) {
	if path == "" {
		_ = godotenv.Load()
		return
	}
	_ = godotenv.Load(path)
}

// parseEnv overlays CLIPHER_* variables onto config.
func parseEnv(config *Config, lookup func(string) (string, bool)) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(envPrefix + name); ok {
			*dst = v
		}
	}
	num := func(name string, dst *int) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
		return nil
	}
	dur := func(name string, dst *time.Duration) error {
		v, ok := lookup(envPrefix + name)
		if !ok {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = d
		return nil
	}

	str("ADDRESS", &config.EndpointAddrHTTP)
	str("STORE", &config.StoreDriver)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("SECRET_KEY", &config.SecretKey)
	str("TFA_ISSUER", &config.TfaIssuer)
	str("LOG_BACKEND", &config.LogBackend)
	str("LOG_LEVEL", &config.LogLevel)

	if v, ok := lookup(envPrefix + "LOG_DEV"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sLOG_DEV: %w", envPrefix, err)
		}
		config.LogDev = b
	}

	for name, dst := range map[string]*time.Duration{
		"KEY_LEASE_TTL":     &config.KeyLeaseTTL,
		"LOGIN_TOKEN_TTL":   &config.LoginTokenTTL,
		"ACCESS_TOKEN_TTL":  &config.AccessTokenTTL,
		"SWEEP_INTERVAL":    &config.SweepInterval,
		"DECRYPT_CACHE_TTL": &config.DecryptCacheTTL,
	} {
		if err := dur(name, dst); err != nil {
			return err
		}
	}

	for name, dst := range map[string]*int{
		"RSA_KEY_BITS":        &config.RSAKeyBits,
		"BCRYPT_COST":         &config.BcryptCost,
		"MAX_PASSWORD_LENGTH": &config.MaxPasswordLength,
		"CRYPTO_WORKERS":      &config.CryptoWorkers,
		"DECRYPT_CACHE_SIZE":  &config.DecryptCacheSize,
	} {
		if err := num(name, dst); err != nil {
			return err
		}
	}

	return nil
}
