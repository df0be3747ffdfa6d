package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	var c Config
	c.LoadDefaults()

	assert.Equal(t, ":8080", c.EndpointAddrHTTP)
	assert.Equal(t, StoreDriverPostgres, c.StoreDriver)
	assert.Equal(t, 30*time.Second, c.SweepInterval)
	assert.Equal(t, 2048, c.RSAKeyBits)
	assert.Equal(t, 10, c.BcryptCost)
	assert.Equal(t, 128, c.MaxPasswordLength)
	assert.Equal(t, RateLimit{Points: 2, Window: time.Minute}, c.RateLimits[LimitKeyLease])
	assert.Equal(t, RateLimit{Points: 1, Window: time.Minute}, c.RateLimits[LimitRegister])
	assert.Equal(t, RateLimit{Points: 5, Window: time.Minute}, c.RateLimits[LimitTfaCheck])
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{name: "defaults ok", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.StoreDriver = "redis" }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *Config) { c.DatabaseDSN = "" }, wantErr: true},
		{name: "memory without dsn", mutate: func(c *Config) {
			c.StoreDriver = StoreDriverMemory
			c.DatabaseDSN = ""
		}},
		{name: "empty secret", mutate: func(c *Config) { c.SecretKey = "" }, wantErr: true},
		{name: "zero lease ttl", mutate: func(c *Config) { c.KeyLeaseTTL = 0 }, wantErr: true},
		{name: "zero sweep", mutate: func(c *Config) { c.SweepInterval = 0 }, wantErr: true},
		{name: "bad rate limit", mutate: func(c *Config) {
			c.RateLimits[LimitLogin] = RateLimit{Points: 0, Window: time.Minute}
		}, wantErr: true},
		{
			name: "decrypt cache ttl clamped to login ttl",
			mutate: func(c *Config) {
				c.LoginTokenTTL = 10 * time.Second
				c.DecryptCacheTTL = time.Hour
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 10*time.Second, c.DecryptCacheTTL)
			},
		},
		{
			name:   "workers floor",
			mutate: func(c *Config) { c.CryptoWorkers = 0 },
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 1, c.CryptoWorkers)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.LoadDefaults()
			tt.mutate(c)

			err := c.Validate()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if tt.check != nil {
				tt.check(t, c)
			}
		})
	}
}

func TestLoadConfig_Precedence(t *testing.T) {
	orig := lookupEnv
	t.Cleanup(func() { lookupEnv = orig })
	lookupEnv = mapLookup(map[string]string{
		"CLIPHER_ADDRESS":    ":7000",
		"CLIPHER_STORE":      "memory",
		"CLIPHER_SECRET_KEY": "from-env",
	})

	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"endpoint_addr_http": ":7100", "sweep_interval": "10s"}`), 0o600))

	cfg, err := LoadConfig([]string{"-c", path, "-env", filepath.Join(dir, "missing.env"), "-a", ":7200"})
	require.NoError(t, err)

	assert.Equal(t, ":7200", cfg.EndpointAddrHTTP, "flags override json and env")
	assert.Equal(t, 10*time.Second, cfg.SweepInterval, "json overrides defaults")
	assert.Equal(t, StoreDriverMemory, cfg.StoreDriver, "env overrides defaults")
	assert.Equal(t, "from-env", cfg.SecretKey)
}

func TestLoadConfig_InvalidFlag(t *testing.T) {
	orig := lookupEnv
	t.Cleanup(func() { lookupEnv = orig })
	lookupEnv = mapLookup(nil)

	_, err := LoadConfig([]string{"-workers", "many"})
	assert.Error(t, err)
}

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}
