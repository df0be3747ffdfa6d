package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, c *Config)
		wantErr bool
	}{
		{
			name: "all flags",
			args: []string{
				"-a", "127.0.0.1:9090", "-store", "memory", "-d", "db", "-s", "secret",
				"-lease-ttl", "1m", "-login-ttl=2m", "-access-ttl", "1h", "-sweep", "5s",
				"-rsa-bits", "1024", "-bcrypt-cost", "4", "-workers", "8", "-issuer", "acme",
				"-log", "zap", "-log-level", "debug",
			},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "127.0.0.1:9090", c.EndpointAddrHTTP)
				assert.Equal(t, "memory", c.StoreDriver)
				assert.Equal(t, "db", c.DatabaseDSN)
				assert.Equal(t, "secret", c.SecretKey)
				assert.Equal(t, time.Minute, c.KeyLeaseTTL)
				assert.Equal(t, 2*time.Minute, c.LoginTokenTTL)
				assert.Equal(t, time.Hour, c.AccessTokenTTL)
				assert.Equal(t, 5*time.Second, c.SweepInterval)
				assert.Equal(t, 1024, c.RSAKeyBits)
				assert.Equal(t, 4, c.BcryptCost)
				assert.Equal(t, 8, c.CryptoWorkers)
				assert.Equal(t, "acme", c.TfaIssuer)
				assert.Equal(t, "zap", c.LogBackend)
				assert.Equal(t, "debug", c.LogLevel)
			},
		},
		{
			name: "foreign flags ignored",
			args: []string{"-c", "cfg.json", "-x", "y", "-a", ":1"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ":1", c.EndpointAddrHTTP)
			},
		},
		{name: "bad duration", args: []string{"-sweep", "often"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &Config{}
			c.LoadDefaults()

			err := parseFlags(c, tt.args)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}
