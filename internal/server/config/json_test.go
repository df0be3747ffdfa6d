package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	t.Run("loads from json", func(t *testing.T) {
		path := writeTempJSON(t, `{
			"endpoint_addr_http": "www.example:9000",
			"store_driver": "memory",
			"secret_key": "my_secret_key",
			"key_lease_ttl": "2m",
			"login_token_ttl": 60000000000,
			"rate_limits": {"register": {"points": 3, "window": "30s"}}
		}`)

		cfg := &Config{}
		cfg.LoadDefaults()
		require.NoError(t, parseJson(cfg, path))

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, StoreDriverMemory, cfg.StoreDriver)
		assert.Equal(t, "my_secret_key", cfg.SecretKey)
		assert.Equal(t, 2*time.Minute, cfg.KeyLeaseTTL)
		assert.Equal(t, time.Minute, cfg.LoginTokenTTL)
		assert.Equal(t, RateLimit{Points: 3, Window: 30 * time.Second}, cfg.RateLimits[LimitRegister])
		// untouched keys keep their previous values
		assert.Equal(t, RateLimit{Points: 2, Window: time.Minute}, cfg.RateLimits[LimitKeyLease])
		assert.Equal(t, 2048, cfg.RSAKeyBits)
	})

	t.Run("empty path → no changes", func(t *testing.T) {
		cfg := &Config{EndpointAddrHTTP: "defaults:1234"}
		require.NoError(t, parseJson(cfg, ""))
		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
	})

	t.Run("invalid JSON → error", func(t *testing.T) {
		path := writeTempJSON(t, `{ this is not valid json`)
		cfg := &Config{}
		assert.Error(t, parseJson(cfg, path))
	})

	t.Run("missing file → error", func(t *testing.T) {
		cfg := &Config{}
		assert.Error(t, parseJson(cfg, filepath.Join(t.TempDir(), "nope.json")))
	})
}
