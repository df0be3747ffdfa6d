package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnv(t *testing.T) {
	base := Config{}
	base.LoadDefaults()

	tests := []struct {
		name    string
		env     map[string]string
		want    func(c *Config)
		wantErr bool
	}{
		{
			name: "no variables",
			env:  nil,
			want: func(*Config) {},
		},
		{
			name: "strings durations ints",
			env: map[string]string{
				"CLIPHER_DATABASE_DSN":    "postgres://x",
				"CLIPHER_LOGIN_TOKEN_TTL": "90s",
				"CLIPHER_BCRYPT_COST":     "12",
				"CLIPHER_LOG_DEV":         "true",
				"CLIPHER_LOG_BACKEND":     "zap",
			},
			want: func(c *Config) {
				c.DatabaseDSN = "postgres://x"
				c.LoginTokenTTL = 90 * time.Second
				c.BcryptCost = 12
				c.LogDev = true
				c.LogBackend = "zap"
			},
		},
		{name: "bad duration", env: map[string]string{"CLIPHER_SWEEP_INTERVAL": "soon"}, wantErr: true},
		{name: "bad int", env: map[string]string{"CLIPHER_RSA_KEY_BITS": "big"}, wantErr: true},
		{name: "bad bool", env: map[string]string{"CLIPHER_LOG_DEV": "maybe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base

			err := parseEnv(&got, mapLookup(tt.env))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			want := base
			tt.want(&want)
			assert.Empty(t, cmp.Diff(want, got))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CLIPHER_TEST_DOTENV=loaded\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CLIPHER_TEST_DOTENV") })

	loadDotEnv(path)

	assert.Equal(t, "loaded", os.Getenv("CLIPHER_TEST_DOTENV"))
}
