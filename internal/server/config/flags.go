package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/clipher/internal/flagx"
)

var serverFlags = []string{
	"-a", "-store", "-d", "-s",
	"-lease-ttl", "-login-ttl", "-access-ttl", "-sweep",
	"-rsa-bits", "-bcrypt-cost", "-workers", "-issuer",
	"-log", "-log-level", "-log-dev",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string            HTTP bind address (e.g., ":8080")
//	-store string        store driver: postgres | memory
//	-d string            PostgreSQL DSN
//	-s string            access token HMAC secret
//	-lease-ttl duration  key lease lifetime
//	-login-ttl duration  login token lifetime
//	-access-ttl duration access token lifetime
//	-sweep duration      sweeper interval
//	-rsa-bits int        RSA modulus size
//	-bcrypt-cost int     bcrypt cost
//	-workers int         crypto worker pool size
//	-issuer string       TOTP issuer name
//	-log string          logger backend: slog | zap
//	-log-level string    debug | info | warn | error
//	-log-dev             zap development output
//
// Args are filtered with flagx.FilterArgs first so -c/-config/-env and
// flags of other components do not collide.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.StoreDriver, "store", config.StoreDriver, "store driver (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	fs.DurationVar(&config.KeyLeaseTTL, "lease-ttl", config.KeyLeaseTTL, "key lease lifetime")
	fs.DurationVar(&config.LoginTokenTTL, "login-ttl", config.LoginTokenTTL, "login token lifetime")
	fs.DurationVar(&config.AccessTokenTTL, "access-ttl", config.AccessTokenTTL, "access token lifetime")
	fs.DurationVar(&config.SweepInterval, "sweep", config.SweepInterval, "expiration sweep interval")

	fs.IntVar(&config.RSAKeyBits, "rsa-bits", config.RSAKeyBits, "RSA key size")
	fs.IntVar(&config.BcryptCost, "bcrypt-cost", config.BcryptCost, "bcrypt cost")
	fs.IntVar(&config.CryptoWorkers, "workers", config.CryptoWorkers, "crypto worker pool size")
	fs.StringVar(&config.TfaIssuer, "issuer", config.TfaIssuer, "TOTP issuer")

	fs.StringVar(&config.LogBackend, "log", config.LogBackend, "logger backend (slog|zap)")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.BoolVar(&config.LogDev, "log-dev", config.LogDev, "development logging")

	return fs.Parse(args)
}
