package config

import (
	"flag"
	"io"
)

// parseFlags populates cfg from command-line flags and keeps the
// positional arguments in cfg.Command.
//
// Supported flags:
//
//	-a string      server URL or host:port
//	-p string      profile database path
//	-t duration    request timeout
//	-c / -config   JSON config file (consumed by parseJson)
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("clipher", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "server URL or host:port")
	fs.StringVar(&cfg.ProfilePath, "p", cfg.ProfilePath, "profile database path")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")

	var ignored string
	fs.StringVar(&ignored, "c", "", "JSON config file")
	fs.StringVar(&ignored, "config", "", "JSON config file")

	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg.Command = fs.Args()
	return nil
}
