// Package config loads runtime configuration for the clipher CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Command-line flags, which override earlier values.
//
// # JSON schema
//
// Durations use timex.Duration, so they can be strings like "10s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "https://clipher.example.com",
//	  "profile_path": "/home/alice/.config/clipher/profile.db",
//	  "request_timeout": "10s"
//	}
package config
