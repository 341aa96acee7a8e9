// Package config loads PhoneBT's runtime configuration from command-line
// flags and environment variables.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the PhoneBT client configuration.
type Config struct {
	// Transport names the bttransport.Transport implementation ("sim" is
	// the in-memory SimTransport). The CLI wires up SimTransport whatever
	// the value is; the value is only shown in the startup banner.
	Transport string

	ConnectTimeout time.Duration
	EventBusBuffer int
	LogLevel       string
}

// Load parses flags and environment variables into a Config. Flags are
// parsed first; a set environment variable then overrides the flag value,
// whether that value is a default or was passed explicitly.
func Load() *Config {
	cfg := &Config{
		ConnectTimeout: 15 * time.Second,
		EventBusBuffer: 64,
	}

	flag.StringVar(&cfg.Transport, "transport", "sim", "Bluetooth transport to use (sim)")
	flag.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "SLC connect timeout")
	flag.IntVar(&cfg.EventBusBuffer, "bus-buffer", cfg.EventBusBuffer, "per-subscriber event bus buffer size")
	flag.StringVar(&cfg.LogLevel, "loglevel", "info", "Log level (debug, info, warn, error)")

	flag.Parse()

	if v := os.Getenv("PHONEBT_TRANSPORT"); v != "" {
		cfg.Transport = v
	}
	if v := os.Getenv("PHONEBT_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.ConnectTimeout = d
		}
	}
	if v := os.Getenv("PHONEBT_BUS_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EventBusBuffer = n
		}
	}
	if v := os.Getenv("PHONEBT_LOGLEVEL"); v != "" {
		cfg.LogLevel = v
	}

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))

	return cfg
}
