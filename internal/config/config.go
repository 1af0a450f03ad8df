// Package config reads the node-level settings spec section 6 defines:
// VAST_DIR and VAST_LOG_LEVEL, overridable per-subcommand by flags exactly
// as cmd/bio-fusion reads its environment-provided defaults before parsing
// its own flag.FlagSet.
package config

import (
	"os"
	"strconv"
)

// Config is the node-level configuration read by every cmd/vast subcommand.
type Config struct {
	Dir      string // state directory; VAST_DIR
	LogLevel int    // v.io/x/lib/vlog verbosity level; VAST_LOG_LEVEL
}

// FromEnv reads VAST_DIR and VAST_LOG_LEVEL, the environment overrides spec
// section 6 names. An unset or unparsable VAST_LOG_LEVEL defaults to 0.
func FromEnv() Config {
	level := 0
	if s := os.Getenv("VAST_LOG_LEVEL"); s != "" {
		if v, err := strconv.Atoi(s); err == nil {
			level = v
		}
	}
	return Config{
		Dir:      os.Getenv("VAST_DIR"),
		LogLevel: level,
	}
}
