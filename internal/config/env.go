package config

import (
	"os"
	"strconv"
	"strings"
)

const (
	EnvLogLevel        = "SESSGRAPH_LOG_LEVEL"
	EnvLogFormat       = "SESSGRAPH_LOG_FORMAT"
	EnvEcho            = "SESSGRAPH_ECHO"
	EnvCheckInvariants = "SESSGRAPH_CHECK_INVARIANTS"
)

// LoadFromEnv applies SESSGRAPH_* overrides. Unset or unparsable values leave
// the config untouched.
func LoadFromEnv(cfg Config) Config {
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}
	if v, ok := parseBool(os.Getenv(EnvEcho)); ok {
		cfg.Interpreter.Echo = v
	}
	if v, ok := parseBool(os.Getenv(EnvCheckInvariants)); ok {
		cfg.Interpreter.CheckInvariants = v
	}
	return cfg
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
