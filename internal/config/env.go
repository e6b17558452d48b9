package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables overriding file and default values.
const (
	EnvLabelSelector           = "WEBPAGE_LABEL_SELECTOR"
	EnvErrorMarker             = "WEBPAGE_ERROR_MARKER"
	EnvMaxConcurrentReconciles = "WEBPAGE_MAX_CONCURRENT_RECONCILES"
	EnvNamespace               = "WEBPAGE_NAMESPACE"
	EnvSyncPeriod              = "WEBPAGE_SYNC_PERIOD"
	EnvLeaderElection          = "WEBPAGE_LEADER_ELECTION"
)

// ApplyEnv overlays the WEBPAGE_* environment variables.
// If a variable is not set or invalid, the current value is kept.
//
// Environment Variables:
//   - WEBPAGE_LABEL_SELECTOR
//   - WEBPAGE_ERROR_MARKER (set to an empty string to disable)
//   - WEBPAGE_MAX_CONCURRENT_RECONCILES
//   - WEBPAGE_NAMESPACE
//   - WEBPAGE_SYNC_PERIOD (e.g. 10m)
//   - WEBPAGE_LEADER_ELECTION (true/false)
func (c *Config) ApplyEnv() {
	if val, ok := os.LookupEnv(EnvLabelSelector); ok {
		c.LabelSelector = val
	}
	if val, ok := os.LookupEnv(EnvErrorMarker); ok {
		c.ErrorMarker = val
	}
	if val, ok := os.LookupEnv(EnvNamespace); ok {
		c.Namespace = val
	}
	c.MaxConcurrentReconciles = parseInt(EnvMaxConcurrentReconciles, c.MaxConcurrentReconciles)
	c.SyncPeriod = parseDuration(EnvSyncPeriod, c.SyncPeriod)
	c.Manager.LeaderElection = parseBool(EnvLeaderElection, c.Manager.LeaderElection)
}

// parseDuration parses a duration from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseDuration(envVar string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}

	return d
}

// parseInt parses an integer from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseInt(envVar string, defaultVal int) int {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return i
}

// parseBool parses a boolean from an environment variable.
// If the variable is not set or parsing fails, the default value is returned.
func parseBool(envVar string, defaultVal bool) bool {
	val := os.Getenv(envVar)
	if val == "" {
		return defaultVal
	}

	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}

	return b
}
