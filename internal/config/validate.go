package config

import (
	"fmt"

	"k8s.io/apimachinery/pkg/labels"
)

// Validate checks the configuration for common errors and returns a detailed error if validation fails.
func (c *Config) Validate() error {
	if _, err := c.Selector(); err != nil {
		return fmt.Errorf("invalid labelSelector %q: %w", c.LabelSelector, err)
	}
	if c.MaxConcurrentReconciles < 1 {
		return fmt.Errorf("maxConcurrentReconciles must be at least 1, got %d", c.MaxConcurrentReconciles)
	}
	if c.SyncPeriod < 0 {
		return fmt.Errorf("syncPeriod must not be negative, got %s", c.SyncPeriod)
	}
	if c.Manager.LeaderElection && c.Manager.LeaderElectionID == "" {
		return fmt.Errorf("manager.leaderElectionID is required when leader election is enabled")
	}
	return nil
}

// Selector returns the parsed label selector. An empty selector matches everything.
func (c *Config) Selector() (labels.Selector, error) {
	return labels.Parse(c.LabelSelector)
}
