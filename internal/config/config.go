package config

import "time"

// Default values.
const (
	DefaultLabelSelector           = "!low-level"
	DefaultErrorMarker             = "error"
	DefaultMaxConcurrentReconciles = 1
	DefaultMetricsBindAddress      = ":8080"
	DefaultHealthProbeBindAddress  = ":8081"
	DefaultLeaderElectionID        = "webpage-operator"
)

// Config holds the operator configuration.
type Config struct {
	// LabelSelector restricts which WebPages and secondaries the operator handles.
	LabelSelector string `yaml:"labelSelector"`

	// ErrorMarker makes a pass fail when the page HTML contains it. Empty disables it.
	ErrorMarker string `yaml:"errorMarker"`

	// MaxConcurrentReconciles is the number of pages reconciled in parallel.
	MaxConcurrentReconciles int `yaml:"maxConcurrentReconciles"`

	// Namespace limits the watched namespace. Empty watches all namespaces.
	Namespace string `yaml:"namespace"`

	// SyncPeriod is the resync interval of the informer cache. Zero keeps
	// the controller-runtime default.
	SyncPeriod time.Duration `yaml:"syncPeriod"`

	Manager ManagerConfig `yaml:"manager"`
}

// ManagerConfig holds controller manager settings.
type ManagerConfig struct {
	MetricsBindAddress     string `yaml:"metricsBindAddress"`
	HealthProbeBindAddress string `yaml:"healthProbeBindAddress"`
	LeaderElection         bool   `yaml:"leaderElection"`
	LeaderElectionID       string `yaml:"leaderElectionID"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		LabelSelector:           DefaultLabelSelector,
		ErrorMarker:             DefaultErrorMarker,
		MaxConcurrentReconciles: DefaultMaxConcurrentReconciles,
		Manager: ManagerConfig{
			MetricsBindAddress:     DefaultMetricsBindAddress,
			HealthProbeBindAddress: DefaultHealthProbeBindAddress,
			LeaderElection:         true,
			LeaderElectionID:       DefaultLeaderElectionID,
		},
	}
}
