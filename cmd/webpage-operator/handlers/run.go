// Package handlers implements the business logic behind the CLI commands.
package handlers

import (
	"context"
	"fmt"

	"k8s.io/apimachinery/pkg/runtime"
	utilruntime "k8s.io/apimachinery/pkg/util/runtime"
	clientgoscheme "k8s.io/client-go/kubernetes/scheme"
	ctrl "sigs.k8s.io/controller-runtime"
	"sigs.k8s.io/controller-runtime/pkg/cache"
	"sigs.k8s.io/controller-runtime/pkg/healthz"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"
	metricsserver "sigs.k8s.io/controller-runtime/pkg/metrics/server"

	webpagev1alpha1 "github.com/imamik/webpage-operator/api/v1alpha1"
	"github.com/imamik/webpage-operator/internal/config"
	"github.com/imamik/webpage-operator/internal/operator/webpage"
)

var (
	scheme   = runtime.NewScheme()
	setupLog = ctrl.Log.WithName("setup")
)

func init() {
	utilruntime.Must(clientgoscheme.AddToScheme(scheme))
	utilruntime.Must(webpagev1alpha1.AddToScheme(scheme))
}

// Run loads the configuration, builds the controller manager and blocks until
// ctx is cancelled or the manager fails.
func Run(ctx context.Context, configPath string, zapOpts *zap.Options) error {
	ctrl.SetLogger(zap.New(zap.UseFlagOptions(zapOpts)))

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	restConfig, err := ctrl.GetConfig()
	if err != nil {
		return fmt.Errorf("failed to get kubeconfig: %w", err)
	}

	setupLog.Info("starting webpage-operator",
		"labelSelector", cfg.LabelSelector,
		"namespace", cfg.Namespace,
		"maxConcurrentReconciles", cfg.MaxConcurrentReconciles,
	)

	mgr, err := ctrl.NewManager(restConfig, managerOptions(cfg))
	if err != nil {
		return fmt.Errorf("unable to create manager: %w", err)
	}

	if err := webpage.Setup(mgr, cfg); err != nil {
		return fmt.Errorf("unable to create controller %s: %w", webpage.ControllerName, err)
	}

	if err := mgr.AddHealthzCheck("healthz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up health check: %w", err)
	}
	if err := mgr.AddReadyzCheck("readyz", healthz.Ping); err != nil {
		return fmt.Errorf("unable to set up ready check: %w", err)
	}

	setupLog.Info("starting manager")
	if err := mgr.Start(ctx); err != nil {
		return fmt.Errorf("problem running manager: %w", err)
	}
	return nil
}

// managerOptions maps the operator configuration to controller manager options.
func managerOptions(cfg *config.Config) ctrl.Options {
	opts := ctrl.Options{
		Scheme: scheme,
		Metrics: metricsserver.Options{
			BindAddress: cfg.Manager.MetricsBindAddress,
		},
		HealthProbeBindAddress: cfg.Manager.HealthProbeBindAddress,
		LeaderElection:         cfg.Manager.LeaderElection,
		LeaderElectionID:       cfg.Manager.LeaderElectionID,
		// Requires the binary to exit as soon as the manager stops.
		LeaderElectionReleaseOnCancel: true,
	}
	if cfg.SyncPeriod > 0 {
		period := cfg.SyncPeriod
		opts.Cache.SyncPeriod = &period
	}
	if cfg.Namespace != "" {
		opts.Cache.DefaultNamespaces = map[string]cache.Config{cfg.Namespace: {}}
	}
	return opts
}
