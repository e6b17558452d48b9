package commands

import (
	"flag"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"sigs.k8s.io/controller-runtime/pkg/log/zap"

	"github.com/imamik/webpage-operator/cmd/webpage-operator/handlers"
)

// Run returns the command that starts the controller manager.
//
// Optional flags:
//
//	--config, -c: Path to operator configuration YAML file
//	--zap-*:      Logger settings (development mode, level, encoder)
//
// Environment variables override file values, see internal/config.
func Run() *cobra.Command {
	var configPath string

	zapOpts := defaultZapOptions()
	zapFlags := flag.NewFlagSet("zap", flag.ContinueOnError)
	zapOpts.BindFlags(zapFlags)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the operator",
		Long: `Run the WebPage operator.

The operator watches WebPage resources and maintains an HTML ConfigMap,
an nginx Deployment and a Service for each of them.

Examples:
  # Run with defaults against the current kubeconfig context
  webpage-operator run

  # Run with a configuration file and debug logging
  webpage-operator run -c operator.yaml --zap-devel`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Run(cmd.Context(), configPath, &zapOpts)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().AddGoFlagSet(zapFlags)

	return cmd
}

// defaultZapOptions enables development logging when DEBUG=true or when
// stderr is a terminal. The --zap-* flags override it.
func defaultZapOptions() zap.Options {
	return zap.Options{
		Development: os.Getenv("DEBUG") == "true" || isatty.IsTerminal(os.Stderr.Fd()),
	}
}
