// Package commands defines the CLI command structure and flag bindings.
//
// Command execution is delegated to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the webpage-operator CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "webpage-operator",
		Short:        "Serve WebPage resources with nginx",
		SilenceUsage: true,
	}

	cmd.AddCommand(Run())
	cmd.AddCommand(Version())

	return cmd
}
