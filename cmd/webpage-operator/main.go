// Package main is the entry point for the webpage-operator.
//
// The operator keeps a ConfigMap, Deployment and Service in sync with every
// WebPage resource in the cluster.
//
// For detailed usage information, run:
//
//	webpage-operator --help
package main

import (
	"fmt"
	"os"

	ctrl "sigs.k8s.io/controller-runtime"

	"github.com/imamik/webpage-operator/cmd/webpage-operator/commands"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)
	if err := commands.Root().ExecuteContext(ctrl.SetupSignalHandler()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
