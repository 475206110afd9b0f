// gitrelay
//
// Authenticated HTTP relay services in front of the GitHub and GitLab REST
// APIs. One binary, one flavor per process.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "gitrelay",
	Short: "gitrelay - Git hosting provider relay",
	Long: `gitrelay exposes a small authenticated HTTP API that translates
simplified requests into calls against a git hosting provider's REST API.

  gitrelay serve github    Start the GitHub-flavor relay
  gitrelay serve gitlab    Start the GitLab-flavor relay`,
	Version: version,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
