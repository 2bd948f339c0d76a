// Package cli is the gossipd command-line entrypoint: a cobra root command
// plus "run" and "member" subcommands, wired from cmd/gossipd/main.go.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "gossipd",
	Short: "Cluster membership and rumor-dissemination daemon",
	Long: `gossipd runs a SWIM failure detector and an epidemic gossip engine on
top of it: cluster membership, service ownership, service configuration and
files, and leader election, all disseminated without a central coordinator.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a gossipd TOML config file (built-in defaults used if omitted)")
}

// Execute runs the root command, exiting the process on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
