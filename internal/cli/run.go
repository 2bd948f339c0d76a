package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tutu-network/gossipd/internal/daemon"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the gossipd daemon",
	Long:  "Bind the SWIM and gossip ports, join any configured seeds, and block until interrupted.",
	RunE:  runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	srv, err := daemon.New(cfg)
	if err != nil {
		return fmt.Errorf("build daemon: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return srv.Run(ctx)
}

func loadConfig() (daemon.Config, error) {
	if configPath == "" {
		return daemon.DefaultConfig(), nil
	}
	return daemon.LoadConfig(configPath)
}
