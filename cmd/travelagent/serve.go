package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/daemon/components"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the travel assistant service",
	Long:  `Starts the HTTP API, the voice websocket and any enabled chat adapters, and runs until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		forceClean, _ := cmd.Flags().GetBool("force-clean-locks")

		if cfg == nil {
			return fmt.Errorf("config not loaded")
		}

		instanceID := daemon.InstanceID(cfg.Server.Port)
		daemonMgr, err := daemon.NewDaemon(instanceID, cfg)
		if err != nil {
			return fmt.Errorf("failed to create daemon manager: %w", err)
		}
		daemonMgr.SetForceCleanup(forceClean)

		if _, err := components.Register(daemonMgr, cfg, components.StackOptions{
			Version: version,
			HTTP:    true,
		}); err != nil {
			return err
		}

		slog.Info("Travel assistant starting up...", "port", cfg.Server.Port, "instance", instanceID)
		err = daemonMgr.Start(context.Background())
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				slog.Info("Travel assistant stopped gracefully", "instance", instanceID)
				return nil
			}
			return fmt.Errorf("daemon failed: %w", err)
		}

		slog.Info("Travel assistant stopped gracefully", "instance", instanceID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().Bool("force-clean-locks", false, "Force cleanup of stale lock files (default: warn-only)")
}
