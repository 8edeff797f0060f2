package main

import (
	"fmt"
	"os"

	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/config"
	"github.com/shahidmumtazaieng/full-Stack-Travel-Asistent-Agent-Livekit/internal/logger"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:     "travelagent",
	Short:   "Voice-enabled travel assistant",
	Long:    `travelagent answers flight and hotel questions over HTTP, a voice websocket, chat platforms and the terminal.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cmd)
		if err != nil {
			return err
		}

		logger.Setup(cfg.Server.LogLevel)
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.travelagent/config.yaml)")
	rootCmd.PersistentFlags().String("server.log_level", config.DefaultServerLogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Int("server.port", config.DefaultServerPort, "server port")
}
