package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jsherman999/liveserve/internal/config"
	"github.com/jsherman999/liveserve/internal/daemon"
	"github.com/jsherman999/liveserve/internal/logging"
	"github.com/spf13/cobra"
)

// Version is overridden at build time with -ldflags "-X ...cli.Version=...".
var Version = "dev"

func Main() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	var cfgPath string

	root := &cobra.Command{
		Use:          "liveserve",
		Short:        "Serve the current directory and reload the browser when files change",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level)

			d, err := daemon.New(cfg, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := d.Run(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "server stopped")
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (yaml)")
	root.PersistentFlags().String("root", ".", "directory to serve and watch")

	f := root.Flags()
	f.Int("port", 8000, "port to listen on")
	f.String("host", "", "interface to bind (empty for all)")
	f.Bool("notify", false, "use filesystem notifications to trigger scans early")
	f.String("log-level", "info", "log level: debug|info|warn|error")

	root.AddCommand(fingerprintCmd(&cfgPath))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "liveserve", Version)
		},
	}
}
