package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/bezmoradi/keygrab/internal/app"
	"github.com/bezmoradi/keygrab/internal/config"
	"github.com/bezmoradi/keygrab/internal/logging"
	"github.com/bezmoradi/keygrab/internal/version"
)

const versionCheckTimeout = 3 * time.Second

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Tests create fresh instances.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygrab",
		Short: "System-wide keyboard shortcuts for Linux",
		Long: `keygrab watches every keyboard through evdev and runs commands when a
configured shortcut is pressed. Matched key events are swallowed; everything
else is passed on through a virtual keyboard.

Running without a subcommand starts the daemon.`,
		SilenceUsage:  true,
		Version:       version.VERSION,
		RunE:          runDaemon,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if lvl, err := cmd.Flags().GetString("log-level"); err == nil && cmd.Flags().Changed("log-level") {
				logging.L.SetLevel(logging.ParseLevel(lvl))
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/keygrab/config.toml)")
	cmd.PersistentFlags().String("log-level", "info", `log level ("debug", "info", "warn", "error")`)
	cmd.Flags().String("device", "", "only use this input device (path, by-id link or event name)")
	cmd.Flags().Bool("grab", true, "grab keyboards exclusively so shortcut keys don't reach other applications")
	cmd.Flags().Bool("hotplug", true, "pick up keyboards plugged in while running")
	cmd.Flags().Bool("push-to-talk", true, "hold the primary shortcut for a session instead of toggling")

	cmd.AddCommand(
		newDevicesCmd(),
		newProbeCmd(),
		newMonitorCmd(),
		newStatsCmd(),
		newConfigCmd(),
		newVersionCmd(),
	)
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}
	logging.L.SetLevel(logging.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	notifyIfOutdated(cmd)

	daemon := app.NewDaemon(cfg, app.WithOutput(cmd.OutOrStdout()))
	if err := daemon.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize daemon: %w", err)
	}
	return daemon.Run(cmd.Context())
}

func notifyIfOutdated(cmd *cobra.Command) {
	ctx, cancel := context.WithTimeout(cmd.Context(), versionCheckTimeout)
	defer cancel()

	current, newVersion := version.CheckVersion(ctx)
	if current {
		return
	}
	fmt.Fprintf(cmd.ErrOrStderr(), `The newest version of keygrab is %v but the installed version on your system is %v.

%v

To get the latest features and likely bugfixes, install it with 'go install github.com/bezmoradi/keygrab/cmd/keygrab@main'.

`, newVersion, version.VERSION, version.UPDATE_MESSAGE)
}
