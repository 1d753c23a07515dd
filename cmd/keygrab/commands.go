package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/bezmoradi/keygrab/internal/app"
	"github.com/bezmoradi/keygrab/internal/config"
	"github.com/bezmoradi/keygrab/internal/device"
	"github.com/bezmoradi/keygrab/internal/hotkeys"
	"github.com/bezmoradi/keygrab/internal/keys"
	"github.com/bezmoradi/keygrab/internal/logging"
	"github.com/bezmoradi/keygrab/internal/metrics"
	"github.com/bezmoradi/keygrab/internal/terminal"
	"github.com/bezmoradi/keygrab/internal/version"
)

const monitorInterval = 50 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(dimStyle).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return titleStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
}

// newInspector returns a manager used only for device diagnostics.
func newInspector() *hotkeys.Manager {
	return hotkeys.NewManager(hotkeys.WithLogger(logging.Discard()))
}

func newDevicesCmd() *cobra.Command {
	var shortcut string
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List keyboards keygrab can use",
		RunE: func(cmd *cobra.Command, args []string) error {
			infos, err := newInspector().ListAvailableDevices(shortcut)
			if err != nil {
				return err
			}
			return printDevices(cmd.OutOrStdout(), infos, shortcut)
		},
	}
	cmd.Flags().StringVar(&shortcut, "shortcut", "", "only list devices that can emit every key of this combination")
	return cmd
}

func printDevices(w io.Writer, infos []device.Info, shortcut string) error {
	if len(infos) == 0 {
		msg := "No usable keyboards found."
		if shortcut != "" {
			msg = fmt.Sprintf("No usable keyboard can emit %s.", shortcut)
		}
		fmt.Fprintln(w, warnStyle.Render(msg))
		fmt.Fprintln(w, dimStyle.Render("Run 'keygrab probe' to check device permissions."))
		return nil
	}

	t := newTable("NAME", "PATH")
	for _, info := range infos {
		t.Row(info.Name, info.Path)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe",
		Short: "Check which input devices can be opened and grabbed",
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := newInspector().ProbeDeviceAccessibility()
			if err != nil {
				if hint := app.Hint(err); hint != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(hint))
				}
				return err
			}
			printReport(cmd.OutOrStdout(), report)
			return nil
		},
	}
}

func printReport(w io.Writer, report device.Report) {
	t := newTable("STATUS", "NAME", "PATH", "REASON")
	for _, info := range report.Accessible {
		t.Row(okStyle.Render("ok"), info.Name, info.Path, "")
	}
	for _, info := range report.Inaccessible {
		t.Row(errStyle.Render("denied"), info.Name, info.Path, info.Reason)
	}
	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "%d of %d devices accessible\n", len(report.Accessible), report.Total)

	if len(report.Inaccessible) > 0 && len(report.Accessible) == 0 {
		fmt.Fprintln(w, dimStyle.Render(app.Hint(device.ErrDeviceAccessDenied)))
	}
}

func newMonitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Show pressed keys and matching shortcuts live, without grabbing",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			m := hotkeys.NewManager(
				hotkeys.WithLogger(logging.Named("monitor")),
				hotkeys.WithDebounce(cfg.Debounce),
			)
			noop := func(context.Context) error { return nil }
			combinations := []string{cfg.PrimaryShortcut}
			for _, s := range cfg.Shortcuts {
				combinations = append(combinations, s.Shortcut)
			}
			for _, c := range combinations {
				if c == "" {
					continue
				}
				if _, err := m.Register(c, noop, noop); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := m.Start(ctx, hotkeys.StartOptions{DevicePath: cfg.DevicePath, Hotplug: cfg.Hotplug}); err != nil {
				if hint := app.Hint(err); hint != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render(hint))
				}
				return err
			}
			defer m.Stop()

			return monitor(ctx, m, terminal.NewControlFor(cmd.OutOrStdout()))
		},
	}
}

func monitor(ctx context.Context, m *hotkeys.Manager, out *terminal.Control) error {
	out.HideCursor()
	defer out.ShowCursor()

	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	var last string
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if !m.Running() {
			return errors.New("input devices went away")
		}

		lines := monitorLines(m.Snapshot(), m.Devices())
		if joined := strings.Join(lines, "\n"); joined != last {
			out.UpdateInPlace(lines)
			last = joined
		}
	}
}

func monitorLines(state hotkeys.State, devices []hotkeys.DeviceStatus) []string {
	show := func(s keys.Set) string {
		if s.Len() == 0 {
			return dimStyle.Render("-")
		}
		return keys.FormatSet(s)
	}
	active := dimStyle.Render("-")
	if len(state.Active) > 0 {
		active = okStyle.Render(strings.Join(state.Active, ", "))
	}

	return []string{
		titleStyle.Render(fmt.Sprintf("Watching %d device(s), Ctrl+C to quit", len(devices))),
		"Pressed:    " + show(state.Pressed),
		"Suppressed: " + show(state.Suppressed),
		"Active:     " + active,
	}
}

func newStatsCmd() *cobra.Command {
	var reset bool
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show shortcut usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.MetricsDir()
			if err != nil {
				return err
			}
			mm, err := metrics.NewMetricsManager(dir)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if reset {
				if err := mm.ClearAllMetrics(); err != nil {
					return fmt.Errorf("clearing metrics: %w", err)
				}
				fmt.Fprintln(w, "🗑️  All usage statistics have been cleared")
				return nil
			}

			total, err := mm.GetTotalMetrics()
			if err != nil {
				return err
			}
			formatter := metrics.NewStatsFormatter()
			fmt.Fprintln(w, formatter.FormatTotalStats(total))
			fmt.Fprintln(w)

			recent, err := mm.GetRecentDays(7)
			if err != nil {
				logging.L.Warn("failed to get recent metrics", "err", err)
			}
			if len(recent) > 0 {
				fmt.Fprintln(w, formatter.FormatWeeklyStats(recent))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&reset, "reset", false, "clear all usage statistics")
	return cmd
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the configuration file location and effective settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				if path, err = config.Path(); err != nil {
					return err
				}
			}

			w := cmd.OutOrStdout()
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(w, "📝 Config file %s does not exist yet, run 'keygrab config init'\n", path)
			} else {
				fmt.Fprintf(w, "📁 Config file location: %s\n", path)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			printConfig(w, cfg)
			if err := cfg.Validate(); err != nil {
				fmt.Fprintln(w, errStyle.Render("Configuration problems:"))
				fmt.Fprintln(w, err)
			}
			return nil
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a starter configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := cfgFile
			if path == "" {
				var err error
				if path, err = config.Path(); err != nil {
					return err
				}
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Wrote %s\n", path)
			return nil
		},
	})
	return cmd
}

func printConfig(w io.Writer, cfg *config.Config) {
	t := newTable("SHORTCUT", "ON PRESS", "ON RELEASE")
	if cfg.PrimaryShortcut != "" {
		t.Row(cfg.PrimaryShortcut+" (primary)", cfg.SessionStart, cfg.SessionStop)
	}
	for _, s := range cfg.Shortcuts {
		t.Row(s.Shortcut, s.OnPress, s.OnRelease)
	}
	fmt.Fprintln(w, t.Render())

	target := cfg.DevicePath
	if target == "" {
		target = "all keyboards"
	}
	fmt.Fprintf(w, "Device: %s  Grab: %t  Hotplug: %t  Push-to-talk: %t  Debounce: %s\n",
		target, cfg.GrabKeys, cfg.Hotplug, cfg.PushToTalk, cfg.Debounce)
}

func newVersionCmd() *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the installed version",
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "keygrab %s\n", version.VERSION)
			if !check {
				return
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), versionCheckTimeout)
			defer cancel()
			if current, newVersion := version.CheckVersion(ctx); current {
				fmt.Fprintln(w, okStyle.Render("You are on the latest version."))
			} else {
				fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("Version %s is available.", newVersion)))
			}
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "check whether a newer version is available")
	return cmd
}
