package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/sleeponlan/internal/adapters/host"
	logAdapter "github.com/bft-labs/sleeponlan/internal/adapters/log"
	"github.com/bft-labs/sleeponlan/internal/app"
	"github.com/bft-labs/sleeponlan/internal/cliconfig"
	"github.com/bft-labs/sleeponlan/internal/configstore"
	"github.com/bft-labs/sleeponlan/internal/ports"
	"github.com/bft-labs/sleeponlan/internal/tray"
	"github.com/bft-labs/sleeponlan/internal/watch"
)

const longHelp = `Sleep-on-LAN: power this machine off when a magic packet arrives.

The agent listens on UDP 0.0.0.0:<port>, where the port is read from a
PORT=<integer> file (created as PORT=9 when missing). The first datagram that
starts with 0xFF and has a nonzero sixth byte powers the host off; the agent
then exits. The tray's Exit command stops the agent, not the machine.`

var exampleUsage = strings.TrimSpace(`
  sleeponlan
  sleeponlan --headless --port-file /etc/sleeponlan/config.cfg
  sleeponlan --dry-run --log-level debug --dump
  sleeponlan send --host 192.168.1.20 --port 9`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// reportedError has already been logged by the agent's own logger.
type reportedError struct {
	err     error
	logFile string
}

func (e *reportedError) Error() string {
	if e.logFile == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%v (details in %s)", e.err, e.logFile)
}

func (e *reportedError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		var reported *reportedError
		if !errors.As(err, &reported) {
			log := cliconfig.Logger()
			log.Error().Err(err).Msg("sleeponlan")
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	root := &cobra.Command{
		Use:           "sleeponlan",
		Short:         "Power this machine off when a magic packet arrives",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment (SLEEPONLAN_*) overrides the file, flags override both.
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return fmt.Errorf("load env: %w", err)
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			return runAgent(cfg)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to settings file (default: $HOME/.sleeponlan/config.toml)")
	root.Flags().StringVar(&cfg.PortFile, "port-file", cfg.PortFile, "path to the PORT=<n> file (default: config.cfg next to the executable)")
	root.Flags().DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "receive timeout between stop checks")
	root.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "how long to wait for the listener on exit")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (trace, debug, info, warn, error)")
	root.Flags().StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "also append JSON logs to this file")
	root.Flags().StringVar(&cfg.ShutdownCommand, "shutdown-command", cfg.ShutdownCommand, "command that powers the host off (default: OS specific)")
	root.Flags().BoolVar(&cfg.Headless, "headless", cfg.Headless, "run without a tray icon")
	root.Flags().BoolVar(&cfg.DryRun, "dry-run", cfg.DryRun, "log instead of powering off")
	root.Flags().BoolVar(&cfg.Dump, "dump", cfg.Dump, "dump every received datagram (debug)")
	root.Flags().BoolVar(&cfg.Watch, "watch", cfg.Watch, "warn when the port file changes while running")

	root.AddCommand(newSendCmd())
	return root
}

func runAgent(cfg cliconfig.Config) error {
	zl, closer, err := cliconfig.NewLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		return err
	}
	defer closer.Close()

	zl.Info().Interface("config", cfg).Msg("configuration")
	logger := logAdapter.NewZerologAdapterWithLogger(zl)

	var action ports.HostAction
	shutdowner := host.NewCommandShutdowner(host.ParseCommand(cfg.ShutdownCommand), logger.With("host"))
	if cfg.DryRun {
		action = host.NewDryRun(shutdowner.Command(), logger.With("host"))
	} else {
		action = shutdowner
	}

	var indicator ports.Indicator
	if cfg.Headless {
		indicator = tray.NewHeadless(logger.With("tray"))
	} else {
		indicator = tray.NewSystray("Sleep-on-LAN")
	}
	controller := tray.NewController(indicator, logger.With("tray"))

	store := configstore.New(cfg.PortFile)

	opts := []app.Option{
		app.WithPollInterval(cfg.PollInterval),
		app.WithShutdownTimeout(cfg.ShutdownTimeout),
		app.WithDump(cfg.Dump),
	}
	if cfg.Watch {
		opts = append(opts, app.WithWatcher(watch.New(store.Path(), store, logger.With("watch"))))
	}

	sup := app.NewSupervisor(store, action, controller, logger.With("supervisor"), opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := signalChannel()
	go func() {
		select {
		case sig := <-sigCh:
			zl.Info().Str("signal", sig.String()).Msg("received signal, stopping...")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := sup.Run(ctx); err != nil {
		// Goes to the console and, when configured, the log file, so an
		// operator without a console can still find it.
		ev := zl.Error().Err(err).Str("port_file", cfg.PortFile)
		if cfg.LogFile != "" {
			ev = ev.Str("log_file", cfg.LogFile)
		}
		ev.Msg("agent stopped with error")
		return &reportedError{err: err, logFile: cfg.LogFile}
	}
	zl.Info().Msg("agent stopped")
	return nil
}
