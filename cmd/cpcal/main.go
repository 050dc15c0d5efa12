package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"cpcal/internal/config"
	"cpcal/internal/contest"
	"cpcal/internal/i18n"
	"cpcal/internal/ics"
	appLog "cpcal/internal/log"
	"cpcal/internal/metrics"
	"cpcal/internal/web"
)

const version = "0.1.0"

var (
	configPath string
	debug      bool
	listenAddr string
)

var rootCmd = &cobra.Command{
	Use:           "cpcal",
	Short:         "Programming contest calendar",
	Long:          "cpcal collects Codeforces, AtCoder and NowCoder contests from ICS/JSON feeds and lays them out as a month calendar.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug {
			appLog.SetLevel(appLog.LevelDebug)
		}
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the calendar API and month page",
	Long:  "Start the HTTP server and the cron-driven feed refresher.",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "/etc/cpcal/config.yaml", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	serveCmd.Flags().StringVar(&listenAddr, "listen", "", "HTTP listen address (overrides config if set)")

	rootCmd.AddCommand(serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies its log level unless
// --debug already forced one.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if cfg == nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		// First run without write access still yields usable defaults.
		appLog.Error("failed to write default config", err, "path", configPath)
	}
	if !debug {
		appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	}
	return cfg, nil
}

// newService builds the contest service for cfg with the given sources.
func newService(cfg *config.Config, sources []ics.Source, m *metrics.Metrics) *contest.Service {
	loc, err := cfg.Location()
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", cfg.Timezone)
	}
	return contest.NewService(contest.Options{
		Sources:      sources,
		Fetcher:      ics.NewFetcher(cfg.CacheDir),
		Location:     loc,
		Metrics:      m,
		HorizonDays:  cfg.HorizonDays,
		BackfillDays: cfg.BackfillDays,
	})
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}

	appLog.Info("cpcal starting", "version", version)
	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"week_start", cfg.WeekStart,
		"refresh", cfg.RefreshCron,
		"horizon_days", cfg.HorizonDays,
		"backfill_days", cfg.BackfillDays,
		"feed_count", len(cfg.Feeds),
	)

	sources, err := contest.SourcesFromConfig(cfg.Feeds)
	if err != nil {
		return err
	}
	bundle, err := i18n.Load()
	if err != nil {
		return fmt.Errorf("load locales: %w", err)
	}
	m := metrics.New()
	svc := newService(cfg, sources, m)

	ctx, stop := signal.NotifyContext(rootContext(cmd), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var refresherDone <-chan struct{}
	if len(sources) > 0 {
		refresherDone, err = svc.StartRefresher(ctx, cfg.RefreshCron)
		if err != nil {
			return err
		}
	} else {
		appLog.Info("no feeds configured; calendar stays empty")
	}

	srv := web.NewServer(cfg, svc, bundle, m)
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("http server: %w", err)
	}

	stop()
	if refresherDone != nil {
		<-refresherDone
	}
	appLog.Info("cpcal exiting")
	return nil
}

func rootContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
