package main

import (
	"context"
	"encoding/json"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"clubcal/internal/capture"
	"clubcal/internal/config"
	appLog "clubcal/internal/log"
	"clubcal/internal/model"
	"clubcal/internal/roster"
	"clubcal/internal/schedule"
	"clubcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	once       bool
	snapshot   bool
}

func main() {
	appLog.Info("clubcal starting", "version", "0.1.0-dev")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}

	// CLI --listen overrides config file listen if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"window_days", conf.WindowDays,
		"refresh", conf.RefreshCron,
		"roster", conf.Roster,
		"once", flags.once,
		"snapshot", flags.snapshot,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	loader := roster.NewLoader(filepath.Join(conf.CacheDir, "roster-cache"))

	if flags.once {
		if err := runOnce(ctx, conf, loader); err != nil {
			appLog.Error("single-shot run failed", err)
			os.Exit(1)
		}
		return
	}

	server := web.NewServer(conf, loader)
	if err := server.Reload(ctx); err != nil {
		// Start anyway; the cron refresh may succeed once the roster
		// source becomes reachable.
		appLog.Error("initial roster load failed", err, "roster", conf.Roster)
	}

	c := cron.New()
	_, err = c.AddFunc(conf.RefreshCron, func() {
		refreshCtx, refreshCancel := context.WithTimeout(ctx, time.Minute)
		defer refreshCancel()

		if err := server.Reload(refreshCtx); err != nil {
			appLog.Error("roster refresh failed", err, "roster", conf.Roster)
			return
		}
		if flags.snapshot {
			runSnapshot(refreshCtx, conf)
		}
	})
	if err != nil {
		appLog.Error("invalid refresh cron spec", err, "refresh", conf.RefreshCron)
		os.Exit(1)
	}
	c.Start()
	defer c.Stop()

	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLog.Error("HTTP server failed", err)
			cancel()
		}
	}()

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLog.Error("HTTP server shutdown failed", err)
	}
	appLog.Info("clubcal exiting")
}

// runOnce loads the roster, builds the marking window once and writes it
// to stdout as JSON.
func runOnce(ctx context.Context, conf *config.Config, loader *roster.Loader) error {
	snap, err := loader.Load(ctx, conf.Roster)
	if err != nil {
		return err
	}

	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", conf.Timezone)
		loc = time.Local
	}
	today := model.DateOf(time.Now().In(loc))

	marks, err := schedule.BuildDayMarkings(snap.Clubs, today, conf.WindowDays)
	if err != nil {
		return err
	}

	out := make(map[string]model.DayMark, len(marks))
	for day, mark := range marks {
		out[day.String()] = mark
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// runSnapshot captures the calendar page into cache_dir/snapshot.png.
func runSnapshot(ctx context.Context, conf *config.Config) {
	opts := capture.SnapshotOptions{
		URL:        "http://" + conf.Listen + "/",
		OutputPath: filepath.Join(conf.CacheDir, "snapshot.png"),
	}
	if err := capture.SnapshotPNG(ctx, opts); err != nil {
		appLog.Error("calendar snapshot failed", err, "url", opts.URL)
		return
	}
	appLog.Info("calendar snapshot written", "path", opts.OutputPath)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "./clubcal.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.once, "once", false, "Load the roster, print the marking window as JSON and exit")
	flag.BoolVar(&cfg.snapshot, "snapshot", false, "Capture a PNG snapshot of the calendar page after each refresh")

	flag.Parse()

	return cfg
}
