// Command shortforged is the long-running daemon: it schedules daily runs
// for every configured client and receives render provider webhooks.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gofrs/flock"

	"shortforge/internal/clients"
	"shortforge/internal/config"
	"shortforge/internal/jobs"
	"shortforge/internal/logging"
	"shortforge/internal/pipeline"
	"shortforge/internal/preflight"
	"shortforge/internal/providers"
	"shortforge/internal/quota"
	"shortforge/internal/scheduler"
	"shortforge/internal/webhooks"
)

func main() {
	configPath := flag.String("config", "", "Configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("ensure directories: %v", err)
	}
	if err := clients.EnsureFile(cfg.Paths.ClientsFile); err != nil {
		log.Fatalf("ensure clients file: %v", err)
	}

	logger, err := logging.NewForDataDir(cfg.Logging.Level, cfg.Logging.Format, cfg.Paths.LogDir)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	// Only one daemon may own the data directory.
	lock := flock.New(daemonLockPath(cfg))
	locked, err := lock.TryLock()
	if err != nil {
		logger.Error("acquire daemon lock", logging.Error(err))
		os.Exit(1)
	}
	if !locked {
		logger.Error("another shortforged instance already owns this data directory")
		os.Exit(1)
	}
	defer lock.Unlock() //nolint:errcheck

	results := preflight.RunAll(ctx, cfg)
	for _, result := range results {
		if !result.Passed {
			logger.Error("preflight check failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail))
		}
	}
	if preflight.Failed(results) {
		logger.Error("refusing to start with failed preflight checks")
		os.Exit(1)
	}

	profiles, err := clients.Load(cfg.Paths.ClientsFile)
	if err != nil {
		logger.Error("load clients", logging.Error(err))
		os.Exit(1)
	}

	jobStore, err := jobs.Open(filepath.Join(cfg.Paths.DataDir, "jobs.db"))
	if err != nil {
		logger.Error("open jobs store", logging.Error(err))
		os.Exit(1)
	}
	defer jobStore.Close()

	quotaStore, err := quota.Open(filepath.Join(cfg.Paths.DataDir, "quota.db"))
	if err != nil {
		logger.Error("open quota store", logging.Error(err))
		os.Exit(1)
	}
	defer quotaStore.Close()

	factory := providers.NewFactory(cfg, jobStore)
	runner := pipeline.NewRunner(cfg, factory, jobStore, quotaStore, nil, logger)

	sched, err := scheduler.New(cfg, profiles, runner.RunOnce, logger)
	if err != nil {
		logger.Error("build scheduler", logging.Error(err))
		os.Exit(1)
	}
	sched.Start()
	defer sched.Stop()

	receiver := webhooks.NewReceiver(cfg, jobStore, logger)
	if err := receiver.Start(ctx); err != nil {
		logger.Error("start webhook server", logging.Error(err))
		os.Exit(1)
	}
	defer receiver.Stop()

	logger.Info("shortforged started",
		logging.Int("clients", len(profiles)),
		logging.Bool("stub_providers", cfg.Stub.Enabled))

	<-ctx.Done()
	logger.Info("shortforged shutting down")
}
