package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/skyreel/prewarm/internal/server"
	"github.com/skyreel/prewarm/pkg/logger"
	"github.com/skyreel/prewarm/pkg/warmlib"
)

func daemon(*cli.Context) error {
	lg := logger.NewStandardLogger(log.New(os.Stderr, "prewarm: ", log.LstdFlags))
	components, err := initDaemonComponents(lg, afero.NewOsFs())
	if err != nil {
		return err
	}
	defer components.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components.Scheduler.Start()
	return components.Server.Start(ctx)
}

// DaemonComponents holds the initialized daemon pieces so console mode
// and tests share one composition and teardown path.
type DaemonComponents struct {
	Witness   *warmlib.Witness
	Scheduler *warmlib.Scheduler
	Server    *server.Server
	log       logger.Logger
}

// Close releases daemon resources in reverse order of initialization.
func (c *DaemonComponents) Close() {
	c.log.Info("shutting down daemon...")
	_ = c.Server.Shutdown()
	// Scheduler.Close saves the final snapshot and closes the witness.
	if err := c.Scheduler.Close(); err != nil {
		c.log.Error("close scheduler: %v", err)
	}
	c.log.Info("daemon stopped")
	_ = c.log.Close()
}

// initDaemonComponents wires the witness, snapshot store, fetcher,
// scheduler, notifier and RPC server together from the CLI flags.
func initDaemonComponents(lg logger.Logger, fs afero.Fs) (*DaemonComponents, error) {
	stdLog := logger.ToStdLogger(lg)

	cfgDir, err := warmlib.DefaultConfigDir()
	if err != nil {
		return nil, err
	}
	if dataDir == "" {
		dataDir = cfgDir
	}
	if cacheDir == "" {
		cacheDir = filepath.Join(cfgDir, "cache")
	}
	if err := fs.MkdirAll(dataDir, 0755); err != nil {
		return nil, err
	}
	if err := fs.MkdirAll(cacheDir, 0755); err != nil {
		return nil, err
	}

	siteCfg, err := warmlib.LoadSiteConfig(fs, configPath)
	if err != nil {
		// A broken catalog degrades to zero global entries; page scans
		// still feed the queue.
		lg.Warning("site config unusable, continuing without catalog: %v", err)
		siteCfg = &warmlib.SiteConfig{}
	}

	witness, err := warmlib.NewWitness(
		filepath.Join(dataDir, "cacheinfo.db"),
		fs, cacheDir, warmlib.DefaultCacheExpiry, stdLog,
	)
	if err != nil {
		return nil, err
	}

	store := warmlib.NewSnapshotStore(fs, filepath.Join(dataDir, "session.snapshot"), stdLog, nil)
	fetcher := warmlib.NewHTTPFetcher(nil, fs, cacheDir)
	notifier := server.NewRPCNotifier(stdLog)

	sched := warmlib.NewScheduler(siteCfg, fetcher, witness, store, stdLog, warmlib.SchedulerOpts{
		MaxConcurrent:  maxConcurrent,
		FetchTimeout:   fetchTimeout,
		Aggressive:     aggressive,
		Verbose:        !quiet,
		StatusInterval: statusInterval,
		Handlers:       notifier.Handlers(),
	})

	rpc := server.NewRPCServer(&server.RPCConfig{
		Version:   currentBuildArgs.Version,
		Commit:    currentBuildArgs.Commit,
		BuildType: currentBuildArgs.BuildType,
	}, sched)

	return &DaemonComponents{
		Witness:   witness,
		Scheduler: sched,
		Server:    server.NewServer(stdLog, rpc, notifier, port),
		log:       lg,
	}, nil
}
