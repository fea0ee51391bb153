package cmd

import (
	"time"

	"github.com/urfave/cli"
)

// DefaultPort is the daemon's default RPC port.
const DefaultPort = 7929

const appDescription = `Prewarm keeps the SkyReel site's promotional videos hot in a local
cache. It maintains a priority queue fed by page scans and the site
catalog, downloads in the background with bounded concurrency, and
remembers completed downloads across restarts.`

const daemonDescription = `Starts the prewarm daemon: restores the session queue snapshot if it
is fresh, seeds the queue from the site catalog, and serves JSON-RPC
on localhost for page scripts and this CLI.`

var (
	configPath     string
	dataDir        string
	cacheDir       string
	port           int
	maxConcurrent  int
	fetchTimeout   time.Duration
	aggressive     bool
	quiet          bool
	statusInterval time.Duration

	addr      string
	watchMode bool
	location  string
)

var daemonFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "config, c",
		Usage:       "path to the site video config (.js or .json)",
		EnvVar:      "PREWARM_SITE_CONFIG",
		Destination: &configPath,
	},
	cli.StringFlag{
		Name:        "data-dir",
		Usage:       "directory for the snapshot and cache-info database",
		EnvVar:      "PREWARM_DATA_DIR",
		Destination: &dataDir,
	},
	cli.StringFlag{
		Name:        "cache-dir",
		Usage:       "directory warmed video files are written to",
		EnvVar:      "PREWARM_CACHE_DIR",
		Destination: &cacheDir,
	},
	cli.IntFlag{
		Name:        "port, p",
		Usage:       "RPC port to listen on",
		EnvVar:      "PREWARM_PORT",
		Value:       DefaultPort,
		Destination: &port,
	},
	cli.IntFlag{
		Name:        "max-concurrent, x",
		Usage:       "maximum concurrent background fetches",
		EnvVar:      "PREWARM_MAX_CONCURRENT",
		Destination: &maxConcurrent,
	},
	cli.DurationFlag{
		Name:        "timeout",
		Usage:       "hard per-fetch deadline",
		Destination: &fetchTimeout,
	},
	cli.BoolTFlag{
		Name:        "aggressive, a",
		Usage:       "fill every free slot per scheduling pass (pass =false for one launch per pass)",
		Destination: &aggressive,
	},
	cli.BoolFlag{
		Name:        "quiet, q",
		Usage:       "suppress per-event logging",
		Destination: &quiet,
	},
	cli.DurationFlag{
		Name:        "status-interval",
		Usage:       "periodic status log interval (0 disables)",
		Value:       30 * time.Second,
		Destination: &statusInterval,
	},
}

var addrFlags = []cli.Flag{
	cli.StringFlag{
		Name:        "addr",
		Usage:       "daemon address",
		EnvVar:      "PREWARM_ADDR",
		Value:       "127.0.0.1:7929",
		Destination: &addr,
	},
}

var statusFlags = append([]cli.Flag{
	cli.BoolFlag{
		Name:        "watch, w",
		Usage:       "render live progress until warming completes",
		Destination: &watchMode,
	},
}, addrFlags...)

var scanFlags = append([]cli.Flag{
	cli.StringFlag{
		Name:        "location, l",
		Usage:       "document location the file was rendered at",
		Destination: &location,
	},
}, addrFlags...)
