package cmd

import (
	"fmt"

	"github.com/urfave/cli"
)

// BuildArgs carries build-time metadata injected by the linker.
type BuildArgs struct {
	Version   string
	Commit    string
	Date      string
	BuildType string
}

var currentBuildArgs BuildArgs

// Execute runs the prewarm CLI.
func Execute(args []string, build BuildArgs) error {
	currentBuildArgs = build
	app := cli.App{
		Name:         "Prewarm",
		HelpName:     "prewarm",
		Usage:        "Background video cache warmer for the SkyReel site.",
		Version:      fmt.Sprintf("%s-%s", build.Version, build.BuildType),
		UsageText:    "prewarm <command> [arguments...]",
		Description:  appDescription,
		OnUsageError: usageErrorCallback,
		Commands: []cli.Command{
			{
				Name:        "daemon",
				Usage:       "run the prewarm daemon",
				Description: daemonDescription,
				Action:      daemon,
				Flags:       daemonFlags,
			},
			{
				Name:    "status",
				Aliases: []string{"s"},
				Usage:   "show aggregate warm-cache progress",
				Action:  status,
				Flags:   statusFlags,
			},
			{
				Name:    "dump",
				Aliases: []string{"d"},
				Usage:   "list the queue in scheduling order",
				Action:  dump,
				Flags:   addrFlags,
			},
			{
				Name:      "scan",
				Usage:     "feed an HTML document to the daemon for discovery",
				ArgsUsage: "<file>",
				Action:    scan,
				Flags:     scanFlags,
			},
			{
				Name:      "boost",
				Usage:     "report playback start for a URL (max priority)",
				ArgsUsage: "<url>",
				Action:    boost,
				Flags:     addrFlags,
			},
			{
				Name:      "navigate",
				Usage:     "report a page navigation to the daemon",
				ArgsUsage: "<location>",
				Action:    navigate,
				Flags:     addrFlags,
			},
			{
				Name:    "clear",
				Aliases: []string{"c"},
				Usage:   "drop persisted queue and cache state",
				Action:  clear,
				Flags:   addrFlags,
			},
			{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "print the installed version",
				Action:  getVersion,
			},
		},
		Action:                 status,
		Flags:                  statusFlags,
		UseShortOptionHandling: true,
		HideHelp:               true,
		HideVersion:            true,
	}
	return app.Run(args)
}

func usageErrorCallback(ctx *cli.Context, err error, _ bool) error {
	fmt.Printf("prewarm: %s\n", err.Error())
	fmt.Printf("Try 'prewarm help %s' for more information.\n", ctx.Command.Name)
	return nil
}

func getVersion(*cli.Context) error {
	fmt.Printf("prewarm %s-%s (%s)\n",
		currentBuildArgs.Version, currentBuildArgs.BuildType, currentBuildArgs.Commit)
	return nil
}
