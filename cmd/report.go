package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/skyreel/prewarm/pkg/warmcli"
)

func boost(ctx *cli.Context) error {
	url := ctx.Args().First()
	if url == "" {
		return cli.ShowCommandHelp(ctx, "boost")
	}
	if err := warmcli.NewClient(addr).ReportPlaybackStart(url); err != nil {
		return err
	}
	fmt.Printf("boosted %s\n", url)
	return nil
}

func navigate(ctx *cli.Context) error {
	loc := ctx.Args().First()
	if loc == "" {
		return cli.ShowCommandHelp(ctx, "navigate")
	}
	return warmcli.NewClient(addr).Navigate(loc)
}

func clear(*cli.Context) error {
	if err := warmcli.NewClient(addr).ClearState(); err != nil {
		return err
	}
	fmt.Println("persisted state cleared")
	return nil
}
