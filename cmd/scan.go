package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/skyreel/prewarm/pkg/warmcli"
)

func scan(ctx *cli.Context) error {
	file := ctx.Args().First()
	if file == "" {
		return cli.ShowCommandHelp(ctx, "scan")
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	client := warmcli.NewClient(addr)
	res, err := client.Scan(location, string(raw))
	if err != nil {
		return err
	}
	fmt.Printf("discovered %d new video(s)\n", res.Added)
	return nil
}
