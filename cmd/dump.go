package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli"

	"github.com/skyreel/prewarm/pkg/warmcli"
)

func dump(*cli.Context) error {
	client := warmcli.NewClient(addr)
	res, err := client.Dump()
	if err != nil {
		return err
	}
	if len(res.Entries) == 0 {
		fmt.Println("queue is empty")
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PRIORITY\tSTATE\tORIGIN\tPROGRESS\tURL")
	for _, e := range res.Entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%.0f%%\t%s\n",
			e.Priority, e.State, e.Origin, e.Progress*100, e.URL)
	}
	return w.Flush()
}
