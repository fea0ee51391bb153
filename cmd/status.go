package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/skyreel/prewarm/pkg/warmcli"
)

func status(*cli.Context) error {
	client := warmcli.NewClient(addr)
	st, err := client.Status()
	if err != nil {
		return err
	}
	if !watchMode {
		fmt.Printf("total:     %d\n", st.Total)
		fmt.Printf("completed: %d\n", st.Completed)
		fmt.Printf("in flight: %d\n", st.InFlight)
		fmt.Printf("pending:   %d\n", st.Pending)
		fmt.Printf("failed:    %d\n", st.Failed)
		fmt.Printf("progress:  %.1f%%\n", st.PercentComplete)
		return nil
	}
	return watchStatus(client, os.Stdout)
}

// watchStatus renders a live progress bar over the daemon's aggregate
// percent, driven by push notifications with a polling fallback. The
// bar finishes at 100% once nothing is pending or in flight; it only
// renders as aborted on an interrupt.
func watchStatus(client *warmcli.Client, out io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	p := mpb.NewWithContext(ctx, mpb.WithOutput(out), mpb.WithWidth(64), mpb.WithRefreshRate(180*time.Millisecond), mpb.WithAutoRefresh())
	bar := p.AddBar(100,
		mpb.PrependDecorators(decor.Name("warming ")),
		mpb.AppendDecorators(decor.Percentage()),
	)

	refresh := func() bool {
		st, err := client.Status()
		if err != nil {
			return false
		}
		bar.SetCurrent(int64(st.PercentComplete))
		return st.Total > 0 && st.Pending == 0 && st.InFlight == 0
	}

	done := make(chan struct{})
	var finishOnce sync.Once
	finish := func() { finishOnce.Do(func() { close(done) }) }

	go func() {
		// Push notifications wake the refresh early; the ticker below
		// still covers a dropped stream.
		_ = warmcli.Watch(ctx, addr, func(string, json.RawMessage) {
			if refresh() {
				finish()
			}
		})
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			bar.SetCurrent(100)
			p.Wait()
			return nil
		case <-ctx.Done():
			bar.Abort(false)
			p.Wait()
			return nil
		case <-ticker.C:
			if refresh() {
				bar.SetCurrent(100)
				p.Wait()
				return nil
			}
		}
	}
}
