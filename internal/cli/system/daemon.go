package system

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/notifier"
)

type DaemonCmd struct {
	Once bool `help:"Sync once, print the registered reminders and exit."`
}

func (c *DaemonCmd) Run(ctx *cli.Context) error {
	loc, err := ctx.Location()
	if err != nil {
		return err
	}

	opts := []notifier.DaemonOption{notifier.WithDaemonLocation(loc)}
	if ctx.Config != nil {
		opts = append(opts, notifier.WithSyncInterval(ctx.Config.Daemon.SyncInterval))
	}
	if ctx.Clock != nil {
		opts = append(opts, notifier.WithDaemonClock(ctx.Clock))
	}
	d := notifier.NewDaemon(ctx.Store, newSender(), opts...)

	if c.Once {
		if err := d.Sync(); err != nil {
			return err
		}
		pending, err := ctx.Store.GetScheduledNotifications()
		if err != nil {
			return err
		}
		fmt.Printf("%d reminder(s) registered\n", len(pending))
		return nil
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Reminder daemon running. Press Ctrl+C to stop.")
	return d.Run(sigCtx)
}
