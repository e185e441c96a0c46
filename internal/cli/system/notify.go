package system

import (
	"fmt"
	"strings"

	"github.com/julianstephens/habitlit/internal/cli"
	"github.com/julianstephens/habitlit/internal/notifier"
)

var newSender = func() notifier.Sender { return notifier.NewTraySender() }

// NotifyCmd sends a single message through the tray companion.
type NotifyCmd struct {
	Text   string `arg:"" help:"Message to show."`
	DryRun bool   `help:"Print the notification to stdout instead of sending it."`
}

func (c *NotifyCmd) Run(ctx *cli.Context) error {
	text := strings.TrimSpace(c.Text)
	if text == "" {
		return fmt.Errorf("notification text cannot be empty")
	}

	if c.DryRun {
		fmt.Println("[DryRun] " + text)
		return nil
	}

	if err := newSender().Notify(text); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	fmt.Println("✓ Notification sent")
	return nil
}
